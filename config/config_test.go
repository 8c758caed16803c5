package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rvdp/sim"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, sim.DefaultMemoryWords, cfg.MemoryWords)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.StrictALU)

	regs, mem, err := cfg.Seeds()
	require.NoError(t, err)
	assert.Len(t, regs, sim.NumRegisters)
	assert.Len(t, mem, sim.DefaultMemoryWords)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "machine.yaml")
	content := `memory_words: 64
max_cycles: 500
strict_alu: true
log:
  level: debug
  format: text
registers:
  x1: 0x20
  sp: -8
  s0: 0xffffffff
memory:
  0x70: 5
  0xfc: 0x10
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.File)
	assert.Equal(t, 64, cfg.MemoryWords)
	assert.Equal(t, uint64(500), cfg.MaxCycles)
	assert.Equal(t, sim.Config{MemoryWords: 64, StrictALU: true}, cfg.SimConfig())

	regs, mem, err := cfg.Seeds()
	require.NoError(t, err)
	assert.Equal(t, int32(0x20), regs[1])
	assert.Equal(t, int32(-8), regs[2])
	assert.Equal(t, int32(-1), regs[8])
	assert.Equal(t, int32(5), mem[0x70/4])
	assert.Equal(t, int32(0x10), mem[63])
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.True(t, errors.Is(err, ErrConfigFileNotFound), err)
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown key", "memroy_words: 4\n"},
		{"negative memory", "memory_words: -1\n"},
		{"huge memory", "memory_words: 2000000\n"},
		{"bad level", "log: {level: loud}\n"},
		{"bad format", "log: {format: xml}\n"},
		{"unknown register", "registers: {x32: 1}\n"},
		{"zero register", "registers: {zero: 1}\n"},
		{"register overflow", "registers: {x1: 0x100000000}\n"},
		{"misaligned address", "memory: {0x71: 1}\n"},
		{"address out of range", "memory: {0x80: 1}\n"},
		{"negative address", "memory: {-4: 1}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.True(t, errors.Is(err, ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestSeedsDriveDatapath(t *testing.T) {
	cfg, err := Parse([]byte("registers: {a0: 5}\nmemory: {0x20: 9}\n"))
	require.NoError(t, err)
	regs, mem, err := cfg.Seeds()
	require.NoError(t, err)

	dp := sim.New(cfg.SimConfig())
	require.NoError(t, dp.Reset(regs, mem))
	assert.Equal(t, int32(5), dp.Register(10))
	assert.Equal(t, int32(9), dp.Snapshot().Memory[8])
}
