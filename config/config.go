// Package config loads machine configuration and initial state seeds from
// YAML files.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v2"

	"rvdp/log"
	"rvdp/sim"
)

// MaxMemoryWords bounds the configurable data memory.
const MaxMemoryWords = 1 << 20

// Configuration errors.
var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrInvalidConfig      = errors.New("invalid configuration")
)

// LogConfig selects log verbosity and output format.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the machine configuration together with register and memory
// seeds. Register keys are "xN" or ABI names; memory keys are word-aligned
// byte addresses. Seed values may be given signed or unsigned but must fit
// in 32 bits.
type Config struct {
	MemoryWords int              `yaml:"memory_words"`
	MaxCycles   uint64           `yaml:"max_cycles"`
	StrictALU   bool             `yaml:"strict_alu"`
	Log         LogConfig        `yaml:"log"`
	Registers   map[string]int64 `yaml:"registers"`
	Memory      map[int64]int64  `yaml:"memory"`

	// File is the path the configuration was read from, if any.
	File string `yaml:"-"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		MemoryWords: sim.DefaultMemoryWords,
		Log:         LogConfig{Level: "info", Format: log.FormatAuto},
	}
}

// Load reads and validates the YAML file at path. An empty path yields
// Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.File = path
	return cfg, nil
}

// Parse decodes YAML data, applies defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	MergeDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MergeDefaults fills zero-valued fields from Default().
func MergeDefaults(cfg *Config) {
	def := Default()
	if cfg.MemoryWords == 0 {
		cfg.MemoryWords = def.MemoryWords
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Log.Format
	}
}

// Validate checks sizes, log settings and every seed.
func (c *Config) Validate() error {
	if c.MemoryWords <= 0 || c.MemoryWords > MaxMemoryWords {
		return fmt.Errorf("%w: memory_words %d outside 1..%d", ErrInvalidConfig, c.MemoryWords, MaxMemoryWords)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if !log.ValidFormat(c.Log.Format) {
		return fmt.Errorf("%w: log format %q", ErrInvalidConfig, c.Log.Format)
	}
	_, _, err := c.Seeds()
	return err
}

// SimConfig returns the datapath configuration.
func (c *Config) SimConfig() sim.Config {
	return sim.Config{MemoryWords: c.MemoryWords, StrictALU: c.StrictALU}
}

// Seeds expands the register and memory maps into the slices taken by
// sim.Datapath.Reset.
func (c *Config) Seeds() (regs []int32, mem []int32, err error) {
	regs = make([]int32, sim.NumRegisters)
	for name, v := range c.Registers {
		idx, ok := sim.RegisterIndex(name)
		if !ok {
			return nil, nil, fmt.Errorf("%w: unknown register %q", ErrInvalidConfig, name)
		}
		if idx == 0 {
			return nil, nil, fmt.Errorf("%w: register %q is hard-wired to zero", ErrInvalidConfig, name)
		}
		w, err := word(v)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: register %s: %v", ErrInvalidConfig, name, err)
		}
		regs[idx] = w
	}

	mem = make([]int32, c.MemoryWords)
	for addr, v := range c.Memory {
		if addr%4 != 0 {
			return nil, nil, fmt.Errorf("%w: memory address 0x%x is not word-aligned", ErrInvalidConfig, addr)
		}
		if addr < 0 || addr/4 >= int64(c.MemoryWords) {
			return nil, nil, fmt.Errorf("%w: memory address 0x%x outside %d words", ErrInvalidConfig, addr, c.MemoryWords)
		}
		w, err := word(v)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: memory 0x%x: %v", ErrInvalidConfig, addr, err)
		}
		mem[addr/4] = w
	}
	return regs, mem, nil
}

func word(v int64) (int32, error) {
	if v < math.MinInt32 || v > math.MaxUint32 {
		return 0, fmt.Errorf("value %d does not fit in 32 bits", v)
	}
	return int32(uint32(v)), nil
}
