package sim

import (
	"testing"

	"github.com/stretchr/testify/require"

	"rvdp/log"
)

/* ----------------- helpers to encode RV32I instructions ----------------- */

// R-type
func encR(op, rd, f3, rs1, rs2, f7 uint32) uint32 {
	return (f7 << 25) | (rs2 << 20) | (rs1 << 15) | (f3 << 12) | (rd << 7) | op
}

// I-type (imm is 12-bit signed)
func encI(op, rd, f3, rs1 uint32, imm int32) uint32 {
	u := uint32(imm) & 0xFFF
	return (u << 20) | (rs1 << 15) | (f3 << 12) | (rd << 7) | op
}

// S-type (imm is 12-bit signed)
func encS(op, f3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm) & 0xFFF
	immhi := (u >> 5) & 0x7F
	immlo := u & 0x1F
	return (immhi << 25) | (rs2 << 20) | (rs1 << 15) | (f3 << 12) | (immlo << 7) | op
}

// B-type (imm is 13-bit signed, multiples of 2)
func encB(op, f3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm)
	b12 := (u >> 12) & 0x1
	b10_5 := (u >> 5) & 0x3F
	b4_1 := (u >> 1) & 0xF
	b11 := (u >> 11) & 0x1
	return (b12 << 31) | (b10_5 << 25) | (rs2 << 20) | (rs1 << 15) |
		(f3 << 12) | (b4_1 << 8) | (b11 << 7) | op
}

// J-type (imm is 21-bit signed, multiples of 2)
func encJ(op, rd uint32, imm int32) uint32 {
	u := uint32(imm)
	b20 := (u >> 20) & 0x1
	b10_1 := (u >> 1) & 0x3FF
	b11 := (u >> 11) & 0x1
	b19_12 := (u >> 12) & 0xFF
	return (b20 << 31) | (b10_1 << 21) | (b11 << 20) | (b19_12 << 12) | (rd << 7) | op
}

func add(rd, rs1, rs2 uint32) uint32 { return encR(OpR, rd, 0, rs1, rs2, 0) }
func sub(rd, rs1, rs2 uint32) uint32 { return encR(OpR, rd, 0, rs1, rs2, 0x20) }
func and(rd, rs1, rs2 uint32) uint32 { return encR(OpR, rd, 7, rs1, rs2, 0) }
func or(rd, rs1, rs2 uint32) uint32  { return encR(OpR, rd, 6, rs1, rs2, 0) }

func addi(rd, rs1 uint32, imm int32) uint32 { return encI(OpImm, rd, 0, rs1, imm) }
func andi(rd, rs1 uint32, imm int32) uint32 { return encI(OpImm, rd, 7, rs1, imm) }
func ori(rd, rs1 uint32, imm int32) uint32  { return encI(OpImm, rd, 6, rs1, imm) }

func lw(rd, rs1 uint32, imm int32) uint32  { return encI(OpLoad, rd, 2, rs1, imm) }
func sw(rs2, rs1 uint32, imm int32) uint32 { return encS(OpStore, 2, rs1, rs2, imm) }

func beq(rs1, rs2 uint32, imm int32) uint32 { return encB(OpBranch, 0, rs1, rs2, imm) }
func jal(rd uint32, imm int32) uint32        { return encJ(OpJAL, rd, imm) }
func jalr(rd, rs1 uint32, imm int32) uint32  { return encI(OpJALR, rd, 0, rs1, imm) }

// newMachine builds a quiet datapath loaded with program.
func newMachine(t *testing.T, cfg Config, program ...uint32) *Datapath {
	t.Helper()
	dp := New(cfg, WithLogger(log.Discard()))
	dp.Load(program)
	return dp
}

func mustStep(t *testing.T, dp *Datapath) StepOutcome {
	t.Helper()
	out := dp.Step()
	require.Equal(t, StepExecuted, out.Status, "step at pc=0x%x: %v", dp.PC(), out.Err())
	return out
}
