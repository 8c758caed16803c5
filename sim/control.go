package sim

import "fmt"

// ALUOpClass is the two-bit ALUOp signal handed from the control unit to
// ALU control.
type ALUOpClass uint8

const (
	ALUOpAddress ALUOpClass = 0b00 // lw, sw, jalr address arithmetic
	ALUOpCompare ALUOpClass = 0b01 // beq
	ALUOpArith   ALUOpClass = 0b10 // R-type and I-type arithmetic
)

func (c ALUOpClass) String() string {
	switch c {
	case ALUOpAddress:
		return "address"
	case ALUOpCompare:
		return "compare"
	case ALUOpArith:
		return "arith"
	}
	return fmt.Sprintf("aluop(%02b)", uint8(c))
}

// Control is the control signal vector for one instruction. It is a value:
// each cycle gets a fresh one from ControlUnit.
type Control struct {
	RegWrite bool
	MemRead  bool
	MemWrite bool
	MemToReg bool
	ALUSrc   bool // second ALU operand is the immediate
	Branch   bool
	Jump     bool
	ALUOp    ALUOpClass
}

func (c Control) String() string {
	return fmt.Sprintf("RegWrite=%d MemRead=%d MemWrite=%d MemToReg=%d ALUSrc=%d Branch=%d Jump=%d ALUOp=%02b",
		b2i(c.RegWrite), b2i(c.MemRead), b2i(c.MemWrite), b2i(c.MemToReg),
		b2i(c.ALUSrc), b2i(c.Branch), b2i(c.Jump), uint8(c.ALUOp))
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ControlUnit derives the control signals for opcode. The second result is
// false for opcodes outside the supported subset, in which case every
// signal is disabled.
func ControlUnit(opcode uint32) (Control, bool) {
	var c Control
	switch opcode {
	case OpR:
		c.RegWrite = true
		c.ALUOp = ALUOpArith
	case OpImm:
		c.RegWrite = true
		c.ALUSrc = true
		c.ALUOp = ALUOpArith
	case OpLoad:
		c.RegWrite = true
		c.ALUSrc = true
		c.MemRead = true
		c.MemToReg = true
		c.ALUOp = ALUOpAddress
	case OpStore:
		c.ALUSrc = true
		c.MemWrite = true
		c.ALUOp = ALUOpAddress
	case OpBranch:
		c.Branch = true
		c.ALUOp = ALUOpCompare
	case OpJAL:
		c.RegWrite = true
		c.Jump = true
	case OpJALR:
		c.RegWrite = true
		c.Jump = true
		c.ALUSrc = true
		c.ALUOp = ALUOpAddress
	default:
		return Control{}, false
	}
	return c, true
}
