package sim

import "fmt"

// ALUOperation is the 4-bit ALU control code.
type ALUOperation uint8

const (
	ALUAnd ALUOperation = 0b0000
	ALUOr  ALUOperation = 0b0001
	ALUAdd ALUOperation = 0b0010
	ALUSub ALUOperation = 0b0110
)

func (o ALUOperation) String() string {
	switch o {
	case ALUAnd:
		return "and"
	case ALUOr:
		return "or"
	case ALUAdd:
		return "add"
	case ALUSub:
		return "sub"
	}
	return fmt.Sprintf("alu(%04b)", uint8(o))
}

// ALUControl resolves the concrete ALU operation. For the arithmetic class,
// funct3 0 means sub only when funct7 is 0x20 and the second operand comes
// from a register; addi shares funct3 0 and may carry any upper immediate
// bits. Combinations it does not recognise resolve to ALUAdd with ok false.
func ALUControl(class ALUOpClass, funct3, funct7 uint32, aluSrc bool) (op ALUOperation, ok bool) {
	switch class {
	case ALUOpAddress:
		return ALUAdd, true
	case ALUOpCompare:
		return ALUSub, true
	case ALUOpArith:
		switch funct3 {
		case 0x0:
			if funct7 == 0x20 && !aluSrc {
				return ALUSub, true
			}
			return ALUAdd, true
		case 0x7:
			return ALUAnd, true
		case 0x6:
			return ALUOr, true
		}
	}
	return ALUAdd, false
}

// Apply computes a op b with 32-bit wrap-around.
func (o ALUOperation) Apply(a, b int32) int32 {
	switch o {
	case ALUAnd:
		return a & b
	case ALUOr:
		return a | b
	case ALUSub:
		return int32(uint32(a) - uint32(b))
	default:
		return int32(uint32(a) + uint32(b))
	}
}
