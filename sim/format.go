package sim

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

var abiNames = [NumRegisters]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0/fp", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// RegisterName returns the ABI name of register i.
func RegisterName(i uint32) string {
	if i >= NumRegisters {
		return fmt.Sprintf("x%d", i)
	}
	return abiNames[i]
}

// RegisterIndex resolves "x5", "t0" or "fp" to a register index.
func RegisterIndex(name string) (uint32, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if rest, ok := strings.CutPrefix(name, "x"); ok {
		if n, err := strconv.ParseUint(rest, 10, 8); err == nil && n < NumRegisters {
			return uint32(n), true
		}
	}
	for i, abi := range abiNames {
		for _, alias := range strings.Split(abi, "/") {
			if alias == name {
				return uint32(i), true
			}
		}
	}
	return 0, false
}

// Disassemble renders inst, located at pc, in assembler syntax.
func Disassemble(inst Instruction, pc uint32) string {
	rd, rs1, rs2 := inst.Rd, inst.Rs1, inst.Rs2
	f3, f7 := inst.Funct3, inst.Funct7
	switch inst.Kind {
	case KindR:
		switch {
		case f3 == 0 && f7 == 0:
			return fmt.Sprintf("add x%d, x%d, x%d", rd, rs1, rs2)
		case f3 == 0 && f7 == 0x20:
			return fmt.Sprintf("sub x%d, x%d, x%d", rd, rs1, rs2)
		case f3 == 7 && f7 == 0:
			return fmt.Sprintf("and x%d, x%d, x%d", rd, rs1, rs2)
		case f3 == 6 && f7 == 0:
			return fmt.Sprintf("or x%d, x%d, x%d", rd, rs1, rs2)
		}
		return fmt.Sprintf("unknown R-type (funct3=0x%x, funct7=0x%x)", f3, f7)
	case KindIArith:
		switch f3 {
		case 0:
			return fmt.Sprintf("addi x%d, x%d, %d", rd, rs1, inst.Imm)
		case 7:
			return fmt.Sprintf("andi x%d, x%d, %d", rd, rs1, inst.Imm)
		case 6:
			return fmt.Sprintf("ori x%d, x%d, %d", rd, rs1, inst.Imm)
		}
		return fmt.Sprintf("unknown I-type arithmetic (funct3=0x%x)", f3)
	case KindLoad:
		if f3 == 2 {
			return fmt.Sprintf("lw x%d, %d(x%d)", rd, inst.Imm, rs1)
		}
		return fmt.Sprintf("unknown I-type load (funct3=0x%x)", f3)
	case KindStore:
		if f3 == 2 {
			return fmt.Sprintf("sw x%d, %d(x%d)", rs2, inst.Imm, rs1)
		}
		return fmt.Sprintf("unknown S-type (funct3=0x%x)", f3)
	case KindBranch:
		if f3 == 0 {
			return fmt.Sprintf("beq x%d, x%d, %d (target 0x%x)", rs1, rs2, inst.Imm, pc+uint32(inst.Imm))
		}
		return fmt.Sprintf("unknown SB-type (funct3=0x%x)", f3)
	case KindJump:
		return fmt.Sprintf("jal x%d, %d (target 0x%x)", rd, inst.Imm, pc+uint32(inst.Imm))
	case KindJumpIndirect:
		return fmt.Sprintf("jalr x%d, x%d, %d", rd, rs1, inst.Imm)
	}
	return fmt.Sprintf("unknown instruction (opcode 0x%x)", inst.Opcode)
}

// WriteState dumps pc, the non-zero registers and the non-zero memory
// words of s under the given header line.
func WriteState(w io.Writer, header string, s Snapshot) error {
	var b strings.Builder
	if header != "" {
		b.WriteString(header)
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "PC: 0x%x\n", s.PC)

	b.WriteString("\nRegister File (non-zero):\n")
	nonZero := false
	for i, v := range s.Registers {
		if v == 0 {
			continue
		}
		fmt.Fprintf(&b, "  x%d (%s) = 0x%x (%d)\n", i, abiNames[i], uint32(v), v)
		nonZero = true
	}
	if !nonZero {
		b.WriteString("  All zero.\n")
	}

	b.WriteString("\nData Memory (non-zero):\n")
	nonZero = false
	for i, v := range s.Memory {
		if v == 0 {
			continue
		}
		fmt.Fprintf(&b, "  0x%x = 0x%x (%d)\n", i*4, uint32(v), v)
		nonZero = true
	}
	if !nonZero {
		b.WriteString("  All zero.\n")
	}
	b.WriteString("-----------------------------\n\n")

	_, err := io.WriteString(w, b.String())
	return err
}
