package sim

import "fmt"

// Opcodes of the supported RV32 subset.
const (
	OpR         = 0x33 // add, sub, and, or
	OpImm       = 0x13 // addi, andi, ori
	OpLoad      = 0x03 // lw
	OpStore     = 0x23 // sw
	OpBranch    = 0x63 // beq
	OpJAL       = 0x6F
	OpJALR      = 0x67
	opcodeWidth = 7
)

// Kind tags a decoded instruction with its encoding family.
type Kind uint8

const (
	KindUnsupported Kind = iota
	KindR
	KindIArith
	KindLoad
	KindStore
	KindBranch
	KindJump
	KindJumpIndirect
)

var kindNames = [...]string{
	KindUnsupported:  "unsupported",
	KindR:            "r",
	KindIArith:       "i-arith",
	KindLoad:         "load",
	KindStore:        "store",
	KindBranch:       "branch",
	KindJump:         "jump",
	KindJumpIndirect: "jump-indirect",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ClassifyOpcode maps a 7-bit opcode to its instruction kind.
func ClassifyOpcode(op uint32) Kind {
	switch op {
	case OpR:
		return KindR
	case OpImm:
		return KindIArith
	case OpLoad:
		return KindLoad
	case OpStore:
		return KindStore
	case OpBranch:
		return KindBranch
	case OpJAL:
		return KindJump
	case OpJALR:
		return KindJumpIndirect
	}
	return KindUnsupported
}

// Extract returns the length-bit field of word starting at bit start,
// right-justified. Offsets are fixed at the call site, so a bad range
// is a programming error and panics.
func Extract(word uint32, start, length uint) uint32 {
	if length > 32 || start+length > 32 {
		panic(fmt.Sprintf("sim: bit field [%d+%d] outside 32-bit word", start, length))
	}
	if length == 0 {
		return 0
	}
	return (word >> start) & uint32((uint64(1)<<length)-1)
}

// SignExtend interprets the low bits of v as a two's-complement value.
func SignExtend(v uint32, bits uint) int32 {
	if bits == 0 || bits >= 32 {
		return int32(v)
	}
	shift := 32 - bits
	return int32(v<<shift) >> shift
}

// Fields are the fixed-position fields shared by every encoding.
type Fields struct {
	Opcode uint32
	Rd     uint32
	Funct3 uint32
	Rs1    uint32
	Rs2    uint32
	Funct7 uint32
}

func decodeFields(word uint32) Fields {
	return Fields{
		Opcode: Extract(word, 0, opcodeWidth),
		Rd:     Extract(word, 7, 5),
		Funct3: Extract(word, 12, 3),
		Rs1:    Extract(word, 15, 5),
		Rs2:    Extract(word, 20, 5),
		Funct7: Extract(word, 25, 7),
	}
}

func immI(word uint32) int32 { return SignExtend(Extract(word, 20, 12), 12) }

func immS(word uint32) int32 {
	return SignExtend(Extract(word, 25, 7)<<5|Extract(word, 7, 5), 12)
}

func immB(word uint32) int32 {
	// [12|11|10:5|4:1] << 1
	imm := Extract(word, 31, 1)<<12 |
		Extract(word, 7, 1)<<11 |
		Extract(word, 25, 6)<<5 |
		Extract(word, 8, 4)<<1
	return SignExtend(imm, 13)
}

func immJ(word uint32) int32 {
	// [20|19:12|11|10:1] << 1
	imm := Extract(word, 31, 1)<<20 |
		Extract(word, 12, 8)<<12 |
		Extract(word, 20, 1)<<11 |
		Extract(word, 21, 10)<<1
	return SignExtend(imm, 21)
}

// Immediate reconstructs the sign-extended immediate of word for kind k.
// Kinds without an immediate yield 0.
func Immediate(word uint32, k Kind) int32 {
	switch k {
	case KindIArith, KindLoad, KindJumpIndirect:
		return immI(word)
	case KindStore:
		return immS(word)
	case KindBranch:
		return immB(word)
	case KindJump:
		return immJ(word)
	}
	return 0
}

// Instruction is a fetched word together with everything Decode derives
// from it. It is threaded through the later stages unchanged.
type Instruction struct {
	Word uint32
	Kind Kind
	Fields
	Imm int32
}

// Decode splits word into its fields, kind and immediate.
func Decode(word uint32) Instruction {
	f := decodeFields(word)
	k := ClassifyOpcode(f.Opcode)
	return Instruction{
		Word:   word,
		Kind:   k,
		Fields: f,
		Imm:    Immediate(word, k),
	}
}
