package sim

import (
	"errors"
	"fmt"
)

// Datapath errors.
var (
	ErrUnsupportedOpcode   = errors.New("sim: unsupported opcode")
	ErrMisalignedAccess    = errors.New("sim: misaligned memory access")
	ErrOutOfBoundsAccess   = errors.New("sim: memory access out of bounds")
	ErrUnsupportedALUOp    = errors.New("sim: unsupported ALU operation")
	ErrCycleBudgetExceeded = errors.New("sim: cycle budget exceeded")
	ErrSeedTooLarge        = errors.New("sim: seed larger than machine state")
)

// FaultKind classifies a fault raised while executing an instruction.
type FaultKind uint8

const (
	FaultUnsupportedOpcode FaultKind = iota + 1
	FaultMisalignedAccess
	FaultOutOfBoundsAccess
	FaultUnsupportedALUOp
)

func (k FaultKind) String() string {
	switch k {
	case FaultUnsupportedOpcode:
		return "unsupported-opcode"
	case FaultMisalignedAccess:
		return "misaligned-access"
	case FaultOutOfBoundsAccess:
		return "out-of-bounds-access"
	case FaultUnsupportedALUOp:
		return "unsupported-alu-op"
	}
	return fmt.Sprintf("fault(%d)", uint8(k))
}

func (k FaultKind) sentinel() error {
	switch k {
	case FaultUnsupportedOpcode:
		return ErrUnsupportedOpcode
	case FaultMisalignedAccess:
		return ErrMisalignedAccess
	case FaultOutOfBoundsAccess:
		return ErrOutOfBoundsAccess
	case FaultUnsupportedALUOp:
		return ErrUnsupportedALUOp
	}
	return nil
}

// Fault describes the instruction that stopped the machine. Addr is only
// meaningful for memory faults.
type Fault struct {
	Kind FaultKind
	PC   uint32
	Word uint32
	Addr int32
}

func (f *Fault) Error() string {
	switch f.Kind {
	case FaultMisalignedAccess, FaultOutOfBoundsAccess:
		return fmt.Sprintf("%v: addr=0x%x pc=0x%08x inst=0x%08x", f.sentinel(), uint32(f.Addr), f.PC, f.Word)
	case FaultUnsupportedOpcode:
		return fmt.Sprintf("%v: opcode=0x%02x pc=0x%08x", f.sentinel(), f.Word&0x7F, f.PC)
	}
	return fmt.Sprintf("%v: pc=0x%08x inst=0x%08x", f.sentinel(), f.PC, f.Word)
}

func (f *Fault) Unwrap() error { return f.sentinel() }

func (f *Fault) sentinel() error {
	if err := f.Kind.sentinel(); err != nil {
		return err
	}
	return errors.New("sim: fault")
}
