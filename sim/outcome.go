package sim

import "fmt"

// StepStatus is the result class of a single Step.
type StepStatus uint8

const (
	StepExecuted StepStatus = iota
	StepEndOfProgram
	StepFaulted
)

func (s StepStatus) String() string {
	switch s {
	case StepExecuted:
		return "executed"
	case StepEndOfProgram:
		return "end-of-program"
	case StepFaulted:
		return "faulted"
	}
	return fmt.Sprintf("step(%d)", uint8(s))
}

// StepOutcome reports what a Step did. Fault is set only for StepFaulted.
type StepOutcome struct {
	Status      StepStatus
	Instruction Instruction
	Fault       *Fault
}

// Err returns the fault of a faulted step and nil otherwise.
func (o StepOutcome) Err() error {
	if o.Status == StepFaulted && o.Fault != nil {
		return o.Fault
	}
	return nil
}

// RunStatus is the result class of a Run.
type RunStatus uint8

const (
	RunCompleted RunStatus = iota
	RunFaulted
	RunCycleBudgetExceeded
)

func (s RunStatus) String() string {
	switch s {
	case RunCompleted:
		return "completed"
	case RunFaulted:
		return "faulted"
	case RunCycleBudgetExceeded:
		return "cycle-budget-exceeded"
	}
	return fmt.Sprintf("run(%d)", uint8(s))
}

// RunOutcome reports how a Run ended. Cycles counts the instructions
// executed by that call, Budget the limit it ran under.
type RunOutcome struct {
	Status RunStatus
	Cycles uint64
	Budget uint64
	Fault  *Fault
}

// Err is nil for a completed run.
func (o RunOutcome) Err() error {
	switch o.Status {
	case RunFaulted:
		if o.Fault != nil {
			return o.Fault
		}
	case RunCycleBudgetExceeded:
		return fmt.Errorf("%w: %d cycles", ErrCycleBudgetExceeded, o.Budget)
	}
	return nil
}

// MemOp is the memory access performed by an instruction.
type MemOp struct {
	Addr  int32
	Value int32
	Store bool
}

// Snapshot is a copy of the architectural state.
type Snapshot struct {
	PC        uint32
	Cycles    uint64
	Registers RegisterFile
	Memory    []int32
}

// StepRecord describes one Step for observers. For an end-of-program step
// only PC, Outcome and the snapshots are meaningful.
type StepRecord struct {
	PC          uint32
	Instruction Instruction
	Control     Control
	ALUOp       ALUOperation
	ALUResult   int32
	Taken       bool
	MemOp       *MemOp
	Outcome     StepOutcome
	RegsBefore  RegisterFile
	After       Snapshot
}

// Observer receives a record after every step. Each record is freshly
// allocated and may be retained.
type Observer interface {
	ObserveStep(rec *StepRecord)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(rec *StepRecord)

func (f ObserverFunc) ObserveStep(rec *StepRecord) { f(rec) }
