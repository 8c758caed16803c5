package sim

import (
	"fmt"

	"rvdp/log"
)

// Config sizes and tunes a Datapath.
type Config struct {
	// MemoryWords is the number of data memory word slots.
	MemoryWords int
	// StrictALU turns unrecognised funct3/funct7 combinations into a
	// FaultUnsupportedALUOp instead of the default ADD.
	StrictALU bool
}

// DefaultConfig returns a 32-word memory with permissive ALU control.
func DefaultConfig() Config {
	return Config{MemoryWords: DefaultMemoryWords}
}

// Option customises a Datapath at construction.
type Option func(*Datapath)

// WithLogger replaces the default "sim" module logger.
func WithLogger(l *log.Logger) Option {
	return func(d *Datapath) {
		if l != nil {
			d.log = l
		}
	}
}

// WithObserver registers o to receive a StepRecord after every step.
func WithObserver(o Observer) Option {
	return func(d *Datapath) {
		if o != nil {
			d.observers = append(d.observers, o)
		}
	}
}

// Datapath is a single-cycle machine: every Step runs one instruction
// through fetch, decode, execute, memory and writeback. It owns all machine
// state and is not safe for concurrent use.
type Datapath struct {
	cfg     Config
	pc      uint32
	cycles  uint64
	regs    RegisterFile
	mem     *DataMemory
	program []uint32

	observers []Observer
	log       *log.Logger
}

// New returns a machine with zeroed state and no program.
func New(cfg Config, opts ...Option) *Datapath {
	if cfg.MemoryWords <= 0 {
		cfg.MemoryWords = DefaultMemoryWords
	}
	d := &Datapath{
		cfg: cfg,
		mem: NewDataMemory(cfg.MemoryWords),
		log: log.Default().Module("sim"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Load installs program as the instruction stream and rewinds pc and the
// cycle counter. Registers and memory are left alone.
func (d *Datapath) Load(program []uint32) {
	d.program = append([]uint32(nil), program...)
	d.pc = 0
	d.cycles = 0
}

// Reset seeds the register file and data memory, clearing everything the
// seeds do not cover, and rewinds pc and the cycle counter. regs[0] is
// ignored since x0 is hard-wired to zero.
func (d *Datapath) Reset(regs []int32, mem []int32) error {
	if len(regs) > NumRegisters {
		return fmt.Errorf("%w: %d registers", ErrSeedTooLarge, len(regs))
	}
	if len(mem) > d.mem.Len() {
		return fmt.Errorf("%w: %d memory words, have %d", ErrSeedTooLarge, len(mem), d.mem.Len())
	}
	d.regs = RegisterFile{}
	copy(d.regs[:], regs)
	d.regs[0] = 0
	if err := d.mem.fill(mem); err != nil {
		return err
	}
	d.pc = 0
	d.cycles = 0
	return nil
}

// SetRegister seeds a single register. Writes to x0 are discarded.
func (d *Datapath) SetRegister(i uint32, v int32) {
	d.regs.Write(i, v)
}

// SetMemoryWord seeds the word at slot index.
func (d *Datapath) SetMemoryWord(index int, v int32) error {
	if index < 0 || index >= d.mem.Len() {
		return fmt.Errorf("%w: index %d", ErrOutOfBoundsAccess, index)
	}
	d.mem.words[index] = v
	return nil
}

// PC returns the current program counter.
func (d *Datapath) PC() uint32 { return d.pc }

// Cycles returns the number of completed instructions.
func (d *Datapath) Cycles() uint64 { return d.cycles }

// Register returns the value of register i.
func (d *Datapath) Register(i uint32) int32 { return d.regs.Read(i) }

// ProgramLen returns the number of loaded instruction words.
func (d *Datapath) ProgramLen() int { return len(d.program) }

// Config returns the configuration the machine was built with.
func (d *Datapath) Config() Config { return d.cfg }

// Snapshot returns a copy of the architectural state.
func (d *Datapath) Snapshot() Snapshot {
	return Snapshot{
		PC:        d.pc,
		Cycles:    d.cycles,
		Registers: d.regs,
		Memory:    d.mem.Words(),
	}
}

// cycle carries one instruction's values from stage to stage.
type cycle struct {
	pc     uint32
	nextPC uint32
	inst   Instruction
	ctrl   Control

	rs1Val int32
	rs2Val int32

	aluOp     ALUOperation
	aluResult int32

	branchTarget uint32
	taken        bool
	jumpTarget   uint32

	memData int32
	memOp   *MemOp
}

// Step executes the instruction at pc.
func (d *Datapath) Step() StepOutcome {
	var before RegisterFile
	if len(d.observers) > 0 {
		before = d.regs
	}
	c := cycle{pc: d.pc}

	word, ok := d.fetch()
	if !ok {
		d.log.Debug("end of program", "pc", hex32(d.pc), "cycles", d.cycles)
		out := StepOutcome{Status: StepEndOfProgram}
		d.notify(&c, before, out)
		return out
	}

	f := d.decode(&c, word)
	if f == nil {
		f = d.execute(&c)
	}
	if f == nil {
		f = d.memory(&c)
	}
	if f != nil {
		d.log.Warn("fault", "kind", f.Kind.String(), "pc", hex32(f.PC), "inst", hex32(f.Word))
		out := StepOutcome{Status: StepFaulted, Instruction: c.inst, Fault: f}
		d.notify(&c, before, out)
		return out
	}
	d.writeback(&c)

	d.log.Debug("step", "cycle", d.cycles, "pc", hex32(c.pc), "inst", hex32(word),
		"kind", c.inst.Kind.String(), "alu", c.aluOp.String(), "next", hex32(d.pc))
	out := StepOutcome{Status: StepExecuted, Instruction: c.inst}
	d.notify(&c, before, out)
	return out
}

// fetch reads the word at pc. Running off the end of the instruction
// stream is the normal end of a program.
func (d *Datapath) fetch() (uint32, bool) {
	idx := uint64(d.pc / 4)
	if idx >= uint64(len(d.program)) {
		return 0, false
	}
	return d.program[idx], true
}

func (d *Datapath) decode(c *cycle, word uint32) *Fault {
	c.inst = Decode(word)
	ctrl, ok := ControlUnit(c.inst.Opcode)
	if !ok {
		return &Fault{Kind: FaultUnsupportedOpcode, PC: c.pc, Word: word}
	}
	c.ctrl = ctrl
	c.rs1Val = d.regs.Read(c.inst.Rs1)
	c.rs2Val = d.regs.Read(c.inst.Rs2)
	c.nextPC = c.pc + 4
	return nil
}

func (d *Datapath) execute(c *cycle) *Fault {
	operand2 := c.rs2Val
	if c.ctrl.ALUSrc {
		operand2 = c.inst.Imm
	}
	op, ok := ALUControl(c.ctrl.ALUOp, c.inst.Funct3, c.inst.Funct7, c.ctrl.ALUSrc)
	if !ok && d.cfg.StrictALU {
		return &Fault{Kind: FaultUnsupportedALUOp, PC: c.pc, Word: c.inst.Word}
	}
	c.aluOp = op
	c.aluResult = op.Apply(c.rs1Val, operand2)

	if c.ctrl.Branch {
		c.branchTarget = c.pc + uint32(c.inst.Imm)
		c.taken = ALUSub.Apply(c.rs1Val, c.rs2Val) == 0
	}
	if c.ctrl.Jump {
		switch c.inst.Kind {
		case KindJump:
			c.jumpTarget = c.pc + uint32(c.inst.Imm)
		case KindJumpIndirect:
			c.jumpTarget = uint32(c.rs1Val+c.inst.Imm) &^ 1
		}
	}
	return nil
}

// memory performs the single load or store of the instruction. The address
// is validated before memory is touched so a fault leaves it unchanged.
func (d *Datapath) memory(c *cycle) *Fault {
	if !c.ctrl.MemRead && !c.ctrl.MemWrite {
		return nil
	}
	addr := c.aluResult
	idx, kind := d.mem.Index(addr)
	if kind != 0 {
		return &Fault{Kind: kind, PC: c.pc, Word: c.inst.Word, Addr: addr}
	}
	switch {
	case c.ctrl.MemRead:
		c.memData = d.mem.words[idx]
		c.memOp = &MemOp{Addr: addr, Value: c.memData}
	case c.ctrl.MemWrite:
		d.mem.words[idx] = c.rs2Val
		c.memOp = &MemOp{Addr: addr, Value: c.rs2Val, Store: true}
	}
	return nil
}

func (d *Datapath) writeback(c *cycle) {
	var data int32
	switch {
	case c.ctrl.Jump:
		data = int32(c.nextPC)
	case c.ctrl.MemToReg:
		data = c.memData
	default:
		data = c.aluResult
	}
	if c.ctrl.RegWrite {
		d.regs.Write(c.inst.Rd, data)
	}

	switch {
	case c.ctrl.Jump:
		d.pc = c.jumpTarget
	case c.ctrl.Branch && c.taken:
		d.pc = c.branchTarget
	default:
		d.pc = c.nextPC
	}
	d.cycles++
}

// DefaultCycleBudget is the run-length safeguard used when Run is given no
// explicit budget: five cycles per loaded instruction.
func DefaultCycleBudget(programLen int) uint64 {
	if programLen <= 0 {
		return 1
	}
	return uint64(programLen) * 5
}

// Run steps until the program ends, an instruction faults, or maxCycles
// instructions have executed in this call. A zero maxCycles selects
// DefaultCycleBudget.
func (d *Datapath) Run(maxCycles uint64) RunOutcome {
	if maxCycles == 0 {
		maxCycles = DefaultCycleBudget(len(d.program))
	}
	var executed uint64
	for {
		if executed >= maxCycles {
			if _, more := d.fetch(); more {
				d.log.Warn("cycle budget exceeded", "budget", maxCycles, "pc", hex32(d.pc))
				return RunOutcome{Status: RunCycleBudgetExceeded, Cycles: executed, Budget: maxCycles}
			}
		}
		out := d.Step()
		switch out.Status {
		case StepExecuted:
			executed++
		case StepEndOfProgram:
			return RunOutcome{Status: RunCompleted, Cycles: executed, Budget: maxCycles}
		default:
			return RunOutcome{Status: RunFaulted, Cycles: executed, Budget: maxCycles, Fault: out.Fault}
		}
	}
}

func (d *Datapath) notify(c *cycle, before RegisterFile, out StepOutcome) {
	if len(d.observers) == 0 {
		return
	}
	rec := &StepRecord{
		PC:          c.pc,
		Instruction: c.inst,
		Control:     c.ctrl,
		ALUOp:       c.aluOp,
		ALUResult:   c.aluResult,
		Taken:       c.taken,
		MemOp:       c.memOp,
		Outcome:     out,
		RegsBefore:  before,
		After:       d.Snapshot(),
	}
	for _, o := range d.observers {
		o.ObserveStep(rec)
	}
}

func hex32(v uint32) string { return fmt.Sprintf("0x%08x", v) }
