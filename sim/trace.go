package sim

import (
	"encoding/binary"

	"golang.org/x/crypto/sha3"
)

// TraceStep is one executed instruction as seen by a Recorder.
type TraceStep struct {
	PC          uint32
	Instruction uint32
	RegsBefore  RegisterFile
	RegsAfter   RegisterFile
	MemOp       *MemOp
}

// Recorder collects executed steps into a trace. End-of-program and
// faulted steps are not part of the trace.
type Recorder struct {
	Steps []TraceStep
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{Steps: make([]TraceStep, 0, 64)}
}

// ObserveStep implements Observer.
func (r *Recorder) ObserveStep(rec *StepRecord) {
	if rec.Outcome.Status != StepExecuted {
		return
	}
	step := TraceStep{
		PC:          rec.PC,
		Instruction: rec.Instruction.Word,
		RegsBefore:  rec.RegsBefore,
		RegsAfter:   rec.After.Registers,
	}
	if rec.MemOp != nil {
		op := *rec.MemOp
		step.MemOp = &op
	}
	r.Steps = append(r.Steps, step)
}

// Len returns the number of recorded steps.
func (r *Recorder) Len() int { return len(r.Steps) }

// Reset drops all recorded steps.
func (r *Recorder) Reset() { r.Steps = r.Steps[:0] }

// Digest is the SHA3-256 hash of the trace. Per step it hashes, little
// endian: pc, instruction, registers before, registers after, then a
// flag byte (0 none, 1 load, 2 store) followed by addr and value when a
// memory op is present. The step count prefixes the stream.
func (r *Recorder) Digest() [32]byte {
	h := sha3.New256()
	var buf [4]byte
	put := func(v uint32) {
		binary.LittleEndian.PutUint32(buf[:], v)
		h.Write(buf[:])
	}

	put(uint32(len(r.Steps)))
	for _, s := range r.Steps {
		put(s.PC)
		put(s.Instruction)
		for _, v := range s.RegsBefore {
			put(uint32(v))
		}
		for _, v := range s.RegsAfter {
			put(uint32(v))
		}
		switch {
		case s.MemOp == nil:
			h.Write([]byte{0})
		case s.MemOp.Store:
			h.Write([]byte{2})
		default:
			h.Write([]byte{1})
		}
		if s.MemOp != nil {
			put(uint32(s.MemOp.Addr))
			put(uint32(s.MemOp.Value))
		}
	}

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
