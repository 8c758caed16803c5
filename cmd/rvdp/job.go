package main

import (
	"bytes"
	"fmt"

	"rvdp/config"
	"rvdp/loader"
	"rvdp/log"
	"rvdp/metrics"
	"rvdp/sim"
)

// job runs one program on its own Datapath and buffers everything it
// prints, so parallel jobs can be reported in argument order.
type job struct {
	path      string
	format    string
	cfg       *config.Config
	trace     bool
	digest    bool
	collector *metrics.Collector
	logger    *log.Logger

	out bytes.Buffer
}

func (j *job) execute() error {
	fmt.Fprintf(&j.out, "===== %s =====\n", j.path)
	err := j.runProgram()
	if err != nil {
		fmt.Fprintf(&j.out, "Error: %v\n\n", err)
	}
	return err
}

func (j *job) runProgram() error {
	words, err := loader.Load(j.path, j.format, j.logger.Module("loader"))
	if err != nil {
		return err
	}
	fmt.Fprintf(&j.out, "Loaded %d instructions.\n\n", len(words))

	opts := []sim.Option{sim.WithLogger(j.logger.Module("sim"))}
	if j.collector != nil {
		opts = append(opts, sim.WithObserver(j.collector))
	}
	if j.trace {
		opts = append(opts, sim.WithObserver(&tracePrinter{out: &j.out}))
	}
	var rec *sim.Recorder
	if j.digest {
		rec = sim.NewRecorder()
		opts = append(opts, sim.WithObserver(rec))
	}

	dp := sim.New(j.cfg.SimConfig(), opts...)
	regs, mem, err := j.cfg.Seeds()
	if err != nil {
		return err
	}
	if err := dp.Reset(regs, mem); err != nil {
		return err
	}
	dp.Load(words)

	j.out.WriteString("===== Initial State =====\n")
	if err := sim.WriteState(&j.out, "Total clock cycles: 0", dp.Snapshot()); err != nil {
		return err
	}
	if j.trace {
		j.out.WriteString("===== Program Execution =====\n")
	}

	res := dp.Run(j.cfg.MaxCycles)
	j.logger.Module("cli").Info("run finished", "status", res.Status.String(), "cycles", res.Cycles)

	fmt.Fprintf(&j.out, "===== Program terminated: %s =====\n", res.Status)
	final := dp.Snapshot()
	if err := sim.WriteState(&j.out, fmt.Sprintf("Total clock cycles: %d", final.Cycles), final); err != nil {
		return err
	}
	if rec != nil {
		fmt.Fprintf(&j.out, "Trace digest: %x\n\n", rec.Digest())
	}
	return res.Err()
}

// tracePrinter prints each instruction and the state after it.
type tracePrinter struct {
	out *bytes.Buffer
}

func (p *tracePrinter) ObserveStep(rec *sim.StepRecord) {
	if rec.Outcome.Status == sim.StepEndOfProgram {
		return
	}
	fmt.Fprintf(p.out, "--- Instruction 0x%08x (@PC=0x%x) ---\n", rec.Instruction.Word, rec.PC)
	fmt.Fprintf(p.out, "  %s\n", sim.Disassemble(rec.Instruction, rec.PC))
	if rec.Outcome.Status == sim.StepFaulted {
		fmt.Fprintf(p.out, "  fault: %v\n\n", rec.Outcome.Fault)
		return
	}
	fmt.Fprintf(p.out, "  %s\n", rec.Control)
	header := fmt.Sprintf("----- State after cycle %d -----", rec.After.Cycles)
	sim.WriteState(p.out, header, rec.After)
}
