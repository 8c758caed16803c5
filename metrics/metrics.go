// Package metrics exports datapath activity as Prometheus metrics. A
// Collector observes a sim.Datapath and can be registered with any
// prometheus.Registerer; WriteText renders a gatherer in the text
// exposition format for one-shot runs that never serve HTTP.
package metrics

import (
	"fmt"
	"io"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"rvdp/sim"
)

// Namespace prefixes every metric name.
const Namespace = "rvdp"

// Collector counts cycles, instruction kinds, faults, branches and memory
// accesses. It is safe to share between datapaths running in parallel.
type Collector struct {
	cycles       prometheus.Counter
	instructions *prometheus.CounterVec
	faults       *prometheus.CounterVec
	branches     *prometheus.CounterVec
	memAccesses  *prometheus.CounterVec
	pc           prometheus.Gauge
}

// NewCollector creates an unregistered Collector. constLabels are attached
// to every metric, e.g. the program name.
func NewCollector(constLabels prometheus.Labels) *Collector {
	return &Collector{
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   Namespace,
			Name:        "cycles_total",
			Help:        "Completed instruction cycles.",
			ConstLabels: constLabels,
		}),
		instructions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   Namespace,
			Name:        "instructions_total",
			Help:        "Executed instructions by kind.",
			ConstLabels: constLabels,
		}, []string{"kind"}),
		faults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   Namespace,
			Name:        "faults_total",
			Help:        "Faulted instructions by fault kind.",
			ConstLabels: constLabels,
		}, []string{"kind"}),
		branches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   Namespace,
			Name:        "branches_total",
			Help:        "Executed conditional branches by outcome.",
			ConstLabels: constLabels,
		}, []string{"taken"}),
		memAccesses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   Namespace,
			Name:        "memory_accesses_total",
			Help:        "Data memory accesses by operation.",
			ConstLabels: constLabels,
		}, []string{"op"}),
		pc: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   Namespace,
			Name:        "pc",
			Help:        "Program counter after the last step.",
			ConstLabels: constLabels,
		}),
	}
}

// Register registers every metric with reg.
func (c *Collector) Register(reg prometheus.Registerer) error {
	for _, m := range []prometheus.Collector{c.cycles, c.instructions, c.faults, c.branches, c.memAccesses, c.pc} {
		if err := reg.Register(m); err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
	}
	return nil
}

// ObserveStep implements sim.Observer.
func (c *Collector) ObserveStep(rec *sim.StepRecord) {
	c.pc.Set(float64(rec.After.PC))
	switch rec.Outcome.Status {
	case sim.StepFaulted:
		if rec.Outcome.Fault != nil {
			c.faults.WithLabelValues(rec.Outcome.Fault.Kind.String()).Inc()
		}
		return
	case sim.StepEndOfProgram:
		return
	}

	c.cycles.Inc()
	c.instructions.WithLabelValues(rec.Instruction.Kind.String()).Inc()
	if rec.Control.Branch {
		c.branches.WithLabelValues(strconv.FormatBool(rec.Taken)).Inc()
	}
	if rec.MemOp != nil {
		op := "load"
		if rec.MemOp.Store {
			op = "store"
		}
		c.memAccesses.WithLabelValues(op).Inc()
	}
}

// WriteText writes every metric family gathered from g in the Prometheus
// text exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
