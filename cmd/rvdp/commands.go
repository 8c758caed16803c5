package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"rvdp/config"
	"rvdp/loader"
	"rvdp/log"
	"rvdp/metrics"
	"rvdp/sim"
)

var errNoProgram = errors.New("no program given")

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "execute programs until they end, fault or exhaust the cycle budget",
		ArgsUsage: "PROGRAM...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML machine configuration and seeds", EnvVars: []string{"RVDP_CONFIG"}},
			&cli.StringFlag{Name: "format", Value: loader.FormatAuto, Usage: "program format: auto, text, bin, elf"},
			&cli.Uint64Flag{Name: "max-cycles", Usage: "cycle budget per program (0: five per instruction)"},
			&cli.IntFlag{Name: "memory-words", Usage: "data memory size in words"},
			&cli.BoolFlag{Name: "strict-alu", Usage: "fault on unrecognised funct3/funct7 instead of adding"},
			&cli.BoolFlag{Name: "trace", Usage: "print every instruction and the state after each cycle"},
			&cli.BoolFlag{Name: "digest", Usage: "print the SHA3-256 digest of the execution trace"},
			&cli.StringFlag{Name: "metrics", Usage: "write Prometheus metrics to `FILE` (- for stdout)"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error", EnvVars: []string{"RVDP_LOG_LEVEL"}},
			&cli.StringFlag{Name: "log-format", Usage: "auto, text or json"},
		},
		Action: runPrograms,
	}
}

func disasmCommand() *cli.Command {
	return &cli.Command{
		Name:      "disasm",
		Usage:     "print the disassembly of a program",
		ArgsUsage: "PROGRAM",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Value: loader.FormatAuto, Usage: "program format: auto, text, bin, elf"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errNoProgram
			}
			path := c.Args().First()
			words, err := loader.Load(path, c.String("format"), log.Default().Module("loader"))
			if err != nil {
				return &failure{err: err}
			}
			for i, w := range words {
				pc := uint32(i * 4)
				fmt.Fprintf(c.App.Writer, "0x%04x: %08x  %s\n", pc, w, sim.Disassemble(sim.Decode(w), pc))
			}
			return nil
		},
	}
}

// resolveConfig loads the config file and applies flag overrides.
func resolveConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("max-cycles") {
		cfg.MaxCycles = c.Uint64("max-cycles")
	}
	if c.IsSet("memory-words") {
		cfg.MemoryWords = c.Int("memory-words")
	}
	if c.IsSet("strict-alu") {
		cfg.StrictALU = c.Bool("strict-alu")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Log.Format = c.String("log-format")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runPrograms(c *cli.Context) error {
	if c.NArg() == 0 {
		return errNoProgram
	}
	cfg, err := resolveConfig(c)
	if err != nil {
		return &failure{err: err}
	}
	level, _ := log.ParseLevel(cfg.Log.Level)
	logger := log.New(c.App.ErrWriter, level, cfg.Log.Format)

	var (
		reg       *prometheus.Registry
		collector *metrics.Collector
	)
	if c.String("metrics") != "" {
		reg = prometheus.NewRegistry()
		collector = metrics.NewCollector(nil)
		if err := collector.Register(reg); err != nil {
			return &failure{err: err}
		}
	}

	paths := c.Args().Slice()
	jobs := make([]*job, len(paths))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		j := &job{
			path:      path,
			format:    c.String("format"),
			cfg:       cfg,
			trace:     c.Bool("trace"),
			digest:    c.Bool("digest"),
			collector: collector,
			logger:    logger.With("program", path),
		}
		jobs[i] = j
		g.Go(j.execute)
	}
	runErr := g.Wait()

	for _, j := range jobs {
		if _, err := c.App.Writer.Write(j.out.Bytes()); err != nil {
			return &failure{err: err}
		}
	}
	if reg != nil {
		if err := writeMetrics(c, reg); err != nil {
			return &failure{err: err}
		}
	}
	if runErr != nil {
		return &failure{}
	}
	return nil
}

func writeMetrics(c *cli.Context, reg *prometheus.Registry) error {
	path := c.String("metrics")
	if path == "-" {
		return metrics.WriteText(c.App.Writer, reg)
	}
	var buf bytes.Buffer
	if err := metrics.WriteText(&buf, reg); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
