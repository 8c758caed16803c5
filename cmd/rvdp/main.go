// Command rvdp runs RV32 programs on a single-cycle datapath model.
//
// Usage:
//
//	rvdp run [flags] PROGRAM...
//	rvdp disasm [flags] PROGRAM
//
// Programs are text files of 32-character binary lines (.txt), raw
// little-endian words, or RISC-V ELF executables (.elf). Register and
// memory seeds come from a YAML file given with --config.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
)

// Build-time version info, overridable with ldflags:
//
//	go build -ldflags "-X main.version=v0.2.0"
var version = "v0.1.0-dev"

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

// run is the testable entry point. args includes the program name.
func run(args []string, stdout, stderr io.Writer) int {
	app := newApp(stdout, stderr)
	if err := app.Run(args); err != nil {
		var fe *failure
		if errors.As(err, &fe) {
			if fe.err != nil {
				fmt.Fprintf(stderr, "Error: %v\n", fe.err)
			}
			return exitFailure
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}
	return exitOK
}

// failure marks an error that happened while doing the work, as opposed to
// a usage error. A nil err means the details were already reported.
type failure struct {
	err error
}

func (f *failure) Error() string {
	if f.err == nil {
		return "run failed"
	}
	return f.err.Error()
}

func (f *failure) Unwrap() error { return f.err }

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "rvdp",
		Usage:     "single-cycle RV32 datapath interpreter",
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		// Errors are mapped to exit codes by run, never by os.Exit.
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			runCommand(),
			disasmCommand(),
		},
	}
}
