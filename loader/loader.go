// Package loader turns program files into instruction words for the
// datapath. Three encodings are understood: text files of 32-character
// binary lines, raw little-endian word files and RISC-V ELF executables.
package loader

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"rvdp/log"
)

// MaxInstructions bounds the number of words read from a text program.
const MaxInstructions = 100

// Program formats.
const (
	FormatAuto   = "auto"
	FormatText   = "text"
	FormatBinary = "bin"
	FormatELF    = "elf"
)

// Loader errors.
var (
	ErrEmptyProgram  = errors.New("loader: no instructions")
	ErrBadFormat     = errors.New("loader: malformed program")
	ErrUnknownFormat = errors.New("loader: unknown program format")
)

// ReadText parses one instruction per line, written MSB first as exactly 32
// '0'/'1' characters. Blank lines are skipped silently, other malformed
// lines with a warning. Reading stops after MaxInstructions words.
func ReadText(r io.Reader, logger *log.Logger) ([]uint32, error) {
	if logger == nil {
		logger = log.Default().Module("loader")
	}
	var words []uint32
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r\n")
		if line == "" {
			continue
		}
		w, ok := parseBinaryLine(line)
		if !ok {
			logger.Warn("skipping invalid line", "line", lineNo, "text", line)
			continue
		}
		if len(words) == MaxInstructions {
			logger.Warn("instruction memory full, ignoring rest of program", "line", lineNo, "max", MaxInstructions)
			break
		}
		words = append(words, w)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read program: %w", err)
	}
	if len(words) == 0 {
		return nil, ErrEmptyProgram
	}
	return words, nil
}

func parseBinaryLine(line string) (uint32, bool) {
	if len(line) != 32 {
		return 0, false
	}
	var w uint32
	for i := 0; i < 32; i++ {
		switch line[i] {
		case '1':
			w |= 1 << (31 - i)
		case '0':
		default:
			return 0, false
		}
	}
	return w, true
}

// ReadBinary reads consecutive little-endian 32-bit words.
func ReadBinary(r io.Reader) ([]uint32, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read program: %w", err)
	}
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of words", ErrBadFormat, len(data))
	}
	if len(data) == 0 {
		return nil, ErrEmptyProgram
	}
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return words, nil
}

// DetectFormat guesses the format of path from its extension.
func DetectFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return FormatText
	case ".elf":
		return FormatELF
	}
	return FormatBinary
}

// Load reads the program at path in the given format.
func Load(path, format string, logger *log.Logger) ([]uint32, error) {
	if format == "" || format == FormatAuto {
		format = DetectFormat(path)
	}
	switch format {
	case FormatELF:
		return LoadELF(path)
	case FormatText, FormatBinary:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if format == FormatText {
		if logger != nil {
			logger = logger.With("file", path)
		}
		return ReadText(f, logger)
	}
	return ReadBinary(f)
}
