package loader

import (
	"debug/elf"
	"encoding/binary"
	"fmt"
)

// LoadELF returns the instruction words of the executable PT_LOAD segment
// of a 32-bit little-endian RISC-V ELF file. The segment is expected to
// start at address 0, since pc starts there.
func LoadELF(path string) ([]uint32, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if f.Class != elf.ELFCLASS32 || f.Machine != elf.EM_RISCV {
		return nil, fmt.Errorf("%w: %s is %v/%v, want ELFCLASS32/EM_RISCV", ErrBadFormat, path, f.Class, f.Machine)
	}

	for _, ph := range f.Progs {
		if ph.Type != elf.PT_LOAD || ph.Flags&elf.PF_X == 0 {
			continue
		}
		if ph.Vaddr != 0 {
			return nil, fmt.Errorf("%w: text segment at 0x%x, want 0x0", ErrBadFormat, ph.Vaddr)
		}
		if ph.Filesz%4 != 0 {
			return nil, fmt.Errorf("%w: text segment size %d not a multiple of 4", ErrBadFormat, ph.Filesz)
		}
		if ph.Filesz == 0 {
			return nil, ErrEmptyProgram
		}
		buf := make([]byte, ph.Filesz)
		if _, err := ph.ReadAt(buf, 0); err != nil {
			return nil, fmt.Errorf("read segment: %w", err)
		}
		words := make([]uint32, len(buf)/4)
		for i := range words {
			words[i] = binary.LittleEndian.Uint32(buf[i*4:])
		}
		return words, nil
	}
	return nil, fmt.Errorf("%w: no executable PT_LOAD segment in %s", ErrBadFormat, path)
}
