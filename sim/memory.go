package sim

// Register file and word-addressed data memory.
//
// Data memory is an array of word slots addressed by byte offset:
// slot i lives at byte address 4*i. Only aligned addresses inside the
// array are valid.

// NumRegisters is the size of the register file.
const NumRegisters = 32

// DefaultMemoryWords is the data memory size used when none is configured.
const DefaultMemoryWords = 32

// RegisterFile holds x0..x31. x0 reads as zero and ignores writes.
type RegisterFile [NumRegisters]int32

// Read returns the value of register i.
func (r *RegisterFile) Read(i uint32) int32 {
	if i == 0 {
		return 0
	}
	return r[i&(NumRegisters-1)]
}

// Write stores v in register i unless i is x0.
func (r *RegisterFile) Write(i uint32, v int32) {
	if i != 0 {
		r[i&(NumRegisters-1)] = v
	}
}

// DataMemory is a fixed-size array of signed words.
type DataMemory struct {
	words []int32
}

// NewDataMemory returns a zeroed memory of n words.
func NewDataMemory(n int) *DataMemory {
	if n < 0 {
		n = 0
	}
	return &DataMemory{words: make([]int32, n)}
}

// Len returns the number of word slots.
func (m *DataMemory) Len() int { return len(m.words) }

// Index translates a byte address into a slot index without touching the
// memory. The fault kind is zero when the address is valid.
func (m *DataMemory) Index(addr int32) (int, FaultKind) {
	if addr%4 != 0 {
		return 0, FaultMisalignedAccess
	}
	idx := addr / 4
	if idx < 0 || int(idx) >= len(m.words) {
		return 0, FaultOutOfBoundsAccess
	}
	return int(idx), 0
}

// LoadWord reads the word at byte address addr.
func (m *DataMemory) LoadWord(addr int32) (int32, error) {
	idx, kind := m.Index(addr)
	if kind != 0 {
		return 0, &Fault{Kind: kind, Addr: addr}
	}
	return m.words[idx], nil
}

// StoreWord writes v to byte address addr.
func (m *DataMemory) StoreWord(addr, v int32) error {
	idx, kind := m.Index(addr)
	if kind != 0 {
		return &Fault{Kind: kind, Addr: addr}
	}
	m.words[idx] = v
	return nil
}

// Words returns a copy of the memory contents.
func (m *DataMemory) Words() []int32 {
	out := make([]int32, len(m.words))
	copy(out, m.words)
	return out
}

func (m *DataMemory) fill(seed []int32) error {
	if len(seed) > len(m.words) {
		return ErrSeedTooLarge
	}
	clear(m.words)
	copy(m.words, seed)
	return nil
}
