package emu

// AccessSize is the width, in bytes, of a memory device access. Only byte,
// half-word, and word accesses are defined; the device rejects anything
// else via ok=false.
type AccessSize uint8

// Supported access widths.
const (
	SizeByte AccessSize = 1
	SizeHalf AccessSize = 2
	SizeWord AccessSize = 4
)

// Aligned reports whether s is one of the defined access widths and addr is
// naturally aligned for it. Any other width is never aligned.
func (s AccessSize) Aligned(addr uint32) bool {
	switch s {
	case SizeByte, SizeHalf, SizeWord:
		return addr%uint32(s) == 0
	}
	return false
}

// MemoryDevice is the abstract byte-addressable store consumed by the
// pipeline's Memory stage. Implementations include the backing RAM and the
// cache wrappers in package cache. Accesses that are misaligned or run past
// the device's extent report ok=false and have no side effect.
type MemoryDevice interface {
	// Load reads size bytes at addr, little-endian, returned in the low
	// bits of data. Loads narrower than 4 bytes are not sign/zero extended
	// here; that is the pipeline's job.
	Load(addr uint32, size AccessSize) (data uint32, ok bool)

	// Store writes the low size bytes of data to addr, little-endian.
	Store(addr uint32, data uint32, size AccessSize) (ok bool)
}

// RAM is a fixed-size, byte-addressable backing store with constant-time
// access and no caching.
type RAM struct {
	bytes []byte
}

// NewRAM allocates a zeroed RAM of the given size in bytes.
func NewRAM(size int) *RAM {
	return &RAM{bytes: make([]byte, size)}
}

// Size returns the RAM's extent in bytes.
func (m *RAM) Size() int {
	return len(m.bytes)
}

// Load implements MemoryDevice.
func (m *RAM) Load(addr uint32, size AccessSize) (uint32, bool) {
	if !size.Aligned(addr) {
		return 0, false
	}
	if uint64(addr)+uint64(size) > uint64(len(m.bytes)) {
		return 0, false
	}

	var v uint32
	for i := AccessSize(0); i < size; i++ {
		v |= uint32(m.bytes[addr+uint32(i)]) << (8 * i)
	}
	return v, true
}

// Store implements MemoryDevice.
func (m *RAM) Store(addr uint32, data uint32, size AccessSize) bool {
	if !size.Aligned(addr) {
		return false
	}
	if uint64(addr)+uint64(size) > uint64(len(m.bytes)) {
		return false
	}

	for i := AccessSize(0); i < size; i++ {
		m.bytes[addr+uint32(i)] = byte(data >> (8 * i))
	}
	return true
}
