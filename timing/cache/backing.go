package cache

import "github.com/cycleacc/rv32pipe/emu"

// MemoryBacking adapts emu.MemoryDevice to BackingStore so a cache can sit
// in front of the RAM, another cache, or (in tests) a fake device.
type MemoryBacking struct {
	lower emu.MemoryDevice
}

// NewMemoryBacking wraps a MemoryDevice as a BackingStore.
func NewMemoryBacking(lower emu.MemoryDevice) *MemoryBacking {
	return &MemoryBacking{lower: lower}
}

// Load implements BackingStore.
func (m *MemoryBacking) Load(addr uint32, size emu.AccessSize) (uint32, bool) {
	return m.lower.Load(addr, size)
}

// Store implements BackingStore.
func (m *MemoryBacking) Store(addr uint32, data uint32, size emu.AccessSize) bool {
	return m.lower.Store(addr, data, size)
}
