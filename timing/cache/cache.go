// Package cache provides the pluggable data-memory-hierarchy cache: one
// parameterized implementation shared by the direct-mapped, fully
// associative, and N-way set-associative variants, differentiated only by
// associativity and set count. Tag/LRU bookkeeping is delegated to Akita's
// cache directory; write-through and write-allocate are implemented here.
package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/cycleacc/rv32pipe/emu"
)

// Kind names the degenerate shapes a cache can take; all three share the
// same state machine, parameterized by numSets and ways.
type Kind uint8

// Cache kinds.
const (
	DirectMapped Kind = iota
	FullyAssociative
	SetAssociative
)

// Config parameterizes a cache. TotalBytes and LineBytes must be powers of
// two; for SetAssociative, Ways must also be a power of two and must
// divide TotalBytes/LineBytes evenly.
type Config struct {
	Kind       Kind
	TotalBytes int
	LineBytes  int
	Ways       int // ignored for DirectMapped (1) and FullyAssociative (all lines)
}

// BackingStore is the lower memory device a cache forwards misses and
// write-throughs to. A Cache itself satisfies both MemoryDevice and
// BackingStore, so caches may be chained into a multi-level hierarchy.
type BackingStore interface {
	Load(addr uint32, size emu.AccessSize) (uint32, bool)
	Store(addr uint32, data uint32, size emu.AccessSize) bool
}

// Statistics holds the two counters invariant 5 requires: hits and misses,
// each incremented exactly once per pipeline memory operation.
type Statistics struct {
	Hits   uint64
	Misses uint64
}

// Cache implements the write-through, write-allocate cache contract of
// §4.C over an Akita cache directory for tag and LRU state.
type Cache struct {
	config  Config
	numSets int
	ways    int

	directory *akitacache.DirectoryImpl
	data      [][]byte // indexed by setID*ways + wayID

	backing BackingStore
	stats   Statistics
}

// New creates a cache with the given configuration, backed by lower.
func New(config Config, lower BackingStore) *Cache {
	numLines := config.TotalBytes / config.LineBytes

	ways := config.Ways
	switch config.Kind {
	case DirectMapped:
		ways = 1
	case FullyAssociative:
		ways = numLines
	}
	if ways <= 0 {
		ways = 1
	}
	numSets := numLines / ways

	data := make([][]byte, numSets*ways)
	for i := range data {
		data[i] = make([]byte, config.LineBytes)
	}

	return &Cache{
		config:  config,
		numSets: numSets,
		ways:    ways,
		directory: akitacache.NewDirectory(
			numSets,
			ways,
			config.LineBytes,
			akitacache.NewLRUVictimFinder(),
		),
		data:    data,
		backing: lower,
	}
}

// Stats returns a copy of the current hit/miss counters.
func (c *Cache) Stats() Statistics { return c.stats }

// Reset invalidates every line and clears statistics.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
}

func (c *Cache) lineBase(addr uint32) uint32 {
	return addr &^ uint32(c.config.LineBytes-1)
}

func (c *Cache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.ways + block.WayID
}

// Load implements emu.MemoryDevice, and satisfies BackingStore so caches
// may be chained.
func (c *Cache) Load(addr uint32, size emu.AccessSize) (uint32, bool) {
	if !size.Aligned(addr) {
		return 0, false
	}

	lineBase := c.lineBase(addr)
	block := c.directory.Lookup(0, uint64(lineBase))
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)
		offset := addr - lineBase
		return extractData(c.data[c.blockIndex(block)], offset, size), true
	}

	c.stats.Misses++
	return c.fillAndServe(addr, lineBase, size, false, 0)
}

// Store implements emu.MemoryDevice: write-through, write-allocate.
func (c *Cache) Store(addr uint32, value uint32, size emu.AccessSize) bool {
	if !size.Aligned(addr) {
		return false
	}

	lineBase := c.lineBase(addr)
	block := c.directory.Lookup(0, uint64(lineBase))
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.directory.Visit(block)
		offset := addr - lineBase
		storeData(c.data[c.blockIndex(block)], offset, size, value)
		return c.backing.Store(addr, value, size)
	}

	c.stats.Misses++
	_, ok := c.fillAndServe(addr, lineBase, size, true, value)
	return ok
}

// fillAndServe handles a miss: fetch the victim's line with word loads from
// the backing store, then serve the access from the freshly filled line.
// For a store, it also forwards the write to the backing store once the
// line is resident (write-allocate + write-through).
func (c *Cache) fillAndServe(addr, lineBase uint32, size emu.AccessSize, isWrite bool, writeValue uint32) (uint32, bool) {
	victim := c.directory.FindVictim(uint64(lineBase))
	if victim == nil {
		return 0, false
	}
	line := c.data[c.blockIndex(victim)]

	for off := 0; off < c.config.LineBytes; off += 4 {
		word, ok := c.backing.Load(lineBase+uint32(off), emu.SizeWord)
		if !ok {
			return 0, false
		}
		storeData(line, uint32(off), emu.SizeWord, word)
	}

	victim.Tag = uint64(lineBase)
	victim.IsValid = true
	c.directory.Visit(victim)

	offset := addr - lineBase
	if isWrite {
		storeData(line, offset, size, writeValue)
		if !c.backing.Store(addr, writeValue, size) {
			return 0, false
		}
		return 0, true
	}

	return extractData(line, offset, size), true
}

func extractData(line []byte, offset uint32, size emu.AccessSize) uint32 {
	var v uint32
	for i := emu.AccessSize(0); i < size; i++ {
		v |= uint32(line[offset+uint32(i)]) << (8 * i)
	}
	return v
}

func storeData(line []byte, offset uint32, size emu.AccessSize, value uint32) {
	for i := emu.AccessSize(0); i < size; i++ {
		line[offset+uint32(i)] = byte(value >> (8 * i))
	}
}
