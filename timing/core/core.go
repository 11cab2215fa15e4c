// Package core provides the cycle-accurate CPU core model. It wraps the
// pipeline implementation to provide a high-level interface.
package core

import (
	"github.com/cycleacc/rv32pipe/emu"
	"github.com/cycleacc/rv32pipe/timing/pipeline"
	"github.com/cycleacc/rv32pipe/timing/predictor"
)

// Stats holds performance statistics for the core.
type Stats struct {
	Cycles  uint64
	Retired uint64
	Stalls  uint64
	Flushes uint64
	CPI     float64
}

// Core represents a cycle-accurate RV32IMF CPU core model. It wraps a
// 5-stage pipeline and provides a simple interface for simulation.
type Core struct {
	// Pipeline is the underlying 5-stage pipeline.
	Pipeline *pipeline.Pipeline

	regFile *emu.RegFile
	dataMem emu.MemoryDevice
}

// NewCore creates a new Core over regFile, program (the instruction image),
// dataMem (the data-memory device, possibly a cache), and pred (the
// configured branch predictor).
func NewCore(
	regFile *emu.RegFile,
	program []byte,
	dataMem emu.MemoryDevice,
	pred predictor.Predictor,
	opts ...pipeline.PipelineOption,
) *Core {
	return &Core{
		Pipeline: pipeline.NewPipeline(regFile, program, dataMem, pred, opts...),
		regFile:  regFile,
		dataMem:  dataMem,
	}
}

// SetPC sets the program counter.
func (c *Core) SetPC(pc uint32) {
	c.Pipeline.SetPC(pc)
}

// Tick executes one pipeline cycle.
func (c *Core) Tick() {
	c.Pipeline.Tick()
}

// Halted returns true once the core has drained after fetching the halt
// sentinel or running off the end of the program image.
func (c *Core) Halted() bool {
	return c.Pipeline.Halted()
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() Stats {
	s := c.Pipeline.Stats()
	return Stats{
		Cycles:  s.Cycles,
		Retired: s.Retired,
		Stalls:  s.Stalls,
		Flushes: s.Flushes,
		CPI:     s.CPI(),
	}
}

// Run executes the core until it halts or the cycle cap is reached.
// Returns true if it halted on its own.
func (c *Core) Run() bool {
	return c.Pipeline.Run()
}

// RunCycles executes the core for at most the specified number of cycles.
// Returns true if still running, false if halted.
func (c *Core) RunCycles(cycles uint64) bool {
	return c.Pipeline.RunCycles(cycles)
}

// Reset clears all core state. The register file, data memory, and
// predictor are reset independently by their owners.
func (c *Core) Reset() {
	c.Pipeline.Reset()
}

// RegFile exposes the core's register file, primarily for tests and the
// CLI's final-state dump.
func (c *Core) RegFile() *emu.RegFile { return c.regFile }
