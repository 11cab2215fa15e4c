package pipeline

import (
	"fmt"

	"github.com/cycleacc/rv32pipe/insts"
)

// Statistics accumulates the running counters §4.F requires: per-family
// instruction counts, stall/flush counts, branch outcomes, and memory
// traffic. It is owned exclusively by the Pipeline that updates it; callers
// should treat a returned copy as read-only.
type Statistics struct {
	Cycles   uint64
	Retired  uint64
	Stalls   uint64
	Flushes  uint64

	FamilyCounts [insts.FamilyHalt + 1]uint64

	BranchesTaken    uint64
	BranchesNotTaken uint64
	Mispredictions   uint64
	Jumps            uint64

	MemOpsIssued uint64
}

// CPI returns cycles per retired instruction, or 0 before any instruction
// retires.
func (s Statistics) CPI() float64 {
	if s.Retired == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Retired)
}

// Utilization returns the fraction of cycles that retired an instruction.
func (s Statistics) Utilization() float64 {
	if s.Cycles == 0 {
		return 0
	}
	return float64(s.Retired) / float64(s.Cycles)
}

// LatchView is a textual summary of one pipeline latch captured for a
// cycle's snapshot: just enough to render a per-cycle table without
// re-deriving it from the live latch later.
type LatchView struct {
	Valid       bool
	PC          uint32
	Disassembly string
	// Datum is the "key datum" §4.F calls for: the raw instruction bits
	// for IF/ID, the ALU/FPU result for EX/MEM, the write-back value for
	// MEM/WB. For ID/EX it is unused (the disassembly already carries
	// the operation).
	Datum uint32
}

// PipelineSnapshot is one cycle's entry in the trace vector.
type PipelineSnapshot struct {
	Cycle uint64

	IFID  LatchView
	IDEX  LatchView
	EXMEM LatchView
	MEMWB LatchView

	Stalled bool
	Flushed bool
}

// MemoryAccessRecord is one entry in the memory access log.
type MemoryAccessRecord struct {
	Cycle   uint64
	PC      uint32
	Addr    uint32
	Value   uint32
	IsStore bool
	Hit     bool
	OK      bool
}

// RegisterChangeRecord is one entry in the register-change log.
type RegisterChangeRecord struct {
	Cycle    uint64
	PC       uint32
	Index    uint8
	OldValue uint32
	NewValue uint32
	IsFloat  bool
}

// RAWEdge records a producer/consumer dependency observed within a bounded
// cycle window, for visualization only — it is recorded as instructions
// are decoded and never influences execution.
type RAWEdge struct {
	ProducerPC uint32
	ConsumerPC uint32
	Register   uint8
	IsFloat    bool
}

func latchView(valid bool, pc uint32, inst *insts.Instruction, datum uint32) LatchView {
	if !valid {
		return LatchView{}
	}
	return LatchView{Valid: true, PC: pc, Disassembly: insts.Disassemble(inst), Datum: datum}
}

// String renders a snapshot as a single human-readable line, in the spirit
// of the per-cycle table format described in §4.F.
func (s PipelineSnapshot) String() string {
	return fmt.Sprintf(
		"cycle=%d IF=[%s] ID=[%s] EX=[%s] WB=[%s] stall=%v flush=%v",
		s.Cycle, laneString(s.IFID), laneString(s.IDEX), laneString(s.EXMEM), laneString(s.MEMWB),
		s.Stalled, s.Flushed,
	)
}

func laneString(l LatchView) string {
	if !l.Valid {
		return "-"
	}
	return fmt.Sprintf("%#x:%s", l.PC, l.Disassembly)
}
