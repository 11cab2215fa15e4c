// Package pipeline implements the 5-stage (Fetch/Decode/Execute/Memory/
// Writeback) in-order pipeline at the heart of the simulator: pipeline
// latches, forwarding, hazard detection, branch resolution, and the
// per-cycle trace.
package pipeline

import (
	"github.com/cycleacc/rv32pipe/emu"
	"github.com/cycleacc/rv32pipe/timing/cache"
	"github.com/cycleacc/rv32pipe/timing/predictor"
)

// PipelineOption is a functional option for configuring a Pipeline.
type PipelineOption func(*Pipeline)

// WithCycleCap overrides the default 10,000-cycle cap Run enforces.
func WithCycleCap(cap uint64) PipelineOption {
	return func(p *Pipeline) { p.cycleCap = cap }
}

// WithTrace enables per-cycle PipelineSnapshot capture. Tracing is
// disabled by default since the trace vector is unbounded and most callers
// only want final statistics.
func WithTrace() PipelineOption {
	return func(p *Pipeline) { p.tracing = true }
}

// defaultCycleCap is the host-level run bound described in §5.
const defaultCycleCap = 10000

// Pipeline implements the 5-stage in-order RV32IMF core: one tick() per
// simulated cycle, stages evaluated in reverse dataflow order (WB -> MEM ->
// EX -> ID -> IF) against a pair of pre-tick snapshots so EX's forwarding
// network only ever observes the previous cycle's results.
type Pipeline struct {
	regFile *emu.RegFile
	dataMem emu.MemoryDevice
	dataCache *cache.Cache // nil if dataMem is plain RAM with no cache in front

	program []byte
	pc      uint32

	ifid  IFIDRegister
	idex  IDEXRegister
	exmem EXMEMRegister
	memwb MEMWBRegister

	predictor predictor.Predictor

	fetch     *FetchStage
	decode    *DecodeStage
	execute   *ExecuteStage
	memory    *MemoryStage
	writeback *WritebackStage
	hazard    *HazardUnit

	flush bool // set by ID for a predicted-taken branch, consumed by IF; an EX redirect travels in Execute's result instead
	halt  bool // true once Fetch has seen the halt sentinel or run off maxPC

	cycleCap uint64
	stats    Statistics

	tracing bool
	trace   []PipelineSnapshot

	memLog []MemoryAccessRecord
	regLog []RegisterChangeRecord
	rawLog []RAWEdge

	// lastIntWrite/lastFPWrite track, per register, the PC and decode
	// cycle of the most recently decoded instruction that writes it, so
	// ID can record a RAW edge when a later instruction reads that
	// register within the dependency window. Tracking at decode time
	// rather than commit time is what lets this catch the tight,
	// forwarding-distance dependencies the log exists to show.
	lastIntWrite [32]writeRecord
	lastFPWrite  [32]writeRecord
}

// writeRecord is the bookkeeping entry behind the RAW dependency log: the
// cycle and PC of the most recent decoded write to one register.
type writeRecord struct {
	cycle uint64
	pc    uint32
	valid bool
}

// rawDependencyWindow bounds how far back ID looks for a producer of an
// operand it just read, per §4.F's "bounded cycle window (≤10)".
const rawDependencyWindow = 10

// NewPipeline creates a Pipeline over program (the instruction byte array),
// dataMem (the data-memory device, possibly a cache wrapper), and pred
// (the configured branch predictor).
func NewPipeline(
	regFile *emu.RegFile,
	program []byte,
	dataMem emu.MemoryDevice,
	pred predictor.Predictor,
	opts ...PipelineOption,
) *Pipeline {
	p := &Pipeline{
		regFile:   regFile,
		dataMem:   dataMem,
		program:   program,
		predictor: pred,
		cycleCap:  defaultCycleCap,
	}
	if c, ok := dataMem.(*cache.Cache); ok {
		p.dataCache = c
	}

	p.fetch = NewFetchStage()
	p.decode = NewDecodeStage(regFile, pred)
	p.hazard = NewHazardUnit()
	p.execute = NewExecuteStage(p.hazard)
	p.memory = NewMemoryStage()
	p.writeback = NewWritebackStage(regFile)

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Reset clears all pipeline latches, statistics, and the trace, and
// restarts fetch at address 0. The register files, memory device, and
// predictor are reset independently by their owners.
func (p *Pipeline) Reset() {
	p.ifid.Clear()
	p.idex.Clear()
	p.exmem.Clear()
	p.memwb.Clear()
	p.pc = 0
	p.flush = false
	p.halt = false
	p.stats = Statistics{}
	p.trace = nil
	p.memLog = nil
	p.regLog = nil
	p.rawLog = nil
	p.lastIntWrite = [32]writeRecord{}
	p.lastFPWrite = [32]writeRecord{}
}

// SetPC sets the program counter fetch resumes from; used by tests that
// want to start execution somewhere other than address 0.
func (p *Pipeline) SetPC(pc uint32) { p.pc = pc }

// Halted reports whether the pipeline has permanently stopped making
// progress: the halt sentinel (or end of the program image) has been
// fetched and every in-flight latch has since drained.
func (p *Pipeline) Halted() bool {
	return p.halt && !p.ifid.Valid && !p.idex.Valid && !p.exmem.Valid && !p.memwb.Valid
}

// Stats returns a copy of the running statistics.
func (p *Pipeline) Stats() Statistics { return p.stats }

// Trace returns the captured per-cycle snapshots (empty unless WithTrace
// was passed to NewPipeline).
func (p *Pipeline) Trace() []PipelineSnapshot { return p.trace }

// MemoryLog returns the memory-access log described in §4.F.
func (p *Pipeline) MemoryLog() []MemoryAccessRecord { return p.memLog }

// RegisterLog returns the register-change log described in §4.F.
func (p *Pipeline) RegisterLog() []RegisterChangeRecord { return p.regLog }

// RAWDependencyLog returns the producer/consumer edges observed within the
// bounded cycle window described in §4.F. Purely a visualization aid,
// derived from writes and reads as they happen; it never feeds back into
// execution.
func (p *Pipeline) RAWDependencyLog() []RAWEdge { return p.rawLog }

// CacheHitRate returns hits/(hits+misses) for the configured data cache, or
// 0 if the pipeline was wired with a plain RAM and no cache.
func (p *Pipeline) CacheHitRate() float64 {
	if p.dataCache == nil {
		return 0
	}
	s := p.dataCache.Stats()
	if s.Hits+s.Misses == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Hits+s.Misses)
}

// Run ticks the pipeline until it halts or the cycle cap is reached.
// Returns true if the pipeline halted on its own, false if the cap fired.
func (p *Pipeline) Run() bool {
	for p.stats.Cycles < p.cycleCap {
		if p.Halted() {
			return true
		}
		p.Tick()
	}
	return p.Halted()
}

// RunCycles ticks the pipeline at most n times, stopping early if it
// halts. Returns true if still running afterward.
func (p *Pipeline) RunCycles(n uint64) bool {
	for i := uint64(0); i < n; i++ {
		if p.Halted() {
			return false
		}
		p.Tick()
	}
	return !p.Halted()
}

// Tick runs one simulated cycle: stages evaluated WB -> MEM -> EX -> ID ->
// IF, with EX's forwarding reading only from the snapshots taken here at
// the top of the tick.
func (p *Pipeline) Tick() {
	if p.Halted() {
		return
	}
	p.stats.Cycles++

	exMemPrev := p.exmem
	memWbPrev := p.memwb

	wbResult := p.writeback.Writeback(&p.memwb)
	if wbResult.Retired {
		p.stats.Retired++
		p.stats.FamilyCounts[p.memwb.Inst.Family]++
	}
	if wbResult.Wrote {
		p.recordRegWrite(wbResult)
	}

	var statsBefore cache.Statistics
	if p.dataCache != nil {
		statsBefore = p.dataCache.Stats()
	}
	memResult := p.memory.Access(&p.exmem, p.dataMem)
	if memResult.IssuedOp {
		p.stats.MemOpsIssued++
		hit := memResult.AccessOK
		if p.dataCache != nil {
			hit = p.dataCache.Stats().Misses == statsBefore.Misses
		}
		p.recordMemAccess(memResult, hit)
	}
	p.memwb = memResult.Latch

	exResult := p.execute.Execute(&p.idex, &exMemPrev, &memWbPrev)
	p.exmem = exResult.Latch
	if exResult.IsConditionalBranch {
		p.predictor.Update(p.idex.PC, p.idex.PredictedTarget, exResult.ActualTaken)
		if exResult.ActualTaken {
			p.stats.BranchesTaken++
		} else {
			p.stats.BranchesNotTaken++
		}
		if exResult.Mispredicted {
			p.stats.Mispredictions++
		}
	}
	if exResult.IsJump {
		p.stats.Jumps++
	}

	flushedThisCycle := false
	stalledThisCycle := false

	if exResult.Flush {
		p.idex.Clear()
		flushedThisCycle = true
	} else if !p.ifid.Valid {
		p.idex.Clear()
	} else {
		decResult := p.decode.Decode(&p.ifid)
		if p.loadUseHazard(&decResult.Latch) {
			p.idex.Clear()
			stalledThisCycle = true
			p.stats.Stalls++
		} else {
			p.idex = decResult.Latch
			p.recordRawEdges(&p.idex)
			if decResult.Flush {
				p.flush = true
				flushedThisCycle = true
			}
		}
	}

	if exResult.Flush {
		p.pc = exResult.NewPC
	}
	if flushedThisCycle && p.flush && !exResult.Flush {
		p.pc = p.decodeRedirectPC()
	}

	if stalledThisCycle {
		// IF stalls: latch and PC both held for exactly one cycle.
	} else if p.flush {
		p.ifid.Clear()
		p.flush = false
	} else {
		fr := p.fetch.Fetch(p.program, p.pc)
		if fr.Halt {
			p.halt = true
			p.ifid.Clear()
		} else {
			p.ifid = fr.Latch
			p.pc = fr.NextPC
		}
	}

	if flushedThisCycle {
		p.stats.Flushes++
	}

	if p.tracing {
		p.appendSnapshot(stalledThisCycle, flushedThisCycle)
	}
}

// decodeRedirectPC recovers the PC a just-completed Decode redirected to.
// It exists because Decode's own result is scoped to Tick's local
// decResult variable; Tick keeps the flush flag but, to avoid threading an
// extra field through the struct, recomputes the target from idex, which
// Decode has just populated for a predicted-taken conditional branch.
func (p *Pipeline) decodeRedirectPC() uint32 {
	return p.idex.PredictedTarget
}

// loadUseHazard reports whether the instruction currently finishing
// Execute this cycle (now sitting in p.exmem) is a load whose destination
// the instruction about to enter ID/EX (nextLatch) reads. This implements
// §4.E's one-cycle-stall resolution of the load-use hazard, delegating to
// HazardUnit.DetectLoadUseHazard so there is one rule for it.
func (p *Pipeline) loadUseHazard(nextLatch *IDEXRegister) bool {
	if nextLatch == nil || nextLatch.Inst == nil {
		return false
	}
	return p.hazard.DetectLoadUseHazard(
		p.exmem.Valid, p.exmem.MemRead, p.exmem.Rd,
		nextLatch.Rs1, nextLatch.Rs2,
		nextLatch.Inst.ReadsIntRS1(), nextLatch.Inst.ReadsIntRS2(),
	)
}

func (p *Pipeline) recordRegWrite(r WritebackResult) {
	p.regLog = append(p.regLog, RegisterChangeRecord{
		Cycle: p.stats.Cycles, PC: p.memwb.PC, Index: p.memwb.Rd,
		OldValue: r.OldValue, NewValue: r.NewValue, IsFloat: r.IsFloat,
	})
}

// recordRawEdges checks idex's just-decoded operands against the most
// recent instruction decoded to write that register and appends an edge
// for any producer still within the dependency window, then records idex
// itself as that register's producer for the next instruction to check.
// Tracking producers at decode time, rather than at commit, is what makes
// this catch the tight forwarding-distance dependencies the trace is
// actually meant to visualize.
func (p *Pipeline) recordRawEdges(idex *IDEXRegister) {
	inst := idex.Inst
	if inst == nil {
		return
	}
	if inst.ReadsIntRS1() {
		p.recordRawEdgeIfRecent(p.lastIntWrite[idex.Rs1], idex.PC, idex.Rs1, false)
	}
	if inst.ReadsIntRS2() {
		p.recordRawEdgeIfRecent(p.lastIntWrite[idex.Rs2], idex.PC, idex.Rs2, false)
	}
	if inst.FPRead1 {
		p.recordRawEdgeIfRecent(p.lastFPWrite[idex.Rs1], idex.PC, idex.Rs1, true)
	}
	if inst.FPRead2 {
		p.recordRawEdgeIfRecent(p.lastFPWrite[idex.Rs2], idex.PC, idex.Rs2, true)
	}

	rec := writeRecord{cycle: p.stats.Cycles, pc: idex.PC, valid: true}
	if idex.RegWrite && idex.Rd != 0 {
		p.lastIntWrite[idex.Rd] = rec
	}
	if idex.FPRegWrite {
		p.lastFPWrite[idex.Rd] = rec
	}
}

func (p *Pipeline) recordRawEdgeIfRecent(w writeRecord, consumerPC uint32, reg uint8, isFloat bool) {
	if !w.valid {
		return
	}
	if !isFloat && reg == 0 {
		return
	}
	if p.stats.Cycles-w.cycle > rawDependencyWindow {
		return
	}
	p.rawLog = append(p.rawLog, RAWEdge{
		ProducerPC: w.pc, ConsumerPC: consumerPC, Register: reg, IsFloat: isFloat,
	})
}

func (p *Pipeline) recordMemAccess(r MemoryResult, hit bool) {
	value := r.Latch.MemData
	if !r.WasLoad {
		value = p.exmem.StoreValue
	}
	p.memLog = append(p.memLog, MemoryAccessRecord{
		Cycle: p.stats.Cycles, PC: p.exmem.PC, Addr: r.AccessAddr,
		Value: value, IsStore: !r.WasLoad, Hit: hit, OK: r.AccessOK,
	})
}

func (p *Pipeline) appendSnapshot(stalled, flushed bool) {
	snap := PipelineSnapshot{
		Cycle:   p.stats.Cycles,
		IFID:    latchView(p.ifid.Valid, p.ifid.PC, nil, p.ifid.Word),
		IDEX:    latchView(p.idex.Valid, p.idex.PC, p.idex.Inst, 0),
		EXMEM:   latchView(p.exmem.Valid, p.exmem.PC, p.exmem.Inst, p.exmem.ALUResult),
		MEMWB:   latchView(p.memwb.Valid, p.memwb.PC, p.memwb.Inst, p.writebackValue()),
		Stalled: stalled,
		Flushed: flushed,
	}
	p.trace = append(p.trace, snap)
}

func (p *Pipeline) writebackValue() uint32 {
	if p.memwb.MemToReg {
		return p.memwb.MemData
	}
	return p.memwb.ALUResult
}
