// Package pipeline provides the 5-stage pipeline model for cycle-accurate
// timing simulation of the RV32IMF core.
package pipeline

import (
	"github.com/cycleacc/rv32pipe/emu"
	"github.com/cycleacc/rv32pipe/insts"
	"github.com/cycleacc/rv32pipe/timing/predictor"
)

// FetchStage reads the next instruction out of the program image, expanding
// a compressed (RVC) half-word to its 32-bit equivalent where applicable.
type FetchStage struct{}

// NewFetchStage creates a new fetch stage.
func NewFetchStage() *FetchStage {
	return &FetchStage{}
}

// FetchResult holds the outcome of one Fetch invocation.
type FetchResult struct {
	Latch  IFIDRegister
	NextPC uint32
	Halt   bool
}

// Fetch reads the instruction at pc from program. The all-zero halt
// sentinel is checked against the full instruction word before the low-bit
// compressed/full split is applied, so a halt at an address whose
// low-halfword also happens to be zero is never mistaken for a reserved
// compressed encoding.
func (s *FetchStage) Fetch(program []byte, pc uint32) FetchResult {
	maxPC := uint32(len(program))
	if pc >= maxPC {
		return FetchResult{Halt: true, NextPC: pc}
	}

	if pc+4 <= maxPC {
		word := readWord32(program, pc)
		if word == 0 {
			return FetchResult{Halt: true, NextPC: pc}
		}
		if word&0x3 == 0x3 {
			return FetchResult{
				Latch:  IFIDRegister{Valid: true, PC: pc, Word: word},
				NextPC: pc + 4,
			}
		}
		return s.fetchCompressed(pc, uint16(word))
	}

	if pc+2 <= maxPC {
		half := readHalf16(program, pc)
		if half == 0 {
			return FetchResult{Halt: true, NextPC: pc}
		}
		if half&0x3 == 0x3 {
			// A full-width opcode with no room left for its other half:
			// treat as undecodable rather than reading past the image.
			return FetchResult{Latch: IFIDRegister{}, NextPC: pc + 2}
		}
		return s.fetchCompressed(pc, half)
	}

	return FetchResult{Halt: true, NextPC: pc}
}

func (s *FetchStage) fetchCompressed(pc uint32, half uint16) FetchResult {
	word, ok := insts.ExpandCompressed(half)
	if !ok {
		return FetchResult{Latch: IFIDRegister{}, NextPC: pc + 2}
	}
	return FetchResult{
		Latch: IFIDRegister{
			Valid: true, PC: pc, Word: word,
			IsCompressed: true, CompressedHalf: half,
		},
		NextPC: pc + 2,
	}
}

func readWord32(program []byte, pc uint32) uint32 {
	return uint32(program[pc]) | uint32(program[pc+1])<<8 |
		uint32(program[pc+2])<<16 | uint32(program[pc+3])<<24
}

func readHalf16(program []byte, pc uint32) uint16 {
	return uint16(program[pc]) | uint16(program[pc+1])<<8
}

// DecodeStage decodes the fetched word, reads operands from the register
// files, and, for conditional branches, consults the branch predictor.
type DecodeStage struct {
	regFile   *emu.RegFile
	decoder   *insts.Decoder
	predictor predictor.Predictor
}

// NewDecodeStage creates a new decode stage.
func NewDecodeStage(regFile *emu.RegFile, p predictor.Predictor) *DecodeStage {
	return &DecodeStage{regFile: regFile, decoder: insts.NewDecoder(), predictor: p}
}

// DecodeResult holds the outcome of one Decode invocation.
type DecodeResult struct {
	Latch IDEXRegister

	// Flush and NewPC describe a redirect decided here: only conditional
	// branches predicted taken raise it; JAL/JALR are resolved in
	// Execute because JALR's target depends on a register operand that
	// needs Execute's forwarding network to be correct, and JAL is kept
	// on the same path for uniformity.
	Flush bool
	NewPC uint32

	// PredictedBranch/PredictedTaken describe the prediction made here,
	// reported back for statistics once Execute resolves the outcome.
	PredictedBranch bool
	PredictedTaken  bool
}

// Decode decodes ifid's word, reads the register files, and predicts
// conditional branches. It changes no predictor table or counter — only
// Execute's call to Update does; the tournament predictor merely notes
// which subpredictor it consulted — so it is always safe to call even if
// the caller ends up discarding the result for a load-use stall.
func (s *DecodeStage) Decode(ifid *IFIDRegister) DecodeResult {
	if !ifid.Valid {
		return DecodeResult{}
	}

	inst := s.decoder.Decode(ifid.Word)
	inst.IsCompressed = ifid.IsCompressed
	inst.CompressedHalf = ifid.CompressedHalf

	width := uint32(4)
	if ifid.IsCompressed {
		width = 2
	}

	latch := IDEXRegister{
		Valid: true,
		PC:    ifid.PC,
		Inst:  inst,

		Rd: inst.Rd, Rs1: inst.Rs1, Rs2: inst.Rs2,
		Imm: inst.Imm,

		RegWrite: inst.RegWrite, ALUSrc: inst.ALUSrc, Branch: inst.Branch,
		MemRead: inst.MemRead, MemWrite: inst.MemWrite, MemToReg: inst.MemToReg,
		UpperImm: inst.UpperImm, FPRegWrite: inst.FPRegWrite,
		FPRead1: inst.FPRead1, FPRead2: inst.FPRead2, Signed: inst.Signed,

		ALUOp: inst.ALUOp, FPUOp: inst.FPUOp, Width: inst.Width,

		SeqPC: ifid.PC + width,
	}

	if inst.ReadsIntRS1() {
		latch.Op1 = s.regFile.ReadReg(inst.Rs1)
	}
	if inst.ReadsIntRS2() {
		latch.Op2 = s.regFile.ReadReg(inst.Rs2)
	}
	if inst.FPRead1 {
		latch.FOp1 = s.regFile.ReadFReg(inst.Rs1)
	}
	if inst.FPRead2 {
		latch.FOp2 = s.regFile.ReadFReg(inst.Rs2)
	}

	result := DecodeResult{Latch: latch}

	switch inst.Op {
	case insts.OpBEQ, insts.OpBNE, insts.OpBLT, insts.OpBGE, insts.OpBLTU, insts.OpBGEU:
		target := ifid.PC + uint32(inst.Imm)
		pred := s.predictor.Predict(ifid.PC, target)
		latch.PredictedTaken = pred.Taken
		latch.PredictedTarget = target
		result.PredictedBranch = true
		result.PredictedTaken = pred.Taken
		if pred.Taken {
			result.Flush = true
			result.NewPC = target
		}
	case insts.OpJAL, insts.OpJALR:
		latch.IsJump = true
	}

	result.Latch = latch
	return result
}

// ExecuteStage invokes the ALU/FPU, resolves forwarding from the pre-tick
// EX/MEM and MEM/WB snapshots, and resolves branch/jump control flow.
type ExecuteStage struct {
	hazard *HazardUnit
}

// NewExecuteStage creates a new execute stage.
func NewExecuteStage(hazard *HazardUnit) *ExecuteStage {
	return &ExecuteStage{hazard: hazard}
}

// ExecuteResult holds the outcome of one Execute invocation.
type ExecuteResult struct {
	Latch EXMEMRegister

	Flush bool
	NewPC uint32

	IsConditionalBranch bool
	ActualTaken         bool
	Mispredicted        bool
	IsJump              bool
}

// Execute runs idex's operation, forwarding from exMemPrev/memWbPrev (the
// snapshots taken before this tick's stages ran), and decides any redirect.
func (s *ExecuteStage) Execute(
	idex *IDEXRegister,
	exMemPrev *EXMEMRegister,
	memWbPrev *MEMWBRegister,
) ExecuteResult {
	if !idex.Valid {
		return ExecuteResult{}
	}
	inst := idex.Inst

	fwd := s.hazard.DetectForwarding(idex, exMemPrev, memWbPrev)
	fpFwd := s.hazard.DetectFPForwarding(idex, exMemPrev, memWbPrev)

	op1 := s.hazard.GetForwardedValue(fwd.ForwardRs1, idex.Op1, exMemPrev, memWbPrev)
	op2 := s.hazard.GetForwardedValue(fwd.ForwardRs2, idex.Op2, exMemPrev, memWbPrev)
	fop1 := s.hazard.GetForwardedFPValue(fpFwd.ForwardRs1, idex.FOp1, exMemPrev, memWbPrev)
	fop2 := s.hazard.GetForwardedFPValue(fpFwd.ForwardRs2, idex.FOp2, exMemPrev, memWbPrev)

	isFPCompute := inst.Family == insts.FamilyFP && inst.Op != insts.OpFLW && inst.Op != insts.OpFSW

	var aluResult uint32
	var zero bool

	switch {
	case isFPCompute:
		r := emu.FPUExec(fop1, fop2, op1, inst.FPUOp)
		aluResult = r.Bits
	case inst.Op == insts.OpLUI:
		aluResult, zero = emu.ALUExec(uint32(idex.Imm), 0, idex.ALUOp)
	case inst.Op == insts.OpAUIPC:
		aluResult, zero = emu.ALUExec(idex.PC, uint32(idex.Imm), idex.ALUOp)
	default:
		rawOp2 := op2
		if idex.ALUSrc {
			rawOp2 = uint32(idex.Imm)
		}
		aluResult, zero = emu.ALUExec(op1, rawOp2, idex.ALUOp)
	}

	storeData := op2
	if inst.Op == insts.OpFSW {
		storeData = fop2
	}

	latch := EXMEMRegister{
		Valid: true, PC: idex.PC, Inst: inst,
		ALUResult:  aluResult,
		StoreValue: storeData,
		Rd:         idex.Rd,
		MemRead:    idex.MemRead, MemWrite: idex.MemWrite, RegWrite: idex.RegWrite,
		MemToReg: idex.MemToReg, FPRegWrite: idex.FPRegWrite, Signed: idex.Signed,
		Width: idex.Width,
	}

	result := ExecuteResult{}

	switch {
	case inst.Op == insts.OpJAL:
		latch.ALUResult = idex.SeqPC
		result.IsJump = true
		result.Flush = true
		result.NewPC = idex.PC + uint32(idex.Imm)

	case inst.Op == insts.OpJALR:
		latch.ALUResult = idex.SeqPC
		result.IsJump = true
		result.Flush = true
		result.NewPC = (op1 + uint32(idex.Imm)) &^ 1

	case idex.Branch:
		actualTaken := zero
		result.IsConditionalBranch = true
		result.ActualTaken = actualTaken
		if actualTaken != idex.PredictedTaken {
			result.Mispredicted = true
			result.Flush = true
			if actualTaken {
				result.NewPC = idex.PredictedTarget
			} else {
				result.NewPC = idex.SeqPC
			}
		}
	}

	result.Latch = latch
	return result
}

// MemoryStage issues the load/store computed by Execute to the configured
// memory device, sign- or zero-extending load results to 32 bits.
type MemoryStage struct{}

// NewMemoryStage creates a new memory stage.
func NewMemoryStage() *MemoryStage {
	return &MemoryStage{}
}

// MemoryResult holds the outcome of one Memory invocation.
type MemoryResult struct {
	Latch       MEMWBRegister
	IssuedOp    bool
	WasLoad     bool
	AccessOK    bool
	AccessAddr  uint32
}

// Access runs exmem's load/store, if any, against mem.
func (s *MemoryStage) Access(exmem *EXMEMRegister, mem emu.MemoryDevice) MemoryResult {
	if !exmem.Valid {
		return MemoryResult{}
	}

	latch := MEMWBRegister{
		Valid: true, PC: exmem.PC, Inst: exmem.Inst,
		ALUResult: exmem.ALUResult,
		Rd:        exmem.Rd,
		RegWrite:  exmem.RegWrite, MemToReg: exmem.MemToReg, FPRegWrite: exmem.FPRegWrite,
	}

	result := MemoryResult{AccessAddr: exmem.ALUResult}

	switch {
	case exmem.MemRead:
		result.IssuedOp = true
		result.WasLoad = true
		raw, ok := mem.Load(exmem.ALUResult, exmem.Width)
		result.AccessOK = ok
		latch.MemValid = ok
		if ok {
			latch.MemData = extendLoad(raw, exmem.Width, exmem.Signed, exmem.Inst.Op == insts.OpFLW)
		}
	case exmem.MemWrite:
		result.IssuedOp = true
		ok := mem.Store(exmem.ALUResult, exmem.StoreValue, exmem.Width)
		result.AccessOK = ok
		latch.MemValid = ok
	}

	result.Latch = latch
	return result
}

// extendLoad sign- or zero-extends a sub-word load. Floating-point loads
// (FLW) are always full words and are never extended.
func extendLoad(raw uint32, size emu.AccessSize, signed bool, isFP bool) uint32 {
	if isFP || size == emu.SizeWord {
		return raw
	}
	if !signed {
		return raw
	}
	bits := uint(size) * 8
	shift := 32 - bits
	return uint32(int32(raw<<shift) >> shift)
}

// WritebackStage commits a completed instruction's result to the register
// files.
type WritebackStage struct {
	regFile *emu.RegFile
}

// NewWritebackStage creates a new writeback stage.
func NewWritebackStage(regFile *emu.RegFile) *WritebackStage {
	return &WritebackStage{regFile: regFile}
}

// WritebackResult holds the outcome of one Writeback invocation.
type WritebackResult struct {
	Retired bool

	// Wrote, OldValue, NewValue, and IsFloat describe the register
	// change, if any, for the register-change log. Wrote is false for
	// stores, branches, and writes to x0.
	Wrote    bool
	OldValue uint32
	NewValue uint32
	IsFloat  bool
}

// Writeback commits memwb's result, if the latch is valid. Every valid
// latch retires exactly one instruction, whether or not it writes a
// register (stores and branches retire without writing).
func (s *WritebackStage) Writeback(memwb *MEMWBRegister) WritebackResult {
	if !memwb.Valid {
		return WritebackResult{}
	}

	value := memwb.ALUResult
	if memwb.MemToReg {
		value = memwb.MemData
	}

	result := WritebackResult{Retired: true}

	if memwb.RegWrite && memwb.Rd != 0 {
		result.Wrote = true
		result.OldValue = s.regFile.ReadReg(memwb.Rd)
		result.NewValue = value
		s.regFile.WriteReg(memwb.Rd, value)
	}
	if memwb.FPRegWrite {
		result.Wrote = true
		result.IsFloat = true
		result.OldValue = s.regFile.ReadFReg(memwb.Rd)
		result.NewValue = value
		s.regFile.WriteFReg(memwb.Rd, value)
	}

	return result
}
