// Package pipeline provides the 5-stage (Fetch/Decode/Execute/Memory/
// Writeback) in-order pipeline implementation for timing simulation.
package pipeline

import (
	"github.com/cycleacc/rv32pipe/emu"
	"github.com/cycleacc/rv32pipe/insts"
)

// IFIDRegister holds state between Fetch and Decode stages.
type IFIDRegister struct {
	// Valid indicates if this pipeline register contains valid data.
	Valid bool

	// PC is the program counter of the fetched instruction.
	PC uint32

	// Word is the instruction word, already expanded to its 32-bit
	// equivalent if it was originally a 16-bit compressed encoding.
	Word uint32

	// IsCompressed and CompressedHalf preserve the original encoding so
	// any later stage can render the instruction as it was actually
	// fetched, not just its expanded form.
	IsCompressed   bool
	CompressedHalf uint16
}

// Clear resets the IF/ID register to empty state.
func (r *IFIDRegister) Clear() {
	r.Valid = false
	r.PC = 0
	r.Word = 0
	r.IsCompressed = false
	r.CompressedHalf = 0
}

// IDEXRegister holds state between Decode and Execute stages.
type IDEXRegister struct {
	// Valid indicates if this pipeline register contains valid data.
	Valid bool

	// PC is the program counter of the instruction.
	PC uint32

	// Inst is the decoded instruction.
	Inst *insts.Instruction

	// Register values read from the register files in Decode.
	Op1, Op2   uint32 // integer operands
	FOp1, FOp2 uint32 // floating-point operands

	// Register numbers for hazard detection and forwarding.
	Rd, Rs1, Rs2 uint8

	Imm int32

	// Control signals, copied from the decoded instruction.
	RegWrite   bool
	ALUSrc     bool
	Branch     bool
	MemRead    bool
	MemWrite   bool
	MemToReg   bool
	UpperImm   bool
	FPRegWrite bool
	FPRead1    bool
	FPRead2    bool
	Signed     bool

	ALUOp emu.ALUOp
	FPUOp emu.FPUOp
	Width emu.AccessSize

	// SeqPC is PC advanced by the fetched instruction's own width (2 for
	// compressed, 4 otherwise): the link value for JAL/JALR and the
	// not-taken redirect target for a mispredicted-taken branch.
	SeqPC uint32

	// Branch prediction info, recorded by Decode so Execute can
	// compare the resolved outcome against what Decode predicted.
	PredictedTaken  bool
	PredictedTarget uint32
	// IsJump marks JAL/JALR: an always-taken redirect Execute resolves
	// unconditionally, counted separately from conditional prediction
	// accuracy.
	IsJump bool
}

// Clear resets the ID/EX register to empty state.
func (r *IDEXRegister) Clear() {
	*r = IDEXRegister{}
}

// EXMEMRegister holds state between Execute and Memory stages.
type EXMEMRegister struct {
	// Valid indicates if this pipeline register contains valid data.
	Valid bool

	// PC is the program counter of the instruction.
	PC uint32

	// Inst is the decoded instruction.
	Inst *insts.Instruction

	// ALUResult is the address for load/store, or the arithmetic/FPU
	// result for everything else, including the link value for JAL/JALR.
	ALUResult uint32

	// StoreValue is rs2's forwarded value, used by Memory for stores.
	StoreValue uint32

	// Destination register number.
	Rd uint8

	// Control signals (propagated from ID/EX).
	MemRead    bool
	MemWrite   bool
	RegWrite   bool
	MemToReg   bool
	FPRegWrite bool
	Signed     bool

	Width emu.AccessSize
}

// Clear resets the EX/MEM register to empty state.
func (r *EXMEMRegister) Clear() {
	*r = EXMEMRegister{}
}

// MEMWBRegister holds state between Memory and Writeback stages.
type MEMWBRegister struct {
	// Valid indicates if this pipeline register contains valid data.
	Valid bool

	// PC is the program counter of the instruction.
	PC uint32

	// Inst is the decoded instruction.
	Inst *insts.Instruction

	// ALU/FPU result.
	ALUResult uint32

	// Data read from memory (for load instructions), already sign- or
	// zero-extended to 32 bits.
	MemData uint32

	// Destination register number.
	Rd uint8

	// Control signals.
	RegWrite   bool
	MemToReg   bool // true if the result comes from memory, not the ALU
	FPRegWrite bool

	// MemValid records whether Memory's load/store actually succeeded. A
	// misaligned or out-of-bounds access still retires: a failed load
	// writes 0 (MemData defaults to its zero value) and a failed store
	// has no effect on memory, matching the no-op policy for bad
	// accesses.
	MemValid bool
}

// Clear resets the MEM/WB register to empty state.
func (r *MEMWBRegister) Clear() {
	*r = MEMWBRegister{}
}
