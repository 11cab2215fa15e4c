// Package insts provides RV32IMF instruction definitions and decoding.
//
// This package decodes 32-bit RISC-V machine words (after RVC expansion,
// see compressed.go) into a structured Instruction carrying both the
// architectural fields (opcode, registers, immediate) and the control
// signals the pipeline's ID stage would otherwise have to re-derive on
// every cycle.
package insts

import "github.com/cycleacc/rv32pipe/emu"

// Op identifies the specific operation of a decoded instruction.
type Op uint16

// Recognized operations.
const (
	OpUnknown Op = iota

	OpADD
	OpSUB
	OpAND
	OpOR
	OpXOR
	OpSLL
	OpSRL
	OpSRA
	OpSLT
	OpSLTU
	OpMUL
	OpMULH
	OpMULHSU
	OpMULHU
	OpDIV
	OpDIVU
	OpREM
	OpREMU

	OpADDI
	OpANDI
	OpORI
	OpXORI
	OpSLTI
	OpSLTIU
	OpSLLI
	OpSRLI
	OpSRAI

	OpLB
	OpLBU
	OpLH
	OpLHU
	OpLW

	OpSB
	OpSH
	OpSW

	OpBEQ
	OpBNE
	OpBLT
	OpBGE
	OpBLTU
	OpBGEU

	OpJALR
	OpJAL
	OpLUI
	OpAUIPC

	OpFLW
	OpFSW
	OpFADDS
	OpFSUBS
	OpFMULS
	OpFDIVS
	OpFSGNJS
	OpFSGNJNS
	OpFSGNJXS
	OpFMINS
	OpFMAXS
	OpFSQRTS
	OpFCVTWS
	OpFCVTSW
	OpFMVXW
	OpFMVWX
	OpFEQS
	OpFLTS
	OpFLES
	OpFCLASSS

	OpHALT
)

// Family groups operations by the statistics/trace category they belong
// to (§4.F's by-family instruction breakdown).
type Family uint8

// Instruction families.
const (
	FamilyUnknown Family = iota
	FamilyR
	FamilyI
	FamilyLoad
	FamilyStore
	FamilyBranch
	FamilyJump
	FamilyUpperImm
	FamilyFP
	FamilyHalt
)

// Instruction is a fully decoded instruction together with the control
// signals the pipeline latches carry from ID onward.
type Instruction struct {
	Op     Op
	Family Family

	Rd, Rs1, Rs2 uint8

	// Imm is the fully sign-extended immediate, already scaled where the
	// encoding implies scaling (branch and jump offsets are byte offsets).
	Imm int32

	// RawWord is the original encoded instruction: the expanded 32-bit
	// word for compressed instructions, used for disassembly.
	RawWord uint32

	// IsCompressed and CompressedHalf record the original 16-bit encoding
	// so any stage can render the true encoded form.
	IsCompressed   bool
	CompressedHalf uint16

	// Control signals.
	RegWrite   bool // writes the integer register file
	ALUSrc     bool // operand 2 is the immediate, not rs2
	Branch     bool // conditional branch
	MemRead    bool
	MemWrite   bool
	MemToReg   bool // result comes from loaded memory data
	UpperImm   bool // LUI/AUIPC: operand 1 is the immediate
	FPRegWrite bool
	FPRead1    bool
	FPRead2    bool

	ALUOp  emu.ALUOp
	FPUOp  emu.FPUOp
	Width  emu.AccessSize
	Signed bool // sign- vs zero-extend on load
}

// ReadsIntRS1 reports whether Decode must read rs1 from the integer
// register file. False for ops that either don't use rs1 (LUI, AUIPC,
// JAL) or that name an FP source register in the rs1 field instead.
func (i *Instruction) ReadsIntRS1() bool {
	switch i.Op {
	case OpLUI, OpAUIPC, OpJAL, OpHALT, OpUnknown:
		return false
	}
	return !i.FPRead1
}

// ReadsIntRS2 reports whether Decode must read rs2 from the integer
// register file: R-type and branch operands, plus the store-data operand
// of SB/SH/SW (FSW's store data is FP and goes through FPRead2 instead).
func (i *Instruction) ReadsIntRS2() bool {
	if i.FPRead2 {
		return false
	}
	switch i.Family {
	case FamilyR, FamilyBranch:
		return true
	}
	switch i.Op {
	case OpSB, OpSH, OpSW:
		return true
	}
	return false
}
