package insts

import "github.com/cycleacc/rv32pipe/emu"

// Decoder decodes 32-bit RISC-V machine words into Instructions.
type Decoder struct{}

// NewDecoder creates a new RV32IMF instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit instruction word. Unrecognized opcodes and
// illegal funct3 values decode to OpUnknown, and the all-zero halt sentinel
// to OpHALT; the caller (the pipeline's ID stage) treats OpUnknown as a NOP
// and OpHALT as end-of-program. funct7 is consulted only where it selects
// an operation: a funct7 value that selects none is not rejected.
func (d *Decoder) Decode(word uint32) *Instruction {
	if word == 0 {
		return &Instruction{Op: OpHALT, Family: FamilyHalt, RawWord: word}
	}

	opcode := word & 0x7F
	funct3 := uint8((word >> 12) & 0x7)
	funct7 := uint8((word >> 25) & 0x7F)
	rd := uint8((word >> 7) & 0x1F)
	rs1 := uint8((word >> 15) & 0x1F)
	rs2 := uint8((word >> 20) & 0x1F)

	inst := &Instruction{RawWord: word, Rd: rd, Rs1: rs1, Rs2: rs2}

	switch opcode {
	case 0x33:
		decodeRType(inst, funct3, funct7)
	case 0x13:
		decodeIType(inst, word, funct3, funct7)
	case 0x03:
		decodeLoad(inst, word, funct3)
	case 0x23:
		decodeStore(inst, word, funct3)
	case 0x63:
		decodeBranch(inst, word, funct3)
	case 0x67:
		decodeJALR(inst, word)
	case 0x6F:
		decodeJAL(inst, word)
	case 0x37:
		decodeLUI(inst, word)
	case 0x17:
		decodeAUIPC(inst, word)
	case 0x07:
		decodeFLW(inst, word)
	case 0x27:
		decodeFSW(inst, word)
	case 0x53:
		decodeFPOp(inst, word, funct3, funct7)
	default:
		inst.Op = OpUnknown
		inst.Family = FamilyUnknown
	}

	return inst
}

func signExtend(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}

func decodeRType(inst *Instruction, funct3, funct7 uint8) {
	inst.Family = FamilyR
	inst.RegWrite = true

	if funct7 == 0x01 {
		switch funct3 {
		case 0x0:
			inst.Op, inst.ALUOp = OpMUL, emu.ALUMUL
		case 0x1:
			inst.Op, inst.ALUOp = OpMULH, emu.ALUMULH
		case 0x2:
			inst.Op, inst.ALUOp = OpMULHSU, emu.ALUMULHSU
		case 0x3:
			inst.Op, inst.ALUOp = OpMULHU, emu.ALUMULHU
		case 0x4:
			inst.Op, inst.ALUOp = OpDIV, emu.ALUDIV
		case 0x5:
			inst.Op, inst.ALUOp = OpDIVU, emu.ALUDIVU
		case 0x6:
			inst.Op, inst.ALUOp = OpREM, emu.ALUREM
		case 0x7:
			inst.Op, inst.ALUOp = OpREMU, emu.ALUREMU
		default:
			inst.Op, inst.RegWrite = OpUnknown, false
		}
		return
	}

	switch funct3 {
	case 0x0:
		if funct7 == 0x20 {
			inst.Op, inst.ALUOp = OpSUB, emu.ALUSub
		} else {
			inst.Op, inst.ALUOp = OpADD, emu.ALUAdd
		}
	case 0x1:
		inst.Op, inst.ALUOp = OpSLL, emu.ALUSLL
	case 0x2:
		inst.Op, inst.ALUOp = OpSLT, emu.ALUSLT
	case 0x3:
		inst.Op, inst.ALUOp = OpSLTU, emu.ALUSLTU
	case 0x4:
		inst.Op, inst.ALUOp = OpXOR, emu.ALUXor
	case 0x5:
		if funct7 == 0x20 {
			inst.Op, inst.ALUOp = OpSRA, emu.ALUSRA
		} else {
			inst.Op, inst.ALUOp = OpSRL, emu.ALUSRL
		}
	case 0x6:
		inst.Op, inst.ALUOp = OpOR, emu.ALUOr
	case 0x7:
		inst.Op, inst.ALUOp = OpAND, emu.ALUAnd
	default:
		inst.Op, inst.RegWrite = OpUnknown, false
	}
}

func decodeIType(inst *Instruction, word uint32, funct3, funct7 uint8) {
	inst.Family = FamilyI
	inst.RegWrite = true
	inst.ALUSrc = true
	inst.Imm = signExtend(word>>20, 12)

	switch funct3 {
	case 0x0:
		inst.Op, inst.ALUOp = OpADDI, emu.ALUAdd
	case 0x1:
		inst.Op, inst.ALUOp = OpSLLI, emu.ALUSLL
		inst.Imm = int32(word>>20) & 0x1F
	case 0x2:
		inst.Op, inst.ALUOp = OpSLTI, emu.ALUSLT
	case 0x3:
		inst.Op, inst.ALUOp = OpSLTIU, emu.ALUSLTU
	case 0x4:
		inst.Op, inst.ALUOp = OpXORI, emu.ALUXor
	case 0x5:
		inst.Imm = int32(word>>20) & 0x1F
		if funct7 == 0x20 {
			inst.Op, inst.ALUOp = OpSRAI, emu.ALUSRA
		} else {
			inst.Op, inst.ALUOp = OpSRLI, emu.ALUSRL
		}
	case 0x6:
		inst.Op, inst.ALUOp = OpORI, emu.ALUOr
	case 0x7:
		inst.Op, inst.ALUOp = OpANDI, emu.ALUAnd
	default:
		inst.Op, inst.RegWrite, inst.ALUSrc = OpUnknown, false, false
	}
}

func decodeLoad(inst *Instruction, word uint32, funct3 uint8) {
	inst.Family = FamilyLoad
	inst.RegWrite = true
	inst.ALUSrc = true
	inst.MemRead = true
	inst.MemToReg = true
	inst.Imm = signExtend(word>>20, 12)
	inst.ALUOp = emu.ALUAdd

	switch funct3 {
	case 0x0:
		inst.Op, inst.Width, inst.Signed = OpLB, emu.SizeByte, true
	case 0x1:
		inst.Op, inst.Width, inst.Signed = OpLH, emu.SizeHalf, true
	case 0x2:
		inst.Op, inst.Width, inst.Signed = OpLW, emu.SizeWord, true
	case 0x4:
		inst.Op, inst.Width, inst.Signed = OpLBU, emu.SizeByte, false
	case 0x5:
		inst.Op, inst.Width, inst.Signed = OpLHU, emu.SizeHalf, false
	default:
		inst.Op, inst.RegWrite, inst.MemRead, inst.MemToReg = OpUnknown, false, false, false
	}
}

func decodeStore(inst *Instruction, word uint32, funct3 uint8) {
	inst.Family = FamilyStore
	inst.ALUSrc = true
	inst.MemWrite = true
	inst.ALUOp = emu.ALUAdd

	imm11_5 := (word >> 25) & 0x7F
	imm4_0 := (word >> 7) & 0x1F
	inst.Imm = signExtend((imm11_5<<5)|imm4_0, 12)

	switch funct3 {
	case 0x0:
		inst.Op, inst.Width = OpSB, emu.SizeByte
	case 0x1:
		inst.Op, inst.Width = OpSH, emu.SizeHalf
	case 0x2:
		inst.Op, inst.Width = OpSW, emu.SizeWord
	default:
		inst.Op, inst.MemWrite = OpUnknown, false
	}
}

func decodeBranch(inst *Instruction, word uint32, funct3 uint8) {
	inst.Family = FamilyBranch
	inst.Branch = true

	b11 := (word >> 7) & 0x1
	b4_1 := (word >> 8) & 0xF
	b10_5 := (word >> 25) & 0x3F
	b12 := (word >> 31) & 0x1
	raw := (b12 << 12) | (b11 << 11) | (b10_5 << 5) | (b4_1 << 1)
	inst.Imm = signExtend(raw, 13)

	switch funct3 {
	case 0x0:
		inst.Op, inst.ALUOp = OpBEQ, emu.ALUBEQ
	case 0x1:
		inst.Op, inst.ALUOp = OpBNE, emu.ALUBNE
	case 0x4:
		inst.Op, inst.ALUOp = OpBLT, emu.ALUBLT
	case 0x5:
		inst.Op, inst.ALUOp = OpBGE, emu.ALUBGE
	case 0x6:
		inst.Op, inst.ALUOp = OpBLTU, emu.ALUBLTU
	case 0x7:
		inst.Op, inst.ALUOp = OpBGEU, emu.ALUBGEU
	default:
		inst.Op, inst.Branch = OpUnknown, false
	}
}

func decodeJALR(inst *Instruction, word uint32) {
	if (word>>12)&0x7 != 0 {
		inst.Op = OpUnknown
		return
	}
	inst.Op = OpJALR
	inst.Family = FamilyJump
	inst.RegWrite = true
	inst.ALUSrc = true
	inst.Imm = signExtend(word>>20, 12)
}

func decodeJAL(inst *Instruction, word uint32) {
	inst.Op = OpJAL
	inst.Family = FamilyJump
	inst.RegWrite = true

	b20 := (word >> 31) & 0x1
	b19_12 := (word >> 12) & 0xFF
	b11 := (word >> 20) & 0x1
	b10_1 := (word >> 21) & 0x3FF
	raw := (b20 << 20) | (b19_12 << 12) | (b11 << 11) | (b10_1 << 1)
	inst.Imm = signExtend(raw, 21)
}

func decodeLUI(inst *Instruction, word uint32) {
	inst.Op = OpLUI
	inst.Family = FamilyUpperImm
	inst.RegWrite = true
	inst.UpperImm = true
	inst.Imm = int32(word & 0xFFFFF000)
}

func decodeAUIPC(inst *Instruction, word uint32) {
	inst.Op = OpAUIPC
	inst.Family = FamilyUpperImm
	inst.RegWrite = true
	inst.UpperImm = true
	inst.Imm = int32(word & 0xFFFFF000)
}

func decodeFLW(inst *Instruction, word uint32) {
	inst.Op = OpFLW
	inst.Family = FamilyFP
	inst.ALUSrc = true
	inst.MemRead = true
	inst.MemToReg = true
	inst.FPRegWrite = true
	inst.Width = emu.SizeWord
	inst.ALUOp = emu.ALUAdd
	inst.Imm = signExtend(word>>20, 12)
}

func decodeFSW(inst *Instruction, word uint32) {
	inst.Op = OpFSW
	inst.Family = FamilyFP
	inst.ALUSrc = true
	inst.MemWrite = true
	inst.FPRead2 = true
	inst.Width = emu.SizeWord
	inst.ALUOp = emu.ALUAdd

	imm11_5 := (word >> 25) & 0x7F
	imm4_0 := (word >> 7) & 0x1F
	inst.Imm = signExtend((imm11_5<<5)|imm4_0, 12)
}

func decodeFPOp(inst *Instruction, word uint32, funct3, funct7 uint8) {
	inst.Family = FamilyFP
	inst.FPRead1 = true

	switch funct7 {
	case 0x00:
		inst.Op, inst.FPUOp, inst.FPRegWrite, inst.FPRead2 = OpFADDS, emu.FPUAdd, true, true
	case 0x04:
		inst.Op, inst.FPUOp, inst.FPRegWrite, inst.FPRead2 = OpFSUBS, emu.FPUSub, true, true
	case 0x08:
		inst.Op, inst.FPUOp, inst.FPRegWrite, inst.FPRead2 = OpFMULS, emu.FPUMul, true, true
	case 0x0C:
		inst.Op, inst.FPUOp, inst.FPRegWrite, inst.FPRead2 = OpFDIVS, emu.FPUDiv, true, true
	case 0x10:
		inst.FPRead2 = true
		inst.FPRegWrite = true
		switch funct3 {
		case 0x0:
			inst.Op, inst.FPUOp = OpFSGNJS, emu.FPUSgnJ
		case 0x1:
			inst.Op, inst.FPUOp = OpFSGNJNS, emu.FPUSgnJN
		case 0x2:
			inst.Op, inst.FPUOp = OpFSGNJXS, emu.FPUSgnJX
		default:
			inst.Op, inst.FPRegWrite, inst.FPRead2 = OpUnknown, false, false
		}
	case 0x14:
		inst.FPRead2 = true
		inst.FPRegWrite = true
		if funct3 == 0x0 {
			inst.Op, inst.FPUOp = OpFMINS, emu.FPUMin
		} else {
			inst.Op, inst.FPUOp = OpFMAXS, emu.FPUMax
		}
	case 0x2C:
		inst.Op, inst.FPUOp, inst.FPRegWrite = OpFSQRTS, emu.FPUSqrt, true
	case 0x60:
		inst.Op, inst.FPUOp, inst.RegWrite = OpFCVTWS, emu.FPUCvtWS, true
	case 0x68:
		// fcvt.s.w: rs1 names an INTEGER source register, not FP.
		inst.Op, inst.FPUOp, inst.FPRegWrite, inst.FPRead1 = OpFCVTSW, emu.FPUCvtSW, true, false
	case 0x70:
		inst.FPRead2 = false
		if funct3 == 0x0 {
			inst.Op, inst.FPUOp, inst.RegWrite = OpFMVXW, emu.FPUMvXW, true
		} else {
			inst.Op, inst.FPUOp, inst.RegWrite = OpFCLASSS, emu.FPUClass, true
		}
	case 0x50:
		inst.FPRead2 = true
		inst.RegWrite = true
		switch funct3 {
		case 0x0:
			inst.Op, inst.FPUOp = OpFLES, emu.FPULe
		case 0x1:
			inst.Op, inst.FPUOp = OpFLTS, emu.FPULt
		case 0x2:
			inst.Op, inst.FPUOp = OpFEQS, emu.FPUEq
		default:
			inst.Op, inst.RegWrite, inst.FPRead2 = OpUnknown, false, false
		}
	case 0x78:
		// fmv.w.x: rs1 names an INTEGER source register, not FP.
		inst.Op, inst.FPUOp, inst.FPRegWrite, inst.FPRead1 = OpFMVWX, emu.FPUMvWX, true, false
	default:
		inst.Op, inst.FPRead1 = OpUnknown, false
	}
}
