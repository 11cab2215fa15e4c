package insts

import "fmt"

// regNames gives the standard RV32I ABI names for the 32 integer registers,
// used so trace output reads like assembly rather than raw indices.
var regNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

func regName(r uint8) string {
	if int(r) < len(regNames) {
		return regNames[r]
	}
	return fmt.Sprintf("x%d", r)
}

func fregName(r uint8) string { return fmt.Sprintf("f%d", r) }

// Disassemble renders inst as a short assembly-like mnemonic for trace
// output. It never fails: an OpUnknown instruction renders as "nop" since
// that's how the pipeline treats it.
func Disassemble(inst *Instruction) string {
	if inst == nil {
		return "?"
	}

	rd, rs1, rs2 := regName(inst.Rd), regName(inst.Rs1), regName(inst.Rs2)

	switch inst.Op {
	case OpHALT:
		return "halt"
	case OpUnknown:
		return "nop"

	case OpADD, OpSUB, OpAND, OpOR, OpXOR, OpSLL, OpSRL, OpSRA, OpSLT, OpSLTU,
		OpMUL, OpMULH, OpMULHSU, OpMULHU, OpDIV, OpDIVU, OpREM, OpREMU:
		return fmt.Sprintf("%s %s, %s, %s", mnemonic(inst.Op), rd, rs1, rs2)

	case OpADDI, OpANDI, OpORI, OpXORI, OpSLTI, OpSLTIU, OpSLLI, OpSRLI, OpSRAI:
		return fmt.Sprintf("%s %s, %s, %d", mnemonic(inst.Op), rd, rs1, inst.Imm)

	case OpLB, OpLBU, OpLH, OpLHU, OpLW:
		return fmt.Sprintf("%s %s, %d(%s)", mnemonic(inst.Op), rd, inst.Imm, rs1)
	case OpSB, OpSH, OpSW:
		return fmt.Sprintf("%s %s, %d(%s)", mnemonic(inst.Op), rs2, inst.Imm, rs1)

	case OpBEQ, OpBNE, OpBLT, OpBGE, OpBLTU, OpBGEU:
		return fmt.Sprintf("%s %s, %s, %d", mnemonic(inst.Op), rs1, rs2, inst.Imm)

	case OpJAL:
		return fmt.Sprintf("jal %s, %d", rd, inst.Imm)
	case OpJALR:
		return fmt.Sprintf("jalr %s, %d(%s)", rd, inst.Imm, rs1)
	case OpLUI:
		return fmt.Sprintf("lui %s, 0x%x", rd, uint32(inst.Imm)>>12)
	case OpAUIPC:
		return fmt.Sprintf("auipc %s, 0x%x", rd, uint32(inst.Imm)>>12)

	case OpFLW:
		return fmt.Sprintf("flw %s, %d(%s)", fregName(inst.Rd), inst.Imm, rs1)
	case OpFSW:
		return fmt.Sprintf("fsw %s, %d(%s)", fregName(inst.Rs2), inst.Imm, rs1)

	case OpFADDS, OpFSUBS, OpFMULS, OpFDIVS, OpFSGNJS, OpFSGNJNS, OpFSGNJXS, OpFMINS, OpFMAXS:
		return fmt.Sprintf("%s %s, %s, %s", mnemonic(inst.Op), fregName(inst.Rd), fregName(inst.Rs1), fregName(inst.Rs2))
	case OpFSQRTS:
		return fmt.Sprintf("fsqrt.s %s, %s", fregName(inst.Rd), fregName(inst.Rs1))
	case OpFCVTWS:
		return fmt.Sprintf("fcvt.w.s %s, %s", rd, fregName(inst.Rs1))
	case OpFCVTSW:
		return fmt.Sprintf("fcvt.s.w %s, %s", fregName(inst.Rd), rs1)
	case OpFMVXW:
		return fmt.Sprintf("fmv.x.w %s, %s", rd, fregName(inst.Rs1))
	case OpFMVWX:
		return fmt.Sprintf("fmv.w.x %s, %s", fregName(inst.Rd), rs1)
	case OpFEQS, OpFLTS, OpFLES:
		return fmt.Sprintf("%s %s, %s, %s", mnemonic(inst.Op), rd, fregName(inst.Rs1), fregName(inst.Rs2))
	case OpFCLASSS:
		return fmt.Sprintf("fclass.s %s, %s", rd, fregName(inst.Rs1))
	}
	return "nop"
}

// mnemonic maps an Op to its assembler name for the ops handled uniformly
// above; it does not cover ops with irregular operand layouts.
func mnemonic(op Op) string {
	switch op {
	case OpADD:
		return "add"
	case OpSUB:
		return "sub"
	case OpAND:
		return "and"
	case OpOR:
		return "or"
	case OpXOR:
		return "xor"
	case OpSLL:
		return "sll"
	case OpSRL:
		return "srl"
	case OpSRA:
		return "sra"
	case OpSLT:
		return "slt"
	case OpSLTU:
		return "sltu"
	case OpMUL:
		return "mul"
	case OpMULH:
		return "mulh"
	case OpMULHSU:
		return "mulhsu"
	case OpMULHU:
		return "mulhu"
	case OpDIV:
		return "div"
	case OpDIVU:
		return "divu"
	case OpREM:
		return "rem"
	case OpREMU:
		return "remu"
	case OpADDI:
		return "addi"
	case OpANDI:
		return "andi"
	case OpORI:
		return "ori"
	case OpXORI:
		return "xori"
	case OpSLTI:
		return "slti"
	case OpSLTIU:
		return "sltiu"
	case OpSLLI:
		return "slli"
	case OpSRLI:
		return "srli"
	case OpSRAI:
		return "srai"
	case OpLB:
		return "lb"
	case OpLBU:
		return "lbu"
	case OpLH:
		return "lh"
	case OpLHU:
		return "lhu"
	case OpLW:
		return "lw"
	case OpSB:
		return "sb"
	case OpSH:
		return "sh"
	case OpSW:
		return "sw"
	case OpBEQ:
		return "beq"
	case OpBNE:
		return "bne"
	case OpBLT:
		return "blt"
	case OpBGE:
		return "bge"
	case OpBLTU:
		return "bltu"
	case OpBGEU:
		return "bgeu"
	case OpFADDS:
		return "fadd.s"
	case OpFSUBS:
		return "fsub.s"
	case OpFMULS:
		return "fmul.s"
	case OpFDIVS:
		return "fdiv.s"
	case OpFSGNJS:
		return "fsgnj.s"
	case OpFSGNJNS:
		return "fsgnjn.s"
	case OpFSGNJXS:
		return "fsgnjx.s"
	case OpFMINS:
		return "fmin.s"
	case OpFMAXS:
		return "fmax.s"
	case OpFEQS:
		return "feq.s"
	case OpFLTS:
		return "flt.s"
	case OpFLES:
		return "fle.s"
	}
	return "?"
}
