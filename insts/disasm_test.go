package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/cycleacc/rv32pipe/insts"
)

var _ = Describe("Disassemble", func() {
	It("renders the halt sentinel", func() {
		inst := &insts.Instruction{Op: insts.OpHALT}
		Expect(insts.Disassemble(inst)).To(Equal("halt"))
	})

	It("renders an unknown opcode as nop", func() {
		inst := &insts.Instruction{Op: insts.OpUnknown}
		Expect(insts.Disassemble(inst)).To(Equal("nop"))
	})

	It("renders a nil instruction without panicking", func() {
		Expect(insts.Disassemble(nil)).To(Equal("?"))
	})

	It("renders an R-type add with register names", func() {
		inst := &insts.Instruction{Op: insts.OpADD, Rd: 5, Rs1: 6, Rs2: 7}
		Expect(insts.Disassemble(inst)).To(Equal("add t0, t1, t2"))
	})

	It("renders an I-type addi with its immediate", func() {
		inst := &insts.Instruction{Op: insts.OpADDI, Rd: 10, Rs1: 0, Imm: -3}
		Expect(insts.Disassemble(inst)).To(Equal("addi a0, zero, -3"))
	})

	It("renders a load as offset(base)", func() {
		inst := &insts.Instruction{Op: insts.OpLW, Rd: 10, Rs1: 2, Imm: 4}
		Expect(insts.Disassemble(inst)).To(Equal("lw a0, 4(sp)"))
	})

	It("renders a store with the source register before the offset", func() {
		inst := &insts.Instruction{Op: insts.OpSW, Rs1: 2, Rs2: 10, Imm: -8}
		Expect(insts.Disassemble(inst)).To(Equal("sw a0, -8(sp)"))
	})

	It("renders a branch as rs1, rs2, offset", func() {
		inst := &insts.Instruction{Op: insts.OpBEQ, Rs1: 5, Rs2: 6, Imm: -8}
		Expect(insts.Disassemble(inst)).To(Equal("beq t0, t1, -8"))
	})

	It("renders jal with its destination and offset", func() {
		inst := &insts.Instruction{Op: insts.OpJAL, Rd: 1, Imm: 16}
		Expect(insts.Disassemble(inst)).To(Equal("jal ra, 16"))
	})

	It("renders lui's upper-immediate shifted back into a 20-bit field", func() {
		inst := &insts.Instruction{Op: insts.OpLUI, Rd: 5, Imm: int32(0x12345000)}
		Expect(insts.Disassemble(inst)).To(Equal("lui t0, 0x12345"))
	})

	It("renders an FP op using f-register names", func() {
		inst := &insts.Instruction{Op: insts.OpFADDS, Rd: 1, Rs1: 2, Rs2: 3}
		Expect(insts.Disassemble(inst)).To(Equal("fadd.s f1, f2, f3"))
	})

	It("renders fcvt.w.s with an integer destination and float source", func() {
		inst := &insts.Instruction{Op: insts.OpFCVTWS, Rd: 5, Rs1: 1}
		Expect(insts.Disassemble(inst)).To(Equal("fcvt.w.s t0, f1"))
	})

	It("renders flw with an f-register destination", func() {
		inst := &insts.Instruction{Op: insts.OpFLW, Rd: 1, Rs1: 2, Imm: 4}
		Expect(insts.Disassemble(inst)).To(Equal("flw f1, 4(sp)"))
	})
})
