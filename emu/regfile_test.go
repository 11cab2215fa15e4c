package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/cycleacc/rv32pipe/emu"
)

var _ = Describe("RegFile", func() {
	var rf *emu.RegFile

	BeforeEach(func() {
		rf = &emu.RegFile{}
	})

	It("reads register 0 as 0 regardless of prior writes", func() {
		rf.X[0] = 0xDEADBEEF
		Expect(rf.ReadReg(0)).To(Equal(uint32(0)))
	})

	It("discards writes to register 0", func() {
		rf.WriteReg(0, 123)
		Expect(rf.X[0]).To(Equal(uint32(0)))
	})

	It("reads back a write to any other integer register", func() {
		rf.WriteReg(5, 42)
		Expect(rf.ReadReg(5)).To(Equal(uint32(42)))
	})

	It("has no hard-wired zero for the FP register file", func() {
		rf.WriteFReg(0, 0xAABBCCDD)
		Expect(rf.ReadFReg(0)).To(Equal(uint32(0xAABBCCDD)))
	})

	It("clears all state on reset", func() {
		rf.WriteReg(1, 1)
		rf.WriteFReg(2, 2)
		rf.PC = 0x1000
		rf.Reset()
		Expect(rf.ReadReg(1)).To(Equal(uint32(0)))
		Expect(rf.ReadFReg(2)).To(Equal(uint32(0)))
		Expect(rf.PC).To(Equal(uint32(0)))
	})
})
