package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/cycleacc/rv32pipe/insts"
)

var _ = Describe("ExpandCompressed", func() {
	var d *insts.Decoder

	BeforeEach(func() {
		d = insts.NewDecoder()
	})

	It("expands C.LI into addi rd, x0, imm", func() {
		word, ok := insts.ExpandCompressed(0x428D) // c.li x5, 3
		Expect(ok).To(BeTrue())

		inst := d.Decode(word)
		Expect(inst.Op).To(Equal(insts.OpADDI))
		Expect(inst.Rd).To(Equal(uint8(5)))
		Expect(inst.Imm).To(Equal(int32(3)))
	})

	It("expands C.MV into add rd, x0, rs2", func() {
		word, ok := insts.ExpandCompressed(0x831E) // c.mv x6, x7
		Expect(ok).To(BeTrue())

		inst := d.Decode(word)
		Expect(inst.Op).To(Equal(insts.OpADD))
		Expect(inst.Rd).To(Equal(uint8(6)))
		Expect(inst.Rs2).To(Equal(uint8(7)))
	})

	It("expands C.JR into jalr x0, rd, 0", func() {
		word, ok := insts.ExpandCompressed(0x8082) // c.jr x1
		Expect(ok).To(BeTrue())

		inst := d.Decode(word)
		Expect(inst.Op).To(Equal(insts.OpJALR))
		Expect(inst.Rs1).To(Equal(uint8(1)))
		Expect(inst.Rd).To(Equal(uint8(0)))
	})

	It("treats C.JR with rd=0 as a reserved encoding", func() {
		_, ok := insts.ExpandCompressed(0x8002)
		Expect(ok).To(BeFalse())
	})

	It("treats a zero-immediate C.ADDI4SPN as reserved", func() {
		_, ok := insts.ExpandCompressed(0x0000)
		Expect(ok).To(BeFalse())
	})
})
