package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/cycleacc/rv32pipe/insts"
	"github.com/cycleacc/rv32pipe/timing/pipeline"
)

var _ = Describe("HazardUnit", func() {
	var h *pipeline.HazardUnit

	BeforeEach(func() {
		h = pipeline.NewHazardUnit()
	})

	Describe("DetectForwarding", func() {
		It("prefers the EX/MEM snapshot over the MEM/WB snapshot", func() {
			idex := &pipeline.IDEXRegister{Valid: true, Rs1: 5, Rs2: 6}
			exMemPrev := &pipeline.EXMEMRegister{Valid: true, RegWrite: true, Rd: 5, ALUResult: 111}
			memWbPrev := &pipeline.MEMWBRegister{Valid: true, RegWrite: true, Rd: 5, ALUResult: 222}

			fwd := h.DetectForwarding(idex, exMemPrev, memWbPrev)
			Expect(fwd.ForwardRs1).To(Equal(pipeline.ForwardFromEXMEM))

			v := h.GetForwardedValue(fwd.ForwardRs1, 0, exMemPrev, memWbPrev)
			Expect(v).To(Equal(uint32(111)))
		})

		It("falls back to MEM/WB when EX/MEM does not match", func() {
			idex := &pipeline.IDEXRegister{Valid: true, Rs1: 6}
			exMemPrev := &pipeline.EXMEMRegister{Valid: true, RegWrite: true, Rd: 5, ALUResult: 111}
			memWbPrev := &pipeline.MEMWBRegister{Valid: true, RegWrite: true, Rd: 6, ALUResult: 222}

			fwd := h.DetectForwarding(idex, exMemPrev, memWbPrev)
			Expect(fwd.ForwardRs1).To(Equal(pipeline.ForwardFromMEMWB))

			v := h.GetForwardedValue(fwd.ForwardRs1, 0, exMemPrev, memWbPrev)
			Expect(v).To(Equal(uint32(222)))
		})

		It("never forwards into register 0", func() {
			idex := &pipeline.IDEXRegister{Valid: true, Rs1: 0}
			exMemPrev := &pipeline.EXMEMRegister{Valid: true, RegWrite: true, Rd: 0, ALUResult: 111}
			memWbPrev := &pipeline.MEMWBRegister{}

			fwd := h.DetectForwarding(idex, exMemPrev, memWbPrev)
			Expect(fwd.ForwardRs1).To(Equal(pipeline.ForwardNone))
		})

		It("prefers MEM/WB's loaded data over its ALU result when the producer was a load", func() {
			idex := &pipeline.IDEXRegister{Valid: true, Rs1: 7}
			exMemPrev := &pipeline.EXMEMRegister{}
			memWbPrev := &pipeline.MEMWBRegister{
				Valid: true, RegWrite: true, Rd: 7, MemToReg: true, MemData: 42, ALUResult: 0,
			}

			fwd := h.DetectForwarding(idex, exMemPrev, memWbPrev)
			v := h.GetForwardedValue(fwd.ForwardRs1, 0, exMemPrev, memWbPrev)
			Expect(v).To(Equal(uint32(42)))
		})
	})

	Describe("DetectLoadUseHazard", func() {
		It("reports a hazard when the in-flight load's destination feeds the next decode", func() {
			hazard := h.DetectLoadUseHazard(true, true, 5, 5, 0, true, false)
			Expect(hazard).To(BeTrue())
		})

		It("reports no hazard when the load's destination is register 0", func() {
			hazard := h.DetectLoadUseHazard(true, true, 0, 0, 0, true, false)
			Expect(hazard).To(BeFalse())
		})

		It("reports no hazard when the in-flight instruction is not a load", func() {
			hazard := h.DetectLoadUseHazard(true, false, 5, 5, 0, true, false)
			Expect(hazard).To(BeFalse())
		})
	})

	Describe("ReadsIntRS1/ReadsIntRS2 integration", func() {
		It("LUI never reads rs1", func() {
			inst := &insts.Instruction{Op: insts.OpLUI}
			Expect(inst.ReadsIntRS1()).To(BeFalse())
		})

		It("ADD reads both rs1 and rs2", func() {
			inst := &insts.Instruction{Op: insts.OpADD, Family: insts.FamilyR}
			Expect(inst.ReadsIntRS1()).To(BeTrue())
			Expect(inst.ReadsIntRS2()).To(BeTrue())
		})
	})
})
