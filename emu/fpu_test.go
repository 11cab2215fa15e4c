package emu_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/cycleacc/rv32pipe/emu"
)

func f32bits(f float32) uint32 { return math.Float32bits(f) }

var _ = Describe("FPUExec", func() {
	Describe("arithmetic", func() {
		It("adds two single-precision floats", func() {
			r := emu.FPUExec(f32bits(1.5), f32bits(2.5), 0, emu.FPUAdd)
			Expect(math.Float32frombits(r.Bits)).To(Equal(float32(4.0)))
		})

		It("divide-by-zero returns signed infinity", func() {
			r := emu.FPUExec(f32bits(1.0), f32bits(0.0), 0, emu.FPUDiv)
			Expect(math.Float32frombits(r.Bits)).To(Equal(float32(math.Inf(1))))

			r = emu.FPUExec(f32bits(-1.0), f32bits(0.0), 0, emu.FPUDiv)
			Expect(math.Float32frombits(r.Bits)).To(Equal(float32(math.Inf(-1))))
		})

		It("sqrt of a negative operand returns NaN", func() {
			r := emu.FPUExec(f32bits(-4.0), 0, 0, emu.FPUSqrt)
			Expect(math.IsNaN(float64(math.Float32frombits(r.Bits)))).To(BeTrue())
		})
	})

	Describe("sign injection", func() {
		It("FSGNJ takes the magnitude of op1 and the sign of op2", func() {
			r := emu.FPUExec(f32bits(3.0), f32bits(-1.0), 0, emu.FPUSgnJ)
			Expect(math.Float32frombits(r.Bits)).To(Equal(float32(-3.0)))
		})

		It("FSGNJN takes the magnitude of op1 and the negated sign of op2", func() {
			r := emu.FPUExec(f32bits(3.0), f32bits(-1.0), 0, emu.FPUSgnJN)
			Expect(math.Float32frombits(r.Bits)).To(Equal(float32(3.0)))
		})
	})

	Describe("min/max with NaN propagation rules", func() {
		It("FMIN returns the non-NaN operand when one operand is NaN", func() {
			r := emu.FPUExec(f32bits(float32(math.NaN())), f32bits(2.0), 0, emu.FPUMin)
			Expect(math.Float32frombits(r.Bits)).To(Equal(float32(2.0)))
		})
	})

	Describe("conversions and moves", func() {
		It("FCVTWS truncates toward zero", func() {
			r := emu.FPUExec(f32bits(3.9), 0, 0, emu.FPUCvtWS)
			Expect(int32(r.Bits)).To(Equal(int32(3)))
		})

		It("FCVTSW converts a signed integer to float", func() {
			neg5 := int32(-5)
			r := emu.FPUExec(0, 0, uint32(neg5), emu.FPUCvtSW)
			Expect(math.Float32frombits(r.Bits)).To(Equal(float32(-5.0)))
		})

		It("FMVXW moves the float bit pattern into an integer result unchanged", func() {
			r := emu.FPUExec(f32bits(1.25), 0, 0, emu.FPUMvXW)
			Expect(r.Bits).To(Equal(f32bits(1.25)))
		})
	})

	Describe("comparisons", func() {
		It("FEQ writes 1 when equal", func() {
			r := emu.FPUExec(f32bits(2.0), f32bits(2.0), 0, emu.FPUEq)
			Expect(r.Bits).To(Equal(uint32(1)))
		})

		It("FLT writes 0 when not less-than", func() {
			r := emu.FPUExec(f32bits(2.0), f32bits(1.0), 0, emu.FPULt)
			Expect(r.Bits).To(Equal(uint32(0)))
		})
	})

	Describe("classification", func() {
		It("classifies positive zero", func() {
			r := emu.FPUExec(f32bits(0.0), 0, 0, emu.FPUClass)
			Expect(r.Bits).To(Equal(uint32(emu.ClassPosZero)))
		})

		It("classifies negative infinity", func() {
			r := emu.FPUExec(f32bits(float32(math.Inf(-1))), 0, 0, emu.FPUClass)
			Expect(r.Bits).To(Equal(uint32(emu.ClassNegInf)))
		})

		It("classifies a quiet NaN", func() {
			r := emu.FPUExec(f32bits(float32(math.NaN())), 0, 0, emu.FPUClass)
			Expect(r.Bits).To(Equal(uint32(emu.ClassQuietNaN)))
		})
	})
})
