package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/cycleacc/rv32pipe/emu"
)

var _ = Describe("RAM", func() {
	var ram *emu.RAM

	BeforeEach(func() {
		ram = emu.NewRAM(256)
	})

	It("stores and loads a word little-endian", func() {
		ok := ram.Store(0x10, 0xAABBCCDD, emu.SizeWord)
		Expect(ok).To(BeTrue())

		v, ok := ram.Load(0x10, emu.SizeWord)
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(uint32(0xAABBCCDD)))
	})

	It("rejects a misaligned half-word access", func() {
		_, ok := ram.Load(0x11, emu.SizeHalf)
		Expect(ok).To(BeFalse())
	})

	It("rejects a misaligned word access", func() {
		ok := ram.Store(0x02, 0, emu.SizeWord)
		Expect(ok).To(BeFalse())
	})

	It("rejects an access that runs past the device's extent", func() {
		_, ok := ram.Load(252, emu.SizeWord)
		Expect(ok).To(BeFalse())
	})

	It("has no side effect on a rejected store", func() {
		ram.Store(0x20, 0xFFFFFFFF, emu.SizeWord)
		ok := ram.Store(0x21, 0x11111111, emu.SizeWord)
		Expect(ok).To(BeFalse())
		v, _ := ram.Load(0x20, emu.SizeWord)
		Expect(v).To(Equal(uint32(0xFFFFFFFF)))
	})

	It("reports the configured size", func() {
		Expect(ram.Size()).To(Equal(256))
	})
})
