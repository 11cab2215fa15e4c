package pipeline_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/cycleacc/rv32pipe/emu"
	"github.com/cycleacc/rv32pipe/timing/cache"
	"github.com/cycleacc/rv32pipe/timing/pipeline"
	"github.com/cycleacc/rv32pipe/timing/predictor"
)

func TestPipeline(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Pipeline Suite")
}

// The helpers below hand-assemble the tiny RV32I subset the scenarios in
// §8 of the specification need, in the same bit layout insts/decoder.go
// expects.

func rType(funct7 uint8, rs2, rs1, funct3, rd uint8, opcode uint8) uint32 {
	return uint32(funct7)<<25 | uint32(rs2)<<20 | uint32(rs1)<<15 | uint32(funct3)<<12 | uint32(rd)<<7 | uint32(opcode)
}

func iType(imm int32, rs1, funct3, rd uint8, opcode uint8) uint32 {
	return uint32(imm&0xFFF)<<20 | uint32(rs1)<<15 | uint32(funct3)<<12 | uint32(rd)<<7 | uint32(opcode)
}

func sType(imm int32, rs2, rs1, funct3 uint8, opcode uint8) uint32 {
	u := uint32(imm)
	imm4_0 := u & 0x1F
	imm11_5 := (u >> 5) & 0x7F
	return imm11_5<<25 | uint32(rs2)<<20 | uint32(rs1)<<15 | uint32(funct3)<<12 | imm4_0<<7 | uint32(opcode)
}

func bType(imm int32, rs2, rs1, funct3 uint8) uint32 {
	u := uint32(imm)
	b11 := (u >> 11) & 0x1
	b4_1 := (u >> 1) & 0xF
	b10_5 := (u >> 5) & 0x3F
	b12 := (u >> 12) & 0x1
	return b12<<31 | b10_5<<25 | uint32(rs2)<<20 | uint32(rs1)<<15 | uint32(funct3)<<12 | b4_1<<8 | b11<<7 | 0x63
}

func addi(rd, rs1 uint8, imm int32) uint32 { return iType(imm, rs1, 0x0, rd, 0x13) }
func add(rd, rs1, rs2 uint8) uint32        { return rType(0x00, rs2, rs1, 0x0, rd, 0x33) }
func sw(rs2, rs1 uint8, imm int32) uint32  { return sType(imm, rs2, rs1, 0x2, 0x23) }
func lw(rd, rs1 uint8, imm int32) uint32   { return iType(imm, rs1, 0x2, rd, 0x03) }
func beq(rs1, rs2 uint8, imm int32) uint32 { return bType(imm, rs2, rs1, 0x0) }

func assemble(words ...uint32) []byte {
	program := make([]byte, 0, len(words)*4+4)
	for _, w := range words {
		program = append(program,
			byte(w), byte(w>>8), byte(w>>16), byte(w>>24))
	}
	program = append(program, 0, 0, 0, 0) // halt sentinel
	return program
}

const (
	t0 = 5
	t1 = 6
	t2 = 7
	a0 = 10
	sp = 2
)

func newTestCore(program []byte, dataMem emu.MemoryDevice, pred predictor.Predictor) (*emu.RegFile, *pipeline.Pipeline) {
	regFile := &emu.RegFile{}
	p := pipeline.NewPipeline(regFile, program, dataMem, pred, pipeline.WithCycleCap(1000))
	return regFile, p
}

var _ = Describe("Pipeline", func() {
	var ram *emu.RAM

	BeforeEach(func() {
		ram = emu.NewRAM(4096)
	})

	Describe("scenario 1: arithmetic", func() {
		It("computes a0 = 12", func() {
			program := assemble(
				addi(t0, 0, 5),
				addi(t1, 0, 7),
				add(a0, t0, t1),
			)
			regFile, p := newTestCore(program, ram, predictor.NewStaticNotTaken())
			Expect(p.Run()).To(BeTrue())
			Expect(regFile.ReadReg(a0)).To(Equal(uint32(12)))
		})
	})

	Describe("scenario 2: forwarding", func() {
		It("computes a0 = 14 using freshly-produced t0 with no stall", func() {
			program := assemble(
				addi(t0, 0, 3),
				addi(t0, t0, 4),
				add(a0, t0, t0),
			)
			regFile, p := newTestCore(program, ram, predictor.NewStaticNotTaken())
			Expect(p.Run()).To(BeTrue())
			Expect(regFile.ReadReg(a0)).To(Equal(uint32(14)))
			Expect(p.Stats().Stalls).To(Equal(uint64(0)))
		})
	})

	Describe("scenario 3: load-use", func() {
		It("computes a0 = 42, permitting a one-cycle stall", func() {
			ram.Store(0x100, 42, emu.SizeWord)

			regFile := &emu.RegFile{}
			regFile.WriteReg(sp, 0x100)
			program := assemble(
				lw(t0, sp, 0),
				add(a0, t0, 0),
			)
			p := pipeline.NewPipeline(regFile, program, ram, predictor.NewStaticNotTaken(), pipeline.WithCycleCap(1000))
			Expect(p.Run()).To(BeTrue())
			Expect(regFile.ReadReg(a0)).To(Equal(uint32(42)))
		})
	})

	Describe("scenario 4: correctly-predicted taken branch", func() {
		It("mispredicts only the first back-edge, then predicts the rest correctly", func() {
			// A single instruction repeating on itself: t0 starts at 0 and
			// the body (this same instruction) never changes it, so the
			// branch is taken on every pass once warmed up.
			program := assemble(beq(t0, 0, 0))

			regFile, p := newTestCore(program, ram, predictor.NewBimodal(256))
			_ = regFile
			Expect(p.RunCycles(50)).To(BeTrue())

			stats := p.Stats()
			Expect(stats.BranchesTaken).To(BeNumerically(">=", uint64(4)))
			Expect(stats.Mispredictions).To(Equal(uint64(1)))
		})
	})

	Describe("scenario 5: cache hit after fill", func() {
		It("misses on fill, hits twice within the line, misses on the next line", func() {
			backing := cache.NewMemoryBacking(ram)
			c := cache.New(cache.Config{Kind: cache.DirectMapped, TotalBytes: 1024, LineBytes: 32}, backing)

			regFile := &emu.RegFile{}
			regFile.WriteReg(sp, 0)
			program := assemble(
				lw(1, sp, 0),
				lw(2, sp, 4),
				lw(3, sp, 28),
				lw(4, sp, 32),
			)
			p := pipeline.NewPipeline(regFile, program, c, predictor.NewStaticNotTaken(), pipeline.WithCycleCap(1000))
			Expect(p.Run()).To(BeTrue())

			s := c.Stats()
			Expect(s.Hits).To(Equal(uint64(2)))
			Expect(s.Misses).To(Equal(uint64(2)))
		})
	})

	Describe("scenario 6: LRU eviction, 2-way", func() {
		It("misses on the revisit to line 0 after it was evicted by line 64", func() {
			backing := cache.NewMemoryBacking(ram)
			c := cache.New(cache.Config{Kind: cache.SetAssociative, TotalBytes: 64, LineBytes: 16, Ways: 2}, backing)

			for _, addr := range []uint32{0, 32, 64, 96, 0} {
				_, ok := c.Load(addr, emu.SizeWord)
				Expect(ok).To(BeTrue())
			}

			s := c.Stats()
			Expect(s.Hits).To(Equal(uint64(0)))
			Expect(s.Misses).To(Equal(uint64(5)))
		})
	})

	Describe("memory access log", func() {
		It("marks the fill miss and the same-line follow-up as a hit", func() {
			backing := cache.NewMemoryBacking(ram)
			c := cache.New(cache.Config{Kind: cache.DirectMapped, TotalBytes: 1024, LineBytes: 32}, backing)

			regFile := &emu.RegFile{}
			regFile.WriteReg(sp, 0)
			program := assemble(
				lw(1, sp, 0),
				lw(2, sp, 4),
			)
			p := pipeline.NewPipeline(regFile, program, c, predictor.NewStaticNotTaken(), pipeline.WithCycleCap(1000))
			Expect(p.Run()).To(BeTrue())

			log := p.MemoryLog()
			Expect(log).To(HaveLen(2))
			Expect(log[0].Hit).To(BeFalse())
			Expect(log[1].Hit).To(BeTrue())
		})

		It("marks a plain-RAM access (no cache wired) as a hit whenever it succeeds", func() {
			program := assemble(
				sw(0, sp, 0),
			)
			regFile := &emu.RegFile{}
			regFile.WriteReg(sp, 0x10)
			p := pipeline.NewPipeline(regFile, program, ram, predictor.NewStaticNotTaken(), pipeline.WithCycleCap(1000))
			Expect(p.Run()).To(BeTrue())

			log := p.MemoryLog()
			Expect(log).To(HaveLen(1))
			Expect(log[0].OK).To(BeTrue())
			Expect(log[0].Hit).To(BeTrue())
		})
	})

	Describe("flush invariant", func() {
		It("invalidates IF/ID the cycle after an EX-resolved misprediction", func() {
			words := []uint32{
				addi(t0, 0, 1), // pc=0: t0 = 1 (so beq below is never taken)
				beq(t0, 0, 100),
				addi(a0, 0, 99), // pc=8: fall-through, should execute
			}
			prog := assemble(words...)
			regFile, p := newTestCore(prog, ram, predictor.NewStaticTaken())
			Expect(p.Run()).To(BeTrue())
			Expect(regFile.ReadReg(a0)).To(Equal(uint32(99)))
			Expect(p.Stats().Mispredictions).To(Equal(uint64(1)))
		})
	})

	Describe("register-change log", func() {
		It("records each committed write with its old and new value", func() {
			program := assemble(addi(t0, 0, 9))
			_, p := newTestCore(program, ram, predictor.NewStaticNotTaken())
			Expect(p.Run()).To(BeTrue())

			log := p.RegisterLog()
			Expect(log).To(HaveLen(1))
			Expect(log[0].Index).To(Equal(uint8(t0)))
			Expect(log[0].OldValue).To(Equal(uint32(0)))
			Expect(log[0].NewValue).To(Equal(uint32(9)))
		})

		It("never logs a write to x0", func() {
			program := assemble(addi(0, 0, 9))
			_, p := newTestCore(program, ram, predictor.NewStaticNotTaken())
			Expect(p.Run()).To(BeTrue())
			Expect(p.RegisterLog()).To(BeEmpty())
		})
	})

	Describe("RAW dependency log", func() {
		It("records an edge from the producer's PC to the consumer's PC", func() {
			program := assemble(
				addi(t0, 0, 3), // pc=0, producer
				addi(t1, t0, 1), // pc=4, consumer of t0
			)
			_, p := newTestCore(program, ram, predictor.NewStaticNotTaken())
			Expect(p.Run()).To(BeTrue())

			edges := p.RAWDependencyLog()
			Expect(edges).To(ContainElement(pipeline.RAWEdge{ProducerPC: 0, ConsumerPC: 4, Register: t0}))
		})

		It("does not record an edge once the producer falls outside the window", func() {
			words := make([]uint32, 0, 15)
			words = append(words, addi(t0, 0, 1)) // pc=0, producer
			for i := 0; i < 13; i++ {
				words = append(words, addi(t2, 0, 1)) // unrelated filler, advances cycles
			}
			consumerPC := uint32(len(words) * 4)
			words = append(words, addi(t1, t0, 1)) // consumer, now outside the window
			program := assemble(words...)
			_, p := newTestCore(program, ram, predictor.NewStaticNotTaken())
			Expect(p.Run()).To(BeTrue())

			for _, e := range p.RAWDependencyLog() {
				Expect(e.ConsumerPC).ToNot(Equal(consumerPC))
			}
		})
	})
})
