// Package emu provides functional RV32IMF emulation: register files, the
// integer ALU, the single-precision FPU, and the byte-addressable memory
// device contract consumed by the timing model.
package emu

// RegFile represents the architectural state of the processor: the integer
// general-purpose registers, the floating-point registers, and the program
// counter.
type RegFile struct {
	// X holds the 32 general-purpose integer registers. X[0] is hard-wired
	// to zero: ReadReg always returns 0 for index 0, and WriteReg silently
	// discards writes to it.
	X [32]uint32

	// F holds the 32 floating-point registers, stored as IEEE-754 bit
	// patterns. Unlike X, F has no hard-wired zero register.
	F [32]uint32

	// PC is a program-counter slot cleared by Reset. The pipeline keeps its
	// own fetch PC (see Pipeline.SetPC) and neither reads nor writes this
	// field.
	PC uint32
}

// ReadReg reads an integer register. Register 0 always reads as 0.
func (r *RegFile) ReadReg(reg uint8) uint32 {
	if reg == 0 {
		return 0
	}
	return r.X[reg]
}

// WriteReg writes an integer register. Writes to register 0 are no-ops.
func (r *RegFile) WriteReg(reg uint8, value uint32) {
	if reg == 0 {
		return
	}
	r.X[reg] = value
}

// ReadFReg reads a floating-point register's raw bit pattern.
func (r *RegFile) ReadFReg(reg uint8) uint32 {
	return r.F[reg]
}

// WriteFReg writes a floating-point register's raw bit pattern.
func (r *RegFile) WriteFReg(reg uint8, value uint32) {
	r.F[reg] = value
}

// Reset clears all architectural state.
func (r *RegFile) Reset() {
	*r = RegFile{}
}
