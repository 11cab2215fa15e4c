package insts

// ExpandCompressed expands a 16-bit RVC word (quadrants 00/01/10; quadrant
// 11 is never compressed) into its 32-bit RV32 equivalent. ok is false for
// a reserved/illegal encoding; the caller (Fetch) treats that as a NOP by
// invalidating the latch rather than forwarding a bogus 32-bit word.
func ExpandCompressed(half uint16) (word uint32, ok bool) {
	quadrant := half & 0x3
	funct3 := (half >> 13) & 0x7

	switch quadrant {
	case 0x0:
		return expandQuadrant0(half, funct3)
	case 0x1:
		return expandQuadrant1(half, funct3)
	case 0x2:
		return expandQuadrant2(half, funct3)
	}
	return 0, false
}

func creg(bits uint16) uint8 { return uint8(bits&0x7) + 8 }

func rType(funct7, rs2, rs1, funct3, rd, opcode uint32) uint32 {
	return (funct7 << 25) | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) | (rd << 7) | opcode
}

func iType(imm int32, rs1, funct3, rd, opcode uint32) uint32 {
	return (uint32(imm)<<20)&0xFFF00000 | (rs1 << 15) | (funct3 << 12) | (rd << 7) | opcode
}

func sType(imm int32, rs2, rs1, funct3, opcode uint32) uint32 {
	u := uint32(imm)
	imm11_5 := (u >> 5) & 0x7F
	imm4_0 := u & 0x1F
	return (imm11_5 << 25) | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) | (imm4_0 << 7) | opcode
}

func bType(imm int32, rs2, rs1, funct3, opcode uint32) uint32 {
	u := uint32(imm)
	b12 := (u >> 12) & 0x1
	b11 := (u >> 11) & 0x1
	b10_5 := (u >> 5) & 0x3F
	b4_1 := (u >> 1) & 0xF
	return (b12 << 31) | (b10_5 << 25) | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) | (b4_1 << 8) | (b11 << 7) | opcode
}

func jType(imm int32, rd, opcode uint32) uint32 {
	u := uint32(imm)
	b20 := (u >> 20) & 0x1
	b19_12 := (u >> 12) & 0xFF
	b11 := (u >> 11) & 0x1
	b10_1 := (u >> 1) & 0x3FF
	return (b20 << 31) | (b10_1 << 21) | (b11 << 20) | (b19_12 << 12) | (rd << 7) | opcode
}

func uType(imm int32, rd, opcode uint32) uint32 {
	return (uint32(imm) & 0xFFFFF000) | (rd << 7) | opcode
}

func expandQuadrant0(half uint16, funct3 uint16) (uint32, bool) {
	rdp := uint32(creg(half >> 2))
	rs1p := uint32(creg(half >> 7))

	switch funct3 {
	case 0x0: // C.ADDI4SPN
		imm := ((half >> 7) & 0x30) | ((half >> 1) & 0x3C0) | ((half >> 4) & 0x4) | ((half >> 2) & 0x8)
		if imm == 0 {
			return 0, false
		}
		return iType(int32(imm), 2, 0x0, rdp, 0x13), true

	case 0x2: // C.LW
		imm := ((half >> 7) & 0x38) | ((half << 1) & 0x40) | ((half >> 4) & 0x4)
		return iType(int32(imm), rs1p, 0x2, rdp, 0x03), true

	case 0x6: // C.SW
		rs2p := uint32(creg(half >> 2))
		imm := ((half >> 7) & 0x38) | ((half << 1) & 0x40) | ((half >> 4) & 0x4)
		return sType(int32(imm), rs2p, rs1p, 0x2, 0x23), true
	}
	return 0, false
}

func expandQuadrant1(half uint16, funct3 uint16) (uint32, bool) {
	rd := uint32((half >> 7) & 0x1F)

	switch funct3 {
	case 0x0: // C.ADDI / C.NOP
		imm := immCI(half)
		return iType(imm, rd, 0x0, rd, 0x13), true

	case 0x1: // C.JAL (RV32)
		imm := immCJ(half)
		return jType(imm, 1, 0x6F), true

	case 0x2: // C.LI
		imm := immCI(half)
		return iType(imm, 0, 0x0, rd, 0x13), true

	case 0x3:
		if rd == 2 { // C.ADDI16SP
			b9 := (half >> 12) & 0x1
			b4 := (half >> 6) & 0x1
			b6 := (half >> 5) & 0x1
			b8_7 := (half >> 3) & 0x3
			b5 := (half >> 2) & 0x1
			raw := (b9 << 9) | (b8_7 << 7) | (b6 << 6) | (b4 << 4) | (b5 << 5)
			imm := signExtend(uint32(raw), 10)
			if imm == 0 {
				return 0, false
			}
			return iType(imm, 2, 0x0, 2, 0x13), true
		}
		// C.LUI
		b17 := (half >> 12) & 0x1
		b16_12 := (half >> 2) & 0x1F
		raw := (uint32(b17) << 17) | (uint32(b16_12) << 12)
		imm := signExtend(uint32(raw), 18)
		if imm == 0 {
			return 0, false
		}
		return uType(imm, rd, 0x37), true

	case 0x4:
		rdp := uint32(creg(half >> 7))
		funct2 := (half >> 10) & 0x3
		switch funct2 {
		case 0x0: // C.SRLI
			shamt := uint32(((half >> 7) & 0x20) | ((half >> 2) & 0x1F))
			return iType(int32(shamt), rdp, 0x5, rdp, 0x13), true
		case 0x1: // C.SRAI
			shamt := uint32(((half >> 7) & 0x20) | ((half >> 2) & 0x1F))
			return iType(int32(shamt)|(0x20<<5), rdp, 0x5, rdp, 0x13), true
		case 0x2: // C.ANDI
			imm := immCI(half)
			return iType(imm, rdp, 0x7, rdp, 0x13), true
		case 0x3:
			rs2p := uint32(creg(half >> 2))
			bit12 := (half >> 12) & 0x1
			bit65 := (half >> 5) & 0x3
			if bit12 != 0 {
				return 0, false // SUBW/ADDW: RV64-only, reserved here
			}
			switch bit65 {
			case 0x0:
				return rType(0x20, rs2p, rdp, 0x0, rdp, 0x33), true
			case 0x1:
				return rType(0x00, rs2p, rdp, 0x4, rdp, 0x33), true
			case 0x2:
				return rType(0x00, rs2p, rdp, 0x6, rdp, 0x33), true
			case 0x3:
				return rType(0x00, rs2p, rdp, 0x7, rdp, 0x33), true
			}
		}

	case 0x5: // C.J
		imm := immCJ(half)
		return jType(imm, 0, 0x6F), true

	case 0x6: // C.BEQZ
		rs1p := uint32(creg(half >> 7))
		imm := immCB(half)
		return bType(imm, 0, rs1p, 0x0, 0x63), true

	case 0x7: // C.BNEZ
		rs1p := uint32(creg(half >> 7))
		imm := immCB(half)
		return bType(imm, 0, rs1p, 0x1, 0x63), true
	}
	return 0, false
}

func expandQuadrant2(half uint16, funct3 uint16) (uint32, bool) {
	rd := uint32((half >> 7) & 0x1F)
	rs2 := uint32((half >> 2) & 0x1F)

	switch funct3 {
	case 0x0: // C.SLLI
		if rd == 0 {
			return 0, false
		}
		shamt := uint32(((half >> 7) & 0x20) | ((half >> 2) & 0x1F))
		return iType(int32(shamt), rd, 0x1, rd, 0x13), true

	case 0x2: // C.LWSP
		if rd == 0 {
			return 0, false
		}
		imm := ((half >> 7) & 0x20) | ((half >> 2) & 0x1C) | ((half << 4) & 0xC0)
		return iType(int32(imm), 2, 0x2, rd, 0x03), true

	case 0x4:
		bit12 := (half >> 12) & 0x1
		if bit12 == 0 {
			if rs2 == 0 { // C.JR
				if rd == 0 {
					return 0, false
				}
				return iType(0, rd, 0x0, 0, 0x67), true
			}
			// C.MV
			return rType(0x00, rs2, 0, 0x0, rd, 0x33), true
		}
		if rs2 == 0 {
			if rd == 0 { // C.EBREAK: not modeled, treat as reserved
				return 0, false
			}
			// C.JALR
			return iType(0, rd, 0x0, 1, 0x67), true
		}
		// C.ADD
		return rType(0x00, rs2, rd, 0x0, rd, 0x33), true

	case 0x6: // C.SWSP
		imm := ((half >> 7) & 0x3C) | ((half >> 1) & 0xC0)
		return sType(int32(imm), rs2, 2, 0x2, 0x23), true
	}
	return 0, false
}

// immCI extracts and sign-extends the 6-bit CI-format immediate (imm[5] at
// bit 12, imm[4:0] at bits 6:2).
func immCI(half uint16) int32 {
	b5 := (half >> 12) & 0x1
	b4_0 := (half >> 2) & 0x1F
	raw := (b5 << 5) | b4_0
	return signExtend(uint32(raw), 6)
}

// immCJ extracts and sign-extends the 11-bit CJ-format jump immediate used
// by C.J and C.JAL.
func immCJ(half uint16) int32 {
	b11 := (half >> 12) & 0x1
	b4 := (half >> 11) & 0x1
	b9_8 := (half >> 9) & 0x3
	b10 := (half >> 8) & 0x1
	b6 := (half >> 7) & 0x1
	b7 := (half >> 6) & 0x1
	b3_1 := (half >> 3) & 0x7
	b5 := (half >> 2) & 0x1
	raw := (b11 << 11) | (b10 << 10) | (b9_8 << 8) | (b7 << 7) | (b6 << 6) | (b5 << 5) | (b4 << 4) | (b3_1 << 1)
	return signExtend(uint32(raw), 12)
}

// immCB extracts and sign-extends the 8-bit CB-format branch immediate used
// by C.BEQZ and C.BNEZ.
func immCB(half uint16) int32 {
	b8 := (half >> 12) & 0x1
	b4_3 := (half >> 10) & 0x3
	b7_6 := (half >> 5) & 0x3
	b2_1 := (half >> 3) & 0x3
	b5 := (half >> 2) & 0x1
	raw := (b8 << 8) | (b7_6 << 6) | (b5 << 5) | (b4_3 << 3) | (b2_1 << 1)
	return signExtend(uint32(raw), 9)
}
