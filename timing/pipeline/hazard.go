package pipeline

// ForwardSource indicates where a forwarded operand value should come from.
type ForwardSource int

// Forwarding sources, in priority order (§4.E: EX/MEM beats MEM/WB).
const (
	// ForwardNone means no forwarding needed — use the value already
	// latched in ID/EX.
	ForwardNone ForwardSource = iota
	// ForwardFromEXMEM means forward from the EX/MEM snapshot.
	ForwardFromEXMEM
	// ForwardFromMEMWB means forward from the MEM/WB snapshot.
	ForwardFromMEMWB
)

// ForwardingResult contains forwarding decisions for Execute's two integer
// source operands and, for stores, the store-data operand.
type ForwardingResult struct {
	ForwardRs1 ForwardSource
	ForwardRs2 ForwardSource
}

// FPForwardingResult mirrors ForwardingResult for the FP register file.
type FPForwardingResult struct {
	ForwardRs1 ForwardSource
	ForwardRs2 ForwardSource
}

// HazardUnit detects data hazards and determines forwarding/stall signals.
// It is stateless; every method takes the relevant latches as arguments.
type HazardUnit struct{}

// NewHazardUnit creates a new hazard detection unit.
func NewHazardUnit() *HazardUnit {
	return &HazardUnit{}
}

// DetectForwarding determines the forwarding source for idex's two integer
// operands, consulting the pre-tick EX/MEM and MEM/WB snapshots. Register 0
// never forwards: it is hard-wired to zero regardless of any in-flight
// write.
func (h *HazardUnit) DetectForwarding(
	idex *IDEXRegister,
	exMemPrev *EXMEMRegister,
	memWbPrev *MEMWBRegister,
) ForwardingResult {
	if !idex.Valid {
		return ForwardingResult{}
	}
	return ForwardingResult{
		ForwardRs1: h.detectForwardForReg(idex.Rs1, exMemPrev, memWbPrev),
		ForwardRs2: h.detectForwardForReg(idex.Rs2, exMemPrev, memWbPrev),
	}
}

func (h *HazardUnit) detectForwardForReg(
	reg uint8,
	exMemPrev *EXMEMRegister,
	memWbPrev *MEMWBRegister,
) ForwardSource {
	if reg == 0 {
		return ForwardNone
	}
	if exMemPrev.Valid && exMemPrev.RegWrite && exMemPrev.Rd == reg {
		return ForwardFromEXMEM
	}
	if memWbPrev.Valid && memWbPrev.RegWrite && memWbPrev.Rd == reg {
		return ForwardFromMEMWB
	}
	return ForwardNone
}

// DetectFPForwarding mirrors DetectForwarding for the FP register file,
// which has no hard-wired zero register.
func (h *HazardUnit) DetectFPForwarding(
	idex *IDEXRegister,
	exMemPrev *EXMEMRegister,
	memWbPrev *MEMWBRegister,
) FPForwardingResult {
	if !idex.Valid {
		return FPForwardingResult{}
	}
	return FPForwardingResult{
		ForwardRs1: h.detectFPForwardForReg(idex.Rs1, exMemPrev, memWbPrev),
		ForwardRs2: h.detectFPForwardForReg(idex.Rs2, exMemPrev, memWbPrev),
	}
}

func (h *HazardUnit) detectFPForwardForReg(
	reg uint8,
	exMemPrev *EXMEMRegister,
	memWbPrev *MEMWBRegister,
) ForwardSource {
	if exMemPrev.Valid && exMemPrev.FPRegWrite && exMemPrev.Rd == reg {
		return ForwardFromEXMEM
	}
	if memWbPrev.Valid && memWbPrev.FPRegWrite && memWbPrev.Rd == reg {
		return ForwardFromMEMWB
	}
	return ForwardNone
}

// GetForwardedValue resolves a forwarding decision to a concrete integer
// value, falling back to originalValue (the value latched in ID/EX) when no
// forwarding applies.
func (h *HazardUnit) GetForwardedValue(
	forward ForwardSource,
	originalValue uint32,
	exMemPrev *EXMEMRegister,
	memWbPrev *MEMWBRegister,
) uint32 {
	switch forward {
	case ForwardFromEXMEM:
		return exMemPrev.ALUResult
	case ForwardFromMEMWB:
		if memWbPrev.MemToReg {
			return memWbPrev.MemData
		}
		return memWbPrev.ALUResult
	default:
		return originalValue
	}
}

// GetForwardedFPValue resolves a forwarding decision against the FP result
// paths; a load (FLW) always carries its value through MemData.
func (h *HazardUnit) GetForwardedFPValue(
	forward ForwardSource,
	originalValue uint32,
	exMemPrev *EXMEMRegister,
	memWbPrev *MEMWBRegister,
) uint32 {
	switch forward {
	case ForwardFromEXMEM:
		return exMemPrev.ALUResult
	case ForwardFromMEMWB:
		if memWbPrev.MemToReg {
			return memWbPrev.MemData
		}
		return memWbPrev.ALUResult
	default:
		return originalValue
	}
}

// DetectLoadUseHazard reports whether an in-flight load — described by
// loadValid/loadIsLoad/loadRd, which may come from whichever latch holds
// the load at the point the caller checks — is read by the instruction
// Decode is about to latch (identified by its rs1/rs2 and whether it
// actually reads them). Per §4.E's stall policy, the hazard is resolved
// with a one-cycle stall, after which Execute takes the loaded value from
// the MEM/WB snapshot through the forwarding path. Taking plain fields
// rather than a specific latch type lets both
// the textbook ID/EX-relative check and this pipeline's EX/MEM-relative
// one (the load has already moved on to EX/MEM by the time its stall is
// detected, since stages run in reverse dataflow order) share one rule.
func (h *HazardUnit) DetectLoadUseHazard(
	loadValid, loadIsLoad bool,
	loadRd uint8,
	nextRs1, nextRs2 uint8,
	usesRs1, usesRs2 bool,
) bool {
	if !loadValid || !loadIsLoad || loadRd == 0 {
		return false
	}
	if usesRs1 && loadRd == nextRs1 {
		return true
	}
	if usesRs2 && loadRd == nextRs2 {
		return true
	}
	return false
}
