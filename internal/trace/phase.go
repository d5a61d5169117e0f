package trace

// Phase is one state of the trace-collection machine. Each value except
// PhaseIdle corresponds to exactly one outstanding prompt; the commit
// itself happens synchronously inside Submit and never holds a prompt.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSeedPanel
	PhaseSeedDevice
	PhaseSeedTerminal
	PhaseDestPanel
	PhaseDestDevice
	PhaseDestTerminal
	PhaseConfirm
	PhaseRemaining
)

// String returns a human-readable name for the phase
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseSeedPanel:
		return "Seed Panel"
	case PhaseSeedDevice:
		return "Seed Device"
	case PhaseSeedTerminal:
		return "Seed Terminal"
	case PhaseDestPanel:
		return "Destination Panel"
	case PhaseDestDevice:
		return "Destination Device"
	case PhaseDestTerminal:
		return "Destination Terminal"
	case PhaseConfirm:
		return "Confirm"
	case PhaseRemaining:
		return "Remaining Count"
	default:
		return "Unknown"
	}
}

// Prompt returns the question posed to the operator while this phase is
// outstanding.
func (p Phase) Prompt() string {
	switch p {
	case PhaseSeedPanel:
		return "Panel of the terminal you are starting from?"
	case PhaseSeedDevice:
		return "Device tag at that panel?"
	case PhaseSeedTerminal:
		return "Terminal on that device?"
	case PhaseDestPanel:
		return "Panel at the far end of the wire?"
	case PhaseDestDevice:
		return "Device tag at the far end?"
	case PhaseDestTerminal:
		return "Terminal at the far end?"
	case PhaseConfirm:
		return "Wire physically found and verified? (y/n)"
	case PhaseRemaining:
		return "How many unseen wires remain at the far terminal?"
	default:
		return ""
	}
}

// IsSeed reports whether the phase collects the origin triple of a fresh
// trace.
func (p Phase) IsSeed() bool {
	return p >= PhaseSeedPanel && p <= PhaseSeedTerminal
}

// IsDest reports whether the phase collects the destination triple.
func (p Phase) IsDest() bool {
	return p >= PhaseDestPanel && p <= PhaseDestTerminal
}

// IsActive reports whether a trace pass is underway.
func (p Phase) IsActive() bool {
	return p != PhaseIdle
}
