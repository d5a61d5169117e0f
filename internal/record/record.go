package record

import "strings"

// RowTypeWire marks rows that carry an actual wire edge. Other row types
// (spares, jumpers-to-be, free-form notes) ride along in the wirelist but
// never drive tracing decisions.
const RowTypeWire = "wire"

// Status classifies a wire row: verified in the field, reported not found,
// or not yet checked. The zero value is StatusPending so freshly built rows
// start unverified.
type Status int

const (
	StatusPending Status = iota
	StatusConfirmed
	StatusUnconfirmed
)

// Code returns the single-character wirelist code for the status.
func (s Status) Code() string {
	switch s {
	case StatusConfirmed:
		return "C"
	case StatusUnconfirmed:
		return "U"
	default:
		return "?"
	}
}

// String returns the long-form status name used in logs and the TUI.
func (s Status) String() string {
	switch s {
	case StatusConfirmed:
		return "CONFIRMED"
	case StatusUnconfirmed:
		return "UNCONFIRMED"
	default:
		return "PENDING"
	}
}

// StatusFromCode maps a wirelist status cell back to a Status. The second
// return value reports whether the cell held a recognized code; callers
// coerce unrecognized cells to StatusPending themselves so they can attach
// a warning.
func StatusFromCode(code string) (Status, bool) {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "C":
		return StatusConfirmed, true
	case "U":
		return StatusUnconfirmed, true
	case "?":
		return StatusPending, true
	default:
		return StatusPending, false
	}
}

// TerminalRef identifies one physical connection point by panel, device tag,
// and terminal number. Refs compare equal through their normalized Key, not
// through raw field equality, so "PNL-1 " and "pnl-1" land on the same point.
type TerminalRef struct {
	Panel    string `json:"panel"`
	Device   string `json:"device"`
	Terminal string `json:"terminal"`
}

// IsZero reports whether all three identifiers are empty after trimming.
func (t TerminalRef) IsZero() bool {
	return strings.TrimSpace(t.Panel) == "" &&
		strings.TrimSpace(t.Device) == "" &&
		strings.TrimSpace(t.Terminal) == ""
}

// Complete reports whether all three identifiers are present. The trace
// engine only accepts complete refs; partial ones appear on imported rows
// whose far end was never found.
func (t TerminalRef) Complete() bool {
	return strings.TrimSpace(t.Panel) != "" &&
		strings.TrimSpace(t.Device) != "" &&
		strings.TrimSpace(t.Terminal) != ""
}

// Key returns the normalized lookup key for the triple.
func (t TerminalRef) Key() string {
	return joinKey(Normalize(t.Panel), Normalize(t.Device), Normalize(t.Terminal))
}

// String renders the triple for prompts and log lines.
func (t TerminalRef) String() string {
	return strings.TrimSpace(t.Panel) + "/" + strings.TrimSpace(t.Device) + "/" + strings.TrimSpace(t.Terminal)
}

// Record is one row of the 14-column wirelist: a directed wire edge plus its
// descriptive columns. Records are immutable value types; mutations go
// through the Store, which replaces whole values.
type Record struct {
	RowType    string      `json:"row_type"`
	From       TerminalRef `json:"from"`
	TermKind   string      `json:"term_kind,omitempty"`
	ElemID     string      `json:"elem_id,omitempty"`
	DevicePart string      `json:"device_part,omitempty"`
	To         TerminalRef `json:"to"`
	CableID    string      `json:"cable_id,omitempty"`
	Status     Status      `json:"status"`
	SignalID   string      `json:"signal_id,omitempty"`
	Remarks    string      `json:"remarks,omitempty"`
}

// IsWire reports whether the row participates in tracing logic.
func (r Record) IsWire() bool {
	return Normalize(r.RowType) == RowTypeWire
}

// EdgeKey returns the normalized identity of the directed edge. Two records
// with equal EdgeKeys describe the same wire run in the same direction.
func (r Record) EdgeKey() string {
	return EdgeKey(r.From, r.To)
}

// EdgeKey builds the directed-edge identity for a from/to pair.
func EdgeKey(from, to TerminalRef) string {
	return from.Key() + keySep + to.Key()
}
