package trace

import (
	"time"

	"github.com/tripcoil/TripCoil-Terminal/internal/codec"
	"github.com/tripcoil/TripCoil-Terminal/internal/discovery"
	"github.com/tripcoil/TripCoil-Terminal/internal/record"
)

// Draft holds the partially collected edge for the pass in progress. Once
// the destination prompts are outstanding, From doubles as the active
// origin terminal.
type Draft struct {
	From record.TerminalRef `json:"from"`
	To   record.TerminalRef `json:"to"`
}

// snapshot is one undo checkpoint: a deep copy of everything a commit or
// import can touch, captured strictly before the mutation it guards.
type snapshot struct {
	records  []record.Record
	stack    []discovery.Entry
	phase    Phase
	draft    Draft
	warnings []codec.Warning
}

// cloneWarnings copies a warning list, mapping empty to nil so callers can
// compare against the no-warnings case directly.
func cloneWarnings(warnings []codec.Warning) []codec.Warning {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]codec.Warning, len(warnings))
	copy(out, warnings)
	return out
}

// SessionState is the persisted form of a trace session. The undo log is
// deliberately not part of it: history belongs to the sitting, not the
// wirelist, and a restarted session begins with nothing to undo.
type SessionState struct {
	SessionID string            `json:"session_id"`
	Phase     Phase             `json:"phase"`
	Draft     Draft             `json:"draft"`
	Stack     []discovery.Entry `json:"stack,omitempty"`
	Records   []record.Record   `json:"records,omitempty"`
	Warnings  []codec.Warning   `json:"warnings,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}
