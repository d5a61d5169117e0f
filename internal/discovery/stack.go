// Package discovery tracks terminals the operator has walked away from while
// they still had undiscovered wires. The structure is a stack, not a queue,
// on purpose: in the field you finish the thread nearest to where you are
// standing before circling back to older ones, so the most recently deferred
// terminal resumes first.
package discovery

import "github.com/tripcoil/TripCoil-Terminal/internal/record"

// Entry is one deferred terminal and the number of wires still expected to
// originate there.
type Entry struct {
	Ref       record.TerminalRef `json:"ref"`
	Remaining int                `json:"remaining"`
}

// Stack is the pending-terminal stack. The zero value is usable.
type Stack struct {
	entries []Entry
}

// New returns an empty stack.
func New() *Stack {
	return &Stack{}
}

// Push records that count wires remain undiscovered at ref. If the terminal
// already has a pending entry the counts are summed instead of creating a
// duplicate; the entry keeps its original stack position. Pushes with a
// non-positive count are ignored.
func (s *Stack) Push(ref record.TerminalRef, count int) {
	if count <= 0 {
		return
	}
	key := ref.Key()
	for i := range s.entries {
		if s.entries[i].Ref.Key() == key {
			s.entries[i].Remaining += count
			return
		}
	}
	s.entries = append(s.entries, Entry{Ref: ref, Remaining: count})
}

// PopNext returns the terminal to resume tracing from: the most recently
// deferred one. The entry itself stays on the stack until its count drains
// through Decrement, so the pending summary keeps showing the thread the
// operator is currently working.
func (s *Stack) PopNext() (record.TerminalRef, bool) {
	if len(s.entries) == 0 {
		return record.TerminalRef{}, false
	}
	return s.entries[len(s.entries)-1].Ref, true
}

// Decrement consumes one expected wire at ref, removing the entry when its
// count reaches zero. It reports whether a pending entry matched. Called on
// every commit with the committed edge's origin, which covers both
// circle-back resumes and forward continuation landing on a deferred
// terminal.
func (s *Stack) Decrement(ref record.TerminalRef) bool {
	key := ref.Key()
	for i := range s.entries {
		if s.entries[i].Ref.Key() != key {
			continue
		}
		s.entries[i].Remaining--
		if s.entries[i].Remaining <= 0 {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
		}
		return true
	}
	return false
}

// Pending returns a copy of the entries, oldest first, for display only.
func (s *Stack) Pending() []Entry {
	if len(s.entries) == 0 {
		return nil
	}
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of deferred terminals.
func (s *Stack) Len() int {
	return len(s.entries)
}

// Clone returns a deep copy of the stack contents for snapshotting.
func (s *Stack) Clone() []Entry {
	return s.Pending()
}

// Restore replaces the stack contents with a previously cloned snapshot.
func (s *Stack) Restore(entries []Entry) {
	if len(entries) == 0 {
		s.entries = nil
		return
	}
	s.entries = make([]Entry, len(entries))
	copy(s.entries, entries)
}
