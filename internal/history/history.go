// Package history keeps a bounded log of state snapshots for undo. The log
// is a fixed-capacity ring: pushes evict the oldest entry once the capacity
// is exceeded (FIFO eviction), pops restore the newest first (LIFO). The log
// stores whatever snapshot type the caller hands it and never copies; the
// caller deep-copies before pushing so stored snapshots stay immutable.
package history

// DefaultCapacity bounds the undo log when the caller does not choose one.
const DefaultCapacity = 50

// Log is a bounded snapshot log. The zero value is not usable; construct
// with NewLog.
type Log[S any] struct {
	capacity int
	entries  []S
}

// NewLog returns a log bounded to the given capacity. Non-positive
// capacities fall back to DefaultCapacity.
func NewLog[S any](capacity int) *Log[S] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log[S]{capacity: capacity}
}

// Push appends a snapshot, evicting the oldest entry if the log is full.
func (l *Log[S]) Push(snapshot S) {
	l.entries = append(l.entries, snapshot)
	if len(l.entries) > l.capacity {
		overflow := len(l.entries) - l.capacity
		l.entries = append(l.entries[:0:0], l.entries[overflow:]...)
	}
}

// Pop removes and returns the most recent snapshot. The second return value
// is false when there is nothing left to undo.
func (l *Log[S]) Pop() (S, bool) {
	if len(l.entries) == 0 {
		var zero S
		return zero, false
	}
	last := l.entries[len(l.entries)-1]
	l.entries = l.entries[:len(l.entries)-1]
	return last, true
}

// Len returns the number of stored snapshots.
func (l *Log[S]) Len() int {
	return len(l.entries)
}

// Capacity returns the maximum number of snapshots retained.
func (l *Log[S]) Capacity() int {
	return l.capacity
}
