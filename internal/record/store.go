package record

// Store holds the session's records in documentation order: the first wire
// discovered is the first row written out. It is the single source of truth
// for the session and is mutated only by the trace engine and wirelist
// import; renderers get copies.
type Store struct {
	records []Record
	// byEdge maps a directed edge key to the index of its first occurrence.
	byEdge map[string]int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{byEdge: map[string]int{}}
}

// Append adds a record to the end of the documentation order.
func (s *Store) Append(rec Record) {
	key := rec.EdgeKey()
	if _, exists := s.byEdge[key]; !exists {
		s.byEdge[key] = len(s.records)
	}
	s.records = append(s.records, rec)
}

// Find returns the first record for the directed edge from → to. Lookup is
// by normalized key, so casing and stray whitespace do not split edges.
func (s *Store) Find(from, to TerminalRef) (Record, bool) {
	idx, ok := s.byEdge[EdgeKey(from, to)]
	if !ok {
		return Record{}, false
	}
	return s.records[idx], true
}

// UpdateStatus replaces the status on an existing directed edge in place.
// It reports whether the edge was present.
func (s *Store) UpdateStatus(from, to TerminalRef, status Status) bool {
	idx, ok := s.byEdge[EdgeKey(from, to)]
	if !ok {
		return false
	}
	rec := s.records[idx]
	rec.Status = status
	s.records[idx] = rec
	return true
}

// All returns a copy of the records in documentation order. Records are
// value types, so the copy shares no mutable state with the store.
func (s *Store) All() []Record {
	if len(s.records) == 0 {
		return nil
	}
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// ReplaceAll swaps the entire record set, keeping the given order. Used by
// wirelist import and by undo restores; the input slice is copied.
func (s *Store) ReplaceAll(records []Record) {
	s.records = nil
	s.byEdge = map[string]int{}
	for _, rec := range records {
		s.Append(rec)
	}
}

// Len returns the number of records held.
func (s *Store) Len() int {
	return len(s.records)
}
