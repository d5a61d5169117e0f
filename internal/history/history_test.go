package history

import "testing"

func TestPushAndPopAreLIFO(t *testing.T) {
	log := NewLog[int](10)
	log.Push(1)
	log.Push(2)
	log.Push(3)
	got, ok := log.Pop()
	if !ok || got != 3 {
		t.Fatalf("expected newest snapshot 3, got %d ok=%v", got, ok)
	}
	got, _ = log.Pop()
	if got != 2 {
		t.Fatalf("expected 2 next, got %d", got)
	}
}

func TestPopOnEmptyLog(t *testing.T) {
	log := NewLog[string](5)
	if _, ok := log.Pop(); ok {
		t.Fatalf("empty log must report nothing to undo")
	}
}

func TestCapacityEvictsOldestFirst(t *testing.T) {
	log := NewLog[int](50)
	for i := 1; i <= 51; i++ {
		log.Push(i)
	}
	if log.Len() != 50 {
		t.Fatalf("expected 50 retained snapshots, got %d", log.Len())
	}
	// Drain fully; the first push must have been evicted.
	var last int
	for {
		v, ok := log.Pop()
		if !ok {
			break
		}
		last = v
	}
	if last != 2 {
		t.Fatalf("expected oldest surviving snapshot to be 2, got %d", last)
	}
}

func TestNonPositiveCapacityFallsBack(t *testing.T) {
	log := NewLog[int](0)
	if log.Capacity() != DefaultCapacity {
		t.Fatalf("expected default capacity %d, got %d", DefaultCapacity, log.Capacity())
	}
}
