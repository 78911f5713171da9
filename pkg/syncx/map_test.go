package syncx

import "testing"

func TestMapBasics(t *testing.T) {
	var m Map[string, int]

	if _, ok := m.Load("a"); ok {
		t.Fatalf("expected miss on empty map")
	}

	m.Store("a", 1)
	m.Store("b", 2)

	value, ok := m.Load("a")
	if !ok || value != 1 {
		t.Fatalf("expected a=1, got %d (ok=%v)", value, ok)
	}

	if got := m.Len(); got != 2 {
		t.Fatalf("expected len 2, got %d", got)
	}

	m.Delete("a")

	if _, ok := m.Load("a"); ok {
		t.Fatalf("expected miss after delete")
	}

	sum := 0
	m.Range(func(key string, value int) bool {
		sum += value
		return true
	})
	if sum != 2 {
		t.Fatalf("expected range sum 2, got %d", sum)
	}
}
