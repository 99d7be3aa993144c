package schedule

import (
	"testing"

	"github.com/joshharrison/steploom/internal/duration"
)

func TestWorker_Empty(t *testing.T) {
	var w Worker
	if w.EarliestFree() != 0 {
		t.Errorf("expected empty worker free at 0, got %d", w.EarliestFree())
	}
	if c := w.IdleCost(7); c != 0 {
		t.Errorf("expected idle cost 0, got %d", c)
	}
	if _, ok := w.ActiveAt(0, duration.Alphabet{}); ok {
		t.Error("expected empty worker to be idle")
	}
}

func TestWorker_AssignAndIdleCost(t *testing.T) {
	model := duration.Alphabet{}
	var w Worker

	// C takes 3: runs [0, 3)
	if end := w.Assign("C", 0, model); end != 3 {
		t.Fatalf("expected C to end at 3, got %d", end)
	}
	// B may not start before 5: runs [5, 7)
	if end := w.Assign("B", 5, model); end != 7 {
		t.Fatalf("expected B to end at 7, got %d", end)
	}
	// A wants to start at 2 but the worker is busy until 7
	if end := w.Assign("A", 2, model); end != 8 {
		t.Fatalf("expected A to end at 8, got %d", end)
	}

	if w.EarliestFree() != 8 {
		t.Errorf("expected worker free at 8, got %d", w.EarliestFree())
	}
	if c := w.IdleCost(5); c != 3 {
		t.Errorf("expected idle cost 3 at 5, got %d", c)
	}
	if c := w.IdleCost(10); c != 0 {
		t.Errorf("expected idle cost 0 at 10, got %d", c)
	}
	if w.Len() != 3 {
		t.Errorf("expected 3 records, got %d", w.Len())
	}
	if b := w.Busy(model); b != 6 {
		t.Errorf("expected busy time 6, got %d", b)
	}
}

func TestWorker_ActiveAt(t *testing.T) {
	model := duration.Alphabet{}
	var w Worker
	w.Assign("C", 0, model) // [0, 3)
	w.Assign("B", 5, model) // [5, 7)

	tests := []struct {
		time int
		want string
	}{
		{0, "C"}, {2, "C"}, {3, ""}, {4, ""}, {5, "B"}, {6, "B"}, {7, ""},
	}
	for _, tt := range tests {
		got, ok := w.ActiveAt(tt.time, model)
		if string(got) != tt.want || ok != (tt.want != "") {
			t.Errorf("ActiveAt(%d) = %q, %v; want %q", tt.time, got, ok, tt.want)
		}
	}
}

func TestWorker_RecordsAreCopies(t *testing.T) {
	model := duration.Alphabet{}
	var w Worker
	w.Assign("A", 0, model)

	recs := w.Records()
	recs[0].End = 99

	if end, _ := w.EndOf("A"); end != 1 {
		t.Errorf("record mutated through copy: end=%d", end)
	}
	if _, ok := w.EndOf("Z"); ok {
		t.Error("expected Z to be absent")
	}
}
