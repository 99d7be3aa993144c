package state

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/joshharrison/steploom/internal/planner"
)

func testPlan(id string) *planner.Plan {
	return &planner.Plan{
		ID:           id,
		TotalJobs:    2,
		Makespan:     7,
		Order:        "AB",
		CriticalPath: []string{"A", "B"},
		Jobs: map[string]*planner.PlannedJob{
			"A": {JobID: "A", Start: 0, End: 1, Duration: 1, IsCritical: true},
			"B": {JobID: "B", Start: 1, End: 3, Duration: 2, IsCritical: true},
		},
		Config: planner.PlanConfig{Workers: 1},
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), ".steploom"))
}

func TestSavePlanAndLoadPlan(t *testing.T) {
	s := newTestStore(t)

	if s.Exists() {
		t.Fatal("expected Exists()=false before SavePlan")
	}

	plan := testPlan("steploom-2026-02-20-100000")
	if err := s.SavePlan(plan); err != nil {
		t.Fatalf("SavePlan: %v", err)
	}
	if !s.Exists() {
		t.Fatal("expected Exists()=true after SavePlan")
	}

	loaded, err := s.LoadPlan()
	if err != nil {
		t.Fatalf("LoadPlan: %v", err)
	}
	if loaded.ID != plan.ID {
		t.Errorf("expected plan ID %s, got %s", plan.ID, loaded.ID)
	}
	if loaded.Makespan != 7 || loaded.Jobs["B"].End != 3 {
		t.Errorf("plan contents not preserved: %+v", loaded)
	}
}

func TestLoadPlan_Missing(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.LoadPlan(); !errors.Is(err, ErrNoPlan) {
		t.Fatalf("expected ErrNoPlan, got %v", err)
	}
}

func TestLoadPlan_Corrupt(t *testing.T) {
	s := newTestStore(t)
	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(s.Dir, planFile), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := s.LoadPlan()
	if err == nil || errors.Is(err, ErrNoPlan) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestArchiveAndLoadArchived(t *testing.T) {
	s := newTestStore(t)
	planID := "steploom-2026-02-20-100000"

	if err := s.SavePlan(testPlan(planID)); err != nil {
		t.Fatalf("SavePlan: %v", err)
	}
	if err := s.Archive(); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	if _, err := os.Stat(filepath.Join(s.Dir, historyDir, planID+".json")); err != nil {
		t.Fatalf("expected archived file: %v", err)
	}
	if s.Exists() {
		t.Error("expected current plan to be moved into history")
	}

	loaded, err := s.LoadArchived(planID)
	if err != nil {
		t.Fatalf("LoadArchived: %v", err)
	}
	if loaded.ID != planID {
		t.Errorf("expected plan ID %s, got %s", planID, loaded.ID)
	}
}

func TestArchive_NoPlan(t *testing.T) {
	s := newTestStore(t)

	if err := s.Archive(); !errors.Is(err, ErrNoPlan) {
		t.Fatalf("expected ErrNoPlan, got %v", err)
	}
}

func TestListHistory(t *testing.T) {
	s := newTestStore(t)

	ids, err := s.ListHistory()
	if err != nil {
		t.Fatalf("ListHistory (empty): %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("expected 0 history entries, got %d", len(ids))
	}
	if s.HistoryExists() {
		t.Error("expected HistoryExists()=false with no history")
	}

	for _, id := range []string{"steploom-2026-02-20-090000", "steploom-2026-02-20-110000"} {
		if err := s.SavePlan(testPlan(id)); err != nil {
			t.Fatalf("SavePlan: %v", err)
		}
		if err := s.Archive(); err != nil {
			t.Fatalf("Archive: %v", err)
		}
	}

	ids, err = s.ListHistory()
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(ids))
	}
	// Newest first
	if ids[0] != "steploom-2026-02-20-110000" {
		t.Errorf("expected newest first, got %s", ids[0])
	}
	if !s.HistoryExists() {
		t.Error("expected HistoryExists()=true after archive")
	}

	prev, err := s.LoadPrevious()
	if err != nil {
		t.Fatalf("LoadPrevious: %v", err)
	}
	if prev.ID != "steploom-2026-02-20-110000" {
		t.Errorf("expected newest plan, got %s", prev.ID)
	}
}

func TestArchive_SameSecondKeepsEveryPlan(t *testing.T) {
	s := newTestStore(t)

	const id = "steploom-2026-02-20-100000"
	for makespan := 1; makespan <= 3; makespan++ {
		plan := testPlan(id)
		plan.Makespan = makespan
		if err := s.SavePlan(plan); err != nil {
			t.Fatalf("SavePlan: %v", err)
		}
		if err := s.Archive(); err != nil {
			t.Fatalf("Archive %d: %v", makespan, err)
		}
	}

	ids, err := s.ListHistory()
	if err != nil {
		t.Fatalf("ListHistory: %v", err)
	}
	want := []string{id + "-002", id + "-001", id}
	if len(ids) != len(want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("ids[%d] = %s, want %s", i, ids[i], want[i])
		}
	}

	prev, err := s.LoadPrevious()
	if err != nil {
		t.Fatalf("LoadPrevious: %v", err)
	}
	if prev.Makespan != 3 {
		t.Errorf("expected the last archived plan, got makespan %d", prev.Makespan)
	}
	first, err := s.LoadArchived(id)
	if err != nil {
		t.Fatalf("LoadArchived: %v", err)
	}
	if first.Makespan != 1 {
		t.Errorf("expected the first archived plan untouched, got makespan %d", first.Makespan)
	}
}

func TestLoadPrevious_Empty(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.LoadPrevious(); !errors.Is(err, ErrNoPlan) {
		t.Fatalf("expected ErrNoPlan, got %v", err)
	}
}

func TestLoadArchived_InvalidID(t *testing.T) {
	s := newTestStore(t)

	for _, id := range []string{"", "../plan", "a/b", ".hidden"} {
		if _, err := s.LoadArchived(id); err == nil {
			t.Errorf("expected error for id %q", id)
		}
	}
}

func TestCleanCurrentAndClean(t *testing.T) {
	s := newTestStore(t)
	planID := "steploom-2026-02-20-100000"

	if err := s.SavePlan(testPlan(planID)); err != nil {
		t.Fatalf("SavePlan: %v", err)
	}
	if err := s.Archive(); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if err := s.SavePlan(testPlan("steploom-2026-02-20-120000")); err != nil {
		t.Fatalf("SavePlan: %v", err)
	}

	if err := s.CleanCurrent(); err != nil {
		t.Fatalf("CleanCurrent: %v", err)
	}
	if s.Exists() {
		t.Error("expected plan.json to be removed")
	}
	if !s.HistoryExists() {
		t.Error("expected history to be preserved")
	}
	// Removing an absent plan is not an error
	if err := s.CleanCurrent(); err != nil {
		t.Errorf("second CleanCurrent: %v", err)
	}

	if err := s.Clean(); err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if _, err := os.Stat(s.Dir); !os.IsNotExist(err) {
		t.Errorf("expected state dir removed, stat err=%v", err)
	}
}
