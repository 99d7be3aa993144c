package graph

import (
	"errors"
	"slices"
	"testing"
)

func edge(before, after JobID) Edge { return Edge{Before: before, After: after} }

func TestBuildFromEdges_SimpleDAG(t *testing.T) {
	// A -> B -> D
	// A -> C -> D
	g, err := BuildFromEdges([]Edge{
		edge("a", "b"), edge("a", "c"), edge("b", "d"), edge("c", "d"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g.JobCount() != 4 {
		t.Errorf("expected 4 jobs, got %d", g.JobCount())
	}

	if roots := g.Roots(); len(roots) != 1 || roots[0] != "a" {
		t.Errorf("expected roots=[a], got %v", roots)
	}
	if leaves := g.Leaves(); len(leaves) != 1 || leaves[0] != "d" {
		t.Errorf("expected leaves=[d], got %v", leaves)
	}

	if dep, _ := g.Dependents("a"); len(dep) != 2 {
		t.Errorf("expected a to unblock 2 jobs, got %v", dep)
	}
	if pre, _ := g.Prerequisites("d"); !slices.Equal(pre, []JobID{"b", "c"}) {
		t.Errorf("expected d to wait for [b c], got %v", pre)
	}
}

func TestBuildFromEdges_RegistersEveryReferencedJob(t *testing.T) {
	// Reference puzzle graph: C has no prerequisites but must still be a key.
	g, err := BuildFromEdges([]Edge{
		edge("C", "A"), edge("C", "F"), edge("A", "B"),
		edge("A", "D"), edge("B", "E"), edge("D", "E"), edge("F", "E"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []JobID{"A", "B", "C", "D", "E", "F"}
	if got := g.AllJobs(); !slices.Equal(got, want) {
		t.Errorf("expected jobs %v, got %v", want, got)
	}

	pre, err := g.Prerequisites("C")
	if err != nil {
		t.Fatalf("prerequisites of C: %v", err)
	}
	if len(pre) != 0 {
		t.Errorf("expected C to have no prerequisites, got %v", pre)
	}
}

func TestBuildFromEdges_IsolatedJob(t *testing.T) {
	g, err := BuildFromEdges(nil, "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g.JobCount() != 1 {
		t.Errorf("expected 1 job, got %d", g.JobCount())
	}
	if roots := g.Roots(); len(roots) != 1 || roots[0] != "x" {
		t.Errorf("expected roots=[x], got %v", roots)
	}
	if leaves := g.Leaves(); len(leaves) != 1 || leaves[0] != "x" {
		t.Errorf("expected leaves=[x], got %v", leaves)
	}
}

func TestBuildFromEdges_DuplicateEdges(t *testing.T) {
	g, err := BuildFromEdges([]Edge{edge("a", "b"), edge("a", "b")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pre, _ := g.Prerequisites("b"); len(pre) != 1 {
		t.Errorf("expected a single prerequisite for b, got %v", pre)
	}
	if n := len(g.Edges()); n != 1 {
		t.Errorf("expected 1 edge, got %d", n)
	}
}

func TestBuildFromEdges_CycleDetection(t *testing.T) {
	// A -> B -> C -> A (cycle)
	_, err := BuildFromEdges([]Edge{edge("a", "b"), edge("b", "c"), edge("c", "a")})
	if err == nil {
		t.Fatal("expected cycle error, got nil")
	}
	if !errors.Is(err, ErrCycle) {
		t.Errorf("expected ErrCycle, got %v", err)
	}
	var ce *CycleError
	if !errors.As(err, &ce) || len(ce.Path) < 4 {
		t.Errorf("expected a closed cycle path, got %v", err)
	}
	t.Logf("cycle error (expected): %v", err)
}

func TestBuildFromEdges_SelfEdge(t *testing.T) {
	_, err := BuildFromEdges([]Edge{edge("a", "a")})
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("expected ErrCycle for self edge, got %v", err)
	}
}

func TestPrerequisites_UnknownJob(t *testing.T) {
	g, err := BuildFromEdges([]Edge{edge("a", "b")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = g.Prerequisites("z")
	if !errors.Is(err, ErrUnknownJob) {
		t.Fatalf("expected ErrUnknownJob, got %v", err)
	}
	var je *JobError
	if !errors.As(err, &je) || je.Job != "z" {
		t.Errorf("expected JobError for z, got %v", err)
	}
}

func TestPrerequisites_ReturnsCopy(t *testing.T) {
	g, err := BuildFromEdges([]Edge{edge("a", "c"), edge("b", "c")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pre, _ := g.Prerequisites("c")
	pre[0] = "mutated"

	again, _ := g.Prerequisites("c")
	if again[0] != "a" {
		t.Errorf("graph was mutated through returned slice: %v", again)
	}
}

func TestClosure(t *testing.T) {
	//   a -> b -> d
	//   c -> e
	g, err := BuildFromEdges([]Edge{edge("a", "b"), edge("b", "d"), edge("c", "e")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sub, err := g.Closure("d")
	if err != nil {
		t.Fatalf("closure: %v", err)
	}
	if got := sub.AllJobs(); !slices.Equal(got, []JobID{"a", "b", "d"}) {
		t.Errorf("expected closure [a b d], got %v", got)
	}
	if pre, _ := sub.Prerequisites("d"); !slices.Equal(pre, []JobID{"b"}) {
		t.Errorf("expected d to keep prerequisite b, got %v", pre)
	}

	if _, err := g.Closure("nope"); !errors.Is(err, ErrUnknownJob) {
		t.Errorf("expected ErrUnknownJob, got %v", err)
	}
}

func TestFilter(t *testing.T) {
	g, err := BuildFromEdges([]Edge{edge("a", "b"), edge("b", "c")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	filtered, err := g.Filter(func(id JobID) bool { return id != "b" })
	if err != nil {
		t.Fatalf("unexpected filter error: %v", err)
	}

	if filtered.JobCount() != 2 {
		t.Errorf("expected 2 jobs after filter, got %d", filtered.JobCount())
	}
	if filtered.Has("b") {
		t.Error("job b should have been filtered out")
	}
	if pre, _ := filtered.Prerequisites("c"); len(pre) != 0 {
		t.Errorf("expected c to lose its only prerequisite, got %v", pre)
	}
}

func TestBuildFromEdges_Empty(t *testing.T) {
	g, err := BuildFromEdges(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.JobCount() != 0 {
		t.Errorf("expected 0 jobs, got %d", g.JobCount())
	}
}

func TestBuildFromEdges_LinearChain(t *testing.T) {
	// A -> B -> C -> D -> E
	g, err := BuildFromEdges([]Edge{
		edge("a", "b"), edge("b", "c"), edge("c", "d"), edge("d", "e"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if roots := g.Roots(); len(roots) != 1 || roots[0] != "a" {
		t.Errorf("expected roots=[a], got %v", roots)
	}
	if leaves := g.Leaves(); len(leaves) != 1 || leaves[0] != "e" {
		t.Errorf("expected leaves=[e], got %v", leaves)
	}
	if cycle := g.DetectCycle(); cycle != nil {
		t.Errorf("expected no cycle, got %v", cycle)
	}
}
