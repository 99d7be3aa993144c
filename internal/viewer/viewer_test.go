package viewer

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/joshharrison/steploom/internal/planner"
)

func testPlan() *planner.Plan {
	return &planner.Plan{
		ID:           "steploom-2026-02-20-100000",
		CreatedAt:    time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC),
		TotalJobs:    3,
		Makespan:     6,
		CriticalPath: []string{"C", "B"},
		Jobs: map[string]*planner.PlannedJob{
			"C": {JobID: "C", Worker: 0, Start: 0, End: 3, Duration: 3, IsCritical: true},
			"A": {JobID: "A", Worker: 1, Start: 3, End: 4, Duration: 1, Slack: 1, Wave: 1},
			"B": {JobID: "B", Worker: 0, Start: 4, End: 6, Duration: 2, IsCritical: true, Wave: 1},
		},
		Deps: planner.JobDeps{
			Predecessors: map[string][]string{"A": {"C"}, "B": {"C"}, "C": {}},
			Successors:   map[string][]string{"C": {"A", "B"}, "A": {}, "B": {}},
		},
		Config: planner.PlanConfig{Workers: 2},
	}
}

func TestToGraph(t *testing.T) {
	g := ToGraph(testPlan())

	if len(g.Nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(g.Nodes))
	}
	for i, want := range []string{"A", "B", "C"} {
		if g.Nodes[i].ID != want {
			t.Errorf("node %d = %s, want %s", i, g.Nodes[i].ID, want)
		}
	}
	if n := g.Nodes[0]; n.Worker != 1 || n.Slack != 1 || n.WaveIndex != 1 || n.IsCritical {
		t.Errorf("unexpected node A: %+v", n)
	}

	wantEdges := []GraphEdge{{From: "C", To: "A"}, {From: "C", To: "B"}}
	if len(g.Edges) != len(wantEdges) {
		t.Fatalf("expected %d edges, got %v", len(wantEdges), g.Edges)
	}
	for i := range wantEdges {
		if g.Edges[i] != wantEdges[i] {
			t.Errorf("edge %d = %v, want %v", i, g.Edges[i], wantEdges[i])
		}
	}

	if g.Metadata.CreatedAt != "2026-02-20T10:00:00Z" {
		t.Errorf("unexpected created_at %q", g.Metadata.CreatedAt)
	}
	if g.Metadata.Workers != 2 || g.Metadata.Makespan != 6 {
		t.Errorf("unexpected metadata %+v", g.Metadata)
	}
}

func TestToGraph_EmptyPlan(t *testing.T) {
	g := ToGraph(&planner.Plan{})

	if len(g.Nodes) != 0 || len(g.Edges) != 0 {
		t.Errorf("expected empty graph, got %+v", g)
	}
	if g.Metadata.CreatedAt != "" {
		t.Errorf("expected no created_at for zero time, got %q", g.Metadata.CreatedAt)
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, testPlan()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var decoded Graph
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Metadata.ID != "steploom-2026-02-20-100000" || len(decoded.Nodes) != 3 {
		t.Errorf("unexpected decoded graph: %+v", decoded)
	}
}
