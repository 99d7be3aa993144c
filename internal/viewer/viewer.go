// Package viewer converts a plan into the node/edge graph document consumed
// by external graph renderers.
package viewer

import (
	"encoding/json"
	"io"
	"sort"
	"time"

	"github.com/joshharrison/steploom/internal/planner"
)

// --- Graph types ---

type GraphNode struct {
	ID         string `json:"id"`
	Worker     int    `json:"worker"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
	Duration   int    `json:"duration"`
	IsCritical bool   `json:"is_critical"`
	Slack      int    `json:"slack"`
	WaveIndex  int    `json:"wave_index"`
}

type GraphEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type GraphMetadata struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
	TotalJobs int    `json:"total_jobs"`
	Workers   int    `json:"workers"`
	Makespan  int    `json:"makespan"`
}

type Graph struct {
	Nodes        []GraphNode   `json:"nodes"`
	Edges        []GraphEdge   `json:"edges"`
	CriticalPath []string      `json:"critical_path"`
	Metadata     GraphMetadata `json:"metadata"`
}

// ToGraph converts a Plan into the normalised Graph. Nodes are sorted by ID
// and edges by (From, To).
func ToGraph(plan *planner.Plan) *Graph {
	nodes := make([]GraphNode, 0, len(plan.Jobs))
	for _, j := range plan.Jobs {
		nodes = append(nodes, GraphNode{
			ID:         j.JobID,
			Worker:     j.Worker,
			Start:      j.Start,
			End:        j.End,
			Duration:   j.Duration,
			IsCritical: j.IsCritical,
			Slack:      j.Slack,
			WaveIndex:  j.Wave,
		})
	}
	sort.Slice(nodes, func(a, b int) bool { return nodes[a].ID < nodes[b].ID })

	edges := []GraphEdge{}
	for jobID, preds := range plan.Deps.Predecessors {
		for _, pred := range preds {
			edges = append(edges, GraphEdge{From: pred, To: jobID})
		}
	}
	sort.Slice(edges, func(a, b int) bool {
		if edges[a].From != edges[b].From {
			return edges[a].From < edges[b].From
		}
		return edges[a].To < edges[b].To
	})

	createdAt := ""
	if !plan.CreatedAt.IsZero() {
		createdAt = plan.CreatedAt.Format(time.RFC3339)
	}

	return &Graph{
		Nodes:        nodes,
		Edges:        edges,
		CriticalPath: plan.CriticalPath,
		Metadata: GraphMetadata{
			ID:        plan.ID,
			CreatedAt: createdAt,
			TotalJobs: plan.TotalJobs,
			Workers:   plan.Config.Workers,
			Makespan:  plan.Makespan,
		},
	}
}

// Write encodes the graph for plan to w as indented JSON.
func Write(w io.Writer, plan *planner.Plan) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ToGraph(plan))
}
