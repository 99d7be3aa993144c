// Package order produces the single-track visitation order of a dependency
// graph: a topological sort that always takes the smallest available job.
package order

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joshharrison/steploom/internal/graph"
)

// ErrStuck is returned when unvisited jobs remain but none is available,
// which only happens for cyclic input.
var ErrStuck = errors.New("no available job")

// Resolve returns every job of g in dependency order. Among jobs whose
// prerequisites are all visited, the smallest ID goes first.
func Resolve(g *graph.Graph) ([]graph.JobID, error) {
	remaining := g.AllJobs()
	visited := make(map[graph.JobID]bool, len(remaining))
	out := make([]graph.JobID, 0, len(remaining))

	for len(remaining) > 0 {
		idx := -1
		for i, id := range remaining {
			ok, err := available(g, id, visited)
			if err != nil {
				return nil, err
			}
			if ok {
				idx = i
				break
			}
		}
		if idx == -1 {
			return out, fmt.Errorf("%w: %d of %d jobs visited", ErrStuck, len(out), g.JobCount())
		}

		id := remaining[idx]
		remaining = append(remaining[:idx], remaining[idx+1:]...)
		visited[id] = true
		out = append(out, id)
	}
	return out, nil
}

func available(g *graph.Graph, id graph.JobID, visited map[graph.JobID]bool) (bool, error) {
	pre, err := g.Prerequisites(id)
	if err != nil {
		return false, err
	}
	for _, p := range pre {
		if !visited[p] {
			return false, nil
		}
	}
	return true, nil
}

// String concatenates IDs, which for single-letter jobs reads as "CABDFE".
func String(ids []graph.JobID) string {
	var sb strings.Builder
	for _, id := range ids {
		sb.WriteString(string(id))
	}
	return sb.String()
}
