package graph

import (
	"slices"
)

// BuildFromEdges constructs a Graph from prerequisite edges. Every job named
// by an edge is registered, plus any extra jobs (which may have no edges at
// all). Duplicate edges are collapsed.
func BuildFromEdges(edges []Edge, jobs ...JobID) (*Graph, error) {
	g := &Graph{
		prereqs: make(map[JobID][]JobID),
		adj:     make(map[JobID][]JobID),
	}

	register := func(id JobID) {
		if _, ok := g.prereqs[id]; !ok {
			g.prereqs[id] = nil
		}
	}
	for _, id := range jobs {
		register(id)
	}

	edgeSet := make(map[Edge]bool)
	for _, e := range edges {
		register(e.Before)
		register(e.After)
		if edgeSet[e] {
			continue
		}
		edgeSet[e] = true
		g.prereqs[e.After] = append(g.prereqs[e.After], e.Before)
		g.adj[e.Before] = append(g.adj[e.Before], e.After)
	}

	// Sort adjacency lists for deterministic ordering
	for id := range g.prereqs {
		slices.Sort(g.prereqs[id])
		slices.Sort(g.adj[id])
		g.jobs = append(g.jobs, id)
	}
	slices.Sort(g.jobs)

	for _, id := range g.jobs {
		if len(g.prereqs[id]) == 0 {
			g.roots = append(g.roots, id)
		}
		if len(g.adj[id]) == 0 {
			g.leaves = append(g.leaves, id)
		}
	}

	if cycle := g.DetectCycle(); cycle != nil {
		return nil, &CycleError{Path: cycle}
	}

	return g, nil
}

// DetectCycle returns the cycle path if one exists, or nil if the graph is acyclic.
// Uses DFS with coloring: white (unvisited), gray (in progress), black (done).
func (g *Graph) DetectCycle() []JobID {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[JobID]int)
	parent := make(map[JobID]JobID)

	var dfs func(node JobID) []JobID
	dfs = func(node JobID) []JobID {
		color[node] = gray
		for _, next := range g.adj[node] {
			if color[next] == gray {
				// Walk parents back from node to next
				cycle := []JobID{next, node}
				cur := node
				for cur != next {
					cur = parent[cur]
					cycle = append(cycle, cur)
				}
				slices.Reverse(cycle)
				return cycle
			}
			if color[next] == white {
				parent[next] = node
				if cycle := dfs(next); cycle != nil {
					return cycle
				}
			}
		}
		color[node] = black
		return nil
	}

	for _, id := range g.jobs {
		if color[id] == white {
			if cycle := dfs(id); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// Prerequisites returns the jobs that must be assigned before job, ascending.
func (g *Graph) Prerequisites(job JobID) ([]JobID, error) {
	pre, ok := g.prereqs[job]
	if !ok {
		return nil, &JobError{Op: "prerequisites", Job: job, Err: ErrUnknownJob}
	}
	return slices.Clone(pre), nil
}

// Dependents returns the jobs that list job as a prerequisite, ascending.
func (g *Graph) Dependents(job JobID) ([]JobID, error) {
	if !g.Has(job) {
		return nil, &JobError{Op: "dependents", Job: job, Err: ErrUnknownJob}
	}
	return slices.Clone(g.adj[job]), nil
}

// AllJobs returns every job in ascending order.
func (g *Graph) AllJobs() []JobID {
	return slices.Clone(g.jobs)
}

// Has reports whether job is registered.
func (g *Graph) Has(job JobID) bool {
	_, ok := g.prereqs[job]
	return ok
}

// JobCount returns the number of jobs in the graph.
func (g *Graph) JobCount() int {
	return len(g.jobs)
}

// Roots returns the jobs without prerequisites.
func (g *Graph) Roots() []JobID { return slices.Clone(g.roots) }

// Leaves returns the jobs that no other job waits for.
func (g *Graph) Leaves() []JobID { return slices.Clone(g.leaves) }

// Edges returns every edge, ordered by Before then After.
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for _, from := range g.jobs {
		for _, to := range g.adj[from] {
			edges = append(edges, Edge{Before: from, After: to})
		}
	}
	return edges
}

// Closure returns the subgraph made of targets and everything they
// transitively wait for.
func (g *Graph) Closure(targets ...JobID) (*Graph, error) {
	keep := make(map[JobID]bool)
	stack := make([]JobID, 0, len(targets))
	for _, t := range targets {
		if !g.Has(t) {
			return nil, &JobError{Op: "closure", Job: t, Err: ErrUnknownJob}
		}
		stack = append(stack, t)
	}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if keep[id] {
			continue
		}
		keep[id] = true
		stack = append(stack, g.prereqs[id]...)
	}
	return g.Filter(func(id JobID) bool { return keep[id] })
}

// Filter returns a new Graph containing only jobs matching the predicate.
// Edges touching a dropped job are dropped with it.
func (g *Graph) Filter(pred func(JobID) bool) (*Graph, error) {
	var jobs []JobID
	var edges []Edge
	for _, id := range g.jobs {
		if !pred(id) {
			continue
		}
		jobs = append(jobs, id)
		for _, pre := range g.prereqs[id] {
			if pred(pre) {
				edges = append(edges, Edge{Before: pre, After: id})
			}
		}
	}
	return BuildFromEdges(edges, jobs...)
}
