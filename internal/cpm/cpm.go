// Package cpm runs critical path analysis over a dependency graph. Its total
// duration is what an unlimited number of workers would achieve, so it bounds
// any pool's makespan from below.
package cpm

import (
	"fmt"
	"slices"
	"sort"

	"github.com/joshharrison/steploom/internal/duration"
	"github.com/joshharrison/steploom/internal/graph"
	"github.com/joshharrison/steploom/internal/order"
)

// Analyze performs critical path method analysis on g.
func Analyze(g *graph.Graph, model duration.Model) (*Result, error) {
	if err := duration.Check(model, g.AllJobs()); err != nil {
		return nil, err
	}
	topo, err := order.Resolve(g)
	if err != nil {
		return nil, fmt.Errorf("topological order: %w", err)
	}

	result := &Result{
		Jobs:      make(map[graph.JobID]*JobSchedule, len(topo)),
		TopoOrder: topo,
	}

	for _, id := range topo {
		result.Jobs[id] = &JobSchedule{JobID: id, Duration: model.Duration(id)}
	}

	// Forward pass: compute ES and EF
	for _, id := range topo {
		js := result.Jobs[id]
		pre, _ := g.Prerequisites(id)
		es := 0
		for _, p := range pre {
			es = max(es, result.Jobs[p].EF)
		}
		js.ES = es
		js.EF = es + js.Duration
		result.TotalDuration = max(result.TotalDuration, js.EF)
	}

	// Backward pass: compute LS and LF in reverse topological order
	for i := len(topo) - 1; i >= 0; i-- {
		js := result.Jobs[topo[i]]
		succ, _ := g.Dependents(topo[i])

		lf := result.TotalDuration
		for _, s := range succ {
			lf = min(lf, result.Jobs[s].LS)
		}
		js.LF = lf
		js.LS = lf - js.Duration
		js.Slack = js.LS - js.ES
		js.IsCritical = js.Slack == 0
	}

	// Build critical path (critical jobs in topological order)
	for _, id := range topo {
		if result.Jobs[id].IsCritical {
			result.CriticalPath = append(result.CriticalPath, id)
		}
	}

	result.Waves = computeWaves(result)

	return result, nil
}

// computeWaves groups jobs by their earliest start time.
func computeWaves(result *Result) []Wave {
	esGroups := make(map[int][]graph.JobID)
	for _, id := range result.TopoOrder {
		es := result.Jobs[id].ES
		esGroups[es] = append(esGroups[es], id)
	}

	esValues := make([]int, 0, len(esGroups))
	for es := range esGroups {
		esValues = append(esValues, es)
	}
	sort.Ints(esValues)

	waves := make([]Wave, len(esValues))
	for i, es := range esValues {
		ids := esGroups[es]
		slices.Sort(ids)

		hasCritical := false
		for _, id := range ids {
			result.Jobs[id].Wave = i
			if result.Jobs[id].IsCritical {
				hasCritical = true
			}
		}

		// Sort critical jobs first within wave
		sort.SliceStable(ids, func(a, b int) bool {
			return result.Jobs[ids[a]].IsCritical && !result.Jobs[ids[b]].IsCritical
		})

		waves[i] = Wave{
			Index:      i,
			Start:      es,
			JobIDs:     ids,
			IsCritical: hasCritical,
		}
	}

	return waves
}
