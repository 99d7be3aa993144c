package planner

import (
	"fmt"
	"time"

	"github.com/joshharrison/steploom/internal/cpm"
	"github.com/joshharrison/steploom/internal/graph"
	"github.com/joshharrison/steploom/internal/order"
	"github.com/joshharrison/steploom/internal/schedule"
)

var now = time.Now

// Generate creates a Plan from a finished pool run, its CPM analysis and
// the sequential order of the same graph.
func Generate(pool *schedule.Pool, cpmResult *cpm.Result, seq []graph.JobID, config PlanConfig) (*Plan, error) {
	g := pool.Graph()
	for _, id := range g.AllJobs() {
		if !pool.IsAssigned(id) {
			return nil, fmt.Errorf("job %s was not scheduled", id)
		}
	}
	if config.Workers == 0 {
		config.Workers = pool.WorkerCount()
	}

	created := now()
	plan := &Plan{
		ID:           fmt.Sprintf("steploom-%s", created.Format("2006-01-02-150405")),
		CreatedAt:    created,
		TotalJobs:    g.JobCount(),
		Makespan:     pool.Makespan(),
		Passes:       pool.Passes(),
		Order:        order.String(seq),
		CriticalPath: toStrings(cpmResult.CriticalPath),
		Jobs:         make(map[string]*PlannedJob, g.JobCount()),
		Deps: JobDeps{
			Predecessors: make(map[string][]string, g.JobCount()),
			Successors:   make(map[string][]string, g.JobCount()),
		},
		Config: config,
	}

	util := pool.Utilization()
	plan.Workers = make([]WorkerLane, pool.WorkerCount())
	for i := range plan.Workers {
		plan.Workers[i] = WorkerLane{Index: i, Utilization: util[i]}
	}

	for _, a := range pool.Assignments() {
		js := cpmResult.Jobs[a.Job]
		if js == nil {
			return nil, fmt.Errorf("job %s missing from critical path analysis", a.Job)
		}
		pj := PlannedJob{
			JobID:      string(a.Job),
			Worker:     a.Worker,
			Start:      a.Start,
			End:        a.End,
			Duration:   a.End - a.Start,
			IsCritical: js.IsCritical,
			Slack:      js.Slack,
			Wave:       js.Wave,
		}
		lane := &plan.Workers[a.Worker]
		lane.Jobs = append(lane.Jobs, pj)
		lane.Busy += pj.Duration
		plan.TotalWork += pj.Duration
		plan.Jobs[pj.JobID] = &pj
	}

	// Build the dependency maps for downstream consumers
	for _, id := range g.AllJobs() {
		pre, err := g.Prerequisites(id)
		if err != nil {
			return nil, err
		}
		post, err := g.Dependents(id)
		if err != nil {
			return nil, err
		}
		plan.Deps.Predecessors[string(id)] = toStrings(pre)
		plan.Deps.Successors[string(id)] = toStrings(post)
	}

	plan.LowerBound = lowerBound(cpmResult.TotalDuration, plan.TotalWork, pool.WorkerCount())

	if config.IncludeTimeline {
		for _, f := range pool.Timeline() {
			plan.Timeline = append(plan.Timeline, toStrings(f.Active))
		}
	}

	return plan, nil
}

// lowerBound is the larger of the critical path length and the total work
// spread evenly across all workers.
func lowerBound(criticalPath, totalWork, workers int) int {
	spread := (totalWork + workers - 1) / workers
	return max(criticalPath, spread)
}

func toStrings(ids []graph.JobID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
