// Package schedule simulates a fixed pool of workers draining a dependency
// graph. Jobs are placed greedily, pass by pass, on whichever worker can
// start them soonest; the result is a deterministic makespan.
package schedule

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/joshharrison/steploom/internal/duration"
	"github.com/joshharrison/steploom/internal/graph"
)

var (
	// ErrEmptyWorkerPool is returned by New when asked for fewer than one worker.
	ErrEmptyWorkerPool = errors.New("worker pool needs at least one worker")
	// ErrPrerequisiteNotAssigned means a job was considered before all of its
	// prerequisites were placed. Either eligibility was skipped or the graph
	// has a cycle.
	ErrPrerequisiteNotAssigned = errors.New("prerequisite not assigned")
	// ErrAlreadyAssigned is returned when a job is assigned twice.
	ErrAlreadyAssigned = errors.New("job already assigned")
)

// Assignment is a record together with where and when it runs.
type Assignment struct {
	Job    graph.JobID `json:"job"`
	Worker int         `json:"worker"`
	Start  int         `json:"start"`
	End    int         `json:"end"`
}

// Frame is what every worker is doing during one time unit. An empty JobID
// means the worker is idle.
type Frame struct {
	Time   int           `json:"time"`
	Active []graph.JobID `json:"active"`
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the logger used for pass and assignment records.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.log = l
		}
	}
}

// Pool owns the workers for one computation.
type Pool struct {
	graph   *graph.Graph
	model   duration.Model
	workers []*Worker
	owner   map[graph.JobID]int // index of workers; a job is assigned iff present
	passes  int
	log     *slog.Logger
}

// New creates a pool of n empty workers over g. Every job must have a
// duration of at least 1 under model.
func New(g *graph.Graph, model duration.Model, n int, opts ...Option) (*Pool, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w (got %d)", ErrEmptyWorkerPool, n)
	}
	if g == nil {
		return nil, errors.New("nil dependency graph")
	}
	if err := duration.Check(model, g.AllJobs()); err != nil {
		return nil, err
	}

	p := &Pool{
		graph:   g,
		model:   model,
		workers: make([]*Worker, n),
		owner:   make(map[graph.JobID]int, g.JobCount()),
		log:     slog.New(slog.DiscardHandler),
	}
	for i := range p.workers {
		p.workers[i] = &Worker{}
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// IsAssigned reports whether some worker already holds job.
func (p *Pool) IsAssigned(job graph.JobID) bool {
	_, ok := p.owner[job]
	return ok
}

// IsEligible reports whether job is unassigned and every prerequisite is
// assigned. Prerequisites only need to be placed, not finished: their end
// times are already final.
func (p *Pool) IsEligible(job graph.JobID) (bool, error) {
	pre, err := p.graph.Prerequisites(job)
	if err != nil {
		return false, err
	}
	if p.IsAssigned(job) {
		return false, nil
	}
	for _, id := range pre {
		if !p.IsAssigned(id) {
			return false, nil
		}
	}
	return true, nil
}

// EarliestStart is the latest end time among job's prerequisites, or 0.
func (p *Pool) EarliestStart(job graph.JobID) (int, error) {
	pre, err := p.graph.Prerequisites(job)
	if err != nil {
		return 0, err
	}
	start := 0
	for _, id := range pre {
		w, ok := p.owner[id]
		if !ok {
			return 0, &graph.JobError{
				Op:  "earliest start",
				Job: job,
				Err: fmt.Errorf("%w: %s", ErrPrerequisiteNotAssigned, id),
			}
		}
		end, _ := p.workers[w].EndOf(id)
		start = max(start, end)
	}
	return start, nil
}

// AssignJob places job on the worker with the lowest idle cost for its
// earliest start. Ties go to the lowest worker index.
func (p *Pool) AssignJob(job graph.JobID) (Assignment, error) {
	if p.IsAssigned(job) {
		return Assignment{}, &graph.JobError{Op: "assign", Job: job, Err: ErrAlreadyAssigned}
	}
	notBefore, err := p.EarliestStart(job)
	if err != nil {
		return Assignment{}, err
	}

	best := 0
	bestCost := p.workers[0].IdleCost(notBefore)
	for i := 1; i < len(p.workers); i++ {
		if cost := p.workers[i].IdleCost(notBefore); cost < bestCost {
			best, bestCost = i, cost
		}
	}

	end := p.workers[best].Assign(job, notBefore, p.model)
	p.owner[job] = best

	a := Assignment{Job: job, Worker: best, Start: end - p.model.Duration(job), End: end}
	p.log.Debug("assigned job",
		"job", string(job),
		"worker", best,
		"start", a.Start,
		"end", a.End,
		"idle_cost", bestCost,
	)
	return a, nil
}

// Run assigns every job. Each pass collects the eligible jobs in ascending
// order first and then assigns them one by one, so later jobs in a pass see
// the worker state left by earlier ones.
func (p *Pool) Run() error {
	jobs := p.graph.AllJobs()
	for len(p.owner) < len(jobs) {
		p.passes++

		var eligible []graph.JobID
		for _, id := range jobs {
			ok, err := p.IsEligible(id)
			if err != nil {
				return err
			}
			if ok {
				eligible = append(eligible, id)
			}
		}
		if len(eligible) == 0 {
			return fmt.Errorf("pass %d: %w: %d jobs left with no eligible candidate",
				p.passes, ErrPrerequisiteNotAssigned, len(jobs)-len(p.owner))
		}

		for _, id := range eligible {
			if _, err := p.AssignJob(id); err != nil {
				return fmt.Errorf("pass %d: %w", p.passes, err)
			}
		}
		p.log.Info("scheduling pass complete",
			"pass", p.passes,
			"assigned", len(eligible),
			"remaining", len(jobs)-len(p.owner),
		)
	}

	p.log.Info("schedule complete",
		"jobs", len(jobs),
		"workers", len(p.workers),
		"passes", p.passes,
		"makespan", p.Makespan(),
	)
	return nil
}

// Makespan is the time the last worker becomes free.
func (p *Pool) Makespan() int {
	m := 0
	for _, w := range p.workers {
		m = max(m, w.EarliestFree())
	}
	return m
}

// Passes returns how many passes Run took.
func (p *Pool) Passes() int { return p.passes }

// WorkerCount returns the pool size.
func (p *Pool) WorkerCount() int { return len(p.workers) }

// Graph returns the graph the pool schedules.
func (p *Pool) Graph() *graph.Graph { return p.graph }

// Model returns the duration model the pool schedules with.
func (p *Pool) Model() duration.Model { return p.model }

// Records returns a copy of worker i's queue.
func (p *Pool) Records(i int) []Record {
	return p.workers[i].Records()
}

// Assignments lists every placed job, worker by worker in queue order.
func (p *Pool) Assignments() []Assignment {
	out := make([]Assignment, 0, len(p.owner))
	for i, w := range p.workers {
		for _, r := range w.queue {
			out = append(out, Assignment{
				Job:    r.Job,
				Worker: i,
				Start:  r.End - p.model.Duration(r.Job),
				End:    r.End,
			})
		}
	}
	return out
}

// Lookup returns the assignment of job, if it has been placed.
func (p *Pool) Lookup(job graph.JobID) (Assignment, bool) {
	i, ok := p.owner[job]
	if !ok {
		return Assignment{}, false
	}
	end, _ := p.workers[i].EndOf(job)
	return Assignment{Job: job, Worker: i, Start: end - p.model.Duration(job), End: end}, true
}

// ActiveAt returns, per worker, the job running at t or "" when idle.
func (p *Pool) ActiveAt(t int) []graph.JobID {
	out := make([]graph.JobID, len(p.workers))
	for i, w := range p.workers {
		if id, ok := w.ActiveAt(t, p.model); ok {
			out[i] = id
		}
	}
	return out
}

// Timeline returns one frame per time unit from 0 to Makespan inclusive.
func (p *Pool) Timeline() []Frame {
	m := p.Makespan()
	frames := make([]Frame, 0, m+1)
	for t := 0; t <= m; t++ {
		frames = append(frames, Frame{Time: t, Active: p.ActiveAt(t)})
	}
	return frames
}

// Utilization returns each worker's busy time divided by the makespan.
func (p *Pool) Utilization() []float64 {
	out := make([]float64, len(p.workers))
	m := p.Makespan()
	if m == 0 {
		return out
	}
	for i, w := range p.workers {
		out[i] = float64(w.Busy(p.model)) / float64(m)
	}
	return out
}
