package planner

import "time"

// JobDeps holds per-job predecessor and successor lists.
type JobDeps struct {
	Predecessors map[string][]string `json:"predecessors"`
	Successors   map[string][]string `json:"successors"`
}

// Plan is the complete, serialisable result of one scheduling run.
type Plan struct {
	ID           string                 `json:"id"`
	CreatedAt    time.Time              `json:"created_at"`
	TotalJobs    int                    `json:"total_jobs"`
	TotalWork    int                    `json:"total_work"`
	Makespan     int                    `json:"makespan"`
	LowerBound   int                    `json:"lower_bound"`
	Passes       int                    `json:"passes"`
	Order        string                 `json:"order"`
	CriticalPath []string               `json:"critical_path"`
	Workers      []WorkerLane           `json:"workers"`
	Jobs         map[string]*PlannedJob `json:"jobs"`
	Deps         JobDeps                `json:"deps"`
	Timeline     [][]string             `json:"timeline,omitempty"`
	Config       PlanConfig             `json:"config"`
}

// WorkerLane is the ordered work of one worker.
type WorkerLane struct {
	Index       int          `json:"index"`
	Jobs        []PlannedJob `json:"jobs"`
	Busy        int          `json:"busy"`
	Utilization float64      `json:"utilization"`
}

// PlannedJob is a single placed job.
type PlannedJob struct {
	JobID      string `json:"job_id"`
	Worker     int    `json:"worker"`
	Start      int    `json:"start"`
	End        int    `json:"end"`
	Duration   int    `json:"duration"`
	IsCritical bool   `json:"is_critical"`
	Slack      int    `json:"slack"`
	Wave       int    `json:"wave"`
}

// PlanConfig records the inputs a plan was produced from.
type PlanConfig struct {
	Workers         int    `json:"workers"`
	BaseOffset      int    `json:"base_offset"`
	Source          string `json:"source"`
	Target          string `json:"target,omitempty"`
	IncludeTimeline bool   `json:"include_timeline"`
}
