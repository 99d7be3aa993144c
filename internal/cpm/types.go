package cpm

import "github.com/joshharrison/steploom/internal/graph"

// Result holds the complete critical path analysis.
type Result struct {
	Jobs          map[graph.JobID]*JobSchedule
	CriticalPath  []graph.JobID // ordered job IDs on critical path
	TotalDuration int           // makespan with unlimited workers
	Waves         []Wave        // groups sharing an earliest start
	TopoOrder     []graph.JobID
}

// JobSchedule holds the scheduling info for a single job.
type JobSchedule struct {
	JobID      graph.JobID
	Duration   int
	ES, EF     int // earliest start/finish
	LS, LF     int // latest start/finish
	Slack      int
	IsCritical bool
	Wave       int // which wave this belongs to
}

// Wave represents a group of jobs that may start at the same time.
type Wave struct {
	Index      int
	Start      int
	JobIDs     []graph.JobID
	IsCritical bool // true if wave contains critical path jobs
}
