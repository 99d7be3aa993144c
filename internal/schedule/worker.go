package schedule

import (
	"slices"

	"github.com/joshharrison/steploom/internal/duration"
	"github.com/joshharrison/steploom/internal/graph"
)

// Record is a job fixed onto a worker. End never changes once appended, which
// is what lets dependents read it before the job has "run".
type Record struct {
	Job graph.JobID `json:"job"`
	End int         `json:"end"`
}

// Worker executes its records strictly one after another.
type Worker struct {
	queue []Record
}

// EarliestFree is the end time of the last record, or 0 for an empty worker.
func (w *Worker) EarliestFree() int {
	if len(w.queue) == 0 {
		return 0
	}
	return w.queue[len(w.queue)-1].End
}

// IdleCost is how long a job that may start at atOrAfter would wait for
// this worker. Zero means the worker is free by then.
func (w *Worker) IdleCost(atOrAfter int) int {
	return max(w.EarliestFree(), atOrAfter) - atOrAfter
}

// Assign appends job, starting no earlier than notBefore, and returns its end time.
func (w *Worker) Assign(job graph.JobID, notBefore int, model duration.Model) int {
	start := max(notBefore, w.EarliestFree())
	end := start + model.Duration(job)
	w.queue = append(w.queue, Record{Job: job, End: end})
	return end
}

// ActiveAt returns the job whose [start, end) interval contains t.
func (w *Worker) ActiveAt(t int, model duration.Model) (graph.JobID, bool) {
	for _, r := range w.queue {
		if t >= r.End-model.Duration(r.Job) && t < r.End {
			return r.Job, true
		}
	}
	return "", false
}

// EndOf returns the end time of job if this worker holds it.
func (w *Worker) EndOf(job graph.JobID) (int, bool) {
	for _, r := range w.queue {
		if r.Job == job {
			return r.End, true
		}
	}
	return 0, false
}

// Records returns a copy of the queue in assignment order.
func (w *Worker) Records() []Record {
	return slices.Clone(w.queue)
}

// Len returns the number of assigned jobs.
func (w *Worker) Len() int { return len(w.queue) }

// Busy returns the total time spent executing jobs.
func (w *Worker) Busy(model duration.Model) int {
	total := 0
	for _, r := range w.queue {
		total += model.Duration(r.Job)
	}
	return total
}
