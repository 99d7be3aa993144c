package graph

import (
	"errors"
	"fmt"
	"strings"
)

// JobID identifies a job. IDs are ordered by plain string comparison, and
// that order decides every tie-break downstream.
type JobID string

// Edge states that Before must be assigned before After may be.
type Edge struct {
	Before JobID `json:"before" yaml:"before"`
	After  JobID `json:"after" yaml:"after"`
}

// Graph is an immutable directed acyclic graph of jobs.
type Graph struct {
	prereqs map[JobID][]JobID // job -> jobs it waits for
	adj     map[JobID][]JobID // job -> jobs waiting for it
	jobs    []JobID           // ascending
	roots   []JobID           // jobs with no prerequisites
	leaves  []JobID           // jobs nothing waits for
}

var (
	// ErrUnknownJob is returned for a job that was never registered.
	ErrUnknownJob = errors.New("unknown job")
	// ErrCycle is returned when the edges do not form a DAG.
	ErrCycle = errors.New("dependency cycle")
)

// JobError ties a failed operation to the job it was about.
type JobError struct {
	Op  string
	Job JobID
	Err error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Job, e.Err)
}

func (e *JobError) Unwrap() error { return e.Err }

// CycleError reports the jobs forming a cycle, first job repeated last.
type CycleError struct {
	Path []JobID
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Path))
	for i, id := range e.Path {
		parts[i] = string(id)
	}
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(parts, " -> "))
}

func (e *CycleError) Is(target error) bool { return target == ErrCycle }
