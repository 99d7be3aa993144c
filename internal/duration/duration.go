// Package duration maps jobs to how many time units they take.
package duration

import (
	"errors"
	"fmt"

	"github.com/joshharrison/steploom/internal/graph"
)

// ErrNonPositive is returned by Check for a job whose duration is below 1.
var ErrNonPositive = errors.New("duration must be at least 1")

// Model is a pure function from a job to its duration.
type Model interface {
	Duration(job graph.JobID) int
}

// Alphabet charges Base plus the letter's position in the alphabet, so with
// Base 60 job "A" takes 61 and "Z" takes 86. IDs that are not a single ASCII
// letter get 0, which Check rejects.
type Alphabet struct {
	Base int
}

func (a Alphabet) Duration(job graph.JobID) int {
	if len(job) != 1 {
		return 0
	}
	switch c := job[0]; {
	case c >= 'A' && c <= 'Z':
		return a.Base + int(c-'A') + 1
	case c >= 'a' && c <= 'z':
		return a.Base + int(c-'a') + 1
	}
	return 0
}

// Uniform charges every job the same Value.
type Uniform struct {
	Value int
}

func (u Uniform) Duration(graph.JobID) int { return u.Value }

// Table holds explicit durations. Jobs missing from Values use Fallback, or
// 0 when Fallback is nil.
type Table struct {
	Values   map[graph.JobID]int
	Fallback Model
}

func (t Table) Duration(job graph.JobID) int {
	if d, ok := t.Values[job]; ok {
		return d
	}
	if t.Fallback == nil {
		return 0
	}
	return t.Fallback.Duration(job)
}

// Fallback uses Primary unless it yields less than 1, then Secondary.
type Fallback struct {
	Primary   Model
	Secondary Model
}

func (f Fallback) Duration(job graph.JobID) int {
	if d := f.Primary.Duration(job); d >= 1 {
		return d
	}
	return f.Secondary.Duration(job)
}

// Check verifies that model gives every job a duration of at least 1.
func Check(model Model, jobs []graph.JobID) error {
	if model == nil {
		return errors.New("nil duration model")
	}
	for _, id := range jobs {
		if d := model.Duration(id); d < 1 {
			return &graph.JobError{Op: "duration", Job: id, Err: fmt.Errorf("%w (got %d)", ErrNonPositive, d)}
		}
	}
	return nil
}
