package reporter

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/joshharrison/steploom/internal/planner"
	"github.com/joshharrison/steploom/internal/ui"
)

// ErrNoTimeline is returned by PrintTimeline for plans generated without one.
var ErrNoTimeline = errors.New("plan has no timeline")

// Reporter renders a plan for the terminal.
type Reporter struct {
	Plan *planner.Plan
}

// New creates a new Reporter.
func New(plan *planner.Plan) *Reporter {
	return &Reporter{Plan: plan}
}

// PrintTimeline writes one row per time unit: the zero-padded time followed
// by a tab-separated column per worker holding the active job or ".".
func (r *Reporter) PrintTimeline(w io.Writer) error {
	if len(r.Plan.Timeline) == 0 {
		return ErrNoTimeline
	}
	for t, frame := range r.Plan.Timeline {
		var b strings.Builder
		fmt.Fprintf(&b, "%04d", t)
		for _, job := range frame {
			b.WriteString("\t")
			b.WriteString(ui.Cell(job))
		}
		fmt.Fprintln(w, b.String())
	}
	return nil
}

// PrintSummary writes the headline numbers of the plan.
func (r *Reporter) PrintSummary(w io.Writer) {
	p := r.Plan

	fmt.Fprintf(w, "\n%s\n", ui.BoldCyan("Steploom Schedule"))
	fmt.Fprintf(w, "%s\n", ui.Cyan("═════════════════"))
	fmt.Fprintf(w, "Plan:        %s\n", ui.Dim(p.ID))
	if p.Config.Source != "" {
		fmt.Fprintf(w, "Source:      %s\n", p.Config.Source)
	}
	fmt.Fprintf(w, "Jobs:        %d on %d workers\n", p.TotalJobs, p.Config.Workers)
	fmt.Fprintf(w, "Makespan:    %s\n", ui.Bold(p.Makespan))
	fmt.Fprintf(w, "Lower bound: %d %s\n", p.LowerBound, efficiency(p))
	fmt.Fprintf(w, "Order:       %s\n", p.Order)
	if len(p.CriticalPath) > 0 {
		fmt.Fprintf(w, "Critical:    %s\n", ui.BoldYellow(strings.Join(p.CriticalPath, " → ")))
	}
}

func efficiency(p *planner.Plan) string {
	if p.Makespan == 0 {
		return ""
	}
	if p.Makespan == p.LowerBound {
		return ui.Green("(optimal)")
	}
	return ui.Yellow(fmt.Sprintf("(+%d)", p.Makespan-p.LowerBound))
}

// PrintWorkers writes each worker lane with its jobs in run order.
func (r *Reporter) PrintWorkers(w io.Writer) {
	for _, lane := range r.Plan.Workers {
		fmt.Fprintf(w, "\n  %s %d  %s %3.0f%%\n",
			ui.Bold("worker"), lane.Index,
			ui.UtilizationBar(lane.Utilization, 20), lane.Utilization*100)
		if len(lane.Jobs) == 0 {
			fmt.Fprintf(w, "    %s\n", ui.Dim("(idle)"))
			continue
		}
		for _, job := range lane.Jobs {
			fmt.Fprintf(w, "    %s %s %s\n",
				ui.CriticalMark(job.IsCritical),
				ui.JobPrefix(job.JobID),
				ui.Dim(fmt.Sprintf("%d-%d (%d)", job.Start, job.End, job.Duration)))
		}
	}
}

// JSON returns the machine-readable plan.
func (r *Reporter) JSON() ([]byte, error) {
	return json.MarshalIndent(r.Plan, "", "  ")
}
