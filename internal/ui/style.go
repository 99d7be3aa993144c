package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Sprint color functions for building styled strings.
var (
	Bold        = color.New(color.Bold).SprintFunc()
	Dim         = color.New(color.Faint).SprintFunc()
	Cyan        = color.New(color.FgCyan).SprintFunc()
	Green       = color.New(color.FgGreen).SprintFunc()
	Red         = color.New(color.FgRed).SprintFunc()
	Yellow      = color.New(color.FgYellow).SprintFunc()
	BoldCyan    = color.New(color.Bold, color.FgCyan).SprintFunc()
	BoldGreen   = color.New(color.Bold, color.FgGreen).SprintFunc()
	BoldRed     = color.New(color.Bold, color.FgRed).SprintFunc()
	BoldYellow  = color.New(color.Bold, color.FgYellow).SprintFunc()
	BoldMagenta = color.New(color.Bold, color.FgMagenta).SprintFunc()
)

// IdleMark is printed in timeline cells where a worker has nothing to do.
const IdleMark = "."

// PrintLogo renders the colored steploom banner to w.
func PrintLogo(w io.Writer) {
	frame := color.New(color.FgCyan)
	steps := color.New(color.FgYellow)
	brand := color.New(color.Bold, color.FgMagenta)
	tag := color.New(color.Faint)

	fmt.Fprintln(w)
	frame.Fprintln(w, "   +--------------------------+")
	steps.Fprintln(w, "   |  A--C--F    B--D--E      |")
	frame.Fprintln(w, "   |==========================|")
	brand.Fprintln(w, "   |  S  T  E  P  L  O  O  M  |")
	frame.Fprintln(w, "   |==========================|")
	steps.Fprintln(w, "   |  0 .. 3 .. 9 .. 14 .. 15 |")
	frame.Fprintln(w, "   +--------------------------+")
	tag.Fprintln(w, "   Dependency-ordered job scheduling")
	fmt.Fprintln(w)
}

// jobColors is a palette of distinct bold colors for differentiating jobs.
var jobColors = []func(a ...interface{}) string{
	BoldMagenta,
	BoldCyan,
	BoldYellow,
	BoldGreen,
	color.New(color.Bold, color.FgHiBlue).SprintFunc(),
	color.New(color.Bold, color.FgHiRed).SprintFunc(),
}

// jobColorIndex hashes a job ID to a palette index.
func jobColorIndex(jobID string) int {
	var h uint32
	for _, c := range jobID {
		h = h*31 + uint32(c)
	}
	return int(h % uint32(len(jobColors)))
}

// JobName returns the job ID in its palette color.
// The same ID always gets the same color.
func JobName(jobID string) string {
	return jobColors[jobColorIndex(jobID)](jobID)
}

// JobPrefix returns a colored [job-id] prefix string.
func JobPrefix(jobID string) string {
	return Dim("[") + JobName(jobID) + Dim("]")
}

// Cell renders a timeline cell: the colored job, or a dim idle mark.
func Cell(jobID string) string {
	if jobID == "" {
		return Dim(IdleMark)
	}
	return JobName(jobID)
}

// CriticalMark returns a marker for jobs on the critical path.
func CriticalMark(critical bool) string {
	if critical {
		return BoldRed("*")
	}
	return " "
}

// UtilizationBar returns a fixed-width bar for a 0..1 utilization ratio.
func UtilizationBar(ratio float64, width int) string {
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	filled := int(ratio*float64(width) + 0.5)
	bar := make([]rune, width)
	for i := range bar {
		if i < filled {
			bar[i] = '#'
		} else {
			bar[i] = '-'
		}
	}
	s := string(bar[:filled])
	rest := string(bar[filled:])
	switch {
	case ratio >= 0.75:
		s = Green(s)
	case ratio >= 0.4:
		s = Yellow(s)
	default:
		s = Red(s)
	}
	return s + Dim(rest)
}
