package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/joshharrison/steploom/internal/cpm"
	"github.com/joshharrison/steploom/internal/graph"
	"github.com/joshharrison/steploom/internal/ui"
	"github.com/joshharrison/steploom/internal/viewer"
)

func vizCmd() *cobra.Command {
	var flagFormat string

	cmd := &cobra.Command{
		Use:   "viz FILE",
		Short: "Print the dependency graph as ASCII, Graphviz DOT or a JSON node/edge document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagFormat == "json" {
				plan, err := buildPlan(args[0], nil)
				if err != nil {
					return err
				}
				return viewer.Write(cmd.OutOrStdout(), plan)
			}

			g, model, err := loadJobs(args[0])
			if err != nil {
				return err
			}
			result, err := cpm.Analyze(g, model)
			if err != nil {
				return fmt.Errorf("CPM analysis: %w", err)
			}

			switch flagFormat {
			case "dot":
				return printDOT(cmd.OutOrStdout(), g, result)
			case "ascii":
				return printASCIIDAG(cmd.OutOrStdout(), g, result)
			}
			return fmt.Errorf("unknown format %q (want ascii, dot or json)", flagFormat)
		},
	}

	cmd.Flags().StringVar(&flagFormat, "format", "ascii", "Output format (ascii, dot, json)")

	return cmd
}

func printASCIIDAG(w io.Writer, g *graph.Graph, result *cpm.Result) error {
	fmt.Fprintf(w, "%s\n", ui.BoldCyan("Job Dependency Graph"))
	fmt.Fprintln(w, ui.Cyan("════════════════════"))
	fmt.Fprintln(w)

	for _, wave := range result.Waves {
		fmt.Fprintf(w, "%s Wave %d %s\n", ui.Cyan("──"), wave.Index+1, ui.Cyan("──────────────────────────────"))
		for _, id := range wave.JobIDs {
			js := result.Jobs[id]
			fmt.Fprintf(w, "  %s %s %s\n", ui.CriticalMark(js.IsCritical), ui.JobPrefix(string(id)), ui.Dim(fmt.Sprintf("(%d)", js.Duration)))

			// Show edges
			next, err := g.Dependents(id)
			if err != nil {
				return err
			}
			for _, d := range next {
				fmt.Fprintf(w, "      %s %s\n", ui.Dim("└──→"), ui.JobName(string(d)))
			}
		}
		fmt.Fprintln(w)
	}
	return nil
}

func printDOT(w io.Writer, g *graph.Graph, result *cpm.Result) error {
	fmt.Fprintln(w, "digraph steploom {")
	fmt.Fprintln(w, "  rankdir=LR;")
	fmt.Fprintln(w, "  node [shape=box, style=rounded];")
	fmt.Fprintln(w)

	for _, id := range g.AllJobs() {
		js := result.Jobs[id]
		attrs := fmt.Sprintf(`label="%s\n%d"`, id, js.Duration)
		if js.IsCritical {
			attrs += `, style="rounded,bold", color=red`
		}
		fmt.Fprintf(w, "  %q [%s];\n", string(id), attrs)
	}

	fmt.Fprintln(w)

	for _, e := range g.Edges() {
		style := ""
		if result.Jobs[e.Before].IsCritical && result.Jobs[e.After].IsCritical {
			style = ` [color=red, penwidth=2]`
		}
		fmt.Fprintf(w, "  %q -> %q%s;\n", string(e.Before), string(e.After), style)
	}

	fmt.Fprintln(w, "}")
	return nil
}
