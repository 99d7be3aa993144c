package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/joshharrison/steploom/internal/config"
	"github.com/joshharrison/steploom/internal/cpm"
	"github.com/joshharrison/steploom/internal/duration"
	"github.com/joshharrison/steploom/internal/graph"
	"github.com/joshharrison/steploom/internal/loader"
	"github.com/joshharrison/steploom/internal/logging"
	"github.com/joshharrison/steploom/internal/order"
	"github.com/joshharrison/steploom/internal/planner"
	"github.com/joshharrison/steploom/internal/reporter"
	"github.com/joshharrison/steploom/internal/schedule"
	"github.com/joshharrison/steploom/internal/state"
	"github.com/joshharrison/steploom/internal/ui"
)

var (
	cfg      = config.Default()
	logger   = slog.New(slog.DiscardHandler)
	closeLog = func() error { return nil }
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "steploom",
		Short: "Schedule dependency-ordered jobs across a pool of workers",
		Long: `Steploom reads "job B needs job A" rules, resolves the sequential order
jobs can run in, and simulates a pool of identical workers picking them up
greedily to find how long the whole set takes.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return closeLog()
		},
	}

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringP("config", "c", "", "config file (default is $HOME/.config/steploom/config.yaml)")
	pf.String("input-format", "", "Input format (steps, yaml, json, hcl); detected from the extension when empty")
	pf.Bool("json", false, "Machine-readable JSON output")
	pf.Bool("no-color", false, "Disable colored output")
	pf.String("log-level", "", "Log level (debug, info, warn, error)")
	pf.String("log-format", "", "Log format (text, json)")
	pf.String("log-file", "", "Write logs to a file instead of stderr")
	pf.String("state-dir", "", "Directory for saved plans")
	pf.IntP("workers", "w", 0, "Number of workers")
	pf.Int("base", 0, "Base duration added to every letter job")
	bindFlags(pf, map[string]string{
		"scheduler.workers":     "workers",
		"scheduler.base_offset": "base",
		"config":                "config",
		"input.format":          "input-format",
		"output.json":           "json",
		"output.no_color":       "no-color",
		"logging.level":         "log-level",
		"logging.format":        "log-format",
		"logging.file":          "log-file",
		"state.dir":             "state-dir",
	})

	rootCmd.AddCommand(orderCmd())
	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(vizCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(cleanCmd())

	return rootCmd
}

func bindFlags(fs *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		_ = viper.BindPFlag(key, fs.Lookup(name))
	}
}

func initConfig() error {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	cfgFile := viper.GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("STEPLOOM")
	// STEPLOOM_SCHEDULER_WORKERS for scheduler.workers
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func setup(stderr io.Writer) error {
	if err := initConfig(); err != nil {
		return err
	}
	c, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cfg = c

	if cfg.Output.NoColor {
		color.NoColor = true
	}

	l, closeFn, err := logging.Open(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	}, stderr)
	if err != nil {
		return err
	}
	logger, closeLog = l, closeFn
	logger.Debug("configuration loaded",
		"file", viper.ConfigFileUsed(),
		"workers", cfg.Scheduler.Workers,
		"base_offset", cfg.Scheduler.BaseOffset,
	)
	return nil
}

// baseModel is the duration model for jobs without an explicit duration.
func baseModel() duration.Model {
	var m duration.Model = duration.Alphabet{Base: cfg.Scheduler.BaseOffset}
	if cfg.Scheduler.DefaultDuration > 0 {
		m = duration.Fallback{Primary: m, Secondary: duration.Uniform{Value: cfg.Scheduler.DefaultDuration}}
	}
	return m
}

// loadJobs reads a job file into a graph and the model to time it with.
func loadJobs(path string) (*graph.Graph, duration.Model, error) {
	def, err := loader.Load(path, cfg.Input.Format)
	if err != nil {
		return nil, nil, fmt.Errorf("load jobs: %w", err)
	}
	g, err := def.Graph()
	if err != nil {
		return nil, nil, fmt.Errorf("build dependency graph: %w", err)
	}
	logger.Info("loaded jobs", "path", path, "jobs", g.JobCount(), "edges", len(def.Edges))
	return g, def.Model(baseModel()), nil
}

func orderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "order FILE",
		Short: "Print the order a single worker completes the jobs in",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, _, err := loadJobs(args[0])
			if err != nil {
				return err
			}
			seq, err := order.Resolve(g)
			if err != nil {
				return fmt.Errorf("resolve order: %w", err)
			}

			if cfg.Output.JSON {
				return outputJSON(cmd.OutOrStdout(), map[string]string{"order": order.String(seq)})
			}
			fmt.Fprintln(cmd.OutOrStdout(), order.String(seq))
			return nil
		},
	}
}

// buildPlan runs the pool, CPM and sequential order for one job file.
func buildPlan(path string, targets []string) (*planner.Plan, error) {
	g, model, err := loadJobs(path)
	if err != nil {
		return nil, err
	}

	if len(targets) > 0 {
		ids := make([]graph.JobID, len(targets))
		for i, t := range targets {
			ids[i] = graph.JobID(strings.TrimSpace(t))
		}
		g, err = g.Closure(ids...)
		if err != nil {
			return nil, fmt.Errorf("select targets: %w", err)
		}
		logger.Info("restricted to targets", "targets", targets, "jobs", g.JobCount())
	}

	pool, err := schedule.New(g, model, cfg.Scheduler.Workers, schedule.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	if err := pool.Run(); err != nil {
		return nil, fmt.Errorf("schedule jobs: %w", err)
	}

	result, err := cpm.Analyze(g, model)
	if err != nil {
		return nil, fmt.Errorf("CPM analysis: %w", err)
	}
	seq, err := order.Resolve(g)
	if err != nil {
		return nil, fmt.Errorf("resolve order: %w", err)
	}

	plan, err := planner.Generate(pool, result, seq, planner.PlanConfig{
		Workers:         cfg.Scheduler.Workers,
		BaseOffset:      cfg.Scheduler.BaseOffset,
		Source:          path,
		Target:          strings.Join(targets, ","),
		IncludeTimeline: cfg.Output.Timeline,
	})
	if err != nil {
		return nil, fmt.Errorf("generate plan: %w", err)
	}
	return plan, nil
}

func scheduleCmd() *cobra.Command {
	var (
		flagTargets []string
		flagSave    bool
	)

	cmd := &cobra.Command{
		Use:   "schedule FILE",
		Short: "Simulate the worker pool and report the makespan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			plan, err := buildPlan(args[0], flagTargets)
			if err != nil {
				return err
			}

			if flagSave {
				if err := savePlan(plan); err != nil {
					return fmt.Errorf("save plan: %w", err)
				}
			}

			if cfg.Output.JSON {
				return printPlanJSON(out, plan)
			}
			ui.PrintLogo(cmd.ErrOrStderr())
			if err := printPlan(out, plan); err != nil {
				return err
			}
			if flagSave {
				fmt.Fprintf(out, "\nSaved plan %s\n", ui.Bold(plan.ID))
			}
			return nil
		},
	}

	cmd.Flags().Bool("timeline", false, "Print what every worker does at each time step")
	cmd.Flags().String("template", "", "Custom summary template path")
	bindFlags(cmd.Flags(), map[string]string{
		"output.timeline": "timeline",
		"output.template": "template",
	})
	cmd.Flags().StringSliceVar(&flagTargets, "target", nil, "Only schedule these jobs and their prerequisites")
	cmd.Flags().BoolVar(&flagSave, "save", false, "Save the plan to the state directory")

	return cmd
}

// printPlan writes a plan in the configured human-readable form.
func printPlan(out io.Writer, plan *planner.Plan) error {
	rpt := reporter.New(plan)

	if cfg.Output.Template != "" {
		summary, err := planner.RenderSummary(plan, cfg.Output.Template)
		if err != nil {
			return fmt.Errorf("render summary: %w", err)
		}
		fmt.Fprint(out, summary)
	} else {
		rpt.PrintSummary(out)
		rpt.PrintWorkers(out)
	}

	if len(plan.Timeline) > 0 {
		fmt.Fprintln(out)
		if err := rpt.PrintTimeline(out); err != nil {
			return err
		}
	}
	return nil
}

func printPlanJSON(out io.Writer, plan *planner.Plan) error {
	data, err := reporter.New(plan).JSON()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(data))
	return nil
}

func savePlan(plan *planner.Plan) error {
	store := state.NewStore(cfg.State.Dir)
	if store.Exists() {
		if err := store.Archive(); err != nil {
			return err
		}
	}
	if err := store.SavePlan(plan); err != nil {
		return err
	}
	logger.Info("saved plan", "id", plan.ID, "dir", cfg.State.Dir)
	return nil
}

func analyzeCmd() *cobra.Command {
	var flagSweep int

	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Compute the critical path and parallel waves",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			g, model, err := loadJobs(args[0])
			if err != nil {
				return err
			}
			result, err := cpm.Analyze(g, model)
			if err != nil {
				return fmt.Errorf("CPM analysis: %w", err)
			}

			var sweep []int
			for n := 1; n <= flagSweep; n++ {
				pool, err := schedule.New(g, model, n, schedule.WithLogger(logger))
				if err != nil {
					return fmt.Errorf("create worker pool: %w", err)
				}
				if err := pool.Run(); err != nil {
					return fmt.Errorf("schedule jobs: %w", err)
				}
				sweep = append(sweep, pool.Makespan())
			}

			if cfg.Output.JSON {
				return outputJSON(out, analysisJSON(g, result, sweep))
			}
			printAnalysis(out, g, result, sweep)
			return nil
		},
	}

	cmd.Flags().IntVar(&flagSweep, "sweep", 0, "Also report the makespan for 1..N workers")

	return cmd
}

type analysisOutput struct {
	TotalDuration int                `json:"total_duration"`
	CriticalPath  []graph.JobID      `json:"critical_path"`
	Roots         []graph.JobID      `json:"roots"`
	Leaves        []graph.JobID      `json:"leaves"`
	Waves         [][]graph.JobID    `json:"waves"`
	Jobs          []analysisJobEntry `json:"jobs"`
	Makespans     []int              `json:"makespans,omitempty"`
}

type analysisJobEntry struct {
	Job        graph.JobID `json:"job"`
	Duration   int         `json:"duration"`
	ES         int         `json:"es"`
	EF         int         `json:"ef"`
	LS         int         `json:"ls"`
	LF         int         `json:"lf"`
	Slack      int         `json:"slack"`
	IsCritical bool        `json:"is_critical"`
}

func analysisJSON(g *graph.Graph, result *cpm.Result, sweep []int) analysisOutput {
	o := analysisOutput{
		TotalDuration: result.TotalDuration,
		CriticalPath:  result.CriticalPath,
		Roots:         g.Roots(),
		Leaves:        g.Leaves(),
		Makespans:     sweep,
	}
	for _, w := range result.Waves {
		o.Waves = append(o.Waves, w.JobIDs)
	}
	for _, id := range result.TopoOrder {
		js := result.Jobs[id]
		o.Jobs = append(o.Jobs, analysisJobEntry{
			Job: id, Duration: js.Duration,
			ES: js.ES, EF: js.EF, LS: js.LS, LF: js.LF,
			Slack: js.Slack, IsCritical: js.IsCritical,
		})
	}
	return o
}

func printAnalysis(out io.Writer, g *graph.Graph, result *cpm.Result, sweep []int) {
	fmt.Fprintf(out, "%s\n", ui.BoldCyan("Critical Path Analysis"))
	fmt.Fprintln(out, ui.Cyan("══════════════════════"))
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Jobs:      %s\n", ui.Bold(len(result.Jobs)))
	fmt.Fprintf(out, "Duration:  %s (one worker per job)\n", ui.Bold(result.TotalDuration))
	fmt.Fprintf(out, "Critical:  %s\n", ui.BoldYellow(joinIDs(result.CriticalPath, " → ")))
	fmt.Fprintf(out, "Waves:     %s\n", ui.Bold(len(result.Waves)))
	fmt.Fprintf(out, "Roots:     %s\n", joinIDs(g.Roots(), " "))
	fmt.Fprintf(out, "Leaves:    %s\n", joinIDs(g.Leaves(), " "))
	fmt.Fprintln(out)

	for _, w := range result.Waves {
		fmt.Fprintf(out, "%s %d %s\n", ui.Bold("Wave"), w.Index+1, ui.Dim(fmt.Sprintf("(starts at %d)", w.Start)))
		for _, id := range w.JobIDs {
			js := result.Jobs[id]
			fmt.Fprintf(out, "  %s %-12s %s\n",
				ui.CriticalMark(js.IsCritical), ui.JobPrefix(string(id)),
				ui.Dim(fmt.Sprintf("dur %d  es %d  ef %d  ls %d  lf %d  slack %d",
					js.Duration, js.ES, js.EF, js.LS, js.LF, js.Slack)))
		}
	}

	if len(sweep) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "%s\n", ui.Bold("Makespan by workers"))
		for i, m := range sweep {
			fmt.Fprintf(out, "  %2d  %d\n", i+1, m)
		}
	}
}

func showCmd() *cobra.Command {
	var (
		flagPlanID   string
		flagPrevious bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the saved plan, or an archived one with --plan or --previous",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := state.NewStore(cfg.State.Dir)

			var (
				plan *planner.Plan
				err  error
			)
			switch {
			case flagPlanID != "":
				plan, err = store.LoadArchived(flagPlanID)
			case flagPrevious:
				plan, err = store.LoadPrevious()
			default:
				plan, err = store.LoadPlan()
			}
			if err != nil {
				if errors.Is(err, state.ErrNoPlan) {
					return fmt.Errorf("%w (run 'steploom schedule --save' first)", err)
				}
				return err
			}

			if cfg.Output.JSON {
				return printPlanJSON(cmd.OutOrStdout(), plan)
			}
			return printPlan(cmd.OutOrStdout(), plan)
		},
	}

	cmd.Flags().StringVar(&flagPlanID, "plan", "", "Archived plan ID")
	cmd.Flags().BoolVar(&flagPrevious, "previous", false, "Show the most recently archived plan")
	cmd.MarkFlagsMutuallyExclusive("plan", "previous")

	return cmd
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List archived plans, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			store := state.NewStore(cfg.State.Dir)

			ids, err := store.ListHistory()
			if err != nil {
				return err
			}

			type entry struct {
				ID       string `json:"id"`
				Source   string `json:"source"`
				Workers  int    `json:"workers"`
				Makespan int    `json:"makespan"`
			}
			var entries []entry
			for _, id := range ids {
				plan, err := store.LoadArchived(id)
				if err != nil {
					logger.Warn("skipping unreadable plan", "id", id, "error", err)
					continue
				}
				entries = append(entries, entry{id, plan.Config.Source, plan.Config.Workers, plan.Makespan})
			}

			if cfg.Output.JSON {
				return outputJSON(out, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, ui.Dim("No archived plans."))
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%s  makespan %-5d workers %-3d %s\n",
					ui.Bold(e.ID), e.Makespan, e.Workers, ui.Dim(e.Source))
			}
			return nil
		},
	}
}

func cleanCmd() *cobra.Command {
	var flagAll bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove the saved plan (and with --all, the archived history)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			store := state.NewStore(cfg.State.Dir)

			if flagAll {
				if err := store.Clean(); err != nil {
					return fmt.Errorf("remove %s: %w", cfg.State.Dir, err)
				}
				fmt.Fprintf(out, "Removed %s\n", cfg.State.Dir)
				return nil
			}

			if err := store.CleanCurrent(); err != nil {
				return fmt.Errorf("remove current plan: %w", err)
			}
			fmt.Fprintln(out, "Removed current plan")
			if store.HistoryExists() {
				fmt.Fprintln(out, ui.Dim("Archived plans kept; use --all to remove them"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&flagAll, "all", false, "Also remove archived plans")

	return cmd
}

func outputJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func joinIDs(ids []graph.JobID, sep string) string {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = string(id)
	}
	return strings.Join(s, sep)
}
