package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/bamsammich/rdu/internal/engine"
	"github.com/bamsammich/rdu/internal/stats"
	"github.com/bamsammich/rdu/internal/ui"
)

// compareResult is one strategy's measurement.
type compareResult struct {
	stats    stats.Snapshot
	strategy engine.Strategy
	total    uint64
	best     time.Duration
}

func (a *app) compareCmd() *cobra.Command {
	var runs int

	cmd := &cobra.Command{
		Use:   "compare [flags] [dir]",
		Short: "Run every strategy on the same tree and compare timings",
		Long: `compare walks the tree once per strategy (or --runs times each, keeping the
fastest run), prints a timing table and fails if any two strategies disagree
on the total.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if runs < 1 {
				return fmt.Errorf("invalid --runs %d: must be at least 1", runs)
			}
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			return a.compare(root, runs)
		},
	}
	cmd.Flags().IntVar(&runs, "runs", 1, "runs per strategy; the fastest is reported")
	return cmd
}

func (a *app) compare(arg string, runs int) error {
	src, root, err := a.openSource(arg)
	if err != nil {
		slog.Error("compare failed", "root", arg, "error", err)
		return &exitError{code: 1}
	}
	defer src.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var results []compareResult
	for _, s := range engine.Strategies() {
		r, err := measure(ctx, engine.Config{Source: src, Strategy: s, Workers: a.opts.workers}, root, runs)
		if err != nil {
			slog.Error("compare failed", "root", arg, "strategy", s, "error", err)
			return &exitError{code: 1}
		}
		slog.Debug("strategy measured", "strategy", s, "total", r.total, "best", r.best, "stats", r.stats)
		results = append(results, r)
	}

	a.printComparison(results)

	for _, r := range results[1:] {
		if r.total != results[0].total {
			slog.Error("strategies disagree",
				"root", arg,
				results[0].strategy.String(), results[0].total,
				r.strategy.String(), r.total,
			)
			return &exitError{code: 1}
		}
	}
	return nil
}

// measure runs one strategy runs times and keeps the fastest duration.
func measure(ctx context.Context, cfg engine.Config, root string, runs int) (compareResult, error) {
	res := compareResult{strategy: cfg.Strategy}
	for i := range runs {
		cfg.Stats = stats.NewCollector()
		start := time.Now()
		r := engine.Run(ctx, cfg, root)
		elapsed := time.Since(start)
		if r.Err != nil {
			return res, r.Err
		}
		if i == 0 || elapsed < res.best {
			res.best = elapsed
			res.stats = r.Stats
		}
		res.total = r.Total
	}
	return res, nil
}

func (a *app) printComparison(results []compareResult) {
	tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STRATEGY\tTOTAL\tTIME\tENTRIES\tRATE\tMAX IN-FLIGHT")
	for _, r := range results {
		rate := 0.0
		if r.best > 0 {
			rate = float64(r.stats.Entries()) / r.best.Seconds()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
			r.strategy,
			ui.FormatSize(r.total, a.opts.sizeFormat()),
			ui.FormatDuration(r.best),
			ui.FormatCount(r.stats.Entries()),
			ui.FormatRate(rate),
			r.stats.MaxInFlight,
		)
	}
	_ = tw.Flush()
}
