package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/quantforge/backtest/optimize"
	"github.com/quantforge/backtest/risk"
	"github.com/quantforge/backtest/strategies"
)

var optTop int

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Grid-search strategy and risk parameters",
	Long: `Optimize enumerates the full cartesian product of the axes in the
configuration file, runs one isolated backtest per combination across a
bounded worker pool, and prints the results ranked by the target metric.
Failed combinations are reported separately and never abort the search.
Interrupting keeps the results collected so far.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cmd.SilenceUsage = true

		cfg, bars, err := loadInputs()
		if err != nil {
			return err
		}
		if len(cfg.Optimizer.Axes) == 0 {
			return errors.New("config has no optimizer axes")
		}

		axes := make([]optimize.Axis, 0, len(cfg.Optimizer.Axes))
		for _, a := range cfg.Optimizer.Axes {
			axes = append(axes, optimize.Axis{Name: a.Name, Values: a.Values})
		}

		opt := &optimize.Optimizer{
			Bars: bars,
			Factory: func(s optimize.Set) (optimize.RunConfig, error) {
				c := cfg.WithParams(s.Values)
				src, err := strategies.New(c.Strategy.Name, c.Strategy.Params)
				if err != nil {
					return optimize.RunConfig{}, err
				}
				return optimize.RunConfig{
					Source: src,
					Risk:   risk.New(c.RiskConfig()),
					Sim:    c.SimConfig(),
				}, nil
			},
			Workers:        cfg.Optimizer.Workers,
			TargetMetric:   cfg.Optimizer.TargetMetric,
			TieBreakMetric: cfg.Optimizer.TieBreakMetric,
			RiskFreeRate:   cfg.Account.RiskFreeRate,
			Logger:         logger,
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		report, err := opt.Run(ctx, axes)
		if err != nil && len(report.Ranked) == 0 && len(report.Failures) == 0 {
			return err
		}
		if err != nil {
			logger.Warn().Err(err).Msg("search aborted early, showing collected results")
		}

		printReport(cmd, report)
		return nil
	},
}

func printReport(cmd *cobra.Command, r optimize.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Grid cells: %d, ranked: %d, failed: %d (target: %s, tie-break: %s)\n\n",
		r.Cells, len(r.Ranked), len(r.Failures), r.TargetMetric, r.TieBreakMetric)

	top := optTop
	if top <= 0 || top > len(r.Ranked) {
		top = len(r.Ranked)
	}
	for i := 0; i < top; i++ {
		res := r.Ranked[i]
		fmt.Fprintf(out, "#%-3d", i+1)
		for _, name := range res.Set.SortedNames() {
			fmt.Fprintf(out, " %s=%g", name, res.Set.Values[name])
		}
		fmt.Fprintf(out, "  return=%.2f%% sharpe=%.2f maxdd=%.2f%% trades=%d\n",
			res.Metrics.TotalReturn*100, res.Metrics.SharpeRatio,
			res.Metrics.MaxDrawdown*100, res.Metrics.TotalTrades)
	}

	if len(r.Failures) > 0 {
		fmt.Fprintf(out, "\nFailed parameter sets:\n")
		for _, fl := range r.Failures {
			fmt.Fprintf(out, "  cell %d", fl.Set.Index)
			for _, name := range fl.Set.SortedNames() {
				fmt.Fprintf(out, " %s=%g", name, fl.Set.Values[name])
			}
			fmt.Fprintf(out, ": %s\n", fl.Reason)
		}
	}
}

func init() {
	optimizeCmd.Flags().IntVarP(&optTop, "top", "n", 10, "ranked results to print (0 for all)")
	rootCmd.AddCommand(optimizeCmd)
}
