package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/quantforge/backtest/config"
	"github.com/quantforge/backtest/feed"
	"github.com/quantforge/backtest/journal"
	"github.com/quantforge/backtest/market"
	"github.com/quantforge/backtest/perf"
	"github.com/quantforge/backtest/risk"
	"github.com/quantforge/backtest/sim"
	"github.com/quantforge/backtest/strategies"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single backtest",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cmd.SilenceUsage = true

		cfg, bars, err := loadInputs()
		if err != nil {
			return err
		}

		src, err := strategies.New(cfg.Strategy.Name, cfg.Strategy.Params)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		eng := sim.NewEngine(bars, src, risk.New(cfg.RiskConfig()), cfg.SimConfig())
		eng.SetLogger(logger)

		res, err := eng.Run(ctx)
		if err != nil {
			return err
		}

		if err := persist(cfg, res); err != nil {
			return err
		}

		m := perf.Compute(res.Trades, res.Equity, cfg.Account.RiskFreeRate, bars.Period())
		printMetrics(cmd, res, m)
		return nil
	},
}

// loadInputs reads the config file and the bar data named by the global
// flags.
func loadInputs() (*config.Config, market.Series, error) {
	if dataFile == "" {
		return nil, nil, errors.New("--data is required")
	}

	cfg := config.Default()
	if cfgFile != "" {
		var err error
		cfg, err = config.LoadFromFile(cfgFile)
		if err != nil {
			return nil, nil, err
		}
	}

	bars, err := feed.LoadBars(dataFile)
	if err != nil {
		return nil, nil, err
	}
	logger.Info().Int("bars", len(bars)).Str("file", dataFile).Msg("data loaded")
	return cfg, bars, nil
}

func printMetrics(cmd *cobra.Command, res sim.Result, m perf.Metrics) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Bars:            %d\n", len(res.Equity))
	fmt.Fprintf(out, "Trades:          %d (%d wins, %d losses, %d declined)\n",
		m.TotalTrades, m.WinningTrades, m.LosingTrades, res.Declined)
	fmt.Fprintf(out, "Win rate:        %.1f%%\n", m.WinRate*100)
	fmt.Fprintf(out, "Net profit:      %.2f\n", m.NetProfit)
	fmt.Fprintf(out, "Total return:    %.2f%%\n", m.TotalReturn*100)
	fmt.Fprintf(out, "Profit factor:   %.2f\n", m.ProfitFactor)
	fmt.Fprintf(out, "Sharpe ratio:    %.2f\n", m.SharpeRatio)
	fmt.Fprintf(out, "Max drawdown:    %.2f%%\n", m.MaxDrawdown*100)
	fmt.Fprintf(out, "Final equity:    %.2f\n", m.FinalEquity)
}

// openJournal builds the configured journal backend, or Nop.
func openJournal(cfg *config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "", "none":
		return journal.Nop{}, nil
	case "csv":
		return journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.EquityFile)
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.DBPath)
	case "postgres":
		return journal.NewPostgres(cfg.Journal.DSN)
	}
	return nil, fmt.Errorf("unknown journal type %q", cfg.Journal.Type)
}

func persist(cfg *config.Config, res sim.Result) error {
	j, err := openJournal(cfg)
	if err != nil {
		return err
	}
	defer j.Close()
	return journal.Record(j, res)
}

func init() {
	rootCmd.AddCommand(runCmd)
}
