package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	dataFile string
	verbose  bool

	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "backtester",
	Short: "Backtest trading strategies and search their parameter space",
	Long: `Backtester replays historical bar data against a strategy, applying
risk-based position sizing, stop/target management and a configurable cost
model, and reports trades, the equity curve and performance metrics.

The optimize command runs a full parameter grid in parallel and ranks the
results by a chosen metric.`,
	PersistentPreRun: func(*cobra.Command, []string) {
		level := zerolog.InfoLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(level).
			With().Timestamp().Logger()
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVarP(&dataFile, "data", "d", "", "bar data CSV file (.xz supported)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
