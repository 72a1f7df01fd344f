package strategies

import (
	"github.com/quantforge/backtest/market"
	"github.com/quantforge/backtest/sim"
)

// Noop never signals. Handy as a baseline and in tests.
type Noop struct{}

func (Noop) Evaluate(market.Bar, market.Series, sim.State) sim.Signal {
	return sim.Signal{Action: sim.None}
}

func init() {
	Register("noop", func(map[string]float64) (sim.SignalSource, error) {
		return Noop{}, nil
	})
}
