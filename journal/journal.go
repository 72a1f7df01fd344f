// Package journal persists the outputs of a simulation run: the trade
// ledger and the equity curve. Journaling happens after a run completes, so
// no blocking I/O ever executes inside the simulation loop.
package journal

import "github.com/quantforge/backtest/sim"

type Journal interface {
	RecordTrade(sim.Trade) error
	RecordEquity(sim.EquityPoint) error
	Close() error
}

// Record writes a full run result to j, trades first, then the equity curve.
func Record(j Journal, res sim.Result) error {
	for _, t := range res.Trades {
		if err := j.RecordTrade(t); err != nil {
			return err
		}
	}
	for _, p := range res.Equity {
		if err := j.RecordEquity(p); err != nil {
			return err
		}
	}
	return nil
}

// Nop discards everything. Useful default for runs that do not persist.
type Nop struct{}

func (Nop) RecordTrade(sim.Trade) error        { return nil }
func (Nop) RecordEquity(sim.EquityPoint) error { return nil }
func (Nop) Close() error                       { return nil }
