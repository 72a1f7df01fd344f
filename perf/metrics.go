// Package perf derives performance metrics from a finished run's ledger and
// equity curve. Compute is a pure function: identical inputs always produce
// identical metrics, and the inputs are never mutated.
package perf

import (
	"math"
	"time"

	"github.com/quantforge/backtest/sim"
)

// Metrics is the per-run performance snapshot.
type Metrics struct {
	TotalTrades   int
	WinningTrades int
	LosingTrades  int

	WinRate      float64 // fraction of trades with positive net pnl
	TotalReturn  float64 // final/initial - 1
	NetProfit    float64 // sum of net trade pnl
	ProfitFactor float64 // gross wins / gross losses
	SharpeRatio  float64 // annualized from per-bar returns
	MaxDrawdown  float64 // peak-to-trough fraction of peak

	FinalEquity float64
}

const yearHours = 365 * 24

// Compute derives metrics from the trade ledger and equity curve of one run.
// riskFreeRate is annual; barPeriod is the bar spacing used to annualize the
// Sharpe ratio (an hour is assumed when unknown).
func Compute(trades []sim.Trade, equity []sim.EquityPoint, riskFreeRate float64, barPeriod time.Duration) Metrics {
	var m Metrics

	var winsAmt, lossAmt float64
	for _, t := range trades {
		m.NetProfit += t.NetPnL
		if t.NetPnL > 0 {
			m.WinningTrades++
			winsAmt += t.NetPnL
		} else {
			m.LosingTrades++
			lossAmt += -t.NetPnL
		}
	}
	m.TotalTrades = len(trades)
	if m.TotalTrades > 0 {
		m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades)
	}
	if lossAmt > 0 {
		m.ProfitFactor = winsAmt / lossAmt
	} else if winsAmt > 0 {
		m.ProfitFactor = math.Inf(1)
	}

	if len(equity) == 0 {
		return m
	}

	first := equity[0].Equity
	last := equity[len(equity)-1].Equity
	m.FinalEquity = last
	if first != 0 {
		m.TotalReturn = last/first - 1
	}

	m.SharpeRatio = sharpe(equity, riskFreeRate, barPeriod)
	m.MaxDrawdown = maxDrawdown(equity)
	return m
}

// sharpe is mean/stdev of per-bar excess returns scaled by the square root
// of bars per year. Defined as 0, not NaN, when the deviation is zero or
// there are too few points.
func sharpe(equity []sim.EquityPoint, riskFreeRate float64, barPeriod time.Duration) float64 {
	if len(equity) < 3 {
		return 0
	}
	if barPeriod <= 0 {
		barPeriod = time.Hour
	}
	perYear := float64(yearHours*time.Hour) / float64(barPeriod)

	rets := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Equity
		if prev == 0 {
			return 0
		}
		rets = append(rets, equity[i].Equity/prev-1-riskFreeRate/perYear)
	}

	var mean float64
	for _, r := range rets {
		mean += r
	}
	mean /= float64(len(rets))

	var variance float64
	for _, r := range rets {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(rets) - 1)

	sd := math.Sqrt(variance)
	if sd == 0 {
		return 0
	}
	return mean / sd * math.Sqrt(perYear)
}

// maxDrawdown is the largest peak-to-trough decline along the curve,
// expressed as a fraction of the peak.
func maxDrawdown(equity []sim.EquityPoint) float64 {
	var peak, worst float64
	for _, p := range equity {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			if dd := (peak - p.Equity) / peak; dd > worst {
				worst = dd
			}
		}
	}
	return worst
}
