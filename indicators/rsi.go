package indicators

import (
	"fmt"

	"github.com/quantforge/backtest/market"
)

// RSI is a streaming Relative Strength Index over simple rolling averages
// of gains and losses.
type RSI struct {
	period    int
	deltas    []float64
	prevClose float64
	hasPrev   bool
}

func NewRSI(period int) *RSI {
	return &RSI{period: period, deltas: make([]float64, 0, period)}
}

func (r *RSI) Name() string { return fmt.Sprintf("RSI(%d)", r.period) }
func (r *RSI) Warmup() int  { return r.period + 1 }

func (r *RSI) Reset() {
	r.deltas = r.deltas[:0]
	r.hasPrev = false
}

func (r *RSI) Update(b market.Bar) {
	if !r.hasPrev {
		r.prevClose = b.Close
		r.hasPrev = true
		return
	}
	r.deltas = append(r.deltas, b.Close-r.prevClose)
	r.prevClose = b.Close
	if len(r.deltas) > r.period {
		r.deltas = r.deltas[1:]
	}
}

func (r *RSI) Ready() bool { return len(r.deltas) >= r.period }

func (r *RSI) Value() float64 {
	if !r.Ready() {
		return 0
	}
	var gain, loss float64
	for _, d := range r.deltas {
		if d > 0 {
			gain += d
		} else {
			loss += -d
		}
	}
	if loss == 0 {
		return 100
	}
	rs := gain / loss
	return 100 - 100/(1+rs)
}
