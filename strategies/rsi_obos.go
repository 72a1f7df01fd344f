package strategies

import (
	"fmt"

	"github.com/quantforge/backtest/indicators"
	"github.com/quantforge/backtest/market"
	"github.com/quantforge/backtest/sim"
)

// RSIOBOS is a mean-reversion source: enter long when RSI drops below the
// oversold level, exit when it rises above the overbought level.
type RSIOBOS struct {
	rsi *indicators.RSI
	atr *indicators.ATR

	oversold   float64
	overbought float64
}

func NewRSIOBOS(period int, oversold, overbought float64, atrPeriod int) (*RSIOBOS, error) {
	if period <= 0 || atrPeriod <= 0 {
		return nil, fmt.Errorf("rsi-obos: periods must be positive, got rsi=%d atr=%d", period, atrPeriod)
	}
	if oversold >= overbought {
		return nil, fmt.Errorf("rsi-obos: oversold %.1f must be below overbought %.1f", oversold, overbought)
	}
	return &RSIOBOS{
		rsi:        indicators.NewRSI(period),
		atr:        indicators.NewATR(atrPeriod),
		oversold:   oversold,
		overbought: overbought,
	}, nil
}

func (s *RSIOBOS) Evaluate(bar market.Bar, _ market.Series, state sim.State) sim.Signal {
	s.rsi.Update(bar)
	s.atr.Update(bar)

	if !s.rsi.Ready() {
		return sim.Signal{Action: sim.None}
	}

	v := s.rsi.Value()
	sig := sim.Signal{Action: sim.None, ATR: s.atr.Value()}

	switch {
	case state == sim.StateFlat && v < s.oversold:
		sig.Action = sim.Enter
		sig.Side = sim.Long
		sig.Strength = (s.oversold - v) / s.oversold
		sig.Reason = "rsi oversold"
	case state == sim.StateLong && v > s.overbought:
		sig.Action = sim.Exit
		sig.Reason = "rsi overbought"
	}
	return sig
}

func init() {
	Register("rsi-obos", func(params map[string]float64) (sim.SignalSource, error) {
		return NewRSIOBOS(
			int(param(params, "rsi_period", 14)),
			param(params, "oversold", 30),
			param(params, "overbought", 70),
			int(param(params, "atr_period", 14)),
		)
	})
}
