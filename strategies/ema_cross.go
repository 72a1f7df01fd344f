package strategies

import (
	"fmt"

	"github.com/quantforge/backtest/indicators"
	"github.com/quantforge/backtest/market"
	"github.com/quantforge/backtest/sim"
)

// EMACross signals on fast/slow EMA crossovers:
//   - cross up while flat: Enter long
//   - cross down while long: Exit
//   - with shorts enabled, the mirror image
//
// Every signal carries the current ATR so ATR-based stops and trailing can
// use it.
type EMACross struct {
	cfg EMACrossConfig

	fast *indicators.ExponentialMA
	slow *indicators.ExponentialMA
	atr  *indicators.ATR

	lastDiff     float64
	haveLastDiff bool
}

type EMACrossConfig struct {
	FastPeriod int
	SlowPeriod int
	ATRPeriod  int
	AllowShort bool
}

func EMACrossDefaults() EMACrossConfig {
	return EMACrossConfig{
		FastPeriod: 10,
		SlowPeriod: 30,
		ATRPeriod:  14,
	}
}

func NewEMACross(cfg EMACrossConfig) (*EMACross, error) {
	if cfg.FastPeriod <= 0 || cfg.SlowPeriod <= 0 || cfg.ATRPeriod <= 0 {
		return nil, fmt.Errorf("ema-cross: periods must be positive, got fast=%d slow=%d atr=%d",
			cfg.FastPeriod, cfg.SlowPeriod, cfg.ATRPeriod)
	}
	if cfg.FastPeriod >= cfg.SlowPeriod {
		return nil, fmt.Errorf("ema-cross: fast period %d must be below slow period %d",
			cfg.FastPeriod, cfg.SlowPeriod)
	}
	return &EMACross{
		cfg:  cfg,
		fast: indicators.NewEMA(cfg.FastPeriod),
		slow: indicators.NewEMA(cfg.SlowPeriod),
		atr:  indicators.NewATR(cfg.ATRPeriod),
	}, nil
}

func (s *EMACross) Evaluate(bar market.Bar, _ market.Series, state sim.State) sim.Signal {
	s.fast.Update(bar)
	s.slow.Update(bar)
	s.atr.Update(bar)

	if !s.fast.Ready() || !s.slow.Ready() {
		return sim.Signal{Action: sim.None}
	}

	diff := s.fast.Value() - s.slow.Value()
	sig := sim.Signal{Action: sim.None, ATR: s.atr.Value()}

	// Need a previous diff to detect a cross.
	if !s.haveLastDiff {
		s.lastDiff = diff
		s.haveLastDiff = true
		return sig
	}
	crossUp := s.lastDiff <= 0 && diff > 0
	crossDown := s.lastDiff >= 0 && diff < 0
	s.lastDiff = diff

	switch state {
	case sim.StateFlat:
		if crossUp {
			sig.Action = sim.Enter
			sig.Side = sim.Long
			sig.Strength = diff / bar.Close
			sig.Reason = "ema cross up"
		} else if crossDown && s.cfg.AllowShort {
			sig.Action = sim.Enter
			sig.Side = sim.Short
			sig.Strength = -diff / bar.Close
			sig.Reason = "ema cross down"
		}
	case sim.StateLong:
		if crossDown {
			sig.Action = sim.Exit
			sig.Reason = "ema cross down"
		}
	case sim.StateShort:
		if crossUp {
			sig.Action = sim.Exit
			sig.Reason = "ema cross up"
		}
	}
	return sig
}

func init() {
	Register("ema-cross", func(params map[string]float64) (sim.SignalSource, error) {
		def := EMACrossDefaults()
		cfg := EMACrossConfig{
			FastPeriod: int(param(params, "fast_period", float64(def.FastPeriod))),
			SlowPeriod: int(param(params, "slow_period", float64(def.SlowPeriod))),
			ATRPeriod:  int(param(params, "atr_period", float64(def.ATRPeriod))),
			AllowShort: param(params, "allow_short", 0) > 0,
		}
		return NewEMACross(cfg)
	})
}
