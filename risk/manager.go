// Package risk implements position sizing and stop/target placement.
//
// A Manager is stateless: every method is a pure function of its arguments
// and the immutable Config, so a single Manager is safe to share across
// parallel simulation runs.
package risk

import (
	"errors"
	"fmt"
	"math"

	"github.com/quantforge/backtest/market"
	"github.com/quantforge/backtest/sim"
)

// ErrInvalidSizing marks a proposed trade the manager cannot size: the
// caller must treat it as "no trade", never as a fatal error.
var ErrInvalidSizing = errors.New("risk: invalid sizing")

// StopPolicy selects how initial stop/target levels are derived.
type StopPolicy string

const (
	StopFixed StopPolicy = "fixed" // absolute price offsets
	StopATR   StopPolicy = "atr"   // multiples of the supplied ATR
)

type Config struct {
	// RiskPerTrade is the fraction of account equity risked if the stop is
	// hit, e.g. 0.01 for 1%.
	RiskPerTrade float64

	// DynamicSizing scales size inversely with volatility (riskAmount ×
	// entry/ATR) instead of by stop distance. Falls back to fixed-fractional
	// sizing when no ATR is available.
	DynamicSizing bool

	StopPolicy StopPolicy

	// Fixed-policy offsets.
	StopDistance   float64
	TargetDistance float64 // 0 disables the target

	// ATR-policy multiples.
	ATRMultiple    float64
	TargetMultiple float64 // 0 disables the target

	// Trailing stop and take-profit. The trail distance follows the stop
	// policy: TrailingMultiple×ATR under StopATR, the fixed offsets under
	// StopFixed.
	TrailingEnabled  bool
	TrailingMultiple float64

	// MaxPositionSize caps units per trade; 0 means uncapped.
	MaxPositionSize float64
}

type Manager struct {
	cfg Config
}

func New(cfg Config) *Manager {
	return &Manager{cfg: cfg}
}

// SizePosition computes the trade size from the configured fraction of
// equity: divided by the stop distance (fixed-fractional), or scaled by
// entry/ATR when dynamic sizing is on and an ATR is supplied.
func (m *Manager) SizePosition(equity, entry, stop, atr float64) (float64, error) {
	if equity <= 0 {
		return 0, fmt.Errorf("equity %.2f: %w", equity, ErrInvalidSizing)
	}
	riskAmount := equity * m.cfg.RiskPerTrade

	var units float64
	if m.cfg.DynamicSizing && atr > 0 {
		units = riskAmount * entry / atr
	} else {
		dist := math.Abs(entry - stop)
		if dist <= 0 {
			return 0, fmt.Errorf("stop distance %.6f: %w", dist, ErrInvalidSizing)
		}
		units = riskAmount / dist
	}

	if m.cfg.MaxPositionSize > 0 && units > m.cfg.MaxPositionSize {
		units = m.cfg.MaxPositionSize
	}
	if units <= 0 {
		return 0, fmt.Errorf("size %.6f: %w", units, ErrInvalidSizing)
	}
	return units, nil
}

// InitialStops places the stop and optional target for a new position,
// either as fixed offsets from the entry or as ATR multiples.
func (m *Manager) InitialStops(entry float64, side sim.Side, atr float64) (stop, target float64, err error) {
	var stopDist, targetDist float64

	switch m.cfg.StopPolicy {
	case StopATR:
		if atr <= 0 {
			return 0, 0, fmt.Errorf("atr policy with atr %.6f: %w", atr, ErrInvalidSizing)
		}
		stopDist = m.cfg.ATRMultiple * atr
		targetDist = m.cfg.TargetMultiple * atr
	default:
		stopDist = m.cfg.StopDistance
		targetDist = m.cfg.TargetDistance
	}

	if stopDist <= 0 {
		return 0, 0, fmt.Errorf("stop distance %.6f: %w", stopDist, ErrInvalidSizing)
	}

	stop = entry - float64(side)*stopDist
	if targetDist > 0 {
		target = entry + float64(side)*targetDist
	}
	return stop, target, nil
}

// UpdateTrailingStop ratchets the stop toward the current close, never away
// from it. It returns the existing stop when trailing is disabled or the
// candidate would loosen risk.
func (m *Manager) UpdateTrailingStop(pos sim.Position, bar market.Bar, atr float64) float64 {
	if !m.cfg.TrailingEnabled {
		return pos.Stop
	}

	var dist float64
	switch m.cfg.StopPolicy {
	case StopATR:
		if atr <= 0 {
			return pos.Stop
		}
		dist = m.cfg.TrailingMultiple * atr
	default:
		dist = m.cfg.StopDistance
	}
	if dist <= 0 {
		return pos.Stop
	}

	candidate := bar.Close - float64(pos.Side)*dist
	if pos.Side == sim.Long {
		return math.Max(candidate, pos.Stop)
	}
	if pos.Stop == 0 {
		return candidate
	}
	return math.Min(candidate, pos.Stop)
}

// UpdateTrailingTarget ratchets the take-profit toward the current close,
// mirroring UpdateTrailingStop. It returns the existing target when trailing
// is disabled or the position carries no target.
func (m *Manager) UpdateTrailingTarget(pos sim.Position, bar market.Bar, atr float64) float64 {
	if !m.cfg.TrailingEnabled || pos.Target == 0 {
		return pos.Target
	}

	var dist float64
	switch m.cfg.StopPolicy {
	case StopATR:
		if atr <= 0 {
			return pos.Target
		}
		dist = m.cfg.TrailingMultiple * atr
	default:
		dist = m.cfg.TargetDistance
	}
	if dist <= 0 {
		return pos.Target
	}

	candidate := bar.Close + float64(pos.Side)*dist
	if pos.Side == sim.Long {
		return math.Min(candidate, pos.Target)
	}
	return math.Max(candidate, pos.Target)
}
