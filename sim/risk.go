package sim

import "github.com/quantforge/backtest/market"

// RiskManager is what the engine consults every bar. Implementations must
// be side-effect free so one instance can be shared across parallel runs.
//
// SizePosition and InitialStops return an error when they cannot produce a
// valid trade; the engine treats any such error as "decline this trade" and
// the run continues.
type RiskManager interface {
	// SizePosition returns the position size in units for the proposed
	// entry/stop pair given the current account equity. atr is the most
	// recent Average True Range, for volatility-scaled sizing; it may be
	// zero when unavailable.
	SizePosition(equity, entry, stop, atr float64) (units float64, err error)

	// InitialStops returns the stop and target price for a new position.
	// atr is the most recent Average True Range supplied by the signal
	// source; it may be zero when the source does not provide one.
	// A zero target or stop means "no level".
	InitialStops(entry float64, side Side, atr float64) (stop, target float64, err error)

	// UpdateTrailingStop returns the position's new stop price. The result
	// must be monotonic: it may only move in the direction that reduces
	// risk, and must return pos.Stop unchanged when trailing is disabled.
	UpdateTrailingStop(pos Position, bar market.Bar, atr float64) float64

	// UpdateTrailingTarget returns the position's new take-profit price.
	// Same contract as UpdateTrailingStop, mirrored: the target may only
	// ratchet toward the current price, never away from it.
	UpdateTrailingTarget(pos Position, bar market.Bar, atr float64) float64
}
