package sim

import "time"

// Position is the single open position an engine may hold. It is owned
// exclusively by the engine for the duration it is open: created on a filled
// Enter signal, destroyed when the position closes into a Trade.
type Position struct {
	Side       Side
	Units      float64
	EntryPrice float64
	EntryTime  time.Time

	Stop   float64 // 0 means none
	Target float64 // 0 means none

	// Trailed is set once the trailing stop has ratcheted at least once,
	// so a later stop exit is reported as TrailingStop rather than StopLoss.
	// TrailedTarget is the same marker for the take-profit side.
	Trailed       bool
	TrailedTarget bool

	entryFees float64
}

// markToMarket returns the unrealized pnl of the position at price.
func (p *Position) markToMarket(price float64) float64 {
	return float64(p.Side) * (price - p.EntryPrice) * p.Units
}
