package sim

// SlippageModel selects how fills are moved against the trader.
type SlippageModel string

const (
	SlippageBps   SlippageModel = "bps"   // value is basis points of price
	SlippageFixed SlippageModel = "fixed" // value is an absolute price amount
)

// CommissionModel selects how commission is charged per trade leg.
type CommissionModel string

const (
	CommissionFixed   CommissionModel = "fixed"   // value is an absolute amount per leg
	CommissionPercent CommissionModel = "percent" // value is a fraction of notional
)

// Config holds the engine's account and cost model. The risk configuration
// lives with the RiskManager, not here.
type Config struct {
	InitialEquity float64

	SlippageModel SlippageModel
	SlippageValue float64

	CommissionModel CommissionModel
	CommissionValue float64
}

// fillPrice applies the slippage model to price. buy=true means the fill
// consumes liquidity upward (long entry, short exit); slippage is always
// adverse.
func (c Config) fillPrice(price float64, buy bool) float64 {
	var off float64
	switch c.SlippageModel {
	case SlippageBps:
		off = price * c.SlippageValue / 10000
	case SlippageFixed:
		off = c.SlippageValue
	}
	if buy {
		return price + off
	}
	return price - off
}

// commission returns the commission for one leg at price for units.
func (c Config) commission(price, units float64) float64 {
	switch c.CommissionModel {
	case CommissionFixed:
		return c.CommissionValue
	case CommissionPercent:
		return price * units * c.CommissionValue
	}
	return 0
}
