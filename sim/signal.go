package sim

import "github.com/quantforge/backtest/market"

// Side: +1 long, -1 short
type Side int8

const (
	Long  Side = +1
	Short Side = -1
)

func (s Side) String() string {
	switch s {
	case Long:
		return "long"
	case Short:
		return "short"
	}
	return "unknown"
}

// State is the engine's position state for one instrument.
type State int8

const (
	StateFlat State = iota
	StateLong
	StateShort
)

func (s State) String() string {
	switch s {
	case StateLong:
		return "long"
	case StateShort:
		return "short"
	}
	return "flat"
}

// Action tags the signal variant.
type Action int8

const (
	None Action = iota
	Enter
	Exit
)

// Signal is what a SignalSource emits for one bar.
//
// ATR is advisory: sources that compute an Average True Range attach it so
// ATR-based sizing and trailing stops can use it. Zero means "not supplied".
type Signal struct {
	Action   Action
	Side     Side    // meaningful for Enter
	Strength float64 // optional conviction, informational only
	ATR      float64
	Reason   string
}

// SignalSource is the single capability a strategy must provide. It is
// called once per bar, strictly in timestamp order.
//
// history holds the bars strictly before bar; implementations must not look
// past the bar they are handed.
type SignalSource interface {
	Evaluate(bar market.Bar, history market.Series, state State) Signal
}
