package sim

import "time"

// ExitReason records why a position was closed.
type ExitReason string

const (
	ReasonStopLoss     ExitReason = "StopLoss"
	ReasonTakeProfit   ExitReason = "TakeProfit"
	ReasonTrailingStop ExitReason = "TrailingStop"
	ReasonTrailingTake ExitReason = "TrailingTakeProfit"
	ReasonSignalExit   ExitReason = "SignalExit"
	ReasonEndOfData    ExitReason = "EndOfData"
)

// Trade is an immutable closed-trade record. Trades are appended to the
// ledger in close order and never mutated afterwards.
type Trade struct {
	ID         string
	Side       Side
	Units      float64
	EntryPrice float64
	ExitPrice  float64
	EntryTime  time.Time
	ExitTime   time.Time
	GrossPnL   float64 // side * (exit - entry) * units, slippage included in fills
	Fees       float64 // entry + exit commission
	NetPnL     float64 // GrossPnL - Fees
	Reason     ExitReason
}

// EquityPoint is one end-of-bar mark on the equity curve:
// cash plus mark-to-market of any open position at the bar close.
type EquityPoint struct {
	Time   time.Time
	Equity float64
}
