package market

import "time"

// Bar represents one OHLCV (Open, High, Low, Close, Volume) interval.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}
