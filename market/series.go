package market

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrDataIntegrity marks a bar sequence the engine must refuse to simulate:
// out-of-order or duplicate timestamps, or non-finite OHLCV values.
var ErrDataIntegrity = errors.New("market: data integrity")

// Series is a time-ordered sequence of bars with strictly increasing
// timestamps. Callers are expected to hand the engine a sorted,
// de-duplicated series; Validate is the gate that enforces it.
type Series []Bar

// Validate checks the series invariants. It returns an error wrapping
// ErrDataIntegrity on the first violation; it never repairs the data.
func (s Series) Validate() error {
	var prev time.Time
	for i, b := range s {
		if i > 0 && !b.Time.After(prev) {
			return fmt.Errorf("bar %d: timestamp %s not after %s: %w",
				i, b.Time.Format(time.RFC3339), prev.Format(time.RFC3339), ErrDataIntegrity)
		}
		prev = b.Time

		for _, v := range [...]float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("bar %d (%s): non-finite OHLCV value: %w",
					i, b.Time.Format(time.RFC3339), ErrDataIntegrity)
			}
		}
	}
	return nil
}

// Closes returns the close prices in order.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

// Period returns the most common spacing between consecutive bars, which is
// the bar period even when the series has gaps (weekends, missing candles).
// It returns 0 for fewer than two bars.
func (s Series) Period() time.Duration {
	if len(s) < 2 {
		return 0
	}
	counts := make(map[time.Duration]int)
	for i := 1; i < len(s); i++ {
		counts[s[i].Time.Sub(s[i-1].Time)]++
	}
	var mode time.Duration
	best := 0
	for d, n := range counts {
		if n > best || (n == best && d < mode) {
			mode, best = d, n
		}
	}
	return mode
}
