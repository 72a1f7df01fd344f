// Package indicators provides streaming technical indicators. Each
// indicator consumes one bar at a time, reports Ready once warmed up, and
// can be Reset for reuse; none of them look ahead.
package indicators

import (
	"fmt"
	"math"

	"github.com/quantforge/backtest/market"
)

// Indicator is the common streaming surface.
type Indicator interface {
	Name() string
	Warmup() int
	Reset()
	Update(market.Bar)
	Ready() bool
	Value() float64
}

// trueRange is max(high-low, |high-prevClose|, |low-prevClose|).
func trueRange(c, prev market.Bar) float64 {
	a := c.High - c.Low
	b := math.Abs(c.High - prev.Close)
	d := math.Abs(c.Low - prev.Close)
	return math.Max(a, math.Max(b, d))
}

// SimpleMA is a streaming Simple Moving Average over closes.
type SimpleMA struct {
	period int
	window []float64
	sum    float64
}

func NewSMA(period int) *SimpleMA {
	return &SimpleMA{period: period, window: make([]float64, 0, period)}
}

func (m *SimpleMA) Name() string { return fmt.Sprintf("SMA(%d)", m.period) }
func (m *SimpleMA) Warmup() int  { return m.period }

func (m *SimpleMA) Reset() {
	m.window = m.window[:0]
	m.sum = 0
}

func (m *SimpleMA) Update(b market.Bar) {
	m.window = append(m.window, b.Close)
	m.sum += b.Close
	if len(m.window) > m.period {
		m.sum -= m.window[0]
		m.window = m.window[1:]
	}
}

func (m *SimpleMA) Ready() bool { return len(m.window) >= m.period }

func (m *SimpleMA) Value() float64 {
	if !m.Ready() {
		return 0
	}
	return m.sum / float64(len(m.window))
}
