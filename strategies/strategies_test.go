package strategies

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantforge/backtest/market"
	"github.com/quantforge/backtest/sim"
)

func closeBars(t *testing.T, closes ...float64) market.Series {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make(market.Series, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{
			Time:  start.Add(time.Duration(i) * time.Hour),
			Open:  c,
			High:  c + 1,
			Low:   c - 1,
			Close: c,
		}
	}
	return bars
}

// walk replays bars through src with flat/long/short state tracking, the way
// the engine drives a source, and returns the emitted Enter/Exit signals in
// order.
func walk(t *testing.T, src sim.SignalSource, bars market.Series) []sim.Signal {
	t.Helper()
	state := sim.StateFlat
	var out []sim.Signal
	for i, b := range bars {
		sig := src.Evaluate(b, bars[:i], state)
		switch sig.Action {
		case sim.Enter:
			if sig.Side == sim.Long {
				state = sim.StateLong
			} else {
				state = sim.StateShort
			}
			out = append(out, sig)
		case sim.Exit:
			state = sim.StateFlat
			out = append(out, sig)
		}
	}
	return out
}

func TestRegistryNames(t *testing.T) {
	t.Parallel()

	names := Names()
	assert.Contains(t, names, "ema-cross")
	assert.Contains(t, names, "rsi-obos")
	assert.Contains(t, names, "noop")
	assert.IsIncreasing(t, names)
}

func TestNewUnknownStrategy(t *testing.T) {
	t.Parallel()

	_, err := New("momentum-9000", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "momentum-9000")
}

func TestNewIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	src, err := New("  EMA-Cross ", nil)
	require.NoError(t, err)
	assert.IsType(t, &EMACross{}, src)
}

func TestNoop(t *testing.T) {
	t.Parallel()

	src, err := New("noop", nil)
	require.NoError(t, err)
	sigs := walk(t, src, closeBars(t, 100, 110, 90, 120))
	assert.Empty(t, sigs)
}

func TestEMACrossConfigValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  EMACrossConfig
	}{
		{"zero fast", EMACrossConfig{FastPeriod: 0, SlowPeriod: 10, ATRPeriod: 5}},
		{"zero atr", EMACrossConfig{FastPeriod: 3, SlowPeriod: 10, ATRPeriod: 0}},
		{"fast not below slow", EMACrossConfig{FastPeriod: 10, SlowPeriod: 10, ATRPeriod: 5}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewEMACross(tt.cfg)
			require.Error(t, err)
		})
	}
}

func TestEMACrossLongRoundTrip(t *testing.T) {
	t.Parallel()

	src, err := NewEMACross(EMACrossConfig{FastPeriod: 2, SlowPeriod: 4, ATRPeriod: 2})
	require.NoError(t, err)

	// Downtrend, sharp rally, then a sharp fade: the fast EMA crosses above
	// the slow EMA on the rally and back below on the fade.
	bars := closeBars(t,
		110, 108, 106, 104, 102, 100,
		108, 116, 124, 130,
		112, 100, 92, 88,
	)
	sigs := walk(t, src, bars)
	require.NotEmpty(t, sigs, "expected at least an entry")

	assert.Equal(t, sim.Enter, sigs[0].Action)
	assert.Equal(t, sim.Long, sigs[0].Side)
	assert.Greater(t, sigs[0].ATR, 0.0, "signals carry the current ATR")
	assert.Equal(t, "ema cross up", sigs[0].Reason)

	require.Len(t, sigs, 2, "entry then exit")
	assert.Equal(t, sim.Exit, sigs[1].Action)
	assert.Equal(t, "ema cross down", sigs[1].Reason)
}

func TestEMACrossShortDisabledByDefault(t *testing.T) {
	t.Parallel()

	mk := func(allowShort bool) []sim.Signal {
		cfg := EMACrossConfig{FastPeriod: 2, SlowPeriod: 4, ATRPeriod: 2, AllowShort: allowShort}
		src, err := NewEMACross(cfg)
		require.NoError(t, err)
		// Uptrend then a collapse: the only cross while flat is downward.
		return walk(t, src, closeBars(t,
			100, 102, 104, 106, 108, 110,
			102, 94, 86, 80,
		))
	}

	assert.Empty(t, mk(false))

	sigs := mk(true)
	require.NotEmpty(t, sigs)
	assert.Equal(t, sim.Enter, sigs[0].Action)
	assert.Equal(t, sim.Short, sigs[0].Side)
}

func TestEMACrossNoSignalOnFirstReadyBar(t *testing.T) {
	t.Parallel()

	src, err := NewEMACross(EMACrossConfig{FastPeriod: 2, SlowPeriod: 3, ATRPeriod: 2})
	require.NoError(t, err)

	// The bar where both EMAs first turn ready only records the diff; a
	// cross needs two observations.
	bars := closeBars(t, 100, 90, 120)
	state := sim.StateFlat
	for i, b := range bars {
		sig := src.Evaluate(b, bars[:i], state)
		assert.Equal(t, sim.None, sig.Action, "bar %d", i)
	}
}

func TestEMACrossFactoryParams(t *testing.T) {
	t.Parallel()

	_, err := New("ema-cross", map[string]float64{"fast_period": 30, "slow_period": 10})
	require.Error(t, err, "params reach the validator")

	src, err := New("ema-cross", map[string]float64{"fast_period": 2, "slow_period": 4})
	require.NoError(t, err)
	assert.IsType(t, &EMACross{}, src)
}

func TestRSIOBOSValidation(t *testing.T) {
	t.Parallel()

	_, err := NewRSIOBOS(0, 30, 70, 14)
	require.Error(t, err)

	_, err = NewRSIOBOS(14, 70, 30, 14)
	require.Error(t, err)
}

func TestRSIOBOSRoundTrip(t *testing.T) {
	t.Parallel()

	src, err := NewRSIOBOS(2, 30, 70, 2)
	require.NoError(t, err)

	// Straight fall pins RSI at 0 (enter); straight rise pins it at 100
	// (exit).
	bars := closeBars(t, 110, 105, 100, 95, 100, 105, 110, 115)
	sigs := walk(t, src, bars)
	require.Len(t, sigs, 2)

	assert.Equal(t, sim.Enter, sigs[0].Action)
	assert.Equal(t, sim.Long, sigs[0].Side)
	assert.Equal(t, "rsi oversold", sigs[0].Reason)

	assert.Equal(t, sim.Exit, sigs[1].Action)
	assert.Equal(t, "rsi overbought", sigs[1].Reason)
}

func TestRSIOBOSStaysFlatInQuietMarket(t *testing.T) {
	t.Parallel()

	src, err := NewRSIOBOS(2, 30, 70, 2)
	require.NoError(t, err)

	// Alternating small moves keep RSI mid-range.
	sigs := walk(t, src, closeBars(t, 100, 101, 100, 101, 100, 101))
	assert.Empty(t, sigs)
}
