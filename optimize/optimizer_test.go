package optimize

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantforge/backtest/market"
	"github.com/quantforge/backtest/sim"
)

func gridBars(t *testing.T, closes ...float64) market.Series {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make(market.Series, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{
			Time:   start.Add(time.Duration(i) * time.Hour),
			Open:   c,
			High:   c + 2,
			Low:    c - 2,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

// holdSource enters long on the first bar and exits after holding for a
// configurable number of bars.
type holdSource struct {
	hold int
}

func (s *holdSource) Evaluate(_ market.Bar, history market.Series, state sim.State) sim.Signal {
	if len(history) == 0 {
		return sim.Signal{Action: sim.Enter, Side: sim.Long, Reason: "open"}
	}
	if state != sim.StateFlat && len(history) >= s.hold {
		return sim.Signal{Action: sim.Exit, Reason: "hold expired"}
	}
	return sim.Signal{}
}

// gridRisk is a stateless stub safe to share across cells.
type gridRisk struct {
	units float64
}

func (r gridRisk) SizePosition(_, _, _, _ float64) (float64, error) { return r.units, nil }

func (r gridRisk) InitialStops(float64, sim.Side, float64) (float64, float64, error) {
	return 0, 0, nil
}

func (r gridRisk) UpdateTrailingStop(pos sim.Position, _ market.Bar, _ float64) float64 {
	return pos.Stop
}

func (r gridRisk) UpdateTrailingTarget(pos sim.Position, _ market.Bar, _ float64) float64 {
	return pos.Target
}

func holdFactory(units float64) Factory {
	return func(s Set) (RunConfig, error) {
		return RunConfig{
			Source: &holdSource{hold: int(s.Values["hold"])},
			Risk:   gridRisk{units: units},
			Sim:    sim.Config{InitialEquity: 10_000},
		}, nil
	}
}

func TestOptimizerRanksByTarget(t *testing.T) {
	t.Parallel()

	// Closes rise 10 per bar, so holding longer always earns more.
	bars := gridBars(t, 100, 110, 120, 130, 140, 150, 160, 170)
	opt := &Optimizer{
		Bars:         bars,
		Factory:      holdFactory(10),
		Workers:      2,
		TargetMetric: "total_return",
	}

	report, err := opt.Run(context.Background(), []Axis{
		{Name: "hold", Values: []float64{1, 5, 3}},
	})
	require.NoError(t, err)
	require.Len(t, report.Ranked, 3)
	assert.Equal(t, 3, report.Cells)
	assert.Empty(t, report.Failures)

	assert.Equal(t, 5.0, report.Ranked[0].Set.Values["hold"])
	assert.Equal(t, 3.0, report.Ranked[1].Set.Values["hold"])
	assert.Equal(t, 1.0, report.Ranked[2].Set.Values["hold"])

	best, ok := report.Best()
	require.True(t, ok)
	assert.InDelta(t, 500.0, best.Metrics.NetProfit, 1e-9)
}

func TestOptimizerDeterministicAcrossWorkers(t *testing.T) {
	t.Parallel()

	bars := gridBars(t, 100, 110, 120, 130, 140, 150, 160, 170)
	axes := []Axis{
		{Name: "hold", Values: []float64{1, 2, 3, 4, 5, 6}},
	}

	run := func(workers int) Report {
		opt := &Optimizer{
			Bars:         bars,
			Factory:      holdFactory(10),
			Workers:      workers,
			TargetMetric: "net_profit",
		}
		report, err := opt.Run(context.Background(), axes)
		require.NoError(t, err)
		return report
	}

	assert.Equal(t, run(1), run(4))
}

func TestOptimizerTieBreakByIndex(t *testing.T) {
	t.Parallel()

	bars := gridBars(t, 100, 110, 120, 130, 140)
	opt := &Optimizer{
		Bars:         bars,
		Factory:      holdFactory(10),
		TargetMetric: "total_return",
	}

	// Duplicate values produce identical metrics; enumeration order decides.
	report, err := opt.Run(context.Background(), []Axis{
		{Name: "hold", Values: []float64{2, 2, 2}},
	})
	require.NoError(t, err)
	require.Len(t, report.Ranked, 3)
	for i, r := range report.Ranked {
		assert.Equal(t, i, r.Set.Index)
	}
}

func TestOptimizerFailureIsolation(t *testing.T) {
	t.Parallel()

	bars := gridBars(t, 100, 110, 120, 130, 140)
	opt := &Optimizer{
		Bars: bars,
		Factory: func(s Set) (RunConfig, error) {
			if s.Values["hold"] == 2 {
				return RunConfig{}, errors.New("hold=2 is unsupported")
			}
			return holdFactory(10)(s)
		},
		TargetMetric: "total_return",
	}

	report, err := opt.Run(context.Background(), []Axis{
		{Name: "hold", Values: []float64{1, 2, 3}},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Cells)
	require.Len(t, report.Ranked, 2)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, 2.0, report.Failures[0].Set.Values["hold"])
	assert.Contains(t, report.Failures[0].Reason, "hold=2 is unsupported")
}

func TestOptimizerUnknownMetric(t *testing.T) {
	t.Parallel()

	opt := &Optimizer{
		Bars:         gridBars(t, 100, 110),
		Factory:      holdFactory(10),
		TargetMetric: "alpha_decay",
	}
	_, err := opt.Run(context.Background(), []Axis{{Name: "hold", Values: []float64{1}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "alpha_decay")
}

func TestOptimizerMissingFactory(t *testing.T) {
	t.Parallel()

	opt := &Optimizer{
		Bars:         gridBars(t, 100, 110),
		TargetMetric: "total_return",
	}
	_, err := opt.Run(context.Background(), []Axis{{Name: "hold", Values: []float64{1}}})
	require.Error(t, err)
}

func TestOptimizerRejectsBadData(t *testing.T) {
	t.Parallel()

	bars := gridBars(t, 100, 110)
	bars[1].Time = bars[0].Time // duplicate timestamp
	opt := &Optimizer{
		Bars:         bars,
		Factory:      holdFactory(10),
		TargetMetric: "total_return",
	}
	_, err := opt.Run(context.Background(), []Axis{{Name: "hold", Values: []float64{1}}})
	require.ErrorIs(t, err, market.ErrDataIntegrity)
}

func TestOptimizerCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opt := &Optimizer{
		Bars:         gridBars(t, 100, 110, 120),
		Factory:      holdFactory(10),
		TargetMetric: "total_return",
	}
	report, err := opt.Run(ctx, []Axis{
		{Name: "hold", Values: []float64{1, 2, 3, 4}},
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 4, report.Cells)
	assert.Empty(t, report.Ranked)
	assert.Empty(t, report.Failures)
}

func TestMetricNames(t *testing.T) {
	t.Parallel()

	names := MetricNames()
	assert.Contains(t, names, "total_return")
	assert.Contains(t, names, "sharpe")
	assert.Contains(t, names, "max_drawdown")
	assert.IsIncreasing(t, names)
}
