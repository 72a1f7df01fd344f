package optimize

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantforge/backtest/market"
	"github.com/quantforge/backtest/perf"
	"github.com/quantforge/backtest/sim"
)

// RunConfig is everything one grid cell needs for a fresh, isolated run.
// The Source must be a new instance per cell (strategies carry indicator
// state); the RiskManager may be shared only if it is stateless.
type RunConfig struct {
	Source sim.SignalSource
	Risk   sim.RiskManager
	Sim    sim.Config
}

// Factory builds the run configuration for one parameter set.
type Factory func(Set) (RunConfig, error)

// Result pairs a parameter set with its metrics.
type Result struct {
	Set     Set
	Metrics perf.Metrics
}

// Failure records a grid cell whose run failed. Failed cells are excluded
// from ranking and never abort sibling runs.
type Failure struct {
	Set    Set
	Reason string
}

// Report is the optimizer's output: successes ranked by the target metric,
// failures listed separately with their reasons.
type Report struct {
	Ranked   []Result
	Failures []Failure

	TargetMetric   string
	TieBreakMetric string
	Cells          int // grid size, including cells skipped by cancellation
}

// Best returns the top-ranked result, if any.
func (r Report) Best() (Result, bool) {
	if len(r.Ranked) == 0 {
		return Result{}, false
	}
	return r.Ranked[0], true
}

// Optimizer enumerates a parameter grid and runs one simulation per cell in
// parallel. The bar series is shared read-only across workers; each run is
// single-threaded and isolated, so the only synchronization is the result
// collection, and ranking is a pure function of the unordered result set.
type Optimizer struct {
	Bars    market.Series
	Factory Factory

	// Workers bounds the pool; <= 0 means GOMAXPROCS.
	Workers int

	TargetMetric   string
	TieBreakMetric string // defaults to max_drawdown

	RiskFreeRate float64
	BarPeriod    time.Duration // 0 derives the period from Bars

	Logger zerolog.Logger
}

type cell struct {
	set     Set
	metrics perf.Metrics
	err     error
}

// Run executes the full grid. On cancellation it returns the context error
// together with a report over the cells that completed; those results remain
// valid and ranked.
func (o *Optimizer) Run(ctx context.Context, axes []Axis) (Report, error) {
	target, err := metricByName(o.TargetMetric)
	if err != nil {
		return Report{}, err
	}
	tieName := o.TieBreakMetric
	if tieName == "" {
		tieName = "max_drawdown"
	}
	tiebreak, err := metricByName(tieName)
	if err != nil {
		return Report{}, err
	}
	if o.Factory == nil {
		return Report{}, errors.New("optimize: Factory is required")
	}
	// A broken dataset would fail every cell identically; reject it once.
	if err := o.Bars.Validate(); err != nil {
		return Report{}, err
	}

	sets := Grid(axes)
	report := Report{
		TargetMetric:   o.TargetMetric,
		TieBreakMetric: tieName,
		Cells:          len(sets),
	}

	workers := o.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	jobs := make(chan Set)
	out := make(chan cell)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range jobs {
				out <- o.runOne(ctx, s)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, s := range sets {
			select {
			case jobs <- s:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	for c := range out {
		switch {
		case c.err == nil:
			report.Ranked = append(report.Ranked, Result{Set: c.set, Metrics: c.metrics})
		case errors.Is(c.err, context.Canceled) || errors.Is(c.err, context.DeadlineExceeded):
			// Aborted mid-run: no partial state is exposed.
		default:
			o.Logger.Warn().Int("cell", c.set.Index).Err(c.err).Msg("grid cell failed")
			report.Failures = append(report.Failures, Failure{Set: c.set, Reason: c.err.Error()})
		}
	}

	rank(report.Ranked, target, tiebreak)
	sort.Slice(report.Failures, func(i, j int) bool {
		return report.Failures[i].Set.Index < report.Failures[j].Set.Index
	})

	return report, ctx.Err()
}

func (o *Optimizer) runOne(ctx context.Context, s Set) cell {
	rc, err := o.Factory(s)
	if err != nil {
		return cell{set: s, err: fmt.Errorf("factory: %w", err)}
	}

	eng := sim.NewEngine(o.Bars, rc.Source, rc.Risk, rc.Sim)
	eng.SetLogger(o.Logger)

	res, err := eng.Run(ctx)
	if err != nil {
		return cell{set: s, err: err}
	}

	period := o.BarPeriod
	if period <= 0 {
		period = o.Bars.Period()
	}
	return cell{set: s, metrics: perf.Compute(res.Trades, res.Equity, o.RiskFreeRate, period)}
}

// rank orders results by the target metric, then the tie-break metric, then
// the fixed enumeration index, so the output is identical for any worker
// count.
func rank(results []Result, target, tiebreak metricDef) {
	sort.Slice(results, func(i, j int) bool {
		a, b := target.get(results[i].Metrics), target.get(results[j].Metrics)
		if a != b {
			return target.better(a, b)
		}
		a, b = tiebreak.get(results[i].Metrics), tiebreak.get(results[j].Metrics)
		if a != b {
			return tiebreak.better(a, b)
		}
		return results[i].Set.Index < results[j].Set.Index
	})
}
