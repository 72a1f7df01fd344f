package optimize

import (
	"fmt"
	"sort"

	"github.com/quantforge/backtest/perf"
)

// metricDef maps a metric name onto the Metrics field it ranks by.
// ascending=true means smaller is better (drawdown).
type metricDef struct {
	get       func(perf.Metrics) float64
	ascending bool
}

var metricTable = map[string]metricDef{
	"total_return":  {get: func(m perf.Metrics) float64 { return m.TotalReturn }},
	"net_profit":    {get: func(m perf.Metrics) float64 { return m.NetProfit }},
	"win_rate":      {get: func(m perf.Metrics) float64 { return m.WinRate }},
	"sharpe":        {get: func(m perf.Metrics) float64 { return m.SharpeRatio }},
	"profit_factor": {get: func(m perf.Metrics) float64 { return m.ProfitFactor }},
	"max_drawdown":  {get: func(m perf.Metrics) float64 { return m.MaxDrawdown }, ascending: true},
}

func metricByName(name string) (metricDef, error) {
	def, ok := metricTable[name]
	if !ok {
		return metricDef{}, fmt.Errorf("unknown metric %q (supported: %v)", name, MetricNames())
	}
	return def, nil
}

// MetricNames lists the rankable metric names in sorted order.
func MetricNames() []string {
	names := make([]string, 0, len(metricTable))
	for n := range metricTable {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// better reports whether a ranks ahead of b under def. Equal values are not
// better; callers fall through to the next tie-break.
func (d metricDef) better(a, b float64) bool {
	if d.ascending {
		return a < b
	}
	return a > b
}
