// Package strategies bundles SignalSource implementations and a registry so
// the CLI and the optimizer can construct fresh, parameterized sources by
// name. The engine itself never depends on anything here; it only sees
// sim.SignalSource.
package strategies

import (
	"fmt"
	"sort"
	"strings"

	"github.com/quantforge/backtest/sim"
)

// Factory builds a fresh SignalSource from its parameters. Sources carry
// indicator state, so every simulation run needs its own instance.
type Factory func(params map[string]float64) (sim.SignalSource, error)

var registry = map[string]Factory{}

func Register(name string, f Factory) {
	registry[strings.ToLower(name)] = f
}

// New constructs a SignalSource by registered name.
func New(name string, params map[string]float64) (sim.SignalSource, error) {
	f, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (supported: %s)",
			name, strings.Join(Names(), ", "))
	}
	return f(params)
}

// Names lists the registered strategy names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func param(params map[string]float64, name string, def float64) float64 {
	if v, ok := params[name]; ok {
		return v
	}
	return def
}
