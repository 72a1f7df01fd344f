// Package optimize runs grid search over strategy/risk parameters, using
// the simulation engine as a black box: one fresh engine per parameter set,
// distributed over a bounded worker pool, reduced into a deterministic
// ranked report.
package optimize

import "sort"

// Axis is one parameter dimension: a name and its ordered candidate values.
type Axis struct {
	Name   string
	Values []float64
}

// Set is one immutable grid cell. Index is the cell's position in the fixed
// enumeration order, used as the final tie-break so ranking never depends on
// execution order.
type Set struct {
	Index  int
	Values map[string]float64
}

// Get returns the value for name, or def when the set does not carry it.
func (s Set) Get(name string, def float64) float64 {
	if v, ok := s.Values[name]; ok {
		return v
	}
	return def
}

// Grid builds the full cartesian product of the axes, no pruning. The first
// axis varies slowest; within an axis, values keep their given order. An
// axis with no values yields an empty grid.
func Grid(axes []Axis) []Set {
	if len(axes) == 0 {
		return nil
	}

	total := 1
	for _, a := range axes {
		total *= len(a.Values)
	}
	if total == 0 {
		return nil
	}

	sets := make([]Set, 0, total)
	counters := make([]int, len(axes))
	for i := 0; i < total; i++ {
		vals := make(map[string]float64, len(axes))
		for j, a := range axes {
			vals[a.Name] = a.Values[counters[j]]
		}
		sets = append(sets, Set{Index: i, Values: vals})

		for j := len(axes) - 1; j >= 0; j-- {
			counters[j]++
			if counters[j] < len(axes[j].Values) {
				break
			}
			counters[j] = 0
		}
	}
	return sets
}

// SortedNames returns the set's parameter names in a stable order, for
// reporting.
func (s Set) SortedNames() []string {
	names := make([]string, 0, len(s.Values))
	for n := range s.Values {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
