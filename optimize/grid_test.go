package optimize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGridCartesianProduct(t *testing.T) {
	t.Parallel()

	axes := []Axis{
		{Name: "fast", Values: []float64{5, 10}},
		{Name: "slow", Values: []float64{20, 30, 40}},
	}

	sets := Grid(axes)
	require.Len(t, sets, 6)

	// First axis varies slowest, indexes follow enumeration order.
	want := [][2]float64{
		{5, 20}, {5, 30}, {5, 40},
		{10, 20}, {10, 30}, {10, 40},
	}
	for i, s := range sets {
		assert.Equal(t, i, s.Index)
		assert.Equal(t, want[i][0], s.Values["fast"], "set %d", i)
		assert.Equal(t, want[i][1], s.Values["slow"], "set %d", i)
	}
}

func TestGridSingleAxis(t *testing.T) {
	t.Parallel()

	sets := Grid([]Axis{{Name: "x", Values: []float64{1, 2, 3}}})
	require.Len(t, sets, 3)
	for i, s := range sets {
		assert.Equal(t, float64(i+1), s.Values["x"])
	}
}

func TestGridEmpty(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Grid(nil))
	assert.Nil(t, Grid([]Axis{{Name: "x"}})) // axis without values
	assert.Nil(t, Grid([]Axis{
		{Name: "x", Values: []float64{1}},
		{Name: "y"},
	}))
}

func TestSetGet(t *testing.T) {
	t.Parallel()

	s := Set{Values: map[string]float64{"a": 1}}
	assert.Equal(t, 1.0, s.Get("a", 9))
	assert.Equal(t, 9.0, s.Get("b", 9))
}

func TestSetSortedNames(t *testing.T) {
	t.Parallel()

	s := Set{Values: map[string]float64{"b": 1, "a": 2, "c": 3}}
	assert.Equal(t, []string{"a", "b", "c"}, s.SortedNames())
}
