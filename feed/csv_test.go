package feed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"

	"github.com/quantforge/backtest/market"
)

const sampleCSV = `time,open,high,low,close,volume
2024-01-02T09:00:00Z,100,102,99,101,1500
2024-01-02T10:00:00Z,101,104,100,103,1800
2024-01-02T11:00:00Z,103,103.5,101,102,900
`

func TestReadBars(t *testing.T) {
	t.Parallel()

	s, err := ReadBars(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, s, 3)

	assert.Equal(t, time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC), s[0].Time)
	assert.Equal(t, 100.0, s[0].Open)
	assert.Equal(t, 102.0, s[0].High)
	assert.Equal(t, 99.0, s[0].Low)
	assert.Equal(t, 101.0, s[0].Close)
	assert.Equal(t, 1500.0, s[0].Volume)
	assert.Equal(t, 102.0, s[2].Close)
}

func TestReadBarsNoHeader(t *testing.T) {
	t.Parallel()

	s, err := ReadBars(strings.NewReader("2024-01-02T09:00:00Z,100,102,99,101,1500\n"))
	require.NoError(t, err)
	require.Len(t, s, 1)
	assert.Equal(t, 101.0, s[0].Close)
}

func TestReadBarsVolumeOptional(t *testing.T) {
	t.Parallel()

	s, err := ReadBars(strings.NewReader("2024-01-02T09:00:00Z,100,102,99,101\n"))
	require.NoError(t, err)
	require.Len(t, s, 1)
	assert.Zero(t, s[0].Volume)
}

func TestReadBarsErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{"bad time", "not-a-time,100,102,99,101,1500\n"},
		{"bad number", "2024-01-02T09:00:00Z,100,oops,99,101,1500\n"},
		{"too few fields", "2024-01-02T09:00:00Z,100,102\n"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ReadBars(strings.NewReader(tt.input))
			require.Error(t, err)
		})
	}
}

func TestReadBarsOutOfOrder(t *testing.T) {
	t.Parallel()

	input := "2024-01-02T10:00:00Z,100,102,99,101,1500\n" +
		"2024-01-02T09:00:00Z,101,104,100,103,1800\n"
	_, err := ReadBars(strings.NewReader(input))
	require.ErrorIs(t, err, market.ErrDataIntegrity)
}

func TestLoadBars(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bars.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	s, err := LoadBars(path)
	require.NoError(t, err)
	assert.Len(t, s, 3)
}

func TestLoadBarsXZ(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bars.csv.xz")
	fd, err := os.Create(path)
	require.NoError(t, err)
	xw, err := xz.NewWriter(fd)
	require.NoError(t, err)
	_, err = xw.Write([]byte(sampleCSV))
	require.NoError(t, err)
	require.NoError(t, xw.Close())
	require.NoError(t, fd.Close())

	s, err := LoadBars(path)
	require.NoError(t, err)
	assert.Len(t, s, 3)
	assert.Equal(t, 103.0, s[1].Close)
}

func TestLoadBarsMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadBars(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}
