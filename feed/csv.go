// Package feed loads pre-cleaned bar data from local files. Fetching and
// cleaning market data is somebody else's job; the loader only parses and
// then validates the series invariants before handing it to a simulation.
package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/quantforge/backtest/market"
)

// LoadBars reads canonical bar CSV rows:
//
//	time,open,high,low,close,volume
//
// where time is RFC3339. A header row is allowed, volume may be omitted, and
// files ending in .xz are decompressed transparently. The returned series is
// validated; a file with out-of-order bars or bad numbers is an error, never
// silently repaired.
func LoadBars(path string) (market.Series, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	var in io.Reader = fd
	if strings.HasSuffix(path, ".xz") {
		xzr, err := xz.NewReader(fd)
		if err != nil {
			return nil, fmt.Errorf("feed: open xz %s: %w", path, err)
		}
		in = xzr
	}

	s, err := ReadBars(in)
	if err != nil {
		return nil, fmt.Errorf("feed: %s: %w", path, err)
	}
	return s, nil
}

// ReadBars parses bar CSV rows from r and validates the result.
func ReadBars(r io.Reader) (market.Series, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	var (
		s        market.Series
		sawFirst bool
		line     int
	)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++

		if len(row) == 0 {
			continue
		}
		if !sawFirst {
			sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "time") {
				continue
			}
		}

		b, err := parseBarRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		s = append(s, b)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func parseBarRow(row []string) (market.Bar, error) {
	if len(row) < 5 {
		return market.Bar{}, fmt.Errorf("need at least 5 fields, got %d", len(row))
	}

	t, err := time.Parse(time.RFC3339, strings.TrimSpace(row[0]))
	if err != nil {
		return market.Bar{}, fmt.Errorf("time: %w", err)
	}

	vals := make([]float64, 0, 5)
	for _, s := range row[1:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return market.Bar{}, err
		}
		vals = append(vals, v)
		if len(vals) == 5 {
			break
		}
	}

	b := market.Bar{Time: t, Open: vals[0], High: vals[1], Low: vals[2], Close: vals[3]}
	if len(vals) > 4 {
		b.Volume = vals[4]
	}
	return b, nil
}
