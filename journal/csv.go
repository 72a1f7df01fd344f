package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/quantforge/backtest/sim"
)

var (
	tradeHeader  = []string{"trade_id", "side", "units", "entry_price", "exit_price", "entry_time", "exit_time", "gross_pnl", "fees", "net_pnl", "reason"}
	equityHeader = []string{"time", "equity"}
)

// CSV writes the ledger and equity curve to two CSV files.
type CSV struct {
	trades *csv.Writer
	equity *csv.Writer
	tf, ef *os.File
}

func NewCSV(tradesPath, equityPath string) (*CSV, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		tf.Close()
		return nil, err
	}

	j := &CSV{
		trades: csv.NewWriter(tf),
		equity: csv.NewWriter(ef),
		tf:     tf,
		ef:     ef,
	}

	if err := j.trades.Write(tradeHeader); err != nil {
		j.Close()
		return nil, err
	}
	if err := j.equity.Write(equityHeader); err != nil {
		j.Close()
		return nil, err
	}
	return j, nil
}

func (j *CSV) RecordTrade(t sim.Trade) error {
	err := j.trades.Write([]string{
		t.ID,
		strconv.Itoa(int(t.Side)),
		f(t.Units),
		f(t.EntryPrice),
		f(t.ExitPrice),
		t.EntryTime.Format(time.RFC3339Nano),
		t.ExitTime.Format(time.RFC3339Nano),
		f(t.GrossPnL),
		f(t.Fees),
		f(t.NetPnL),
		string(t.Reason),
	})
	if err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSV) RecordEquity(p sim.EquityPoint) error {
	err := j.equity.Write([]string{
		p.Time.Format(time.RFC3339Nano),
		f(p.Equity),
	})
	if err != nil {
		return err
	}
	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSV) Close() error {
	j.trades.Flush()
	j.equity.Flush()
	err := j.tf.Close()
	if e := j.ef.Close(); err == nil {
		err = e
	}
	return err
}

func f(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// LoadTradesCSV reads a ledger previously written by CSV.RecordTrade.
func LoadTradesCSV(path string) ([]sim.Trade, error) {
	rows, err := readCSV(path, len(tradeHeader))
	if err != nil {
		return nil, err
	}

	var out []sim.Trade
	for i, row := range rows {
		t := sim.Trade{ID: row[0], Reason: sim.ExitReason(row[10])}
		side, err := strconv.Atoi(row[1])
		if err != nil {
			return nil, fmt.Errorf("trades row %d: side: %w", i, err)
		}
		t.Side = sim.Side(side)
		for _, fld := range []struct {
			dst *float64
			s   string
		}{
			{&t.Units, row[2]}, {&t.EntryPrice, row[3]}, {&t.ExitPrice, row[4]},
			{&t.GrossPnL, row[7]}, {&t.Fees, row[8]}, {&t.NetPnL, row[9]},
		} {
			if *fld.dst, err = strconv.ParseFloat(fld.s, 64); err != nil {
				return nil, fmt.Errorf("trades row %d: %w", i, err)
			}
		}
		if t.EntryTime, err = time.Parse(time.RFC3339Nano, row[5]); err != nil {
			return nil, fmt.Errorf("trades row %d: entry time: %w", i, err)
		}
		if t.ExitTime, err = time.Parse(time.RFC3339Nano, row[6]); err != nil {
			return nil, fmt.Errorf("trades row %d: exit time: %w", i, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// LoadEquityCSV reads an equity curve previously written by CSV.RecordEquity.
func LoadEquityCSV(path string) ([]sim.EquityPoint, error) {
	rows, err := readCSV(path, len(equityHeader))
	if err != nil {
		return nil, err
	}

	var out []sim.EquityPoint
	for i, row := range rows {
		var p sim.EquityPoint
		if p.Time, err = time.Parse(time.RFC3339Nano, row[0]); err != nil {
			return nil, fmt.Errorf("equity row %d: time: %w", i, err)
		}
		if p.Equity, err = strconv.ParseFloat(row[1], 64); err != nil {
			return nil, fmt.Errorf("equity row %d: equity: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// readCSV returns data rows, skipping the header.
func readCSV(path string, fields int) ([][]string, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	r := csv.NewReader(fd)
	r.FieldsPerRecord = fields

	var rows [][]string
	first := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		if first {
			first = false
			continue
		}
		rows = append(rows, row)
	}
}
