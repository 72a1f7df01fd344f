package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"github.com/quantforge/backtest/sim"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t sim.Trade) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, side, units, entry_price, exit_price, entry_time, exit_time, gross_pnl, fees, net_pnl, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, int(t.Side), t.Units, t.EntryPrice, t.ExitPrice,
		t.EntryTime, t.ExitTime, t.GrossPnL, t.Fees, t.NetPnL, string(t.Reason),
	)
	return err
}

func (j *SQLite) RecordEquity(p sim.EquityPoint) error {
	_, err := j.db.Exec(`INSERT INTO equity (time, equity) VALUES (?, ?)`,
		p.Time, p.Equity)
	return err
}

// LoadTrades returns the ledger in exit-time order (ULID IDs sort by
// creation time, so trade_id order is close order).
func (j *SQLite) LoadTrades() ([]sim.Trade, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, side, units, entry_price, exit_price, entry_time, exit_time, gross_pnl, fees, net_pnl, reason
		FROM trades
		ORDER BY trade_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sim.Trade
	for rows.Next() {
		var t sim.Trade
		var side int
		var reason string
		if err := rows.Scan(
			&t.ID, &side, &t.Units, &t.EntryPrice, &t.ExitPrice,
			&t.EntryTime, &t.ExitTime, &t.GrossPnL, &t.Fees, &t.NetPnL, &reason,
		); err != nil {
			return nil, err
		}
		t.Side = sim.Side(side)
		t.Reason = sim.ExitReason(reason)
		out = append(out, t)
	}
	return out, rows.Err()
}

// LoadEquity returns the equity curve in timestamp order.
func (j *SQLite) LoadEquity() ([]sim.EquityPoint, error) {
	rows, err := j.db.Query(`SELECT time, equity FROM equity ORDER BY time ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sim.EquityPoint
	for rows.Next() {
		var p sim.EquityPoint
		if err := rows.Scan(&p.Time, &p.Equity); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
