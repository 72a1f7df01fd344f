package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/quantforge/backtest/sim"
)

// Postgres journals runs into a PostgreSQL database, for setups where the
// results feed shared reporting rather than a local file.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres journal: %w", err)
	}
	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (j *Postgres) RecordTrade(t sim.Trade) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, side, units, entry_price, exit_price, entry_time, exit_time, gross_pnl, fees, net_pnl, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		t.ID, int(t.Side), t.Units, t.EntryPrice, t.ExitPrice,
		t.EntryTime, t.ExitTime, t.GrossPnL, t.Fees, t.NetPnL, string(t.Reason),
	)
	return err
}

func (j *Postgres) RecordEquity(p sim.EquityPoint) error {
	_, err := j.db.Exec(`INSERT INTO equity (time, equity) VALUES ($1, $2)`,
		p.Time, p.Equity)
	return err
}

func (j *Postgres) LoadTrades() ([]sim.Trade, error) {
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

func (j *Postgres) LoadEquity() ([]sim.EquityPoint, error) {
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

func (j *Postgres) Close() error {
	return j.db.Close()
}
