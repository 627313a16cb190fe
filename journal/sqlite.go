package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, run_id, symbol, action, side, units, price, time, margin_call, commission, spread)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.RunID, t.Symbol, t.Action, t.Side, t.Units,
		t.Price, t.Time, t.MarginCall, t.Commission, t.Spread,
	)
	return err
}

func (j *SQLiteJournal) RecordCycle(c CycleSnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO cycles
		(run_id, time, total_value, deposits, cash, margin_used, total_expenses, total_trades)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.RunID, c.Time, c.TotalValue, c.Deposits, c.Cash,
		c.MarginUsed, c.TotalExpenses, c.TotalTrades,
	)
	return err
}

// ListTradesByRun returns the trades of one run in insertion-time order.
func (j *SQLiteJournal) ListTradesByRun(runID string) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, run_id, symbol, action, side, units, price, time, margin_call, commission, spread
		FROM trades WHERE run_id = ? ORDER BY trade_id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var t TradeRecord
		err := rows.Scan(&t.TradeID, &t.RunID, &t.Symbol, &t.Action, &t.Side,
			&t.Units, &t.Price, &t.Time, &t.MarginCall, &t.Commission, &t.Spread)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListCyclesByRun returns the cycle snapshots of one run ordered by time.
func (j *SQLiteJournal) ListCyclesByRun(runID string) ([]CycleSnapshot, error) {
	rows, err := j.db.Query(`
		SELECT run_id, time, total_value, deposits, cash, margin_used, total_expenses, total_trades
		FROM cycles WHERE run_id = ? ORDER BY time`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CycleSnapshot
	for rows.Next() {
		var c CycleSnapshot
		err := rows.Scan(&c.RunID, &c.Time, &c.TotalValue, &c.Deposits, &c.Cash,
			&c.MarginUsed, &c.TotalExpenses, &c.TotalTrades)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
