package journal

import (
	"database/sql"
	"fmt"
)

// GetTrade returns a single trade record by ID.
func (j *SQLiteJournal) GetTrade(tradeID string) (TradeRecord, error) {
	var rec TradeRecord

	row := j.db.QueryRow(`
		SELECT trade_id, run_id, symbol, action, side, units, price, time, margin_call, commission, spread
		FROM trades
		WHERE trade_id = ?`, tradeID)

	err := row.Scan(
		&rec.TradeID,
		&rec.RunID,
		&rec.Symbol,
		&rec.Action,
		&rec.Side,
		&rec.Units,
		&rec.Price,
		&rec.Time,
		&rec.MarginCall,
		&rec.Commission,
		&rec.Spread,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return TradeRecord{}, fmt.Errorf("trade %q not found", tradeID)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// LastRunID returns the run id of the most recently recorded cycle, useful
// as the default for journal queries.
func (j *SQLiteJournal) LastRunID() (string, error) {
	var runID string
	row := j.db.QueryRow(`SELECT run_id FROM cycles ORDER BY rowid DESC LIMIT 1`)
	if err := row.Scan(&runID); err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("no recorded runs")
		}
		return "", err
	}
	return runID, nil
}

// ListRuns returns the distinct run ids present in the journal, newest first.
func (j *SQLiteJournal) ListRuns() ([]string, error) {
	rows, err := j.db.Query(`SELECT run_id FROM cycles GROUP BY run_id ORDER BY max(rowid) DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var runID string
		if err := rows.Scan(&runID); err != nil {
			return nil, err
		}
		out = append(out, runID)
	}
	return out, rows.Err()
}
