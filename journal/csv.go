// journal/csv.go
package journal

import (
	"encoding/csv"
	"os"
	"strconv"
)

type CSVJournal struct {
	trades *csv.Writer
	cycles *csv.Writer
	tf, cf *os.File
}

func NewCSV(tradesPath, cyclesPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	cf, err := os.Create(cyclesPath)
	if err != nil {
		return nil, err
	}

	tw := csv.NewWriter(tf)
	cw := csv.NewWriter(cf)

	if err := tw.Write([]string{"trade_id", "run_id", "symbol", "action", "side", "units", "price", "time", "margin_call", "commission", "spread"}); err != nil {
		return nil, err
	}
	if err := cw.Write([]string{"run_id", "time", "total_value", "deposits", "cash", "margin_used", "total_expenses", "total_trades"}); err != nil {
		return nil, err
	}

	tw.Flush()
	if err := tw.Error(); err != nil {
		return nil, err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{tw, cw, tf, cf}, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	err := j.trades.Write([]string{
		t.TradeID,
		t.RunID,
		t.Symbol,
		t.Action,
		t.Side,
		strconv.Itoa(t.Units),
		f(t.Price),
		t.Time,
		strconv.FormatBool(t.MarginCall),
		f(t.Commission),
		f(t.Spread),
	})
	if err != nil {
		return err
	}

	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordCycle(c CycleSnapshot) error {
	err := j.cycles.Write([]string{
		c.RunID,
		c.Time,
		f(c.TotalValue),
		f(c.Deposits),
		f(c.Cash),
		f(c.MarginUsed),
		f(c.TotalExpenses),
		strconv.Itoa(c.TotalTrades),
	})
	if err != nil {
		return err
	}

	j.cycles.Flush()
	return j.cycles.Error()
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	j.cycles.Flush()
	if err := j.cycles.Error(); err != nil {
		return err
	}

	if err := j.tf.Close(); err != nil {
		return err
	}
	if err := j.cf.Close(); err != nil {
		return err
	}
	return nil
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
