// Package journal persists trade and per-cycle portfolio records of a
// backtest run.
package journal

// TradeRecord is one executed open/close, as reported by the engine.
type TradeRecord struct {
	TradeID    string
	RunID      string
	Symbol     string
	Action     string // OPEN or CLOSE
	Side       string // LONG or SHORT
	Units      int
	Price      float64
	Time       string
	MarginCall bool
	Commission float64
	Spread     float64
}

// CycleSnapshot is the portfolio state at the end of one processed cycle.
type CycleSnapshot struct {
	RunID         string
	Time          string
	TotalValue    float64
	Deposits      float64
	Cash          float64
	MarginUsed    float64
	TotalExpenses float64
	TotalTrades   int
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordCycle(CycleSnapshot) error
	Close() error
}

// Null discards everything. Useful when a run needs no persistence.
type Null struct{}

func (Null) RecordTrade(TradeRecord) error   { return nil }
func (Null) RecordCycle(CycleSnapshot) error { return nil }
func (Null) Close() error                    { return nil }
