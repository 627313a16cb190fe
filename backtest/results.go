package backtest

// Row is one immutable portfolio-level record per processed cycle. Skipped
// cycles append a placeholder carrying only the date and per-symbol quotes.
type Row struct {
	Date string

	TotalValue float64
	Deposits   float64
	Cash       float64
	MarginUsed float64

	OtherProfit       float64
	CommissionExpense float64
	SpreadExpense     float64
	DebtExpense       float64
	OtherExpense      float64
	TotalExpenses     float64

	TotalTrades int

	Skipped bool
}

// SymbolRow is the per-symbol slice of one cycle's result. Trade prices are
// nil when no trade of that kind happened in the cycle.
type SymbolRow struct {
	Open  float64
	Close float64
	High  float64
	Low   float64

	PriceOpenLong        *float64
	PriceCloseLong       *float64
	PriceOpenShort       *float64
	PriceCloseShort      *float64
	PriceMarginCallLong  *float64
	PriceMarginCallShort *float64

	LongPositions   int
	ShortPositions  int
	MarginPositions int
	Trades          int
}

// SymbolResult accumulates one symbol's rows over the whole run, plus any
// technical datasets the strategy attached during precomputation.
type SymbolResult struct {
	Title string
	Rows  []SymbolRow
	Tech  [][]float64
}

// Results is what a finished run hands to the caller. Symbols indices
// correspond one to one to the order series were supplied at construction.
type Results struct {
	Rows    []Row
	Symbols []SymbolResult
}
