package backtest

// Account is the aggregate portfolio ledger shared by every symbol book of a
// run: cash, cumulative deposits, expense categories and the trade counter.
// It is mutated only by the single-goroutine cycle loop.
type Account struct {
	Cash     float64
	Deposits float64

	// OtherProfit collects non-trading income, e.g. dividends on long
	// positions.
	OtherProfit float64

	CommissionExpense float64
	SpreadExpense     float64
	DebtExpense       float64
	OtherExpense      float64

	TotalTrades int
}

// TotalExpenses is derived, never stored.
func (a Account) TotalExpenses() float64 {
	return a.CommissionExpense + a.SpreadExpense + a.DebtExpense + a.OtherExpense
}

func (a *Account) addCash(v float64) { a.Cash += v }

func (a *Account) addOtherProfit(v float64) {
	a.OtherProfit += v
	a.Cash += v
}

// addOtherExpense debits cash. A slightly negative balance is possible on a
// margin account, e.g. dividend fees while holding a short position.
func (a *Account) addOtherExpense(v float64) {
	a.OtherExpense += v
	a.Cash -= abs(v)
}

func (a *Account) addCommissionExpense(v float64) { a.CommissionExpense += v }
func (a *Account) addSpreadExpense(v float64)     { a.SpreadExpense += v }
func (a *Account) addDebtExpense(v float64)       { a.DebtExpense += v }
func (a *Account) addTrades(n int)                { a.TotalTrades += n }

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
