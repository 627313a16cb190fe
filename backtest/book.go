package backtest

import (
	"fmt"

	"github.com/rustyeddy/backsim/market"
)

// Book is the per-symbol trading state machine: position counters, the
// cost-basis stack for margin-funded shares, fee/spread computation and the
// trend-persistence detector. A Book is created by the engine during Setup,
// is not goroutine-safe, and is mutated only by the single cycle loop.
//
// Long and short positions are never held simultaneously for one symbol.
type Book struct {
	series *market.Series
	eng    *Engine

	long     int // open long positions
	longCash int // long positions funded by cash (the rest are margin-funded)
	short    int // open short positions
	trades   int

	// basis holds one entry price per open margin-funded long, or per open
	// short. LIFO: the most recent entry closes first.
	basis []float64

	// Trend detector latch.
	signalQuote float64
	signalIndex int
	signalSet   bool
	firedIndex  int // cycle where the detector last confirmed, -1 otherwise

	// Per-cycle trade prices, reset by the engine each cycle.
	priceOpenLong        *float64
	priceCloseLong       *float64
	priceOpenShort       *float64
	priceCloseShort      *float64
	priceMarginCallLong  *float64
	priceMarginCallShort *float64

	tech [][]float64
	rows []SymbolRow
}

func newBook(s *market.Series, e *Engine) *Book {
	return &Book{series: s, eng: e, firedIndex: -1}
}

// Series returns the market data this book trades on.
func (b *Book) Series() *market.Series { return b.series }

func (b *Book) Title() string { return b.series.Title() }

func (b *Book) row() market.Quote { return b.series.Row(b.eng.index) }

// DateTime returns the timestamp string of the active cycle's row.
func (b *Book) DateTime() string { return b.row().DateTime }

// Quote returns the settlement price at the active cycle.
func (b *Book) Quote() float64 { return b.row().Close }

func (b *Book) Open() float64 { return b.row().Open }
func (b *Book) High() float64 { return b.row().High }
func (b *Book) Low() float64  { return b.row().Low }

// SpreadDeviation is half the configured spread applied above the settlement
// price when buying and below it when selling.
func (b *Book) SpreadDeviation() float64 {
	return b.Quote() * b.series.Spread() / 100 / 2
}

// BuyPrice is the settlement price plus the spread deviation.
func (b *Book) BuyPrice() float64 { return b.Quote() + b.SpreadDeviation() }

// SellPrice is the settlement price minus the spread deviation.
func (b *Book) SellPrice() float64 { return b.Quote() - b.SpreadDeviation() }

// ShareFee is the per-share trade fee: the volume-percent commission on the
// current quote plus the flat per-share commission.
func (b *Book) ShareFee() float64 {
	return b.Quote()*b.eng.p.CommissionPercent/100 + b.eng.p.CommissionShare
}

// TotalFee is the full fee of a one-share trade, including the flat
// per-trade commission.
func (b *Book) TotalFee() float64 {
	return b.ShareFee() + b.eng.p.Commission
}

func (b *Book) LongPositions() int  { return b.long }
func (b *Book) ShortPositions() int { return b.short }
func (b *Book) Trades() int         { return b.trades }

// MaxPositions returns the number of open positions regardless of side.
func (b *Book) MaxPositions() int {
	if b.long > b.short {
		return b.long
	}
	return b.short
}

// IsLong reports whether the open positions are long. Holding both sides at
// once can not happen by construction; seeing it means corrupted state.
func (b *Book) IsLong() (bool, error) {
	if b.long > 0 && b.short > 0 {
		return false, fmt.Errorf("%w: %s holds long and short simultaneously: long %d, short %d",
			ErrTrading, b.Title(), b.long, b.short)
	}
	return b.long > 0, nil
}

func (b *Book) holdsLong() bool { return b.long > 0 }

// MarginPositions returns the number of open margin-funded positions.
func (b *Book) MarginPositions() int {
	if b.holdsLong() {
		return b.long - b.longCash
	}
	return b.short
}

// UsedMargin is the margin buying power consumed by the open margin
// positions of this symbol.
func (b *Book) UsedMargin() float64 {
	return b.Quote() * float64(b.MarginPositions())
}

// MarginBuyingPower is the buying power provided by the cash-funded long
// positions of this symbol at the recommended ratio.
func (b *Book) MarginBuyingPower() float64 {
	return float64(b.longCash) * b.Quote() * b.series.MarginRec()
}

// MarginLimit is the holding power provided by the cash-funded long
// positions at the required ratio; exceeding it contributes to a margin
// call.
func (b *Book) MarginLimit() float64 {
	return float64(b.longCash) * b.Quote() * b.series.MarginReq()
}

// FutureMarginBuyingPower projects the buying power available if the maximum
// cash-funded position were opened now.
func (b *Book) FutureMarginBuyingPower() float64 {
	sharesCash, remainder := b.MaxSharesCash()
	sharesMargin := float64(sharesCash) * b.Quote() * b.series.MarginRec()
	cashMargin := remainder * b.eng.p.MarginRec

	return sharesMargin + cashMargin
}

// MaxSharesCash returns the largest share count purchasable with the cash
// balance without going negative, plus the fractional share capacity left
// over. The count is estimated from the raw balance first and then once more
// after subtracting the per-share fees of that estimate, which settles the
// fee-on-fee effect without iterating further.
func (b *Book) MaxSharesCash() (int, float64) {
	estimate := int((b.eng.acct.Cash - b.TotalFee() - b.eng.TotalUsedMargin()) / b.BuyPrice())

	available := b.eng.acct.Cash - b.eng.p.Commission - b.eng.TotalUsedMargin() -
		b.ShareFee()*float64(estimate)

	if available < 0 {
		return 0, 0
	}
	return int(available / b.BuyPrice()), available / b.BuyPrice()
}

// MaxSharesMargin returns the share count purchasable on margin buying
// power.
func (b *Book) MaxSharesMargin() int {
	return int(b.FutureMarginBuyingPower() / b.BuyPrice())
}

// MaxShares returns the total share count purchasable with cash plus
// margin.
func (b *Book) MaxShares() int {
	cash, _ := b.MaxSharesCash()
	if n := cash + b.MaxSharesMargin(); n > 0 {
		return n
	}
	return 0
}

// MaxSharesShort returns the share count the available margin can short.
func (b *Book) MaxSharesShort() int {
	n := int(b.eng.AvailableMargin(b.TotalFee()) / b.SellPrice())
	if n > 0 {
		return n
	}
	return 0
}

// OpenLong opens num long positions, funding them with cash first and margin
// for the remainder. Opening beyond MaxShares is a trading error.
func (b *Book) OpenLong(num int) error {
	if num < 0 {
		return fmt.Errorf("%w: can't open %d long positions", ErrTrading, num)
	}
	if max := b.MaxShares(); num > max {
		return fmt.Errorf("%w: not enough cash/margin to open %d long positions of %s, at most %d",
			ErrTrading, num, b.Title(), max)
	}
	if num == 0 {
		return nil
	}

	cashFunded, _ := b.MaxSharesCash()
	if cashFunded > num {
		cashFunded = num
	}
	marginFunded := num - cashFunded

	commission := b.ShareFee()*float64(num) + b.eng.p.Commission
	spread := b.SpreadDeviation() * float64(num)

	b.eng.acct.addCash(-abs(commission + b.BuyPrice()*float64(cashFunded)))
	b.long += num
	b.longCash += cashFunded

	for i := 0; i < marginFunded; i++ {
		b.basis = append(b.basis, b.BuyPrice())
	}

	b.eng.acct.addCommissionExpense(commission)
	b.eng.acct.addSpreadExpense(spread)

	b.trades++
	b.eng.acct.addTrades(1)

	price := b.BuyPrice()
	b.priceOpenLong = &price

	return b.eng.recordTrade(b, actionOpen, sideLong, num, price, false, commission, spread)
}

// OpenShort opens num short positions on margin. Opening beyond
// MaxSharesShort is a trading error.
func (b *Book) OpenShort(num int) error {
	if num < 0 {
		return fmt.Errorf("%w: can't open %d short positions", ErrTrading, num)
	}
	if max := b.MaxSharesShort(); num > max {
		return fmt.Errorf("%w: not enough margin to short %d positions of %s, at most %d",
			ErrTrading, num, b.Title(), max)
	}
	if num == 0 {
		return nil
	}

	commission := b.ShareFee()*float64(num) + b.eng.p.Commission
	spread := b.SpreadDeviation() * float64(num)

	// A slightly negative cash balance is possible on a margin account.
	b.eng.acct.addCash(-abs(commission))
	b.short += num

	for i := 0; i < num; i++ {
		b.basis = append(b.basis, b.SellPrice())
	}

	b.eng.acct.addCommissionExpense(commission)
	b.eng.acct.addSpreadExpense(spread)

	b.trades++
	b.eng.acct.addTrades(1)

	price := b.SellPrice()
	b.priceOpenShort = &price

	return b.eng.recordTrade(b, actionOpen, sideShort, num, price, false, commission, spread)
}

// Close closes num positions on whichever side is open.
func (b *Book) Close(num int) error {
	return b.close(num, false)
}

// CloseLong closes num long positions: cash-funded ones first at the sell
// price, then margin-funded ones by popping the cost-basis stack and
// crediting the realized difference.
func (b *Book) CloseLong(num int) error {
	return b.closeLong(num, false)
}

// CloseShort closes num short positions by popping the cost-basis stack and
// crediting the entry/buy price difference per share.
func (b *Book) CloseShort(num int) error {
	return b.closeShort(num, false)
}

// CloseAll closes every open position of the symbol.
func (b *Book) CloseAll() error {
	if _, err := b.IsLong(); err != nil {
		return err
	}
	return b.close(b.MaxPositions(), false)
}

func (b *Book) close(num int, marginCall bool) error {
	if num < 0 {
		return fmt.Errorf("%w: can't close %d positions", ErrTrading, num)
	}
	if num == 0 {
		return nil
	}

	isLong, err := b.IsLong()
	if err != nil {
		return err
	}
	if isLong {
		return b.closeLong(num, marginCall)
	}
	return b.closeShort(num, marginCall)
}

func (b *Book) closeLong(num int, marginCall bool) error {
	if num < 0 {
		return fmt.Errorf("%w: can't close %d long positions", ErrTrading, num)
	}
	if num > b.long {
		return fmt.Errorf("%w: closing more long positions of %s than open: %d > %d",
			ErrTrading, b.Title(), num, b.long)
	}
	if num == 0 || b.long == 0 {
		return nil
	}

	// Ordinary closes release cash-funded shares first. A margin call must
	// free used margin, so it pops the stacked margin-funded shares first
	// and touches cash-funded ones only once the stack is empty.
	var cashFunded, marginFunded int
	if marginCall {
		marginFunded = num
		if held := b.long - b.longCash; marginFunded > held {
			marginFunded = held
		}
		cashFunded = num - marginFunded
	} else {
		cashFunded = num
		if cashFunded > b.longCash {
			cashFunded = b.longCash
		}
		marginFunded = num - cashFunded
	}

	price := b.SellPrice()
	if marginCall {
		b.priceMarginCallLong = &price
	} else {
		b.priceCloseLong = &price
	}

	commission := b.ShareFee()*float64(num) + b.eng.p.Commission
	spread := b.SpreadDeviation() * float64(num)

	// Cash-funded positions return their sale proceeds.
	b.eng.acct.addCash(b.SellPrice() * float64(cashFunded))
	b.eng.acct.addCash(-abs(commission))

	b.eng.acct.addCommissionExpense(commission)
	b.eng.acct.addSpreadExpense(spread)

	// Margin-funded positions return only the realized difference, LIFO.
	delta := 0.0
	for i := 0; i < marginFunded; i++ {
		entry := b.basis[len(b.basis)-1]
		b.basis = b.basis[:len(b.basis)-1]
		delta += b.SellPrice() - entry
	}

	b.long -= num
	b.longCash -= cashFunded

	b.eng.acct.addCash(delta)

	b.trades++
	b.eng.acct.addTrades(1)

	return b.eng.recordTrade(b, actionClose, sideLong, num, price, marginCall, commission, spread)
}

func (b *Book) closeShort(num int, marginCall bool) error {
	if num < 0 {
		return fmt.Errorf("%w: can't close %d short positions", ErrTrading, num)
	}
	if num > b.short {
		return fmt.Errorf("%w: closing more short positions of %s than open: %d > %d",
			ErrTrading, b.Title(), num, b.short)
	}
	if num == 0 || b.short == 0 {
		return nil
	}

	delta := 0.0
	spread := 0.0
	commission := 0.0

	for i := 0; i < num; i++ {
		entry := b.basis[len(b.basis)-1]
		b.basis = b.basis[:len(b.basis)-1]
		delta += entry - b.BuyPrice()

		// A slightly negative cash balance is possible on a margin account.
		b.eng.acct.addCash(-abs(b.ShareFee()))
		b.eng.acct.addCommissionExpense(b.ShareFee())
		b.eng.acct.addSpreadExpense(b.SpreadDeviation())
		commission += b.ShareFee()
		spread += b.SpreadDeviation()
	}

	b.eng.acct.addCommissionExpense(b.eng.p.Commission)
	commission += b.eng.p.Commission

	b.short -= num

	b.eng.acct.addCash(delta)

	b.trades++
	b.eng.acct.addTrades(1)

	price := b.BuyPrice()
	if marginCall {
		b.priceMarginCallShort = &price
	} else {
		b.priceCloseShort = &price
	}

	return b.eng.recordTrade(b, actionClose, sideShort, num, price, marginCall, commission, spread)
}

// CheckMarginRequirements closes the most recently opened margin positions
// until the used margin fits back under the combined account and symbol
// margin limits. Each round estimates how many positions must go, liquidates
// them as one margin-call trade and re-reads the limits, since fees shift
// the cash-based limit beyond what the estimate sees. If the cost-basis
// stack runs out with a deficit remaining it is left unresolved: the account
// is bankrupt and there is nothing left to liquidate.
func (b *Book) CheckMarginRequirements() error {
	for b.MarginPositions() > 0 {
		deficit := -b.eng.TotalMarginLimit()
		if deficit <= 0 {
			return nil
		}

		// Walk a copy of the stack to estimate how many positions must go.
		// Closing one share frees its quote worth of used margin and moves
		// the realized difference into cash, which shifts the cash-based
		// limit.
		isLong := b.holdsLong()
		num := 0
		for deficit > 0 && num < b.MarginPositions() {
			entry := b.basis[len(b.basis)-1-num]

			realized := entry - b.BuyPrice()
			if isLong {
				realized = b.SellPrice() - entry
			}

			deficit -= b.Quote() + realized*b.eng.p.MarginReq
			num++
		}

		if err := b.close(num, true); err != nil {
			return err
		}
	}
	return nil
}

// ApplyMarginFee accrues the daily margin interest once per calendar-day
// change; intraday cycles within the same day accrue nothing.
func (b *Book) ApplyMarginFee() {
	if b.MarginPositions() == 0 || !b.eng.dayChanged() {
		return
	}

	fee := b.DailyMarginExpense()
	b.eng.acct.addDebtExpense(fee)
	b.eng.acct.addCash(-abs(fee))
}

// DailyMarginExpense returns one day's interest on the open margin
// positions. 240 approximates the trading periods per year at the daily
// cadence.
func (b *Book) DailyMarginExpense() float64 {
	return float64(b.MarginPositions()) * b.Quote() * b.series.MarginFee() / 100 / 240
}

// TrendChanged is a persistence filter over a proposed trend direction.
// While the direction agrees with the held position it clears the detector
// and reports false. On disagreement it latches the quote and index, and
// confirms once the disagreement has lasted TrendChangePeriod cycles or the
// quote has moved TrendChangePercent away from the latch. A confirmation is
// repeatable within its cycle; the next cycle starts a fresh window.
func (b *Book) TrendChanged(isUptrend bool) bool {
	quote := b.Quote()
	index := b.eng.index

	if isUptrend == b.holdsLong() {
		b.signalSet = false
		b.firedIndex = -1
		return false
	}

	if b.firedIndex == index {
		return true
	}

	if !b.signalSet {
		b.signalQuote = quote
		b.signalIndex = index
		b.signalSet = true
	}

	fired := index-b.signalIndex >= b.series.TrendChangePeriod()

	if !fired {
		hi, lo := quote, b.signalQuote
		if lo > hi {
			hi, lo = lo, hi
		}
		fired = lo > 0 && hi/lo >= 1+b.series.TrendChangePercent()/100
	}

	if fired {
		b.signalSet = false
		b.firedIndex = index
		return true
	}

	return false
}

// TotalValue returns the liquidation value of the open positions at the
// current cycle's prices.
func (b *Book) TotalValue() float64 {
	value := 0.0

	if b.holdsLong() {
		value += b.SellPrice() * float64(b.longCash)
		for i := 0; i < b.MarginPositions(); i++ {
			value += b.SellPrice() - b.basis[i]
		}
	} else {
		for i := 0; i < b.short; i++ {
			value += b.basis[i] - b.BuyPrice()
		}
	}

	return value
}

// applyOtherBalanceChanges injects this cycle's dividend, if any: income on
// a long position, a lending fee on a short one.
func (b *Book) applyOtherBalanceChanges() {
	dividend := b.row().Dividend
	if dividend == 0 || b.MaxPositions() == 0 {
		return
	}

	amount := dividend * float64(b.MaxPositions())
	if b.holdsLong() {
		b.eng.acct.addOtherProfit(amount)
	} else {
		b.eng.acct.addOtherExpense(amount)
	}
}

// AppendTech attaches a technical dataset computed during precomputation and
// returns its slot index.
func (b *Book) AppendTech(values []float64) int {
	b.tech = append(b.tech, values)
	return len(b.tech) - 1
}

// Tech returns the dataset in the given slot.
func (b *Book) Tech(num int) []float64 { return b.tech[num] }

// TechVal returns the dataset value at the active index minus offset, or
// false when out of range.
func (b *Book) TechVal(num, offset int) (float64, bool) {
	i := b.eng.index - offset
	if num >= len(b.tech) || i < 0 || i >= len(b.tech[num]) {
		return 0, false
	}
	return b.tech[num][i], true
}

func (b *Book) resetTradePrices() {
	b.priceOpenLong = nil
	b.priceCloseLong = nil
	b.priceOpenShort = nil
	b.priceCloseShort = nil
	b.priceMarginCallLong = nil
	b.priceMarginCallShort = nil
}

func (b *Book) addResult() {
	b.rows = append(b.rows, SymbolRow{
		Open:                 b.Open(),
		Close:                b.Quote(),
		High:                 b.High(),
		Low:                  b.Low(),
		PriceOpenLong:        b.priceOpenLong,
		PriceCloseLong:       b.priceCloseLong,
		PriceOpenShort:       b.priceOpenShort,
		PriceCloseShort:      b.priceCloseShort,
		PriceMarginCallLong:  b.priceMarginCallLong,
		PriceMarginCallShort: b.priceMarginCallShort,
		LongPositions:        b.long,
		ShortPositions:       b.short,
		MarginPositions:      b.MarginPositions(),
		Trades:               b.trades,
	})
}

func (b *Book) addPlaceholder() {
	b.rows = append(b.rows, SymbolRow{
		Open:  b.Open(),
		Close: b.Quote(),
		High:  b.High(),
		Low:   b.Low(),
	})
}

func (b *Book) result() SymbolResult {
	return SymbolResult{Title: b.Title(), Rows: b.rows, Tech: b.tech}
}
