package backtest

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/rustyeddy/backsim/internal/id"
	"github.com/rustyeddy/backsim/journal"
	"github.com/rustyeddy/backsim/market"
	"go.uber.org/zap"
)

// Params configure one backtest run.
type Params struct {
	// Commission is the flat fee per trade.
	Commission float64
	// CommissionPercent is a fee in percent of the trade volume.
	CommissionPercent float64
	// CommissionShare is the fee per share.
	CommissionShare float64

	// InitialDeposit seeds the cash balance.
	InitialDeposit float64
	// PeriodicDeposit is added to cash every DepositInterval days.
	PeriodicDeposit float64
	// DepositInterval is the number of days between periodic deposits.
	DepositInterval int
	// Inflation compounds the periodic deposit once per calendar year,
	// in percent.
	Inflation float64

	// MarginReq is the required margin ratio of the cash balance; exceeding
	// the combined limits triggers a margin call.
	MarginReq float64
	// MarginRec is the recommended margin ratio of the cash balance; the
	// engine will not open margin positions beyond it.
	MarginRec float64

	// Offset is the number of warm-up cycles skipped at the start.
	Offset int

	// Multi declares that more than one symbol series is expected.
	Multi bool

	// Logger receives structured OPEN/CLOSE trade lines. Nil disables them.
	Logger *zap.Logger
	// Journal, when set, records every trade and cycle snapshot.
	Journal journal.Journal
}

type runState int

const (
	stateCreated  runState = iota
	stateReady             // setup done, between cycles
	stateActive            // a cycle is being calculated
	stateFinished          // the last row has been processed
)

// Engine drives the cycle loop across one or more symbols: date alignment,
// periodic deposits, daily accruals, margin checks and result assembly. All
// ledger mutation happens on the single calculation goroutine so that cash
// and positions change in strict chronological order.
type Engine struct {
	series []*market.Series
	strat  Strategy
	p      Params
	log    *zap.Logger
	jrn    journal.Journal
	runID  string

	acct  Account
	books []*Book

	state runState
	index int

	daysDelta       int
	depositCounter  int
	periodicDeposit float64
	year            int

	rows []Row

	done    chan struct{}
	calcErr error
}

// NewEngine validates the run parameters and binds the series and strategy.
func NewEngine(series []*market.Series, strat Strategy, p Params) (*Engine, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: at least one market series is required", ErrConfig)
	}
	if strat == nil {
		return nil, fmt.Errorf("%w: a strategy is required", ErrConfig)
	}
	if p.Commission < 0 {
		return nil, fmt.Errorf("%w: commission must not be negative, got %v", ErrConfig, p.Commission)
	}
	if p.CommissionPercent < 0 || p.CommissionPercent > 100 {
		return nil, fmt.Errorf("%w: commission_percent must be within [0,100], got %v", ErrConfig, p.CommissionPercent)
	}
	if p.CommissionShare < 0 {
		return nil, fmt.Errorf("%w: commission_share must not be negative, got %v", ErrConfig, p.CommissionShare)
	}
	if p.InitialDeposit < 0 {
		return nil, fmt.Errorf("%w: initial_deposit must not be negative, got %v", ErrConfig, p.InitialDeposit)
	}
	if p.PeriodicDeposit < 0 {
		return nil, fmt.Errorf("%w: periodic_deposit must not be negative, got %v", ErrConfig, p.PeriodicDeposit)
	}
	if p.DepositInterval < 0 {
		return nil, fmt.Errorf("%w: deposit_interval must not be negative, got %v", ErrConfig, p.DepositInterval)
	}
	if p.Inflation < 0 || p.Inflation > 100 {
		return nil, fmt.Errorf("%w: inflation must be within [0,100], got %v", ErrConfig, p.Inflation)
	}
	if p.MarginReq < 0 {
		return nil, fmt.Errorf("%w: margin_req must not be negative, got %v", ErrConfig, p.MarginReq)
	}
	if p.MarginRec < 0 {
		return nil, fmt.Errorf("%w: margin_rec must not be negative, got %v", ErrConfig, p.MarginRec)
	}
	if p.MarginRec > p.MarginReq {
		return nil, fmt.Errorf("%w: margin_rec %v must not exceed margin_req %v", ErrConfig, p.MarginRec, p.MarginReq)
	}
	if p.Offset < 0 {
		return nil, fmt.Errorf("%w: offset must not be negative, got %v", ErrConfig, p.Offset)
	}

	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}

	e := &Engine{
		series:          series,
		strat:           strat,
		p:               p,
		log:             log,
		jrn:             p.Journal,
		runID:           id.New(),
		index:           -1,
		periodicDeposit: p.PeriodicDeposit,
	}
	e.acct.Cash = p.InitialDeposit
	e.acct.Deposits = p.InitialDeposit

	return e, nil
}

// RunID identifies this run in journal records.
func (e *Engine) RunID() string { return e.runID }

func (e *Engine) main() *market.Series { return e.series[0] }

// Setup prepares the run: symbol-count expectation, first trading year, one
// book per series, multi-symbol date alignment and the parallel technical
// precomputation. It may be called once.
func (e *Engine) Setup() error {
	if e.state != stateCreated {
		return fmt.Errorf("%w: setup has already been performed", ErrState)
	}

	if multi := len(e.series) > 1; multi != e.p.Multi {
		return fmt.Errorf("%w: %d series does not match the multi-symbol expectation %v",
			ErrConfig, len(e.series), e.p.Multi)
	}

	first, err := e.main().FirstYear()
	if err != nil {
		return err
	}
	e.year = first.Year()

	for _, s := range e.series {
		e.books = append(e.books, newBook(s, e))
	}

	if len(e.series) > 1 {
		if err := market.Align(e.series); err != nil {
			return err
		}
	}

	if err := e.precompute(); err != nil {
		return err
	}

	e.state = stateReady
	return nil
}

// precompute runs the strategy's per-symbol technical calculation, one
// goroutine per book bounded by the hardware concurrency. Books share no
// mutable state at this point, so the tasks are independent; any failure
// fails the whole setup.
func (e *Engine) precompute() error {
	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)

	errs := make([]error, len(e.books))
	var wg sync.WaitGroup

	for i, b := range e.books {
		wg.Add(1)
		go func(i int, b *Book) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			errs[i] = e.strat.Precompute(b)
		}(i, b)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return fmt.Errorf("precompute %s: %w", e.books[i].Title(), err)
		}
	}
	return nil
}

// skipped reports whether the cycle at index carries no calculation: either
// the strategy has no data for it or it falls inside the warm-up offset.
func (e *Engine) skipped(index int) bool {
	if index < 0 {
		return true
	}
	return e.strat.ShouldSkip(index) || index < e.p.Offset
}

// BeginCycle activates the cycle at index. It returns false when the cycle
// was skipped (a placeholder row is appended), true when calculation may
// proceed.
func (e *Engine) BeginCycle(index int) (bool, error) {
	switch e.state {
	case stateCreated:
		return false, fmt.Errorf("%w: setup was not run", ErrState)
	case stateFinished:
		return false, fmt.Errorf("%w: the calculation has already finished", ErrState)
	case stateActive:
		return false, fmt.Errorf("%w: cycle %d is still active", ErrState, e.index)
	}
	if index < 0 || index >= e.main().Len() {
		return false, fmt.Errorf("%w: no cycle with index %d", ErrState, index)
	}
	if index == e.index {
		return false, fmt.Errorf("%w: cycle %d was already begun", ErrState, index)
	}

	e.index = index

	if e.skipped(index) {
		e.appendPlaceholder()
		return false, nil
	}

	e.state = stateActive

	for _, b := range e.books {
		b.resetTradePrices()
	}

	if err := e.adjustDaysDelta(); err != nil {
		return false, err
	}

	e.deposit()

	for _, b := range e.books {
		b.ApplyMarginFee()
	}
	for _, b := range e.books {
		b.applyOtherBalanceChanges()
	}
	for _, b := range e.books {
		if err := b.CheckMarginRequirements(); err != nil {
			return false, err
		}
	}

	return true, nil
}

// EndCycle closes the active cycle, appending the aggregated result row, and
// flips the run to finished after the primary series' last row.
func (e *Engine) EndCycle() error {
	if e.state != stateActive {
		return fmt.Errorf("%w: no cycle is active", ErrState)
	}

	for _, b := range e.books {
		b.addResult()
	}

	row := e.result()
	e.rows = append(e.rows, row)

	if e.jrn != nil {
		err := e.jrn.RecordCycle(journal.CycleSnapshot{
			RunID:         e.runID,
			Time:          row.Date,
			TotalValue:    row.TotalValue,
			Deposits:      row.Deposits,
			Cash:          row.Cash,
			MarginUsed:    row.MarginUsed,
			TotalExpenses: row.TotalExpenses,
			TotalTrades:   row.TotalTrades,
		})
		if err != nil {
			return fmt.Errorf("record cycle: %w", err)
		}
	}

	e.state = stateReady
	if e.index+1 == e.main().Len() {
		e.state = stateFinished
	}

	return nil
}

func (e *Engine) result() Row {
	return Row{
		Date:              e.books[0].DateTime(),
		TotalValue:        e.TotalValue(),
		Deposits:          e.acct.Deposits,
		Cash:              e.acct.Cash,
		MarginUsed:        e.TotalUsedMargin(),
		OtherProfit:       e.acct.OtherProfit,
		CommissionExpense: e.acct.CommissionExpense,
		SpreadExpense:     e.acct.SpreadExpense,
		DebtExpense:       e.acct.DebtExpense,
		OtherExpense:      e.acct.OtherExpense,
		TotalExpenses:     e.acct.TotalExpenses(),
		TotalTrades:       e.acct.TotalTrades,
	}
}

func (e *Engine) appendPlaceholder() {
	e.rows = append(e.rows, Row{Date: e.books[0].DateTime(), Skipped: true})
	for _, b := range e.books {
		b.addPlaceholder()
	}
}

// adjustDaysDelta computes the day distance to the previous processed cycle
// and advances the day-driven counters.
func (e *Engine) adjustDaysDelta() error {
	e.daysDelta = 0

	prev := e.index - 1
	if !e.skipped(prev) {
		prevT, err := e.main().Time(prev)
		if err != nil {
			return err
		}
		curT, err := e.main().Time(e.index)
		if err != nil {
			return err
		}
		e.daysDelta = int(curT.Sub(prevT).Hours() / 24)
	}

	e.depositCounter += e.daysDelta
	return nil
}

// dayChanged reports whether the calendar day advanced since the previous
// cycle; two intraday cycles of the same day do not count.
func (e *Engine) dayChanged() bool { return e.daysDelta > 0 }

// deposit applies the periodic deposit when due. The deposit amount
// compounds by the inflation percent once per distinct calendar year.
func (e *Engine) deposit() {
	currentYear := 0
	if t, err := e.main().Time(e.index); err == nil {
		currentYear = t.Year()
	}

	if e.p.Inflation != 0 && currentYear != 0 && e.year != currentYear {
		e.year = currentYear
		e.periodicDeposit += e.periodicDeposit * e.p.Inflation / 100
	}

	if e.periodicDeposit != 0 && e.p.DepositInterval <= e.depositCounter {
		e.acct.addCash(e.periodicDeposit)
		e.acct.Deposits += e.periodicDeposit
		e.depositCounter = 0
	}
}

// Calculate starts the whole cycle loop in one background goroutine and
// returns immediately. There is no cancellation: once started the loop runs
// to completion or to its first failure. Calling Calculate again is a no-op.
func (e *Engine) Calculate() {
	if e.done != nil {
		return
	}
	e.done = make(chan struct{})

	go func() {
		defer close(e.done)
		e.calcErr = e.runLoop()
	}()
}

func (e *Engine) runLoop() error {
	for i := 0; i < e.main().Len(); i++ {
		ok, err := e.BeginCycle(i)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := e.strat.OnCycle(e); err != nil {
			return fmt.Errorf("cycle %d: %w", i, err)
		}
		if err := e.EndCycle(); err != nil {
			return err
		}
	}
	return nil
}

// Results blocks until the calculation signals completion or the timeout
// elapses. The background goroutine is joined either way, so no detached
// work survives this call; an elapsed timeout is reported as an error after
// the join.
func (e *Engine) Results(timeout time.Duration) (*Results, error) {
	if e.done == nil {
		return nil, fmt.Errorf("%w: the calculation was not started", ErrState)
	}

	timedOut := false
	select {
	case <-e.done:
	case <-time.After(timeout):
		timedOut = true
	}

	<-e.done

	if timedOut {
		return nil, fmt.Errorf("%w: no result within %s", ErrTimeout, timeout)
	}
	if e.calcErr != nil {
		return nil, e.calcErr
	}

	res := &Results{Rows: e.rows}
	for _, b := range e.books {
		res.Symbols = append(res.Symbols, b.result())
	}
	return res, nil
}

// IsFinished reports whether the last cycle has been processed.
func (e *Engine) IsFinished() bool { return e.state == stateFinished }

// Index returns the index of the current (or last begun) cycle.
func (e *Engine) Index() int { return e.index }

// Account returns a copy of the portfolio ledger.
func (e *Engine) Account() Account { return e.acct }

// Cash returns the current cash balance.
func (e *Engine) Cash() float64 { return e.acct.Cash }

// Book returns the ledger of the n-th symbol, in construction order.
func (e *Engine) Book(n int) (*Book, error) {
	if n < 0 || n >= len(e.books) {
		return nil, fmt.Errorf("%w: no book with index %d", ErrState, n)
	}
	return e.books[n], nil
}

// Books returns every symbol ledger in construction order.
func (e *Engine) Books() []*Book { return e.books }

func (e *Engine) Commission() float64        { return e.p.Commission }
func (e *Engine) CommissionPercent() float64 { return e.p.CommissionPercent }
func (e *Engine) CommissionShare() float64   { return e.p.CommissionShare }
func (e *Engine) MarginReq() float64         { return e.p.MarginReq }
func (e *Engine) MarginRec() float64         { return e.p.MarginRec }
func (e *Engine) Offset() int                { return e.p.Offset }

// MarginBasedOnCash is the buying power the cash balance provides at the
// recommended ratio, after the given trade fees.
func (e *Engine) MarginBasedOnCash(fees float64) float64 {
	return (e.acct.Cash - fees) * e.p.MarginRec
}

// MarginLimitBasedOnCash is the holding power the cash balance provides at
// the required ratio.
func (e *Engine) MarginLimitBasedOnCash() float64 {
	return e.acct.Cash * e.p.MarginReq
}

// TotalUsedMargin sums the used margin across every symbol.
func (e *Engine) TotalUsedMargin() float64 {
	used := 0.0
	for _, b := range e.books {
		used += b.UsedMargin()
	}
	return used
}

// TotalMarginByInstruments sums the buying power the cash-funded long
// positions provide.
func (e *Engine) TotalMarginByInstruments() float64 {
	total := 0.0
	for _, b := range e.books {
		total += b.MarginBuyingPower()
	}
	return total
}

// TotalMarginLimitByInstruments sums the holding power the cash-funded long
// positions provide.
func (e *Engine) TotalMarginLimitByInstruments() float64 {
	total := 0.0
	for _, b := range e.books {
		total += b.MarginLimit()
	}
	return total
}

// AvailableMargin is the margin buying power left after the open positions.
func (e *Engine) AvailableMargin(fees float64) float64 {
	return e.MarginBasedOnCash(fees) + e.TotalMarginByInstruments() - e.TotalUsedMargin()
}

// TotalMarginLimit is the holding power left before a margin call; negative
// means a margin call is due.
func (e *Engine) TotalMarginLimit() float64 {
	return e.MarginLimitBasedOnCash() + e.TotalMarginLimitByInstruments() - e.TotalUsedMargin()
}

// TotalBuyingPower is cash plus the available margin.
func (e *Engine) TotalBuyingPower(fees float64) float64 {
	return e.acct.Cash + e.AvailableMargin(fees)
}

// TotalValue is the cash balance plus the liquidation value of every open
// position.
func (e *Engine) TotalValue() float64 {
	value := e.acct.Cash
	for _, b := range e.books {
		value += b.TotalValue()
	}
	return value
}

const (
	actionOpen  = "OPEN"
	actionClose = "CLOSE"
	sideLong    = "LONG"
	sideShort   = "SHORT"
)

// recordTrade logs and journals one executed trade.
func (e *Engine) recordTrade(b *Book, action, side string, units int, price float64, marginCall bool, commission, spread float64) error {
	e.log.Info("trade",
		zap.String("time", b.DateTime()),
		zap.String("symbol", b.Title()),
		zap.String("action", action),
		zap.String("side", side),
		zap.Int("units", units),
		zap.Float64("price", price),
		zap.Bool("margin_call", marginCall),
		zap.Float64("cash", e.acct.Cash),
		zap.Float64("available_margin", e.AvailableMargin(0)),
	)

	if e.jrn == nil {
		return nil
	}

	err := e.jrn.RecordTrade(journal.TradeRecord{
		TradeID:    id.New(),
		RunID:      e.runID,
		Symbol:     b.Title(),
		Action:     action,
		Side:       side,
		Units:      units,
		Price:      price,
		Time:       b.DateTime(),
		MarginCall: marginCall,
		Commission: commission,
		Spread:     spread,
	})
	if err != nil {
		return fmt.Errorf("record trade: %w", err)
	}
	return nil
}
