package market

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrConfig reports invalid series construction parameters.
	ErrConfig = errors.New("market: invalid series parameters")
	// ErrData reports malformed or misaligned historical rows.
	ErrData = errors.New("market: data integrity")
)

// SeriesParams are the static per-symbol parameters a Series is built with.
type SeriesParams struct {
	Title string

	// MarginReq is the required margin ratio. If it is 0.7 and ten shares
	// priced at $100 are held, the position provides $700 of margin holding
	// power; exceeding it triggers a margin call.
	MarginReq float64

	// MarginRec is the recommended margin ratio. The engine will not open
	// margin positions beyond it, but exceeding it (up to MarginReq) does
	// not force a liquidation.
	MarginRec float64

	// Spread is the full bid/ask spread in percent of the settlement price.
	Spread float64

	// MarginFee is the annual fee on open margin positions, in percent.
	MarginFee float64

	// TrendChangePeriod is the number of cycles a disagreeing trend signal
	// must persist before it is confirmed.
	TrendChangePeriod int

	// TrendChangePercent is the quote move, in percent, that confirms a
	// disagreeing trend immediately.
	TrendChangePercent float64
}

// Series is an immutable, validated wrapper around one symbol's ordered
// historical rows plus its static parameters. It is safe to share read-only
// across goroutines; only Align (called during engine setup) rewrites rows.
type Series struct {
	rows []Quote
	p    SeriesParams
}

// NewSeries validates the rows and parameters and wraps them.
func NewSeries(rows []Quote, p SeriesParams) (*Series, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: quote rows must not be empty", ErrConfig)
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
	if p.Spread < 0 || p.Spread > 100 {
		return nil, fmt.Errorf("%w: spread must be within [0,100], got %v", ErrConfig, p.Spread)
	}
	if p.MarginFee < 0 || p.MarginFee > 100 {
		return nil, fmt.Errorf("%w: margin_fee must be within [0,100], got %v", ErrConfig, p.MarginFee)
	}
	if p.TrendChangePeriod < 0 {
		return nil, fmt.Errorf("%w: trend_change_period must not be negative, got %v", ErrConfig, p.TrendChangePeriod)
	}
	if p.TrendChangePercent < 0 {
		return nil, fmt.Errorf("%w: trend_change_percent must not be negative, got %v", ErrConfig, p.TrendChangePercent)
	}

	return &Series{rows: rows, p: p}, nil
}

func (s *Series) Title() string               { return s.p.Title }
func (s *Series) MarginReq() float64          { return s.p.MarginReq }
func (s *Series) MarginRec() float64          { return s.p.MarginRec }
func (s *Series) Spread() float64             { return s.p.Spread }
func (s *Series) MarginFee() float64          { return s.p.MarginFee }
func (s *Series) TrendChangePeriod() int      { return s.p.TrendChangePeriod }
func (s *Series) TrendChangePercent() float64 { return s.p.TrendChangePercent }

// Len returns the number of rows.
func (s *Series) Len() int { return len(s.rows) }

// Row returns the row at index i.
func (s *Series) Row(i int) Quote { return s.rows[i] }

// Time parses the timestamp of row i.
func (s *Series) Time(i int) (time.Time, error) {
	return s.rows[i].Time()
}

// FirstYear parses the first row's timestamp, typically used to seed the
// inflation year counter.
func (s *Series) FirstYear() (time.Time, error) {
	return s.rows[0].Time()
}
