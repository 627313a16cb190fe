package strategies

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backsim/backtest"
	"github.com/rustyeddy/backsim/market"
)

func closesSeries(t *testing.T, p market.SeriesParams, closes ...float64) *market.Series {
	t.Helper()

	if p.Title == "" {
		p.Title = "X"
	}

	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	rows := make([]market.Quote, 0, len(closes))
	for i, c := range closes {
		rows = append(rows, market.Quote{
			DateTime: start.AddDate(0, 0, i).Format(market.TimeLayout),
			Close:    c,
		})
	}

	s, err := market.NewSeries(rows, p)
	require.NoError(t, err)
	return s
}

func TestMACrossFlipsWithTrend(t *testing.T) {
	// Flat, then a rally, then a slide: one long entry, one flip to short.
	s := closesSeries(t, market.SeriesParams{MarginReq: 1.0, MarginRec: 0.5},
		10, 10, 10, 12, 14, 16, 14, 12, 10)

	e, err := backtest.NewEngine(
		[]*market.Series{s},
		&MACross{Fast: 2, Slow: 3},
		backtest.Params{
			InitialDeposit: 1000,
			MarginReq:      2.0,
			MarginRec:      1.0,
		},
	)
	require.NoError(t, err)
	require.NoError(t, e.Setup())

	e.Calculate()
	res, err := e.Results(5 * time.Second)
	require.NoError(t, err)

	b, err := e.Book(0)
	require.NoError(t, err)

	assert.Equal(t, 0, b.LongPositions())
	assert.Greater(t, b.ShortPositions(), 0)
	assert.GreaterOrEqual(t, e.Account().TotalTrades, 3)

	// Warm-up rows are skipped, everything after is calculated.
	require.Len(t, res.Rows, 9)
	assert.True(t, res.Rows[2].Skipped)
	assert.False(t, res.Rows[3].Skipped)
}

func TestMACrossTooFewRows(t *testing.T) {
	s := closesSeries(t, market.SeriesParams{}, 10, 10)

	e, err := backtest.NewEngine(
		[]*market.Series{s},
		&MACross{Fast: 2, Slow: 3},
		backtest.Params{InitialDeposit: 1000},
	)
	require.NoError(t, err)

	// Precompute needs at least Slow rows.
	assert.Error(t, e.Setup())
}
