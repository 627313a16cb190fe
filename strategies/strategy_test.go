package strategies

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/backsim/backtest"
	"github.com/rustyeddy/backsim/market"
)

func flatSeries(t *testing.T, days int, close float64) *market.Series {
	t.Helper()

	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	rows := make([]market.Quote, 0, days)
	for i := 0; i < days; i++ {
		rows = append(rows, market.Quote{
			DateTime: start.AddDate(0, 0, i).Format(market.TimeLayout),
			Open:     close,
			High:     close,
			Low:      close,
			Close:    close,
		})
	}

	s, err := market.NewSeries(rows, market.SeriesParams{Title: "TEST"})
	require.NoError(t, err)
	return s
}

func TestByName(t *testing.T) {
	for _, name := range []string{"noop", "buy-and-hold", "ma-cross"} {
		s, err := ByName(name)
		require.NoError(t, err)
		assert.NotNil(t, s)
	}

	_, err := ByName("nope")
	assert.Error(t, err)
}

func TestNoopKeepsCash(t *testing.T) {
	e, err := backtest.NewEngine(
		[]*market.Series{flatSeries(t, 10, 50)},
		Noop{},
		backtest.Params{InitialDeposit: 1000},
	)
	require.NoError(t, err)
	require.NoError(t, e.Setup())

	e.Calculate()
	res, err := e.Results(5 * time.Second)
	require.NoError(t, err)

	assert.Equal(t, 1000.0, e.Cash())
	assert.Equal(t, 0, e.Account().TotalTrades)
	require.Len(t, res.Rows, 10)
	assert.Equal(t, 1000.0, res.Rows[9].TotalValue)
}

func TestBuyAndHoldGoesAllIn(t *testing.T) {
	e, err := backtest.NewEngine(
		[]*market.Series{flatSeries(t, 10, 50)},
		&BuyAndHold{},
		backtest.Params{InitialDeposit: 1000},
	)
	require.NoError(t, err)
	require.NoError(t, e.Setup())

	e.Calculate()
	res, err := e.Results(5 * time.Second)
	require.NoError(t, err)

	b, err := e.Book(0)
	require.NoError(t, err)

	// 1000 / 50 buys 20 shares on day one, nothing after.
	assert.Equal(t, 20, b.MaxPositions())
	assert.Equal(t, 1, e.Account().TotalTrades)
	assert.Equal(t, 0.0, e.Cash())
	assert.Equal(t, 1000.0, res.Rows[9].TotalValue)
}
