package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dailyQuotes(start time.Time, closes ...float64) []Quote {
	rows := make([]Quote, 0, len(closes))
	for i, c := range closes {
		rows = append(rows, Quote{
			DateTime: start.AddDate(0, 0, i).Format(TimeLayout),
			Open:     c,
			High:     c,
			Low:      c,
			Close:    c,
		})
	}
	return rows
}

func TestNewSeriesValidation(t *testing.T) {
	rows := dailyQuotes(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), 10, 11)

	tests := []struct {
		name string
		rows []Quote
		p    SeriesParams
	}{
		{"empty rows", nil, SeriesParams{}},
		{"negative margin req", rows, SeriesParams{MarginReq: -1}},
		{"negative margin rec", rows, SeriesParams{MarginRec: -0.5}},
		{"rec above req", rows, SeriesParams{MarginReq: 0.5, MarginRec: 1}},
		{"spread out of range", rows, SeriesParams{Spread: 101}},
		{"negative spread", rows, SeriesParams{Spread: -0.1}},
		{"margin fee out of range", rows, SeriesParams{MarginFee: 200}},
		{"negative trend period", rows, SeriesParams{TrendChangePeriod: -1}},
		{"negative trend percent", rows, SeriesParams{TrendChangePercent: -5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSeries(tt.rows, tt.p)
			assert.ErrorIs(t, err, ErrConfig)
		})
	}
}

func TestSeriesAccessors(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	s, err := NewSeries(dailyQuotes(start, 10, 11, 12), SeriesParams{
		Title:     "SPY",
		MarginReq: 1,
		MarginRec: 0.5,
		Spread:    0.2,
		MarginFee: 12,
	})
	require.NoError(t, err)

	assert.Equal(t, "SPY", s.Title())
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 11.0, s.Row(1).Close)
	assert.Equal(t, 0.2, s.Spread())

	got, err := s.Time(2)
	require.NoError(t, err)
	assert.Equal(t, start.AddDate(0, 0, 2), got)

	first, err := s.FirstYear()
	require.NoError(t, err)
	assert.Equal(t, 2024, first.Year())
}

func TestQuoteTimeBadTimestamp(t *testing.T) {
	q := Quote{DateTime: "not-a-date"}
	_, err := q.Time()
	assert.ErrorIs(t, err, ErrData)
}
