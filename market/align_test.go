package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seriesWithDates(t *testing.T, title string, dates ...string) *Series {
	t.Helper()

	rows := make([]Quote, 0, len(dates))
	for _, d := range dates {
		rows = append(rows, Quote{DateTime: d + " 00:00:00", Close: 1})
	}
	s, err := NewSeries(rows, SeriesParams{Title: title})
	require.NoError(t, err)
	return s
}

func dates(s *Series) []string {
	out := make([]string, 0, s.Len())
	for i := 0; i < s.Len(); i++ {
		out = append(out, s.Row(i).DateTime)
	}
	return out
}

func TestAlignSingleSeriesNoop(t *testing.T) {
	s := seriesWithDates(t, "A", "2024-01-02", "2024-01-03")
	require.NoError(t, Align([]*Series{s}))
	assert.Equal(t, 2, s.Len())
}

func TestAlignRemovesUnsharedDates(t *testing.T) {
	a := seriesWithDates(t, "A", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05")
	b := seriesWithDates(t, "B", "2024-01-02", "2024-01-04", "2024-01-05", "2024-01-08")
	c := seriesWithDates(t, "C", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05")

	require.NoError(t, Align([]*Series{a, b, c}))

	want := []string{"2024-01-02 00:00:00", "2024-01-04 00:00:00", "2024-01-05 00:00:00"}
	assert.Equal(t, want, dates(a))
	assert.Equal(t, want, dates(b))
	assert.Equal(t, want, dates(c))
}

func TestAlignNoSharedDates(t *testing.T) {
	a := seriesWithDates(t, "A", "2024-01-02")
	b := seriesWithDates(t, "B", "2024-01-03")

	require.NoError(t, Align([]*Series{a, b}))
	assert.Equal(t, 0, a.Len())
	assert.Equal(t, 0, b.Len())
}

func TestAlignDetectsDuplicateRows(t *testing.T) {
	// A duplicated timestamp survives the intersection in one series only,
	// so the row-by-row check must reject it.
	a := seriesWithDates(t, "A", "2024-01-02", "2024-01-02", "2024-01-03")
	b := seriesWithDates(t, "B", "2024-01-02", "2024-01-03")

	err := Align([]*Series{a, b})
	assert.ErrorIs(t, err, ErrData)
}

func TestAlignPreservesOrderWithin(t *testing.T) {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	a, err := NewSeries(dailyQuotes(start, 10, 11, 12), SeriesParams{Title: "A"})
	require.NoError(t, err)
	b, err := NewSeries(dailyQuotes(start, 20, 21, 22), SeriesParams{Title: "B"})
	require.NoError(t, err)

	require.NoError(t, Align([]*Series{a, b}))

	assert.Equal(t, 10.0, a.Row(0).Close)
	assert.Equal(t, 22.0, b.Row(2).Close)
}
