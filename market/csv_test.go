package market

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadQuotes(t *testing.T) {
	data := `datetime,open,high,low,close,volume,dividend,split
2024-01-02 00:00:00,100,102,99,101,12345,0,0
2024-01-03 00:00:00,101,103,100,102.5,23456,0.5,0
`
	quotes, err := ReadQuotes(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, quotes, 2)

	assert.Equal(t, "2024-01-02 00:00:00", quotes[0].DateTime)
	assert.Equal(t, 101.0, quotes[0].Close)
	assert.Equal(t, 99.0, quotes[0].Low)
	assert.Equal(t, 0.5, quotes[1].Dividend)
}

func TestReadQuotesPrefersAdjClose(t *testing.T) {
	data := `datetime,close,adjclose
2024-01-02 00:00:00,100,98.7
`
	quotes, err := ReadQuotes(strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 98.7, quotes[0].Close)
}

func TestReadQuotesCaseInsensitiveHeader(t *testing.T) {
	data := `DateTime,Close
2024-01-02 00:00:00,100
`
	quotes, err := ReadQuotes(strings.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 100.0, quotes[0].Close)
}

func TestReadQuotesErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty input", ""},
		{"no datetime column", "open,close\n1,2\n"},
		{"no close column", "datetime,open\n2024-01-02 00:00:00,1\n"},
		{"bad close value", "datetime,close\n2024-01-02 00:00:00,abc\n"},
		{"bad optional value", "datetime,close,volume\n2024-01-02 00:00:00,1,xyz\n"},
		{"header only", "datetime,close\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadQuotes(strings.NewReader(tt.data))
			assert.ErrorIs(t, err, ErrData)
		})
	}
}
