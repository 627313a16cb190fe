package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadQuotesCSV reads quote rows from a headered CSV file. Recognized columns
// (case-insensitive): datetime, open, high, low, close, adjclose, volume,
// dividend, split. datetime and close (or adjclose) are required; adjclose
// takes precedence over close as the settlement price. Rows are returned in
// file order.
func LoadQuotesCSV(path string) ([]Quote, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open quotes file: %w", err)
	}
	defer f.Close()

	return ReadQuotes(f)
}

// ReadQuotes parses quote rows from headered CSV data.
func ReadQuotes(r io.Reader) ([]Quote, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: missing CSV header: %v", ErrData, err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := col["datetime"]; !ok {
		return nil, fmt.Errorf("%w: CSV header has no datetime column", ErrData)
	}
	closeCol, ok := col["adjclose"]
	if !ok {
		if closeCol, ok = col["close"]; !ok {
			return nil, fmt.Errorf("%w: CSV header has no close or adjclose column", ErrData)
		}
	}

	field := func(rec []string, name string) (float64, error) {
		i, ok := col[name]
		if !ok || i >= len(rec) || rec[i] == "" {
			return 0, nil
		}
		v, err := strconv.ParseFloat(rec[i], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: bad %s value %q: %v", ErrData, name, rec[i], err)
		}
		return v, nil
	}

	var quotes []Quote
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: CSV line %d: %v", ErrData, line, err)
		}

		q := Quote{DateTime: rec[col["datetime"]]}
		if q.Close, err = strconv.ParseFloat(rec[closeCol], 64); err != nil {
			return nil, fmt.Errorf("%w: bad close value %q on line %d: %v", ErrData, rec[closeCol], line, err)
		}
		if q.Open, err = field(rec, "open"); err != nil {
			return nil, err
		}
		if q.High, err = field(rec, "high"); err != nil {
			return nil, err
		}
		if q.Low, err = field(rec, "low"); err != nil {
			return nil, err
		}
		if q.Volume, err = field(rec, "volume"); err != nil {
			return nil, err
		}
		if q.Dividend, err = field(rec, "dividend"); err != nil {
			return nil, err
		}
		if q.Split, err = field(rec, "split"); err != nil {
			return nil, err
		}

		quotes = append(quotes, q)
	}

	if len(quotes) == 0 {
		return nil, fmt.Errorf("%w: no quote rows", ErrData)
	}

	return quotes, nil
}
