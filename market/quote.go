package market

import (
	"fmt"
	"time"
)

// TimeLayout is the timestamp format quote rows carry.
const TimeLayout = "2006-01-02 15:04:05"

// Quote is one historical row for a symbol. Rows are expected to arrive
// already sorted ascending by DateTime; nothing here sorts them.
type Quote struct {
	DateTime string
	Open     float64
	High     float64
	Low      float64
	Close    float64 // settlement price used for valuation
	Volume   float64
	Dividend float64 // payout per share on this row, 0 if none
	Split    float64 // split ratio, 1 or 0 if none
}

// Time parses the row timestamp.
func (q Quote) Time() (time.Time, error) {
	t, err := time.Parse(TimeLayout, q.DateTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad timestamp %q: %v", ErrData, q.DateTime, err)
	}
	return t, nil
}
