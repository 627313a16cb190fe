package market

import "fmt"

// Align synchronizes multiple series onto a shared time axis. Any timestamp
// not present in every series is removed from all of them (two passes:
// collect, then delete). Afterwards the surviving rows must line up strictly
// one to one; a mismatch is a data-integrity error.
//
// With fewer than two series Align is a no-op.
func Align(series []*Series) error {
	if len(series) < 2 {
		return nil
	}

	// Pass 1: timestamps present in every series.
	shared := make(map[string]int, series[0].Len())
	for _, q := range series[0].rows {
		shared[q.DateTime]++
	}
	for _, s := range series[1:] {
		seen := make(map[string]bool, s.Len())
		for _, q := range s.rows {
			seen[q.DateTime] = true
		}
		for dt := range shared {
			if !seen[dt] {
				delete(shared, dt)
			}
		}
	}

	// Pass 2: drop rows outside the shared axis.
	for _, s := range series {
		kept := s.rows[:0]
		for _, q := range s.rows {
			if _, ok := shared[q.DateTime]; ok {
				kept = append(kept, q)
			}
		}
		s.rows = kept
	}

	// Post-alignment the axes must match row by row.
	main := series[0]
	for _, s := range series[1:] {
		if s.Len() != main.Len() {
			return fmt.Errorf("%w: %s has %d rows after alignment, %s has %d",
				ErrData, main.Title(), main.Len(), s.Title(), s.Len())
		}
		for i := range main.rows {
			if s.rows[i].DateTime != main.rows[i].DateTime {
				return fmt.Errorf("%w: date mismatch at index %d: %s of %s != %s of %s",
					ErrData, i, main.rows[i].DateTime, main.Title(), s.rows[i].DateTime, s.Title())
			}
		}
	}

	return nil
}
