package strategies

import (
	"math"

	"github.com/rustyeddy/backsim/backtest"
	"github.com/rustyeddy/backsim/indicators"
)

// Tech dataset slots attached by Precompute, in order.
const (
	slotFast = iota
	slotSlow
)

// MACross goes long while the fast moving average sits above the slow one
// and short while it sits below. Crossovers are debounced through the book's
// trend detector, so a flip only executes once it persists for the series'
// configured period or moves by its configured percent.
type MACross struct {
	Fast int
	Slow int
}

func (s *MACross) ShouldSkip(index int) bool { return index < s.Slow }

func (s *MACross) Precompute(b *backtest.Book) error {
	closes := make([]float64, b.Series().Len())
	for i := range closes {
		closes[i] = b.Series().Row(i).Close
	}

	fast, err := indicators.SMA(closes, s.Fast)
	if err != nil {
		return err
	}
	slow, err := indicators.SMA(closes, s.Slow)
	if err != nil {
		return err
	}

	b.AppendTech(fast)
	b.AppendTech(slow)
	return nil
}

func (s *MACross) OnCycle(e *backtest.Engine) error {
	for _, b := range e.Books() {
		fast, ok := b.TechVal(slotFast, 0)
		if !ok || math.IsNaN(fast) {
			continue
		}
		slow, ok := b.TechVal(slotSlow, 0)
		if !ok || math.IsNaN(slow) {
			continue
		}

		isUptrend := fast > slow
		if !b.TrendChanged(isUptrend) {
			continue
		}

		if err := b.CloseAll(); err != nil {
			return err
		}
		if isUptrend {
			if err := b.OpenLong(b.MaxShares()); err != nil {
				return err
			}
		} else {
			if err := b.OpenShort(b.MaxSharesShort()); err != nil {
				return err
			}
		}
	}
	return nil
}
