package strategies

import "github.com/rustyeddy/backsim/backtest"

// BuyAndHold opens as many long positions as the account allows on the
// first instrument, every cycle, and never sells. Once the cash and
// margin buying power are exhausted MaxShares drops to zero and the
// strategy holds for the rest of the run.
type BuyAndHold struct{}

func (*BuyAndHold) ShouldSkip(index int) bool         { return false }
func (*BuyAndHold) Precompute(b *backtest.Book) error { return nil }

func (*BuyAndHold) OnCycle(e *backtest.Engine) error {
	b, err := e.Book(0)
	if err != nil {
		return err
	}
	return b.OpenLong(b.MaxShares())
}
