package strategies

import "github.com/rustyeddy/backsim/backtest"

// Noop never trades. It is the baseline for measuring how much of a
// run's outcome comes from deposits, fees and margin charges alone.
type Noop struct{}

func (Noop) ShouldSkip(index int) bool         { return false }
func (Noop) Precompute(b *backtest.Book) error { return nil }
func (Noop) OnCycle(e *backtest.Engine) error  { return nil }
