package backtest

// Strategy is the set of hooks a concrete trading strategy plugs into the
// engine. The engine owns the cycle loop; the strategy only decides.
type Strategy interface {
	// ShouldSkip reports whether the cycle at index carries no usable data
	// for the strategy (e.g. indicator warm-up). Skipped cycles still emit a
	// placeholder result row.
	ShouldSkip(index int) bool

	// Precompute calculates the strategy's technical data for one symbol
	// book before the simulation starts. It may run concurrently with other
	// books' precomputation and must only touch the given book.
	Precompute(b *Book) error

	// OnCycle runs the per-cycle decision logic. It is called once per
	// non-skipped cycle, between BeginCycle and EndCycle, and issues
	// open/close calls against the books it chooses.
	OnCycle(e *Engine) error
}
