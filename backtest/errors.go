package backtest

import "errors"

var (
	// ErrConfig reports invalid engine construction parameters.
	ErrConfig = errors.New("backtest: invalid configuration")

	// ErrTrading reports an order the ledger cannot honor: opening beyond
	// available cash/margin, closing more than is open, or holding long and
	// short simultaneously. These are strategy programming errors and abort
	// the run; sizes are never silently clamped.
	ErrTrading = errors.New("backtest: trading error")

	// ErrState reports a call that does not fit the engine's lifecycle:
	// setup run twice, a cycle begun before setup, a repeated cycle, or
	// stepping a finished run.
	ErrState = errors.New("backtest: invalid engine state")

	// ErrTimeout reports that Results gave up waiting for the cycle loop.
	ErrTimeout = errors.New("backtest: calculation timed out")
)
