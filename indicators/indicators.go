// Package indicators provides technical analysis calculations over quote
// series, shaped for strategy precomputation: each function returns one value
// per input row so the result can be attached to a book as a dataset.
package indicators

import (
	"fmt"
	"math"
)

// SMA returns the simple moving average of values for the given period. The
// first period-1 slots carry NaN; callers are expected to skip the warm-up
// range.
func SMA(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(values) < period {
		return nil, fmt.Errorf("not enough values: need %d, got %d", period, len(values))
	}

	out := make([]float64, len(values))
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		} else {
			out[i] = math.NaN()
		}
	}
	return out, nil
}

// EMA returns the exponential moving average of values for the given period,
// seeded with the SMA of the first period values. The first period-1 slots
// carry NaN.
func EMA(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(values) < period {
		return nil, fmt.Errorf("not enough values: need %d, got %d", period, len(values))
	}

	out := make([]float64, len(values))

	seed := 0.0
	for i := 0; i < period; i++ {
		seed += values[i]
		out[i] = math.NaN()
	}
	ema := seed / float64(period)
	out[period-1] = ema

	multiplier := 2.0 / float64(period+1)
	for i := period; i < len(values); i++ {
		ema = (values[i]-ema)*multiplier + ema
		out[i] = ema
	}
	return out, nil
}
