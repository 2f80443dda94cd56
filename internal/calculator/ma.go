package calculator

import "errors"

// CalculateSMA computes the simple moving average of the given prices over the specified period.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// MovingAverage returns the trailing mean over window closes. With fewer observations it
// falls back to the mean of everything available and reports degraded = true.
func MovingAverage(closes []float64, window int) (value float64, degraded bool, err error) {
	if window <= 0 {
		return 0, false, errors.New("window must be positive")
	}
	if len(closes) == 0 {
		return 0, false, ErrInsufficientData
	}
	if len(closes) < window {
		avg, _ := CalculateSMA(closes, len(closes))
		return avg, true, nil
	}
	avg, err := CalculateSMA(closes, window)
	return avg, false, err
}

// AboveMovingAverage reports whether price is strictly above the moving average.
func AboveMovingAverage(price, movingAverage float64) bool {
	return price > movingAverage
}
