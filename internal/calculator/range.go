package calculator

import (
	"errors"
	"math"
)

const tradingDaysPerYear = 252

// Calculate52WeekRange scans the most recent 252 closes and returns the high and low.
func Calculate52WeekRange(closes []float64) (high, low float64, err error) {
	if len(closes) == 0 {
		return 0, 0, errors.New("no closes provided")
	}
	start := max(len(closes)-tradingDaysPerYear, 0)
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, c := range closes[start:] {
		high = math.Max(high, c)
		low = math.Min(low, c)
	}
	return high, low, nil
}

// Calculate52WeekPosition returns where the current price sits within the 52-week range (0.0~1.0).
func Calculate52WeekPosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	return math.Min(math.Max(pos, 0), 1), nil
}
