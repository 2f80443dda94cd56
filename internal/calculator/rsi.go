package calculator

import (
	"errors"
	"fmt"
	"math"
)

// ErrInsufficientData is returned when the series is too short to warm up an indicator.
var ErrInsufficientData = errors.New("insufficient data")

// RSISeries computes the RSI for every close in the series.
//
// Gains and losses are smoothed with an exponentially weighted mean (alpha = 1/period).
// The first close has no prior change and contributes a zero gain and loss, which seeds
// both averages. A value is emitted once period observations have been seen, so the
// leading period-1 entries are NaN. Requires at least period closes.
func RSISeries(closes []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	if len(closes) < period {
		return nil, fmt.Errorf("rsi(%d) over %d closes: %w", period, len(closes), ErrInsufficientData)
	}

	out := make([]float64, len(closes))
	for i := 0; i < period-1; i++ {
		out[i] = math.NaN()
	}

	alpha := 1.0 / float64(period)
	var avgGain, avgLoss float64
	for i := range closes {
		if i > 0 {
			gain, loss := splitChange(closes[i] - closes[i-1])
			avgGain = (1-alpha)*avgGain + alpha*gain
			avgLoss = (1-alpha)*avgLoss + alpha*loss
		}
		if i >= period-1 {
			out[i] = rsiFromAverages(avgGain, avgLoss)
		}
	}
	return out, nil
}

// LatestRSI returns the most recent RSI value of the series.
func LatestRSI(closes []float64, period int) (float64, error) {
	series, err := RSISeries(closes, period)
	if err != nil {
		return 0, err
	}
	return series[len(series)-1], nil
}

func splitChange(change float64) (gain, loss float64) {
	if change > 0 {
		return change, 0
	}
	return 0, -change
}

// rsiFromAverages maps smoothed averages to 0..100.
// No losses saturates at 100; no movement at all (0/0) is treated as RS=1, i.e. 50.
func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50.0
		}
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}
