package calculator

import (
	"fmt"

	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/model"
)

// Params selects the lookbacks used by Compute.
type Params struct {
	RSIPeriod int
	MAWindow  int
}

// DefaultParams are RSI(14) and a 200-day moving average.
var DefaultParams = Params{RSIPeriod: 14, MAWindow: 200}

// Compute derives all indicators for one ticker. A series too short for the RSI
// warm-up returns ErrInsufficientData and the ticker must not be scored.
func Compute(series model.PriceSeries, p Params) (model.Indicators, error) {
	closes := series.Closes()

	rsi, err := LatestRSI(closes, p.RSIPeriod)
	if err != nil {
		return model.Indicators{}, err
	}

	ma, degraded, err := MovingAverage(closes, p.MAWindow)
	if err != nil {
		return model.Indicators{}, fmt.Errorf("moving average: %w", err)
	}

	price := series.Last()
	ind := model.Indicators{
		RSI:                rsi,
		RSIPeriod:          p.RSIPeriod,
		MovingAverage:      ma,
		MAWindow:           p.MAWindow,
		MADegraded:         degraded,
		AboveMovingAverage: AboveMovingAverage(price, ma),
	}

	// Range only feeds the report; it cannot fail on a non-empty series.
	ind.High52w, ind.Low52w, _ = Calculate52WeekRange(closes)
	ind.Position52w, _ = Calculate52WeekPosition(price, ind.High52w, ind.Low52w)
	return ind, nil
}
