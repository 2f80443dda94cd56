package model

// Indicators holds the technical values derived from one ticker's price series.
type Indicators struct {
	RSI                float64 `json:"rsi"`
	RSIPeriod          int     `json:"rsi_period"`
	MovingAverage      float64 `json:"moving_average"`
	MAWindow           int     `json:"ma_window"`
	MADegraded         bool    `json:"ma_degraded"` // fewer observations than MAWindow
	AboveMovingAverage bool    `json:"above_moving_average"`
	High52w            float64 `json:"high_52w"`
	Low52w             float64 `json:"low_52w"`
	Position52w        float64 `json:"position_52w"` // 0.0 ~ 1.0
}
