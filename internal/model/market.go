package model

import "time"

// PricePoint is a single daily close.
type PricePoint struct {
	Time  time.Time
	Close float64
}

// PriceSeries holds the close history of one ticker, oldest first.
type PriceSeries struct {
	Symbol    string
	Points    []PricePoint
	FetchedAt time.Time
}

// Closes returns the close prices in chronological order.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Points))
	for i, p := range s.Points {
		closes[i] = p.Close
	}
	return closes
}

// Last returns the most recent close, or 0 for an empty series.
func (s PriceSeries) Last() float64 {
	if len(s.Points) == 0 {
		return 0
	}
	return s.Points[len(s.Points)-1].Close
}

// Len returns the number of observations.
func (s PriceSeries) Len() int { return len(s.Points) }
