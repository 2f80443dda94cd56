package model

import "errors"

var (
	// ErrDataUnavailable means the provider returned no history or too little to warm up the RSI.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrProviderFailure means the provider call itself failed (network, rate limit, unknown symbol).
	ErrProviderFailure = errors.New("provider failure")
)
