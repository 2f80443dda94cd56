package cache

import (
	"context"

	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/model"
)

// Cache keeps recent fundamentals snapshots so repeated scans within the TTL
// do not hit the provider again. Price history is never cached.
type Cache interface {
	// GetFundamentals returns the cached snapshot and true, or false when the entry
	// is absent or older than the TTL.
	GetFundamentals(ctx context.Context, symbol string) (*model.Fundamentals, bool, error)
	PutFundamentals(ctx context.Context, symbol string, f *model.Fundamentals) error
	Close() error
}
