package cache

import (
	"context"

	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/model"
)

// NoopCache is used when no SQLite path is configured. Every lookup misses.
type NoopCache struct{}

func NewNoopCache() *NoopCache { return &NoopCache{} }

func (n *NoopCache) GetFundamentals(_ context.Context, _ string) (*model.Fundamentals, bool, error) {
	return nil, false, nil
}
func (n *NoopCache) PutFundamentals(_ context.Context, _ string, _ *model.Fundamentals) error {
	return nil
}
func (n *NoopCache) Close() error { return nil }
