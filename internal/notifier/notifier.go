package notifier

import (
	"context"
	"errors"

	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/model"
)

var (
	// ErrDelivery wraps any failure of a configured sink to deliver.
	ErrDelivery = errors.New("notification delivery failed")
	// ErrNotConfigured marks a sink that was intentionally left unconfigured.
	ErrNotConfigured = errors.New("notifier not configured")
)

// Notifier delivers the signals of a run to one channel.
type Notifier interface {
	Send(ctx context.Context, subject string, records []model.ScanRecord) error
	Name() string
	Configured() bool
}
