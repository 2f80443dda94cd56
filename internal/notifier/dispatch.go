package notifier

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/metrics"
	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/model"
)

// Delivery outcomes, also used as the metrics "result" label.
const (
	StatusSent          = "sent"
	StatusNoSignals     = "no_signals"
	StatusNotConfigured = "not_configured"
	StatusFailed        = "failed"
)

// Delivery is the outcome of one sink.
type Delivery struct {
	Sink   string
	Status string
	Err    error
}

// Dispatch sends the signals of res to every configured sink, once, after the run.
// Nothing is sent when there are no signals. Unconfigured sinks are an intentional
// skip. Delivery failures are logged and reported, never returned as a run error.
func Dispatch(ctx context.Context, log *zap.Logger, m *metrics.Metrics, subject string,
	res *model.ScanResult, sinks ...Notifier) []Delivery {
	out := make([]Delivery, 0, len(sinks))
	for _, s := range sinks {
		d := Delivery{Sink: s.Name()}
		switch {
		case len(res.Signals) == 0:
			d.Status = StatusNoSignals
		case !s.Configured():
			d.Status = StatusNotConfigured
			log.Info("notifier not configured, skipping", zap.String("sink", s.Name()))
		default:
			err := s.Send(ctx, subject, res.Signals)
			switch {
			case err == nil:
				d.Status = StatusSent
				log.Info("notification sent",
					zap.String("sink", s.Name()),
					zap.Int("signals", len(res.Signals)))
			case errors.Is(err, ErrNotConfigured):
				d.Status = StatusNotConfigured
			default:
				d.Status = StatusFailed
				d.Err = err
				log.Error("notification delivery failed", zap.String("sink", s.Name()), zap.Error(err))
			}
		}
		m.RecordNotification(d.Sink, d.Status)
		out = append(out, d)
	}
	return out
}
