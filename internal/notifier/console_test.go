package notifier

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/model"
	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/strategy"
)

func TestConsoleReporter_Report(t *testing.T) {
	var buf bytes.Buffer
	r := NewConsoleReporter(&buf, strategy.Build(strategy.DefaultOptions()), false)

	require.NoError(t, r.Report(context.Background(), sampleResult()))
	out := buf.String()

	assert.Contains(t, out, "Run: 5b1f0e5c-4a1d-4c8e-9f3e-7a2d1c0b9e88")
	assert.Contains(t, out, "Rules: value-dip-v2")
	assert.Contains(t, out, "  - RSI < 30\n")
	assert.Contains(t, out, "SUMMARY: 1 signal(s), 1 near miss(es) out of 4 stocks (2 skipped)")
	assert.Contains(t, out, "SIGNALS TRIGGERED:")
	assert.Contains(t, out, "JNJ")
	assert.Contains(t, out, "NEAR MISSES:")
	assert.Contains(t, out, "160%")
	assert.Contains(t, out, "SKIPPED:")
	assert.Contains(t, out, "DELIST")
	assert.Contains(t, out, "data_unavailable")
	assert.NotContains(t, out, "FULL RANKING:")
	assert.Contains(t, out, disclaimer)
}

func TestConsoleReporter_NoSignals(t *testing.T) {
	var buf bytes.Buffer
	res := sampleResult()
	res.Signals = nil
	res.NearMisses = nil
	res.Skipped = nil

	require.NoError(t, NewConsoleReporter(&buf, strategy.RuleSet{}, true).Report(context.Background(), res))
	out := buf.String()

	assert.Contains(t, out, "No signals today.")
	assert.NotContains(t, out, "Criteria:")
	assert.NotContains(t, out, "SKIPPED:")
	assert.Contains(t, out, "FULL RANKING:")
}

func TestConsoleReporter_EmptyRun(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewConsoleReporter(&buf, strategy.RuleSet{}, true).Report(context.Background(), &model.ScanResult{}))
	assert.Contains(t, buf.String(), "SUMMARY: 0 signal(s), 0 near miss(es) out of 0 stocks (0 skipped)")
}

func TestConsoleReporter_ShowsEvaluatedPE(t *testing.T) {
	res := sampleResult()
	res.NearMisses, res.Skipped = nil, nil
	res.Signals[0].Fundamentals.ForwardPE = model.Float(21.4)

	var trailing bytes.Buffer
	require.NoError(t, NewConsoleReporter(&trailing, strategy.Build(strategy.DefaultOptions()), false).
		Report(context.Background(), res))
	assert.Contains(t, trailing.String(), "15.80")
	assert.NotContains(t, trailing.String(), "21.40")

	buffett, err := strategy.Preset(strategy.PresetBuffett)
	require.NoError(t, err)
	var forward bytes.Buffer
	require.NoError(t, NewConsoleReporter(&forward, strategy.Build(buffett), false).
		Report(context.Background(), res))
	assert.Contains(t, forward.String(), "Forward P/E <= 25")
	assert.Contains(t, forward.String(), "21.40")
	assert.NotContains(t, forward.String(), "15.80")
}

type failingTable struct {
	appendErr, renderErr error
}

func (f failingTable) Header(...any)       {}
func (f failingTable) Append(...any) error { return f.appendErr }
func (f failingTable) Render() error       { return f.renderErr }

func TestConsoleReporter_PropagatesTableErrors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name  string
		table failingTable
		want  string
	}{
		{"render", failingTable{renderErr: boom}, "render signal table"},
		{"append", failingTable{appendErr: boom}, "append row JNJ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewConsoleReporter(io.Discard, strategy.RuleSet{}, false)
			r.newTable = func(io.Writer) table { return tt.table }

			err := r.Report(context.Background(), sampleResult())
			require.Error(t, err)
			assert.ErrorIs(t, err, boom)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestTruncate_MultiByte(t *testing.T) {
	assert.Equal(t, "Nestlé", truncate("Nestlé", 6))
	assert.Equal(t, "Nestlé...", truncate("Nestlé S.A.", 6))
	got := truncate("日本語の理由がとても長い", 3)
	assert.Equal(t, "日本語...", got)
	assert.True(t, utf8.ValidString(got))
}
