package notifier

import (
	"time"

	"github.com/google/uuid"

	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/model"
)

var scanTime = time.Date(2026, 3, 9, 21, 30, 0, 0, time.UTC)

func signalRecord() model.ScanRecord {
	f := model.Float
	return model.ScanRecord{
		Symbol: "JNJ",
		Name:   "Johnson & Johnson",
		Sector: "Healthcare",
		Price:  152.34,
		Indicators: model.Indicators{
			RSI: 24.56, RSIPeriod: 14, MovingAverage: 148.2, MAWindow: 200, AboveMovingAverage: true,
			High52w: 171.1, Low52w: 140.5, Position52w: 0.387,
		},
		Fundamentals: model.Fundamentals{
			Name: "Johnson & Johnson", Sector: "Healthcare",
			TrailingPE: f(15.8), PriceToBook: f(2.9), ReturnOnEquity: f(0.193), DebtToEquity: f(45),
		},
		FCFYield: f(4.7),
		Evaluation: model.Evaluation{
			Verdicts: []model.RuleVerdict{
				{Name: "rsi_oversold", Label: "RSI < 30", Active: true, Passed: true},
				{Name: "trend", Label: "Price > MA", Active: true, Passed: true},
				{Name: "asset_value_pb", Label: "P/B <= 3", Active: true, Passed: true},
			},
			PassedCount: 3, TotalCount: 3, ScorePct: 1, IsSignal: true,
		},
	}
}

func nearMissRecord() model.ScanRecord {
	r := signalRecord()
	r.Symbol, r.Name = "KO", "Coca-Cola"
	r.Fundamentals.DebtToEquity = model.Float(160)
	r.Evaluation = model.Evaluation{
		PassedCount: 5, TotalCount: 6, ScorePct: 5.0 / 6, Reasons: []string{"D/E 160% > 100%"},
	}
	return r
}

func sampleResult() *model.ScanResult {
	return &model.ScanResult{
		RunID:          uuid.MustParse("5b1f0e5c-4a1d-4c8e-9f3e-7a2d1c0b9e88"),
		RuleSetVersion: "value-dip-v2",
		StartedAt:      scanTime,
		FinishedAt:     scanTime.Add(3 * time.Second),
		Universe:       4,
		Ranked:         []model.ScanRecord{signalRecord(), nearMissRecord()},
		Signals:        []model.ScanRecord{signalRecord()},
		NearMisses:     []model.ScanRecord{nearMissRecord()},
		Skipped: []model.SkipRecord{
			{Symbol: "DELIST", Kind: model.SkipDataUnavailable, Reason: "data unavailable: empty price history"},
			{Symbol: "TIMEOUT", Kind: model.SkipProviderError, Reason: "provider failure: upstream timeout"},
		},
	}
}
