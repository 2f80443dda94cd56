package scanner

import (
	"sort"

	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/model"
)

// Rank orders records best first: score, then passed count, then the more oversold
// RSI, then symbol. The input slice is sorted in place and returned.
func Rank(records []model.ScanRecord) []model.ScanRecord {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.ScorePct != b.ScorePct {
			return a.ScorePct > b.ScorePct
		}
		if a.PassedCount != b.PassedCount {
			return a.PassedCount > b.PassedCount
		}
		if a.Indicators.RSI != b.Indicators.RSI {
			return a.Indicators.RSI < b.Indicators.RSI
		}
		return a.Symbol < b.Symbol
	})
	return records
}

// Partition splits ranked records into signals and near misses, keeping rank order.
// A near miss is a non-signal whose score reaches threshold.
func Partition(ranked []model.ScanRecord, threshold float64) (signals, nearMisses []model.ScanRecord) {
	for _, r := range ranked {
		switch {
		case r.IsSignal:
			signals = append(signals, r)
		case r.TotalCount > 0 && r.ScorePct >= threshold:
			nearMisses = append(nearMisses, r)
		}
	}
	return signals, nearMisses
}
