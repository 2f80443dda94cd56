package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/model"
)

func rec(symbol string, passed, total int, rsi float64) model.ScanRecord {
	r := model.ScanRecord{Symbol: symbol, Indicators: model.Indicators{RSI: rsi}}
	r.PassedCount, r.TotalCount = passed, total
	if total > 0 {
		r.ScorePct = float64(passed) / float64(total)
	}
	r.IsSignal = passed == total && total >= 3
	return r
}

func TestRank(t *testing.T) {
	records := []model.ScanRecord{
		rec("ZZZ", 4, 6, 20),
		rec("BBB", 5, 5, 28),
		rec("AAA", 6, 6, 28),
		rec("CCC", 5, 6, 25),
		rec("DDD", 5, 6, 22),
		rec("EEE", 5, 6, 22),
		rec("NIL", 0, 0, 10),
	}
	got := Rank(records)
	assert.Equal(t, []string{"AAA", "BBB", "DDD", "EEE", "CCC", "ZZZ", "NIL"}, symbols(got))
}

func TestPartition(t *testing.T) {
	ranked := Rank([]model.ScanRecord{
		rec("SIG", 6, 6, 20),
		rec("NEAR", 5, 6, 24),
		rec("EDGE", 4, 5, 26),
		rec("FAR", 3, 6, 40),
		rec("FEW", 2, 2, 20), // full pass but below the active-rule floor
	})

	signals, near := Partition(ranked, 0.8)
	assert.Equal(t, []string{"SIG"}, symbols(signals))
	assert.Equal(t, []string{"FEW", "NEAR", "EDGE"}, symbols(near))

	_, near = Partition(ranked, 0.9)
	assert.Equal(t, []string{"FEW"}, symbols(near))
}

func TestFCFYield(t *testing.T) {
	f := model.Fundamentals{FreeCashflow: model.Float(5e9), MarketCap: model.Float(100e9)}
	y := FCFYield(f)
	require.NotNil(t, y)
	assert.Equal(t, 5.0, *y)

	assert.Nil(t, FCFYield(model.Fundamentals{FreeCashflow: model.Float(1)}))
	assert.Nil(t, FCFYield(model.Fundamentals{MarketCap: model.Float(1)}))
	assert.Nil(t, FCFYield(model.Fundamentals{FreeCashflow: model.Float(1), MarketCap: model.Float(0)}))

	neg := FCFYield(model.Fundamentals{FreeCashflow: model.Float(-12e9), MarketCap: model.Float(95e9)})
	require.NotNil(t, neg)
	assert.InDelta(t, -12.6316, *neg, 1e-4)
}
