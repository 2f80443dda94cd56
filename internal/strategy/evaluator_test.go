package strategy

import (
	"math/rand"
	"testing"

	"github.com/chriscrossapplesauce2001/AI-stock-picker/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthyInput(sector string) Input {
	return Input{
		Price: 110,
		Indicators: model.Indicators{
			RSI:                25,
			MovingAverage:      100,
			MAWindow:           200,
			AboveMovingAverage: true,
		},
		Fundamentals: model.Fundamentals{
			Name:           "Acme Corp",
			Sector:         sector,
			TrailingPE:     model.Float(15),
			PriceToBook:    model.Float(2),
			ReturnOnEquity: model.Float(0.15),
			DebtToEquity:   model.Float(40),
		},
	}
}

func verdict(t *testing.T, ev model.Evaluation, name string) model.RuleVerdict {
	t.Helper()
	for _, v := range ev.Verdicts {
		if v.Name == name {
			return v
		}
	}
	t.Fatalf("no verdict for rule %q", name)
	return model.RuleVerdict{}
}

func defaultEvaluator() *Evaluator {
	return NewEvaluator(Build(DefaultOptions()))
}

func TestEvaluate_IndustrialsSignal(t *testing.T) {
	ev := defaultEvaluator().Evaluate(healthyInput("Industrials"))

	assert.True(t, ev.IsSignal)
	assert.Equal(t, 6, ev.TotalCount)
	assert.Equal(t, ev.TotalCount, ev.PassedCount)
	assert.Equal(t, 1.0, ev.ScorePct)
	assert.Empty(t, ev.Reasons)
	require.Len(t, ev.Verdicts, 6)
	assert.Equal(t, RuleRSIOversold, ev.Verdicts[0].Name)
}

func TestEvaluate_TechnologyExemptFromPB(t *testing.T) {
	in := healthyInput("Technology")
	in.Fundamentals.PriceToBook = nil

	ev := defaultEvaluator().Evaluate(in)

	pb := verdict(t, ev, RuleAssetValuePB)
	assert.False(t, pb.Active)
	assert.Equal(t, 5, ev.TotalCount)
	assert.Equal(t, 5, ev.PassedCount)
	assert.True(t, ev.IsSignal)
}

func TestEvaluate_SectorMatchIgnoresCaseAndSpace(t *testing.T) {
	in := healthyInput("  technology ")
	in.Fundamentals.PriceToBook = model.Float(40)

	ev := defaultEvaluator().Evaluate(in)
	assert.False(t, verdict(t, ev, RuleAssetValuePB).Active)
	assert.True(t, ev.IsSignal)
}

func TestEvaluate_MissingPBFailsOutsideExemptSectors(t *testing.T) {
	in := healthyInput("Industrials")
	in.Fundamentals.PriceToBook = nil

	ev := defaultEvaluator().Evaluate(in)
	pb := verdict(t, ev, RuleAssetValuePB)
	assert.True(t, pb.Active)
	assert.False(t, pb.Passed)
	assert.Equal(t, "No P/B data", pb.Reason)
	assert.False(t, ev.IsSignal)
	assert.Equal(t, 5, ev.PassedCount)
}

func TestEvaluate_MissingDEPassesWhenActive(t *testing.T) {
	in := healthyInput("Industrials")
	in.Fundamentals.DebtToEquity = nil

	ev := defaultEvaluator().Evaluate(in)
	de := verdict(t, ev, RuleLeverageDE)
	assert.True(t, de.Active)
	assert.True(t, de.Passed)
	assert.True(t, ev.IsSignal)
}

func TestEvaluate_MissingDEExcludedForFinancials(t *testing.T) {
	in := healthyInput("Financial Services")
	in.Fundamentals.DebtToEquity = nil

	ev := defaultEvaluator().Evaluate(in)
	de := verdict(t, ev, RuleLeverageDE)
	assert.False(t, de.Active)
	assert.False(t, de.Passed)
	assert.Equal(t, 5, ev.TotalCount)
}

func TestEvaluate_MissingPEFails(t *testing.T) {
	in := healthyInput("Industrials")
	in.Fundamentals.TrailingPE = nil

	ev := defaultEvaluator().Evaluate(in)
	pe := verdict(t, ev, RuleValuationPE)
	assert.False(t, pe.Passed)
	assert.Contains(t, pe.Reason, "No Trailing P/E data")
}

func TestEvaluate_QualityOrGrowth(t *testing.T) {
	tests := []struct {
		name   string
		roe    *float64
		growth *float64
		pass   bool
	}{
		{"roe only", model.Float(0.12), nil, true},
		{"growth only", nil, model.Float(0.06), true},
		{"weak roe strong growth", model.Float(0.02), model.Float(0.20), true},
		{"both weak", model.Float(0.02), model.Float(0.01), false},
		{"both missing", nil, nil, false},
		{"roe at threshold", model.Float(0.10), nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := healthyInput("Industrials")
			in.Fundamentals.ReturnOnEquity = tt.roe
			in.Fundamentals.RevenueGrowth = tt.growth
			v := verdict(t, defaultEvaluator().Evaluate(in), RuleQualityOrGrowth)
			assert.Equal(t, tt.pass, v.Passed)
		})
	}
}

func TestEvaluate_ThresholdBoundaries(t *testing.T) {
	in := healthyInput("Industrials")
	in.Indicators.RSI = 30
	in.Fundamentals.TrailingPE = model.Float(25)
	in.Fundamentals.PriceToBook = model.Float(3)
	in.Fundamentals.DebtToEquity = model.Float(100)

	ev := defaultEvaluator().Evaluate(in)
	assert.False(t, verdict(t, ev, RuleRSIOversold).Passed, "rsi must be strictly below the threshold")
	assert.True(t, verdict(t, ev, RuleValuationPE).Passed)
	assert.True(t, verdict(t, ev, RuleAssetValuePB).Passed)
	assert.True(t, verdict(t, ev, RuleLeverageDE).Passed)
	assert.Equal(t, []string{"RSI 30.0 >= 30"}, ev.Reasons)
}

func TestEvaluate_TrendFailureReason(t *testing.T) {
	in := healthyInput("Industrials")
	in.Price = 90
	in.Indicators.AboveMovingAverage = false

	v := verdict(t, defaultEvaluator().Evaluate(in), RuleTrend)
	assert.False(t, v.Passed)
	assert.Equal(t, "Price 90.00 <= MA200 100.00", v.Reason)
}

func TestEvaluate_FloorBlocksSignal(t *testing.T) {
	opts := DefaultOptions()
	opts.Disabled = map[string]bool{
		RuleValuationPE:     true,
		RuleQualityOrGrowth: true,
		RuleLeverageDE:      true,
	}
	// Technology exempts P/B, leaving RSI and trend only.
	ev := NewEvaluator(Build(opts)).Evaluate(healthyInput("Technology"))

	assert.Equal(t, 2, ev.TotalCount)
	assert.Equal(t, 2, ev.PassedCount)
	assert.False(t, ev.IsSignal)
	assert.Contains(t, ev.Reasons, "only 2 active rules, need at least 3")
}

func TestEvaluate_NoActiveRulesNeverSignals(t *testing.T) {
	opts := DefaultOptions()
	opts.MinActiveRules = 0
	opts.Disabled = map[string]bool{}
	for _, n := range RuleNames() {
		opts.Disabled[n] = true
	}
	ev := NewEvaluator(Build(opts)).Evaluate(healthyInput("Industrials"))
	assert.Equal(t, 0, ev.TotalCount)
	assert.Equal(t, 0.0, ev.ScorePct)
	assert.False(t, ev.IsSignal)
}

func TestEvaluate_DisabledRuleExcluded(t *testing.T) {
	opts := DefaultOptions()
	opts.Disabled = map[string]bool{RuleTrend: true}
	in := healthyInput("Industrials")
	in.Indicators.AboveMovingAverage = false

	ev := NewEvaluator(Build(opts)).Evaluate(in)
	tr := verdict(t, ev, RuleTrend)
	assert.False(t, tr.Active)
	assert.Equal(t, "disabled", tr.Reason)
	assert.True(t, ev.IsSignal)
}

func TestEvaluate_BuffettPresetUsesForwardPE(t *testing.T) {
	opts, err := Preset(PresetBuffett)
	require.NoError(t, err)
	in := healthyInput("Technology")
	in.Fundamentals.TrailingPE = model.Float(60)
	in.Fundamentals.ForwardPE = model.Float(20)

	ev := NewEvaluator(Build(opts)).Evaluate(in)
	assert.True(t, verdict(t, ev, RuleValuationPE).Passed)
	assert.True(t, verdict(t, ev, RuleAssetValuePB).Active, "buffett-v1 has no sector exemptions")
	assert.False(t, verdict(t, ev, RuleTrend).Active)
	assert.Equal(t, 5, ev.TotalCount)
	assert.True(t, ev.IsSignal)
}

func TestPreset_Unknown(t *testing.T) {
	_, err := Preset("v0")
	assert.Error(t, err)

	opts, err := Preset("")
	require.NoError(t, err)
	assert.Equal(t, PresetValueDip, opts.Version)
}

func TestNewEvaluator_CopiesRules(t *testing.T) {
	set := Build(DefaultOptions())
	e := NewEvaluator(set)
	set.Rules[0].Enabled = false
	set.Rules[3].ExemptSectors[0] = "Industrials"

	ev := e.Evaluate(healthyInput("Industrials"))
	assert.True(t, verdict(t, ev, RuleRSIOversold).Active)
	assert.True(t, verdict(t, ev, RuleAssetValuePB).Active)
}

func randomFloat(r *rand.Rand, lo, hi float64) *float64 {
	if r.Intn(4) == 0 {
		return nil
	}
	return model.Float(lo + r.Float64()*(hi-lo))
}

func TestEvaluate_CountInvariants(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	sectors := []string{"Technology", "Financial Services", "Industrials", "Healthcare", ""}
	e := defaultEvaluator()

	for i := 0; i < 500; i++ {
		in := Input{
			Price: 100,
			Indicators: model.Indicators{
				RSI:                r.Float64() * 100,
				AboveMovingAverage: r.Intn(2) == 0,
			},
			Fundamentals: model.Fundamentals{
				Sector:         sectors[r.Intn(len(sectors))],
				TrailingPE:     randomFloat(r, -10, 60),
				PriceToBook:    randomFloat(r, 0, 8),
				ReturnOnEquity: randomFloat(r, -0.2, 0.4),
				RevenueGrowth:  randomFloat(r, -0.2, 0.3),
				DebtToEquity:   randomFloat(r, 0, 300),
			},
		}
		ev := e.Evaluate(in)

		active, passed := 0, 0
		for _, v := range ev.Verdicts {
			if v.Active {
				active++
				if v.Passed {
					passed++
				}
			} else {
				assert.False(t, v.Passed)
			}
		}
		require.Equal(t, active, ev.TotalCount)
		require.Equal(t, passed, ev.PassedCount)
		require.LessOrEqual(t, ev.PassedCount, ev.TotalCount)
		require.InDelta(t, float64(ev.PassedCount)/float64(ev.TotalCount), ev.ScorePct, 1e-12)
		require.Equal(t, ev.PassedCount == ev.TotalCount && ev.TotalCount >= 3, ev.IsSignal)
	}
}
