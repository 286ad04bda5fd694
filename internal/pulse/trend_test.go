package pulse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func gaps(values ...float64) []Record {
	out := make([]Record, 0, len(values))
	for _, v := range values {
		out = append(out, Record{Ticker: "NVDA", GapScore: v})
	}
	return out
}

func TestEvaluateTrend_InsufficientData(t *testing.T) {
	assert.Equal(t, TrendInsufficientData, EvaluateTrend(nil).State)
	assert.Equal(t, TrendInsufficientData, EvaluateTrend([]Record{}).State)

	one := EvaluateTrend(gaps(42))
	assert.Equal(t, TrendInsufficientData, one.State)
	assert.Equal(t, 1, one.Points)
	assert.Zero(t, one.Mean)
}

func TestEvaluateTrend(t *testing.T) {
	elevated := EvaluateTrend(gaps(10, 10, 10, 10, 13))
	assert.Equal(t, TrendElevated, elevated.State)
	assert.InDelta(t, 10.6, elevated.Mean, 1e-9)
	assert.InDelta(t, 12.72, elevated.Threshold, 1e-9)
	assert.Equal(t, 13.0, elevated.Latest)
	assert.Equal(t, 5, elevated.Points)

	stable := EvaluateTrend(gaps(10, 10, 10, 10, 11))
	assert.Equal(t, TrendStable, stable.State)
}

func TestEvaluateTrend_ZeroHistoryIsStable(t *testing.T) {
	assert.Equal(t, TrendStable, EvaluateTrend(gaps(0, 0)).State)
}
