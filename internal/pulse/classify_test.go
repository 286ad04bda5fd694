package pulse

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_InvalidPEIsAlwaysSpeculative(t *testing.T) {
	for _, gap := range []float64{-100, -1, 0, 19, 20, 35, 50, 51, 1e9, math.Inf(1)} {
		got := Classify(false, gap)
		assert.Equal(t, CategorySpeculative, got.Category, "gap=%v", gap)
	}
}

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		gap  float64
		want Category
	}{
		{gap: 51, want: CategoryHighRisk},
		{gap: 50.01, want: CategoryHighRisk},
		{gap: 50, want: CategoryNeutral},
		{gap: 35, want: CategoryNeutral},
		{gap: 20, want: CategoryNeutral},
		{gap: 19.99, want: CategoryValueOpportunity},
		{gap: 19, want: CategoryValueOpportunity},
		{gap: 0, want: CategoryValueOpportunity},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(true, tt.gap).Category, "gap=%v", tt.gap)
	}
	assert.NotEqual(t, CategoryHighRisk, Classify(true, 50).Category)
	assert.NotEqual(t, CategoryValueOpportunity, Classify(true, 20).Category)
}

func TestClassify_FixedPresentation(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range []Category{CategorySpeculative, CategoryHighRisk, CategoryValueOpportunity, CategoryNeutral} {
		rec, ok := RecommendationFor(c)
		assert.True(t, ok)
		assert.Equal(t, c, rec.Category)
		assert.NotEmpty(t, rec.Title)
		assert.NotEmpty(t, rec.Advice)
		assert.False(t, seen[rec.Color], "color %s reused", rec.Color)
		seen[rec.Color] = true
	}

	assert.Equal(t, Classify(true, 70), Classify(true, 99))
}
