package telegram

import (
	"testing"

	"corporate-pulse/internal/pulse"

	"github.com/stretchr/testify/assert"
)

func TestFormatAnalysisAlert(t *testing.T) {
	view := pulse.BuildView(pulse.Record{
		Ticker:    "SMCI",
		PERatio:   12,
		HypeScore: 95,
		Headline:  "Short_seller report *again*",
	}, pulse.SourceLive, pulse.GapDeriveIfMissing)
	trend := pulse.TrendSignal{State: pulse.TrendElevated, Latest: 83, Mean: 40}

	msg := FormatAnalysisAlert(view, trend)

	assert.Contains(t, msg, "SMCI")
	assert.Contains(t, msg, "🔴")
	assert.Contains(t, msg, "*P/E:* 12")
	assert.Contains(t, msg, "*Gap:* 83")
	assert.Contains(t, msg, "Trend alert")
	assert.Contains(t, msg, `Short\_seller report \*again\*`)
}

func TestFormatAnalysisAlert_NoTrendLine(t *testing.T) {
	view := pulse.BuildView(pulse.Record{Ticker: "RIVN", HypeScore: 70}, pulse.SourceCache, pulse.GapDeriveIfMissing)
	msg := FormatAnalysisAlert(view, pulse.TrendSignal{State: pulse.TrendInsufficientData})

	assert.Contains(t, msg, "*P/E:* N/A")
	assert.NotContains(t, msg, "Trend alert")
	assert.Contains(t, msg, pulse.NoHeadline)
}
