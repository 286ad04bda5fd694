package telegram

import (
	"fmt"
	"strings"

	"corporate-pulse/internal/pulse"
)

// markdownEscaper escapes the characters that legacy Telegram Markdown treats as markup.
var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// FormatAnalysisAlert renders an analysis result that needs attention as a Markdown message.
func FormatAnalysisAlert(view pulse.View, trend pulse.TrendSignal) string {
	var b strings.Builder

	icon := "🟡"
	switch view.Recommendation.Category {
	case pulse.CategoryHighRisk:
		icon = "🔴"
	case pulse.CategoryValueOpportunity:
		icon = "🟢"
	case pulse.CategorySpeculative:
		icon = "⚪"
	}

	b.WriteString(fmt.Sprintf("⚡ *Corporate Pulse: %s*\n", markdownEscaper.Replace(view.Record.Ticker)))
	b.WriteString(fmt.Sprintf("%s *%s*\n", icon, markdownEscaper.Replace(view.Recommendation.Title)))
	b.WriteString(fmt.Sprintf("📊 *P/E:* %s | *Hype:* %s%% | *Gap:* %s\n",
		view.PEText, pulse.FormatNumber(view.Record.HypeScore), view.GapText))

	if trend.State == pulse.TrendElevated {
		b.WriteString(fmt.Sprintf("⚠️ *Trend alert:* gap %s vs. average %s\n",
			pulse.FormatNumber(trend.Latest), pulse.FormatNumber(trend.Mean)))
	}

	b.WriteString(fmt.Sprintf("📰 %s\n", markdownEscaper.Replace(view.Headline)))
	b.WriteString(fmt.Sprintf("💬 %s", markdownEscaper.Replace(view.Recommendation.Advice)))
	return b.String()
}
