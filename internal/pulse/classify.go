package pulse

// Category is the discrete outcome of the gap classifier.
type Category string

const (
	CategorySpeculative      Category = "SPECULATIVE"
	CategoryHighRisk         Category = "HIGH_RISK"
	CategoryValueOpportunity Category = "VALUE_OPPORTUNITY"
	CategoryNeutral          Category = "NEUTRAL"
)

const (
	// HighGapThreshold is exclusive: a gap of exactly 50 is not high risk.
	HighGapThreshold = 50.0
	// LowGapThreshold is exclusive: a gap of exactly 20 is not a value opportunity.
	LowGapThreshold = 20.0
)

// Recommendation is the fixed presentation attached to a category.
type Recommendation struct {
	Category Category `json:"category"`
	Title    string   `json:"title"`
	Advice   string   `json:"advice"`
	Color    string   `json:"color"`
}

var recommendations = map[Category]Recommendation{
	CategorySpeculative: {
		Category: CategorySpeculative,
		Title:    "Speculative: Valuation Undefined",
		Advice:   "Earnings are negative or missing, so the P/E ratio and the gap are undefined. Price is driven by narrative; size any position as a speculation.",
		Color:    "#7f8c8d",
	},
	CategoryHighRisk: {
		Category: CategoryHighRisk,
		Title:    "High Divergence: Reduce Exposure",
		Advice:   "Sentiment and fundamentals have decoupled. Consider trimming the position or hedging until the gap narrows.",
		Color:    "#ff4b4b",
	},
	CategoryValueOpportunity: {
		Category: CategoryValueOpportunity,
		Title:    "Healthy Sync: Value Opportunity",
		Advice:   "Hype is in line with fundamentals. Pricing looks efficient; a reasonable entry for long-term accumulation.",
		Color:    "#09ab3b",
	},
	CategoryNeutral: {
		Category: CategoryNeutral,
		Title:    "Moderate Gap: Hold",
		Advice:   "Some divergence between sentiment and fundamentals. Hold and monitor the trend before acting.",
		Color:    "#ffa500",
	},
}

// Classify maps the P/E validity and the gap to a recommendation. First match wins:
// invalid P/E, then gap > 50, then gap < 20, then neutral.
func Classify(peValid bool, gap float64) Recommendation {
	switch {
	case !peValid:
		return recommendations[CategorySpeculative]
	case gap > HighGapThreshold:
		return recommendations[CategoryHighRisk]
	case gap < LowGapThreshold:
		return recommendations[CategoryValueOpportunity]
	default:
		return recommendations[CategoryNeutral]
	}
}

// RecommendationFor returns the fixed presentation of a category.
func RecommendationFor(c Category) (Recommendation, bool) {
	r, ok := recommendations[c]
	return r, ok
}
