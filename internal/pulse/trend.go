package pulse

// TrendState is the outcome of the trend evaluator.
type TrendState string

const (
	TrendInsufficientData TrendState = "INSUFFICIENT_DATA"
	TrendElevated         TrendState = "ELEVATED"
	TrendStable           TrendState = "STABLE"
)

// ElevationFactor is the multiple of the historical mean above which the latest gap is flagged.
const ElevationFactor = 1.2

// TrendSignal compares the latest gap with the historical mean.
type TrendSignal struct {
	State     TrendState `json:"state"`
	Latest    float64    `json:"latest"`
	Mean      float64    `json:"mean"`
	Threshold float64    `json:"threshold"`
	Points    int        `json:"points"`
	Message   string     `json:"message"`
}

// EvaluateTrend needs at least two records in ascending time order.
func EvaluateTrend(history []Record) TrendSignal {
	if len(history) < 2 {
		return TrendSignal{
			State:   TrendInsufficientData,
			Points:  len(history),
			Message: "Not enough data points for a trend line yet.",
		}
	}

	var sum float64
	for _, rec := range history {
		sum += rec.GapScore
	}
	mean := sum / float64(len(history))
	latest := history[len(history)-1].GapScore
	threshold := mean * ElevationFactor

	signal := TrendSignal{
		State:     TrendStable,
		Latest:    latest,
		Mean:      mean,
		Threshold: threshold,
		Points:    len(history),
		Message:   "Trend stability: the gap is consistent with historical averages.",
	}
	if latest > threshold {
		signal.State = TrendElevated
		signal.Message = "Trend alert: the strategic gap is more than 20% above its historical average."
	}
	return signal
}
