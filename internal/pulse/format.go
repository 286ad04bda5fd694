package pulse

import "github.com/shopspring/decimal"

// FormatNumber renders a metric rounded to two decimals without trailing zeros (45.2, 34.8, 80).
func FormatNumber(v float64) string {
	return decimal.NewFromFloat(v).Round(2).String()
}
