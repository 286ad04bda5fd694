// Package pulse holds the display-side rules of the dashboard: record normalization,
// P/E validation, gap derivation, classification and trend evaluation.
package pulse

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// SyntheticMarker tags demo rows written before the is_synthetic column existed.
const SyntheticMarker = "SIMULATION"

// NoHeadline is shown when a record carries no news.
const NoHeadline = "No recent headlines."

// NewsItem is one entry of a structured top_news payload.
type NewsItem struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Sentiment string `json:"sentiment"`
	Impact    string `json:"impact"`
}

// Record is one observation for one ticker at one point in time.
type Record struct {
	Ticker     string     `json:"ticker"`
	ObservedAt time.Time  `json:"observed_at"`
	PERatio    float64    `json:"pe_ratio"`
	HypeScore  float64    `json:"hype_score"`
	GapScore   float64    `json:"gap_score"`
	Headline   string     `json:"headline"`
	News       []NewsItem `json:"news,omitempty"`
	Synthetic  bool       `json:"is_synthetic"`

	// rawPE keeps the value as received so validation can tell "missing" from "garbage".
	rawPE interface{}
}

// RawPE returns the P/E value as it was received, before coercion.
func (r Record) RawPE() interface{} {
	if r.rawPE == nil {
		return r.PERatio
	}
	return r.rawPE
}

// IsSynthetic reports whether the record is demo data, by flag or by the legacy headline marker.
func (r Record) IsSynthetic() bool {
	return r.Synthetic || strings.Contains(r.Headline, SyntheticMarker)
}

// DisplayHeadline returns the headline or the empty-state text.
func (r Record) DisplayHeadline() string {
	if strings.TrimSpace(r.Headline) == "" {
		return NoHeadline
	}
	return r.Headline
}

// ToFloat coerces a loosely typed numeric value. Parse failures, NaN and Inf yield (0, false).
func ToFloat(v interface{}) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case *string:
		if t == nil {
			return 0, false
		}
		return ToFloat(*t)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// coerce is ToFloat with the datastore rule: anything unparseable becomes 0.
func coerce(v interface{}) float64 {
	f, _ := ToFloat(v)
	return f
}
