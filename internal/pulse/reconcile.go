package pulse

import (
	"fmt"
	"math"
)

// NotApplicable is displayed instead of an undefined P/E ratio.
const NotApplicable = "N/A"

// Source tells where the displayed record came from.
type Source string

const (
	SourceLive  Source = "live"
	SourceCache Source = "cache"
)

// GapPolicy decides when the gap is derived locally instead of trusted from the record.
type GapPolicy string

const (
	// GapDeriveIfMissing derives |pe - hype| only when the record gap is zero or absent.
	GapDeriveIfMissing GapPolicy = "derive_if_missing"
	// GapAlwaysDerive derives the gap whenever the P/E is valid.
	GapAlwaysDerive GapPolicy = "always_derive"
	// GapRemoteOnly always uses the record gap.
	GapRemoteOnly GapPolicy = "remote_only"
)

// ParseGapPolicy maps a config value to a policy.
func ParseGapPolicy(s string) (GapPolicy, error) {
	switch p := GapPolicy(s); p {
	case GapDeriveIfMissing, GapAlwaysDerive, GapRemoteOnly:
		return p, nil
	case "":
		return GapDeriveIfMissing, nil
	default:
		return "", fmt.Errorf("unknown gap policy %q", s)
	}
}

// Reconcile picks the authoritative record: the live one if present, else the most recent
// history entry (history is in ascending time order), else nil.
func Reconcile(live *Record, history []Record) *Record {
	if live != nil {
		return live
	}
	if len(history) == 0 {
		return nil
	}
	latest := history[len(history)-1]
	return &latest
}

// ValidatePE reports whether raw is a usable P/E ratio: a strictly positive finite number.
// Unparseable input yields (0, false); non-positive numbers are returned with false.
func ValidatePE(raw interface{}) (float64, bool) {
	pe, ok := ToFloat(raw)
	if !ok {
		return 0, false
	}
	return pe, pe > 0
}

// EffectiveGap returns the gap used for classification under policy.
func EffectiveGap(rec Record, peValid bool, policy GapPolicy) float64 {
	switch policy {
	case GapRemoteOnly:
		return rec.GapScore
	case GapAlwaysDerive:
		if peValid {
			return math.Abs(rec.PERatio - rec.HypeScore)
		}
		return rec.GapScore
	default:
		if peValid && rec.GapScore == 0 {
			return math.Abs(rec.PERatio - rec.HypeScore)
		}
		return rec.GapScore
	}
}

// View is the display projection of one reconciled record. It is never written back.
type View struct {
	Record         Record         `json:"record"`
	Source         Source         `json:"source"`
	PE             float64        `json:"pe"`
	PEValid        bool           `json:"pe_valid"`
	PEText         string         `json:"pe_text"`
	Gap            float64        `json:"gap"`
	GapText        string         `json:"gap_text"`
	Headline       string         `json:"headline"`
	Recommendation Recommendation `json:"recommendation"`
}

// BuildView validates the P/E, derives the gap and classifies the record.
func BuildView(rec Record, source Source, policy GapPolicy) View {
	pe, valid := ValidatePE(rec.RawPE())
	gap := EffectiveGap(rec, valid, policy)

	peText := NotApplicable
	if valid {
		peText = FormatNumber(pe)
	}

	return View{
		Record:         rec,
		Source:         source,
		PE:             pe,
		PEValid:        valid,
		PEText:         peText,
		Gap:            gap,
		GapText:        FormatNumber(gap),
		Headline:       rec.DisplayHeadline(),
		Recommendation: Classify(valid, gap),
	}
}
