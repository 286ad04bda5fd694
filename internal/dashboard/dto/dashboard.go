package dto

import (
	"time"

	"corporate-pulse/internal/pulse"
)

// NoticeLevel mirrors the dashboard banner styles.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice is a non-fatal message rendered above the result.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message"`
}

// Methodology documents the gap formula on the page.
type Methodology struct {
	Formula            string  `json:"formula"`
	HighGapThreshold   float64 `json:"high_gap_threshold"`
	LowGapThreshold    float64 `json:"low_gap_threshold"`
	HypeReferenceLevel float64 `json:"hype_reference_level"`
	TrendFactor        float64 `json:"trend_factor"`
}

// ScatterPoint is one ticker on the overview chart.
type ScatterPoint struct {
	Ticker     string    `json:"ticker"`
	PERatio    float64   `json:"pe_ratio"`
	HypeScore  float64   `json:"hype_score"`
	GapScore   float64   `json:"gap_score"`
	ObservedAt time.Time `json:"observed_at"`
	Synthetic  bool      `json:"is_synthetic"`
}

// OverviewRequest carries the overview query parameters.
type OverviewRequest struct {
	IncludeSynthetic *bool `query:"include_synthetic"`
}

// OverviewResponse is the scatter plot payload.
type OverviewResponse struct {
	IncludeSynthetic bool           `json:"include_synthetic"`
	ActiveAssets     int            `json:"active_assets"`
	Points           []ScatterPoint `json:"points"`
	Methodology      Methodology    `json:"methodology"`
	Notices          []Notice       `json:"notices,omitempty"`
}

// AnalysisRequest is the body of POST /analysis.
type AnalysisRequest struct {
	Ticker           string `json:"ticker" validate:"required,max=12,ticker"`
	IncludeSynthetic *bool  `json:"include_synthetic"`
}

// TrendPoint is one point of the history chart.
type TrendPoint struct {
	ObservedAt time.Time `json:"observed_at"`
	HypeScore  float64   `json:"hype_score"`
	GapScore   float64   `json:"gap_score"`
}

// HistoryResponse is the trend chart payload.
type HistoryResponse struct {
	Ticker           string            `json:"ticker"`
	IncludeSynthetic bool              `json:"include_synthetic"`
	Points           []TrendPoint      `json:"points"`
	Chartable        bool              `json:"chartable"`
	Trend            pulse.TrendSignal `json:"trend"`
	Notices          []Notice          `json:"notices,omitempty"`
}

// AnalysisResponse is the result of one analysis action. View is nil when nothing could be displayed.
type AnalysisResponse struct {
	Ticker    string          `json:"ticker"`
	View      *pulse.View     `json:"view,omitempty"`
	History   HistoryResponse `json:"history"`
	Notices   []Notice        `json:"notices,omitempty"`
	Completed time.Time       `json:"completed_at"`
}

// SessionResponse summarizes the caller's session.
type SessionResponse struct {
	LastTicker       string      `json:"last_ticker"`
	LastView         *pulse.View `json:"last_view,omitempty"`
	IncludeSynthetic bool        `json:"include_synthetic"`
	Exports          int         `json:"exports"`
}
