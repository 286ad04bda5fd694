// Package session keeps per-visitor dashboard state: the last analyzed ticker, the last live
// result, the export rows and the simulation-data toggle. State is never shared across sessions.
package session

import (
	"context"
	"errors"
	"time"

	"corporate-pulse/internal/pulse"
)

// ErrBusy is returned by Acquire when the session already has an analysis in flight.
var ErrBusy = errors.New("session has an analysis in progress")

// ExportRow is one analysis action, as written to the export file.
type ExportRow struct {
	Ticker         string    `json:"ticker"`
	Timestamp      time.Time `json:"timestamp"`
	PE             string    `json:"pe"`
	HypeScore      float64   `json:"hype_score"`
	GapScore       float64   `json:"gap_score"`
	Recommendation string    `json:"recommendation"`
	Headline       string    `json:"headline"`
}

// State is the session scoped context passed into the dashboard service.
type State struct {
	ID               string        `json:"id"`
	LastTicker       string        `json:"last_ticker"`
	LastLive         *pulse.Record `json:"last_live,omitempty"`
	LastView         *pulse.View   `json:"last_view,omitempty"`
	IncludeSynthetic *bool         `json:"include_synthetic,omitempty"`
	Exports          []ExportRow   `json:"exports"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// New returns an empty state for id.
func New(id string) *State {
	return &State{ID: id}
}

// Synthetic resolves the simulation toggle against the service default.
func (s *State) Synthetic(def bool) bool {
	if s.IncludeSynthetic == nil {
		return def
	}
	return *s.IncludeSynthetic
}

// MergeAnalysis copies what an analysis action changed in result onto s, leaving
// anything other requests wrote to s meanwhile in place. exportsBefore is the
// number of export rows result held when the action started.
func (s *State) MergeAnalysis(result *State, exportsBefore int, syntheticOverridden bool) {
	s.LastTicker = result.LastTicker
	if result.LastLive != nil {
		s.LastLive = result.LastLive
	}
	if result.LastView != nil {
		s.LastView = result.LastView
	}
	if exportsBefore < len(result.Exports) {
		s.Exports = append(s.Exports, result.Exports[exportsBefore:]...)
	}
	if syntheticOverridden {
		s.IncludeSynthetic = result.IncludeSynthetic
	}
}

// Store persists session state with a TTL.
type Store interface {
	// Load returns the state for id, or a fresh one when none exists.
	Load(ctx context.Context, id string) (*State, error)
	Save(ctx context.Context, state *State) error
	// Acquire marks an analysis in flight for id; it returns ErrBusy if one already is.
	Acquire(ctx context.Context, id string) error
	Release(ctx context.Context, id string) error
}
