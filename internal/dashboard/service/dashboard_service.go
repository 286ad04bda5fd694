package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"corporate-pulse/internal/dashboard/dto"
	"corporate-pulse/internal/dashboard/metrics"
	"corporate-pulse/internal/dashboard/repository"
	"corporate-pulse/internal/dashboard/session"
	"corporate-pulse/internal/pulse"
	"corporate-pulse/pkg/logger"
	"corporate-pulse/pkg/telegram"
	"corporate-pulse/pkg/utils"

	"github.com/patrickmn/go-cache"
)

// ExportHeader is the first row of the export file.
var ExportHeader = []string{"ticker", "timestamp", "pe_ratio", "hype_score", "gap_score", "recommendation", "headline"}

// Options tunes the dashboard service.
type Options struct {
	RecentLimit      int
	IncludeSynthetic bool
	GapPolicy        pulse.GapPolicy
	AlertCooldown    time.Duration
}

// DashboardService runs one user action at a time against the datastore and the webhook.
type DashboardService interface {
	Overview(ctx context.Context, state *session.State, req dto.OverviewRequest) (*dto.OverviewResponse, error)
	Analyze(ctx context.Context, state *session.State, req dto.AnalysisRequest) (*dto.AnalysisResponse, error)
	History(ctx context.Context, state *session.State, ticker string, includeSynthetic *bool) (*dto.HistoryResponse, error)
	Export(state *session.State, w io.Writer) error
	Session(state *session.State) dto.SessionResponse
}

// NewDashboardService creates a new dashboard service. notifier may be nil.
func NewDashboardService(
	opts Options,
	pulseRepo repository.PulseLogRepository,
	analysisRepo repository.AnalysisRepository,
	notifier telegram.Notifier,
	metricsRegistry *metrics.Registry,
	log *logger.Logger,
) DashboardService {
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = 200
	}
	if opts.GapPolicy == "" {
		opts.GapPolicy = pulse.GapDeriveIfMissing
	}
	if opts.AlertCooldown <= 0 {
		opts.AlertCooldown = time.Hour
	}
	if metricsRegistry == nil {
		metricsRegistry = metrics.NewRegistry(nil)
	}

	return &dashboardService{
		opts:         opts,
		pulseRepo:    pulseRepo,
		analysisRepo: analysisRepo,
		notifier:     notifier,
		metrics:      metricsRegistry,
		log:          log,
		alertCache:   cache.New(opts.AlertCooldown, 10*time.Minute),
		now:          time.Now,
	}
}

type dashboardService struct {
	opts         Options
	pulseRepo    repository.PulseLogRepository
	analysisRepo repository.AnalysisRepository
	notifier     telegram.Notifier
	metrics      *metrics.Registry
	log          *logger.Logger
	alertCache   *cache.Cache
	now          func() time.Time
}

// Overview returns the latest record of every ticker with a valid P/E.
func (s *dashboardService) Overview(ctx context.Context, state *session.State, req dto.OverviewRequest) (*dto.OverviewResponse, error) {
	synthetic := s.resolveSynthetic(state, req.IncludeSynthetic)
	resp := &dto.OverviewResponse{
		IncludeSynthetic: synthetic,
		Points:           []dto.ScatterPoint{},
		Methodology: dto.Methodology{
			Formula:            "Gap = |P/E - Hype|",
			HighGapThreshold:   pulse.HighGapThreshold,
			LowGapThreshold:    pulse.LowGapThreshold,
			HypeReferenceLevel: 50,
			TrendFactor:        pulse.ElevationFactor,
		},
	}

	rows, err := s.pulseRepo.FindRecent(ctx, s.opts.RecentLimit, synthetic)
	if err != nil {
		if notice, ok := s.dataUnavailable(ctx, "overview", err); ok {
			resp.Notices = append(resp.Notices, notice)
			return resp, nil
		}
		return nil, err
	}
	if len(rows) == 0 {
		resp.Notices = append(resp.Notices, dto.Notice{
			Level:   dto.NoticeInfo,
			Code:    "EMPTY",
			Message: "Database empty. Try enabling simulation data.",
		})
		return resp, nil
	}

	seen := make(map[string]bool)
	for _, rec := range pulse.FromEntities(rows) {
		// rows are newest first, so the first row per ticker is its latest
		if seen[rec.Ticker] {
			continue
		}
		seen[rec.Ticker] = true

		if _, valid := pulse.ValidatePE(rec.RawPE()); !valid {
			continue
		}
		resp.Points = append(resp.Points, dto.ScatterPoint{
			Ticker:     rec.Ticker,
			PERatio:    rec.PERatio,
			HypeScore:  rec.HypeScore,
			GapScore:   rec.GapScore,
			ObservedAt: rec.ObservedAt,
			Synthetic:  rec.IsSynthetic(),
		})
	}
	sort.Slice(resp.Points, func(i, j int) bool { return resp.Points[i].Ticker < resp.Points[j].Ticker })
	resp.ActiveAssets = len(resp.Points)

	if resp.ActiveAssets == 0 {
		resp.Notices = append(resp.Notices, dto.Notice{
			Level:   dto.NoticeWarning,
			Code:    "NO_MATCH",
			Message: "No data found for current filter.",
		})
	}
	return resp, nil
}

// Analyze asks the webhook for a fresh record and falls back to the datastore history.
// Webhook and datastore failures become notices; the last known state is still rendered.
func (s *dashboardService) Analyze(ctx context.Context, state *session.State, req dto.AnalysisRequest) (*dto.AnalysisResponse, error) {
	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))
	synthetic := s.resolveSynthetic(state, req.IncludeSynthetic)
	ctx = logger.WithContext(ctx, logger.StringField("ticker", ticker))

	resp := &dto.AnalysisResponse{Ticker: ticker}

	started := s.now()
	live, err := s.analysisRepo.RequestAnalysis(ctx, ticker)
	s.metrics.WebhookLatency.Observe(s.now().Sub(started).Seconds())
	if err != nil {
		resp.Notices = append(resp.Notices, s.remoteFailure(ctx, err))
	}

	historyTicker := ticker
	if live != nil {
		historyTicker = live.Ticker
		resp.Ticker = live.Ticker
	}

	var history []pulse.Record
	rows, err := s.pulseRepo.FindHistory(ctx, historyTicker, synthetic)
	if err != nil {
		notice, ok := s.dataUnavailable(ctx, "history", err)
		if !ok {
			return nil, err
		}
		resp.Notices = append(resp.Notices, notice)
	} else {
		history = pulse.FromEntities(rows)
	}

	resp.History = s.historyResponse(historyTicker, synthetic, history)
	state.LastTicker = resp.Ticker
	resp.Completed = s.now()

	rec := pulse.Reconcile(live, history)
	if rec == nil {
		resp.Notices = append(resp.Notices, dto.Notice{
			Level:   dto.NoticeInfo,
			Code:    "NO_DATA",
			Message: fmt.Sprintf("No data available for %s yet.", resp.Ticker),
		})
		s.log.InfoContext(ctx, "Nothing to display for ticker")
		return resp, nil
	}

	source := pulse.SourceCache
	if live != nil {
		source = pulse.SourceLive
		state.LastLive = live
	} else if len(resp.Notices) > 0 {
		s.metrics.Fallbacks.Inc()
	}

	view := pulse.BuildView(*rec, source, s.opts.GapPolicy)
	resp.View = &view
	state.LastView = &view
	state.Exports = append(state.Exports, session.ExportRow{
		Ticker:         view.Record.Ticker,
		Timestamp:      resp.Completed,
		PE:             view.PEText,
		HypeScore:      view.Record.HypeScore,
		GapScore:       view.Gap,
		Recommendation: view.Recommendation.Title,
		Headline:       view.Headline,
	})

	s.metrics.Analyses.WithLabelValues(string(view.Recommendation.Category), string(source)).Inc()
	s.log.InfoContext(ctx, "Analysis completed",
		logger.StringField("category", string(view.Recommendation.Category)),
		logger.StringField("source", string(source)),
		logger.StringField("trend", string(resp.History.Trend.State)),
		logger.FloatField("gap", view.Gap))

	s.alert(ctx, view, resp.History.Trend)
	return resp, nil
}

// History returns the trend chart for one ticker.
func (s *dashboardService) History(ctx context.Context, state *session.State, ticker string, includeSynthetic *bool) (*dto.HistoryResponse, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	synthetic := s.resolveSynthetic(state, includeSynthetic)

	rows, err := s.pulseRepo.FindHistory(ctx, ticker, synthetic)
	if err != nil {
		notice, ok := s.dataUnavailable(ctx, "history", err)
		if !ok {
			return nil, err
		}
		resp := s.historyResponse(ticker, synthetic, nil)
		resp.Notices = append(resp.Notices, notice)
		return &resp, nil
	}

	resp := s.historyResponse(ticker, synthetic, pulse.FromEntities(rows))
	return &resp, nil
}

// Export writes the session's analysis actions as CSV.
func (s *dashboardService) Export(state *session.State, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return err
	}
	for _, row := range state.Exports {
		record := []string{
			row.Ticker,
			row.Timestamp.UTC().Format(time.RFC3339),
			row.PE,
			pulse.FormatNumber(row.HypeScore),
			pulse.FormatNumber(row.GapScore),
			row.Recommendation,
			row.Headline,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Session summarizes the session state.
func (s *dashboardService) Session(state *session.State) dto.SessionResponse {
	return dto.SessionResponse{
		LastTicker:       state.LastTicker,
		LastView:         state.LastView,
		IncludeSynthetic: state.Synthetic(s.opts.IncludeSynthetic),
		Exports:          len(state.Exports),
	}
}

func (s *dashboardService) resolveSynthetic(state *session.State, override *bool) bool {
	if override != nil {
		state.IncludeSynthetic = utils.ToPointer(*override)
	}
	return state.Synthetic(s.opts.IncludeSynthetic)
}

func (s *dashboardService) historyResponse(ticker string, synthetic bool, history []pulse.Record) dto.HistoryResponse {
	points := make([]dto.TrendPoint, 0, len(history))
	for _, rec := range history {
		points = append(points, dto.TrendPoint{
			ObservedAt: rec.ObservedAt,
			HypeScore:  rec.HypeScore,
			GapScore:   rec.GapScore,
		})
	}
	return dto.HistoryResponse{
		Ticker:           ticker,
		IncludeSynthetic: synthetic,
		Points:           points,
		Chartable:        len(points) > 1,
		Trend:            pulse.EvaluateTrend(history),
	}
}

func (s *dashboardService) remoteFailure(ctx context.Context, err error) dto.Notice {
	re, ok := pulse.AsRemoteError(err)
	if !ok {
		re = &pulse.RemoteError{Kind: pulse.RemoteConnectionError, Detail: err.Error(), Err: err}
	}
	s.metrics.RemoteFailures.WithLabelValues(string(re.Kind)).Inc()
	s.log.WarnContext(ctx, "Analysis webhook failed, falling back to cached history",
		logger.StringField("kind", string(re.Kind)), logger.ErrorField(err))
	return dto.Notice{Level: dto.NoticeWarning, Code: string(re.Kind), Message: re.Warning()}
}

func (s *dashboardService) dataUnavailable(ctx context.Context, op string, err error) (dto.Notice, bool) {
	if !errors.Is(err, pulse.ErrDataUnavailable) {
		s.log.ErrorContext(ctx, "Unexpected datastore failure", logger.StringField("operation", op), logger.ErrorField(err))
		return dto.Notice{}, false
	}
	s.metrics.DatastoreFails.WithLabelValues(op).Inc()
	s.log.WarnContext(ctx, "Datastore unavailable", logger.StringField("operation", op), logger.ErrorField(err))
	return dto.Notice{
		Level:   dto.NoticeInfo,
		Code:    "DATA_UNAVAILABLE",
		Message: "Historical data is currently unavailable.",
	}, true
}

// alert notifies once per ticker and category within the cooldown window.
func (s *dashboardService) alert(ctx context.Context, view pulse.View, trend pulse.TrendSignal) {
	if s.notifier == nil {
		return
	}
	if view.Recommendation.Category != pulse.CategoryHighRisk && trend.State != pulse.TrendElevated {
		return
	}

	key := fmt.Sprintf("%s:%s:%s", view.Record.Ticker, view.Recommendation.Category, trend.State)
	if err := s.alertCache.Add(key, struct{}{}, cache.DefaultExpiration); err != nil {
		s.log.DebugContext(ctx, "Alert suppressed by cooldown", logger.StringField("key", key))
		return
	}

	message := telegram.FormatAnalysisAlert(view, trend)
	utils.GoSafe(func() {
		if err := s.notifier.SendMessage(message); err != nil {
			s.log.Error("Failed to send analysis alert", logger.ErrorField(err), logger.StringField("key", key))
		}
	})
}
