package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"corporate-pulse/internal/dashboard/dto"
	"corporate-pulse/internal/dashboard/session"
	"corporate-pulse/internal/pulse"
	"corporate-pulse/pkg/common"
	"corporate-pulse/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSessionID = "3b241101-e2bb-4255-8caf-4136c566a962"

type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Overview(ctx context.Context, state *session.State, req dto.OverviewRequest) (*dto.OverviewResponse, error) {
	args := m.Called(ctx, state, req)
	if resp, ok := args.Get(0).(*dto.OverviewResponse); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDashboardService) Analyze(ctx context.Context, state *session.State, req dto.AnalysisRequest) (*dto.AnalysisResponse, error) {
	args := m.Called(ctx, state, req)
	if resp, ok := args.Get(0).(*dto.AnalysisResponse); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDashboardService) History(ctx context.Context, state *session.State, ticker string, includeSynthetic *bool) (*dto.HistoryResponse, error) {
	args := m.Called(ctx, state, ticker, includeSynthetic)
	if resp, ok := args.Get(0).(*dto.HistoryResponse); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDashboardService) Export(state *session.State, w io.Writer) error {
	return m.Called(state, w).Error(0)
}

func (m *MockDashboardService) Session(state *session.State) dto.SessionResponse {
	return m.Called(state).Get(0).(dto.SessionResponse)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func newTestServer(svc *MockDashboardService, store session.Store, pinger Pinger) *echo.Echo {
	log := logger.NewNop()
	e := echo.New()
	e.Validator = NewRequestValidator()
	e.Use(SessionCookie(time.Hour))

	NewDashboardHandler(svc, store, log).RegisterRoutes(e.Group("/api/v1"))
	NewSystemHandler(pinger, prometheus.NewRegistry(), log).RegisterRoutes(e)
	return e
}

func doRequest(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	req.AddCookie(&http.Cookie{Name: common.SessionCookieName, Value: testSessionID})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestAnalyze(t *testing.T) {
	svc := new(MockDashboardService)
	store := session.NewMemoryStore(time.Hour, time.Minute)
	e := newTestServer(svc, store, stubPinger{})

	view := pulse.BuildView(pulse.Record{Ticker: "NVDA", PERatio: 45.2, HypeScore: 80}, pulse.SourceLive, pulse.GapDeriveIfMissing)
	svc.On("Analyze", mock.Anything, mock.AnythingOfType("*session.State"), mock.MatchedBy(func(req dto.AnalysisRequest) bool {
		return req.Ticker == "nvda"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*session.State).LastTicker = "NVDA"
	}).Return(&dto.AnalysisResponse{Ticker: "NVDA", View: &view}, nil)

	rec := doRequest(e, http.MethodPost, "/api/v1/analysis", `{"ticker":" nvda "}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"gap_text":"34.8"`)
	assert.Contains(t, rec.Body.String(), `"category":"NEUTRAL"`)

	state, err := store.Load(context.Background(), testSessionID)
	require.NoError(t, err)
	assert.Equal(t, "NVDA", state.LastTicker)

	// the lock is released once the request completes
	require.NoError(t, store.Acquire(context.Background(), testSessionID))
	svc.AssertExpectations(t)
}

func TestAnalyze_KeepsChangesMadeWhileRunning(t *testing.T) {
	svc := new(MockDashboardService)
	store := session.NewMemoryStore(time.Hour, time.Minute)
	e := newTestServer(svc, store, stubPinger{})

	started := make(chan struct{})
	proceed := make(chan struct{})
	svc.On("Analyze", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		close(started)
		<-proceed
		state := args.Get(1).(*session.State)
		state.LastTicker = "NVDA"
		state.Exports = append(state.Exports, session.ExportRow{Ticker: "NVDA"})
	}).Return(&dto.AnalysisResponse{Ticker: "NVDA"}, nil)
	svc.On("Overview", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		req := args.Get(2).(dto.OverviewRequest)
		args.Get(1).(*session.State).IncludeSynthetic = req.IncludeSynthetic
	}).Return(&dto.OverviewResponse{}, nil)

	done := make(chan *httptest.ResponseRecorder)
	go func() {
		done <- doRequest(e, http.MethodPost, "/api/v1/analysis", `{"ticker":"NVDA"}`)
	}()

	<-started
	rec := doRequest(e, http.MethodGet, "/api/v1/overview?include_synthetic=false", "")
	require.Equal(t, http.StatusOK, rec.Code)
	close(proceed)
	require.Equal(t, http.StatusOK, (<-done).Code)

	state, err := store.Load(context.Background(), testSessionID)
	require.NoError(t, err)
	assert.Equal(t, "NVDA", state.LastTicker)
	assert.Len(t, state.Exports, 1)
	require.NotNil(t, state.IncludeSynthetic)
	assert.False(t, *state.IncludeSynthetic)
}

func TestAnalyze_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{name: "empty ticker", body: `{"ticker":"   "}`, message: "ticker is required"},
		{name: "bad characters", body: `{"ticker":"NV DA!"}`, message: "ticker is not a valid ticker symbol"},
		{name: "too long", body: `{"ticker":"ABCDEFGHIJKLM"}`, message: "ticker must be at most 12 characters"},
		{name: "not json", body: `{"ticker":`, message: "Invalid request payload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDashboardService)
			e := newTestServer(svc, session.NewMemoryStore(time.Hour, time.Minute), stubPinger{})

			rec := doRequest(e, http.MethodPost, "/api/v1/analysis", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.message)
			svc.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestAnalyze_SessionBusy(t *testing.T) {
	svc := new(MockDashboardService)
	store := session.NewMemoryStore(time.Hour, time.Minute)
	require.NoError(t, store.Acquire(context.Background(), testSessionID))
	e := newTestServer(svc, store, stubPinger{})

	rec := doRequest(e, http.MethodPost, "/api/v1/analysis", `{"ticker":"NVDA"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	svc.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnalyze_ServiceError(t *testing.T) {
	svc := new(MockDashboardService)
	e := newTestServer(svc, session.NewMemoryStore(time.Hour, time.Minute), stubPinger{})
	svc.On("Analyze", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

	rec := doRequest(e, http.MethodPost, "/api/v1/analysis", `{"ticker":"NVDA"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Analysis failed"}`, rec.Body.String())
}

func TestGetOverview(t *testing.T) {
	svc := new(MockDashboardService)
	e := newTestServer(svc, session.NewMemoryStore(time.Hour, time.Minute), stubPinger{})

	svc.On("Overview", mock.Anything, mock.Anything, mock.MatchedBy(func(req dto.OverviewRequest) bool {
		return req.IncludeSynthetic != nil && !*req.IncludeSynthetic
	})).Return(&dto.OverviewResponse{ActiveAssets: 2}, nil)

	rec := doRequest(e, http.MethodGet, "/api/v1/overview?include_synthetic=false", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"active_assets":2`)

	rec = doRequest(e, http.MethodGet, "/api/v1/overview?include_synthetic=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNumberOfCalls(t, "Overview", 1)
}

func TestGetHistory(t *testing.T) {
	svc := new(MockDashboardService)
	e := newTestServer(svc, session.NewMemoryStore(time.Hour, time.Minute), stubPinger{})

	svc.On("History", mock.Anything, mock.Anything, "BRK.B", (*bool)(nil)).
		Return(&dto.HistoryResponse{Ticker: "BRK.B", Trend: pulse.TrendSignal{State: pulse.TrendInsufficientData}}, nil)

	rec := doRequest(e, http.MethodGet, "/api/v1/tickers/BRK.B/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"INSUFFICIENT_DATA"`)

	rec = doRequest(e, http.MethodGet, "/api/v1/tickers/%24%24%24/history", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSession(t *testing.T) {
	svc := new(MockDashboardService)
	e := newTestServer(svc, session.NewMemoryStore(time.Hour, time.Minute), stubPinger{})
	svc.On("Session", mock.MatchedBy(func(s *session.State) bool { return s.ID == testSessionID })).
		Return(dto.SessionResponse{LastTicker: "TSLA", IncludeSynthetic: true})

	rec := doRequest(e, http.MethodGet, "/api/v1/session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"last_ticker":"TSLA","include_synthetic":true,"exports":0}`, rec.Body.String())
}

func TestSessionCookie_IssuedWhenMissing(t *testing.T) {
	svc := new(MockDashboardService)
	e := newTestServer(svc, session.NewMemoryStore(time.Hour, time.Minute), stubPinger{})
	svc.On("Session", mock.Anything).Return(dto.SessionResponse{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	req.AddCookie(&http.Cookie{Name: common.SessionCookieName, Value: "not-a-uuid"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, common.SessionCookieName, cookies[0].Name)
	assert.NotEqual(t, "not-a-uuid", cookies[0].Value)
	assert.Len(t, cookies[0].Value, 36)
	assert.True(t, cookies[0].HttpOnly)
}

func TestExport(t *testing.T) {
	svc := new(MockDashboardService)
	e := newTestServer(svc, session.NewMemoryStore(time.Hour, time.Minute), stubPinger{})
	svc.On("Export", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		_, _ = io.WriteString(args.Get(1).(io.Writer), "ticker,timestamp,pe_ratio,hype_score,gap_score,recommendation,headline\n")
	}).Return(nil)

	rec := doRequest(e, http.MethodGet, "/api/v1/export.csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "attachment;")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "ticker,timestamp"))
}

func TestSystemRoutes(t *testing.T) {
	e := newTestServer(new(MockDashboardService), session.NewMemoryStore(time.Hour, time.Minute), stubPinger{})

	rec := doRequest(e, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Corporate Pulse")

	rec = doRequest(e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(e, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	down := newTestServer(new(MockDashboardService), session.NewMemoryStore(time.Hour, time.Minute), stubPinger{err: errors.New("refused")})
	rec = doRequest(down, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
