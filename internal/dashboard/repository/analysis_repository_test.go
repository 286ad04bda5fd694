package repository

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"corporate-pulse/internal/dashboard/config"
	"corporate-pulse/internal/pulse"
	"corporate-pulse/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAnalysisRepo(url string, timeout time.Duration) AnalysisRepository {
	return NewAnalysisRepository(config.Webhook{
		URL:                url,
		Timeout:            timeout,
		BreakerMaxFailures: 3,
		BreakerOpenTimeout: time.Minute,
	}, logger.NewNop())
}

func serveBody(status int, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func requireRemoteKind(t *testing.T, err error, kind pulse.RemoteErrorKind) *pulse.RemoteError {
	t.Helper()
	re, ok := pulse.AsRemoteError(err)
	require.True(t, ok, "expected *pulse.RemoteError, got %v", err)
	assert.Equal(t, kind, re.Kind)
	return re
}

func TestRequestAnalysis_SendsUppercaseTicker(t *testing.T) {
	var gotTicker, gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTicker = r.URL.Query().Get("ticker")
		gotToken = r.URL.Query().Get("token")
		_, _ = w.Write([]byte(`{"ticker":"NVDA","pe_ratio":45.2,"hype_score":80,"gap_score":0,"top_news":"Blackwell ramps"}`))
	}))
	defer srv.Close()

	repo := newTestAnalysisRepo(srv.URL+"/webhook/pulse?token=abc", time.Second)
	rec, err := repo.RequestAnalysis(context.Background(), " nvda ")
	require.NoError(t, err)

	assert.Equal(t, "NVDA", gotTicker)
	assert.Equal(t, "abc", gotToken)
	assert.Equal(t, "NVDA", rec.Ticker)
	assert.Equal(t, 45.2, rec.PERatio)
	assert.Equal(t, 80.0, rec.HypeScore)
	assert.Equal(t, "Blackwell ramps", rec.Headline)
}

func TestRequestAnalysis_ListBodyTakesFirstElement(t *testing.T) {
	srv := serveBody(http.StatusOK, `[{"ticker":"AMD","PERatio":"41.7","hype_score":"66"},{"ticker":"INTC"}]`)
	defer srv.Close()

	rec, err := newTestAnalysisRepo(srv.URL, time.Second).RequestAnalysis(context.Background(), "AMD")
	require.NoError(t, err)
	assert.Equal(t, "AMD", rec.Ticker)
	assert.Equal(t, 41.7, rec.PERatio)
	assert.Equal(t, 66.0, rec.HypeScore)
}

func TestRequestAnalysis_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   pulse.RemoteErrorKind
	}{
		{name: "non 200", status: http.StatusBadGateway, body: `{"error":"upstream"}`, kind: pulse.RemoteUnstable},
		{name: "not json", status: http.StatusOK, body: `<html>Workflow error</html>`, kind: pulse.RemoteMalformed},
		{name: "trailing markup", status: http.StatusOK, body: `{"ticker":"NVDA"} <html>oops`, kind: pulse.RemoteMalformed},
		{name: "unbalanced list", status: http.StatusOK, body: `[{"ticker":"NVDA"}]]`, kind: pulse.RemoteMalformed},
		{name: "two objects", status: http.StatusOK, body: `{"ticker":"NVDA"}{"x":1}`, kind: pulse.RemoteMalformed},
		{name: "empty list", status: http.StatusOK, body: `[]`, kind: pulse.RemoteEmpty},
		{name: "missing ticker", status: http.StatusOK, body: `{"pe_ratio":12}`, kind: pulse.RemoteEmpty},
		{name: "scalar body", status: http.StatusOK, body: `"ok"`, kind: pulse.RemoteEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serveBody(tt.status, tt.body)
			defer srv.Close()

			rec, err := newTestAnalysisRepo(srv.URL, time.Second).RequestAnalysis(context.Background(), "NVDA")
			assert.Nil(t, rec)
			re := requireRemoteKind(t, err, tt.kind)
			if tt.kind == pulse.RemoteUnstable {
				assert.Equal(t, tt.status, re.Status)
			}
		})
	}
}

func TestRequestAnalysis_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	rec, err := newTestAnalysisRepo(srv.URL, 50*time.Millisecond).RequestAnalysis(context.Background(), "TSLA")
	assert.Nil(t, rec)
	requireRemoteKind(t, err, pulse.RemoteTimeout)
}

func TestRequestAnalysis_RateLimitWaitIsTimeout(t *testing.T) {
	srv := serveBody(http.StatusOK, `{"ticker":"NVDA","pe_ratio":45.2,"hype_score":80}`)
	defer srv.Close()

	repo := NewAnalysisRepository(config.Webhook{
		URL:                 srv.URL,
		Timeout:             time.Second,
		MaxRequestPerMinute: 1,
	}, logger.NewNop())

	_, err := repo.RequestAnalysis(context.Background(), "NVDA")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	rec, err := repo.RequestAnalysis(ctx, "NVDA")
	assert.Nil(t, rec)
	requireRemoteKind(t, err, pulse.RemoteTimeout)
}

func TestRequestAnalysis_ConnectionError(t *testing.T) {
	srv := serveBody(http.StatusOK, `{}`)
	url := srv.URL
	srv.Close()

	rec, err := newTestAnalysisRepo(url, time.Second).RequestAnalysis(context.Background(), "TSLA")
	assert.Nil(t, rec)
	re := requireRemoteKind(t, err, pulse.RemoteConnectionError)
	assert.NotEmpty(t, re.Detail)
}

func TestRequestAnalysis_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	repo := newTestAnalysisRepo(srv.URL, time.Second)
	for i := 0; i < 3; i++ {
		_, err := repo.RequestAnalysis(context.Background(), "NVDA")
		requireRemoteKind(t, err, pulse.RemoteUnstable)
	}

	_, err := repo.RequestAnalysis(context.Background(), "NVDA")
	re := requireRemoteKind(t, err, pulse.RemoteConnectionError)
	assert.Equal(t, "circuit open", re.Detail)
	assert.EqualValues(t, 3, atomic.LoadInt32(&hits))
}

func TestRequestAnalysis_MalformedDoesNotTripBreaker(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	repo := newTestAnalysisRepo(srv.URL, time.Second)
	for i := 0; i < 5; i++ {
		_, err := repo.RequestAnalysis(context.Background(), "NVDA")
		requireRemoteKind(t, err, pulse.RemoteMalformed)
	}
	assert.EqualValues(t, 5, atomic.LoadInt32(&hits))
}
