package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"corporate-pulse/internal/dashboard/config"
	"corporate-pulse/internal/pulse"
	"corporate-pulse/pkg/logger"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// AnalysisRepository asks the automation webhook to analyze one ticker.
type AnalysisRepository interface {
	RequestAnalysis(ctx context.Context, ticker string) (*pulse.Record, error)
}

type analysisRepository struct {
	cfg            config.Webhook
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
	breaker        *gobreaker.CircuitBreaker
	now            func() time.Time
}

// NewAnalysisRepository builds the webhook client. The client timeout is cfg.Timeout (30s when unset).
func NewAnalysisRepository(cfg config.Webhook, log *logger.Logger) AnalysisRepository {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	limit := rate.Inf
	if cfg.MaxRequestPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.MaxRequestPerMinute))
	}

	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 3
	}
	openTimeout := cfg.BreakerOpenTimeout
	if openTimeout <= 0 {
		openTimeout = 60 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "analysis-webhook",
		Timeout: openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			// The engine answered; a bad payload says nothing about its availability.
			re, ok := pulse.AsRemoteError(err)
			return ok && (re.Kind == pulse.RemoteMalformed || re.Kind == pulse.RemoteEmpty)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				logger.StringField("breaker", name),
				logger.StringField("from", from.String()),
				logger.StringField("to", to.String()))
		},
	})

	return &analysisRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		requestLimiter: rate.NewLimiter(limit, 1),
		breaker:        breaker,
		now:            time.Now,
	}
}

// RequestAnalysis issues one GET with the ticker as query parameter. Every failure is a *pulse.RemoteError.
func (r *analysisRepository) RequestAnalysis(ctx context.Context, ticker string) (*pulse.Record, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))

	result, err := r.breaker.Execute(func() (interface{}, error) {
		return r.fetch(ctx, ticker)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &pulse.RemoteError{Kind: pulse.RemoteConnectionError, Detail: "circuit open", Err: err}
		}
		return nil, err
	}
	return result.(*pulse.Record), nil
}

func (r *analysisRepository) fetch(ctx context.Context, ticker string) (*pulse.Record, error) {
	fields := []zap.Field{
		zap.String("ticker", ticker),
		zap.Duration("timeout", r.httpClient.Timeout),
	}

	if err := r.requestLimiter.Wait(ctx); err != nil {
		fields = append(fields, zap.Error(err))
		r.log.WarnContext(ctx, "Failed to wait for webhook request limit", fields...)
		// the limiter fails early when the wait would outlast the deadline
		return nil, &pulse.RemoteError{Kind: pulse.RemoteTimeout, Err: err}
	}

	endpoint, err := url.Parse(r.cfg.URL)
	if err != nil {
		return nil, &pulse.RemoteError{Kind: pulse.RemoteConnectionError, Detail: "invalid webhook url", Err: err}
	}
	query := endpoint.Query()
	query.Set("ticker", ticker)
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, &pulse.RemoteError{Kind: pulse.RemoteConnectionError, Detail: err.Error(), Err: err}
	}
	req.Header.Set("Accept", "application/json")

	started := r.now()
	resp, err := r.httpClient.Do(req)
	if err != nil {
		fields = append(fields, zap.Error(err))
		r.log.WarnContext(ctx, "Failed to send request to analysis webhook", fields...)
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	fields = append(fields, zap.Int("status_code", resp.StatusCode), zap.Duration("elapsed", r.now().Sub(started)))
	if resp.StatusCode != http.StatusOK {
		r.log.WarnContext(ctx, "Received non-OK response from analysis webhook", fields...)
		return nil, &pulse.RemoteError{Kind: pulse.RemoteUnstable, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fields = append(fields, zap.Error(err))
		r.log.WarnContext(ctx, "Failed to read response body from analysis webhook", fields...)
		return nil, classifyTransportError(err)
	}

	rec, err := decodeAnalysis(body, r.now())
	if err != nil {
		fields = append(fields, zap.Error(err))
		r.log.WarnContext(ctx, "Unusable response from analysis webhook", fields...)
		return nil, err
	}

	r.log.DebugContext(ctx, "Analysis webhook responded", fields...)
	return rec, nil
}

// decodeAnalysis accepts a JSON object or a non-empty JSON array whose first element is the record.
func decodeAnalysis(body []byte, receivedAt time.Time) (*pulse.Record, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var parsed interface{}
	if err := dec.Decode(&parsed); err != nil {
		return nil, &pulse.RemoteError{Kind: pulse.RemoteMalformed, Err: err}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after JSON value")
		}
		return nil, &pulse.RemoteError{Kind: pulse.RemoteMalformed, Err: err}
	}

	if list, ok := parsed.([]interface{}); ok {
		if len(list) == 0 {
			return nil, &pulse.RemoteError{Kind: pulse.RemoteEmpty}
		}
		parsed = list[0]
	}

	obj, ok := parsed.(map[string]interface{})
	if !ok {
		return nil, &pulse.RemoteError{Kind: pulse.RemoteEmpty}
	}

	rec, ok := pulse.FromPayload(obj, receivedAt)
	if !ok {
		return nil, &pulse.RemoteError{Kind: pulse.RemoteEmpty}
	}
	return &rec, nil
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &pulse.RemoteError{Kind: pulse.RemoteTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &pulse.RemoteError{Kind: pulse.RemoteTimeout, Err: err}
	}
	return &pulse.RemoteError{Kind: pulse.RemoteConnectionError, Detail: err.Error(), Err: err}
}
