package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"corporate-pulse/internal/dashboard/dto"
	"corporate-pulse/internal/dashboard/service"
	"corporate-pulse/internal/dashboard/session"
	"corporate-pulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// DashboardHandler handles HTTP requests for the dashboard API.
type DashboardHandler struct {
	dashboardService service.DashboardService
	sessions         session.Store
	logger           *logger.Logger
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(dashboardService service.DashboardService, sessions session.Store, logger *logger.Logger) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService, sessions: sessions, logger: logger}
}

// RegisterRoutes registers the dashboard routes to the Echo group.
func (h *DashboardHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/overview", h.GetOverview)
	g.POST("/analysis", h.Analyze)
	g.GET("/tickers/:ticker/history", h.GetHistory)
	g.GET("/session", h.GetSession)
	g.GET("/export.csv", h.Export)
}

// GetOverview godoc
// @Summary Market overview
// @Description Latest record per ticker with a valid P/E, for the reality vs hype scatter plot
// @Tags dashboard
// @Produce  json
// @Param   include_synthetic  query    bool  false  "Include simulation data"
// @Success 200 {object} dto.OverviewResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /overview [get]
func (h *DashboardHandler) GetOverview(c echo.Context) error {
	includeSynthetic, err := optionalBool(c.QueryParam("include_synthetic"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "include_synthetic must be a boolean"})
	}

	ctx := c.Request().Context()
	state := h.loadState(ctx, SessionID(c))

	resp, err := h.dashboardService.Overview(ctx, state, dto.OverviewRequest{IncludeSynthetic: includeSynthetic})
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to build overview", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load overview"})
	}
	h.saveState(ctx, state)

	return c.JSON(http.StatusOK, resp)
}

// Analyze godoc
// @Summary Analyze a ticker
// @Description Requests a fresh analysis from the engine and falls back to cached history when it fails
// @Tags dashboard
// @Accept  json
// @Produce  json
// @Param   analysis  body    dto.AnalysisRequest   true    "Ticker to analyze"
// @Success 200 {object} dto.AnalysisResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /analysis [post]
func (h *DashboardHandler) Analyze(c echo.Context) error {
	var req dto.AnalysisRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request payload"})
	}
	req.Ticker = strings.TrimSpace(req.Ticker)
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: errorMessage(err)})
	}

	ctx := c.Request().Context()
	id := SessionID(c)

	if err := h.sessions.Acquire(ctx, id); err != nil {
		if errors.Is(err, session.ErrBusy) {
			return c.JSON(http.StatusConflict, dto.ErrorResponse{Error: "An analysis is already running for this session"})
		}
		h.logger.WarnContext(ctx, "Failed to lock session, continuing without lock", logger.ErrorField(err))
	} else {
		defer func() {
			// the request context may already be canceled
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := h.sessions.Release(releaseCtx, id); err != nil {
				h.logger.Warn("Failed to release session lock", logger.ErrorField(err))
			}
		}()
	}

	state := h.loadState(ctx, id)
	exportsBefore := len(state.Exports)
	resp, err := h.dashboardService.Analyze(ctx, state, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "Analysis failed", logger.StringField("ticker", req.Ticker), logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Analysis failed"})
	}

	// other requests of this session may have saved while the webhook was pending
	latest := h.loadState(ctx, id)
	latest.MergeAnalysis(state, exportsBefore, req.IncludeSynthetic != nil)
	h.saveState(ctx, latest)

	return c.JSON(http.StatusOK, resp)
}

// GetHistory godoc
// @Summary Ticker history
// @Description Hype and gap over time for one ticker, with the trend signal
// @Tags dashboard
// @Produce  json
// @Param   ticker             path     string  true   "Ticker symbol"
// @Param   include_synthetic  query    bool    false  "Include simulation data"
// @Success 200 {object} dto.HistoryResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /tickers/{ticker}/history [get]
func (h *DashboardHandler) GetHistory(c echo.Context) error {
	ticker := strings.TrimSpace(c.Param("ticker"))
	if len(ticker) > 12 || !tickerPattern.MatchString(ticker) {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid ticker"})
	}
	includeSynthetic, err := optionalBool(c.QueryParam("include_synthetic"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "include_synthetic must be a boolean"})
	}

	ctx := c.Request().Context()
	state := h.loadState(ctx, SessionID(c))

	resp, err := h.dashboardService.History(ctx, state, ticker, includeSynthetic)
	if err != nil {
		h.logger.ErrorContext(ctx, "Failed to load history", logger.StringField("ticker", ticker), logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "Failed to load history"})
	}
	h.saveState(ctx, state)

	return c.JSON(http.StatusOK, resp)
}

// GetSession godoc
// @Summary Current session
// @Description Last analyzed ticker and result of the caller's session
// @Tags dashboard
// @Produce  json
// @Success 200 {object} dto.SessionResponse
// @Router /session [get]
func (h *DashboardHandler) GetSession(c echo.Context) error {
	state := h.loadState(c.Request().Context(), SessionID(c))
	return c.JSON(http.StatusOK, h.dashboardService.Session(state))
}

// Export godoc
// @Summary Export session results
// @Description CSV file with one row per analysis run in this session
// @Tags dashboard
// @Produce  text/csv
// @Success 200 {string} string "CSV file"
// @Failure 500 {object} dto.ErrorResponse
// @Router /export.csv [get]
func (h *DashboardHandler) Export(c echo.Context) error {
	state := h.loadState(c.Request().Context(), SessionID(c))

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	res.Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="corporate-pulse-%s.csv"`, time.Now().UTC().Format("20060102-150405")))
	res.WriteHeader(http.StatusOK)

	if err := h.dashboardService.Export(state, res); err != nil {
		h.logger.Error("Failed to write export", logger.ErrorField(err))
		return err
	}
	return nil
}

// loadState never fails the request; a broken store degrades to a fresh session.
func (h *DashboardHandler) loadState(ctx context.Context, id string) *session.State {
	state, err := h.sessions.Load(ctx, id)
	if err != nil {
		h.logger.WarnContext(ctx, "Failed to load session, starting fresh", logger.ErrorField(err))
		return session.New(id)
	}
	return state
}

func (h *DashboardHandler) saveState(ctx context.Context, state *session.State) {
	if err := h.sessions.Save(ctx, state); err != nil {
		h.logger.WarnContext(ctx, "Failed to save session", logger.ErrorField(err))
	}
}

func optionalBool(raw string) (*bool, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func errorMessage(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return fmt.Sprint(he.Message)
	}
	return err.Error()
}
