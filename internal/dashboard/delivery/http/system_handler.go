package http

import (
	"context"
	_ "embed"
	"net/http"
	"time"

	"corporate-pulse/internal/dashboard/dto"
	"corporate-pulse/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed web/index.html
var indexHTML []byte

// Pinger checks a dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves the page, health and metrics endpoints.
type SystemHandler struct {
	datastore Pinger
	gatherer  prometheus.Gatherer
	logger    *logger.Logger
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(datastore Pinger, gatherer prometheus.Gatherer, logger *logger.Logger) *SystemHandler {
	return &SystemHandler{datastore: datastore, gatherer: gatherer, logger: logger}
}

// RegisterRoutes registers the system routes on the root router.
func (h *SystemHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Index)
	e.GET("/healthz", h.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
}

// Index serves the single page dashboard.
func (h *SystemHandler) Index(c echo.Context) error {
	return c.Blob(http.StatusOK, echo.MIMETextHTMLCharsetUTF8, indexHTML)
}

// Health godoc
// @Summary Liveness check
// @Description Reports whether the datastore answers a ping
// @Tags system
// @Produce  json
// @Success 200 {object} map[string]string
// @Failure 503 {object} dto.ErrorResponse
// @Router /healthz [get]
func (h *SystemHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	if err := h.datastore.Ping(ctx); err != nil {
		h.logger.WarnContext(ctx, "Health check failed", logger.ErrorField(err))
		return c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: "datastore unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
