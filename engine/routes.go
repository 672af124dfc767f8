package engine

import (
	"net/http"
	"strings"

	"github.com/drummonds/pageshot/database"
	"github.com/drummonds/pageshot/engine/pdfrenderer"
	"github.com/drummonds/pageshot/internal/build"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// StatusHandler will inject the variables needed into routes
type StatusHandler struct {
	DB       database.Repository // nil when history is disabled
	Echo     *echo.Echo
	Tracker  *RunTracker
	Progress *LatestProgress

	// Renderer enables POST /api/pages, rendered with Options unless the request overrides them
	Renderer pdfrenderer.Renderer
	Options  ConversionOptions
}

// NewStatusHandler creates an echo server with every status route registered
func NewStatusHandler(db database.Repository, tracker *RunTracker, progress *LatestProgress) *StatusHandler {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// JSON 404 for unknown API endpoints
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
		}
		if code == http.StatusNotFound && strings.HasPrefix(c.Request().URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, map[string]string{
				"error":   "Not Found",
				"message": "The requested API endpoint does not exist",
				"path":    c.Request().URL.Path,
			})
			return
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
	e.Use(middleware.CORSWithConfig(middleware.DefaultCORSConfig))

	handler := &StatusHandler{DB: db, Echo: e, Tracker: tracker, Progress: progress}
	handler.AddRoutes()
	return handler
}

// AddRoutes registers the status API on h.Echo
func (h *StatusHandler) AddRoutes() {
	h.Echo.GET("/api/health", h.GetHealth)
	h.Echo.GET("/api/progress", h.GetProgress)

	// Run history routes
	h.Echo.GET("/api/runs", h.GetRecentRuns)
	h.Echo.GET("/api/runs/active", h.GetActiveRuns)
	h.Echo.GET("/api/runs/:id", h.GetRun)
	h.Echo.GET("/api/runs/:id/conversions", h.GetRunConversions)
	h.Echo.POST("/api/runs/:id/cancel", h.CancelRun)

	// Single page rendering
	h.Echo.POST("/api/pages", h.RenderPage)
}

// GetHealth reports liveness and the build version
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{} "Service status"
// @Router /health [get]
func (h *StatusHandler) GetHealth(c echo.Context) error {
	active := 0
	if h.Tracker != nil {
		active = len(h.Tracker.Active())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"version":    build.Version,
		"history":    h.DB != nil,
		"rendering":  h.Renderer != nil,
		"activeRuns": active,
	})
}

// GetProgress returns the latest progress snapshot of the current run
func (h *StatusHandler) GetProgress(c echo.Context) error {
	if h.Progress == nil {
		return c.JSON(http.StatusNotFound, map[string]interface{}{
			"error": "No progress available",
		})
	}
	snapshot, ok := h.Progress.Load()
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]interface{}{
			"error": "No progress available",
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"progress": snapshot,
		"percent":  snapshot.Percent(),
	})
}
