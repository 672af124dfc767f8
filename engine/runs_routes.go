package engine

import (
	"net/http"
	"strconv"

	"github.com/drummonds/pageshot/database"
	"github.com/labstack/echo/v4"
	"github.com/oklog/ulid/v2"
)

func (h *StatusHandler) historyDisabled(c echo.Context) error {
	return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
		"error": "Run history is not enabled",
	})
}

// GetRun retrieves a run by ID
// @Summary Get run by ID
// @Description Retrieve details of a specific batch run by its ID
// @Tags Runs
// @Accept json
// @Produce json
// @Param id path string true "Run ID (ULID)"
// @Success 200 {object} database.Run "Run details"
// @Failure 400 {object} map[string]interface{} "Invalid run ID"
// @Failure 404 {object} map[string]interface{} "Run not found"
// @Router /runs/{id} [get]
func (h *StatusHandler) GetRun(c echo.Context) error {
	if h.DB == nil {
		return h.historyDisabled(c)
	}
	runIDStr := c.Param("id")

	runID, err := ulid.Parse(runIDStr)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "Invalid run ID format",
		})
	}

	run, err := h.DB.GetRun(runID)
	if err != nil {
		Logger.Error("Failed to get run", "runID", runIDStr, "error", err)
		return c.JSON(http.StatusNotFound, map[string]interface{}{
			"error": "Run not found",
		})
	}

	return c.JSON(http.StatusOK, run)
}

// GetRecentRuns retrieves recent runs with pagination
// @Summary Get recent runs
// @Description Retrieve a list of recent batch runs with pagination
// @Tags Runs
// @Accept json
// @Produce json
// @Param limit query int false "Number of runs to return (default: 20)"
// @Param offset query int false "Offset for pagination (default: 0)"
// @Success 200 {array} database.Run "List of runs"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /runs [get]
func (h *StatusHandler) GetRecentRuns(c echo.Context) error {
	if h.DB == nil {
		return h.historyDisabled(c)
	}
	limit := 20
	offset := 0

	if limitStr := c.QueryParam("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	if offsetStr := c.QueryParam("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	runs, err := h.DB.GetRecentRuns(limit, offset)
	if err != nil {
		Logger.Error("Failed to get recent runs", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "Failed to retrieve runs",
		})
	}

	if runs == nil {
		runs = []database.Run{}
	}

	return c.JSON(http.StatusOK, runs)
}

// GetActiveRuns retrieves all currently running or pending runs
func (h *StatusHandler) GetActiveRuns(c echo.Context) error {
	if h.DB == nil {
		return h.historyDisabled(c)
	}
	runs, err := h.DB.GetActiveRuns()
	if err != nil {
		Logger.Error("Failed to get active runs", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "Failed to retrieve active runs",
		})
	}

	if runs == nil {
		runs = []database.Run{}
	}

	return c.JSON(http.StatusOK, runs)
}

// GetRunConversions lists the per document outcomes of a run
func (h *StatusHandler) GetRunConversions(c echo.Context) error {
	if h.DB == nil {
		return h.historyDisabled(c)
	}
	runID, err := ulid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "Invalid run ID format",
		})
	}

	conversions, err := h.DB.GetRunConversions(runID)
	if err != nil {
		Logger.Error("Failed to get run conversions", "runID", runID, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"error": "Failed to retrieve conversions",
		})
	}

	if conversions == nil {
		conversions = []database.Conversion{}
	}

	return c.JSON(http.StatusOK, conversions)
}

// CancelRun stops an active run from claiming further documents
// @Summary Cancel a run
// @Description Documents already being converted finish, no new ones start
// @Tags Runs
// @Produce json
// @Param id path string true "Run ID (ULID)"
// @Success 202 {object} map[string]interface{} "Cancellation requested"
// @Failure 404 {object} map[string]interface{} "Run not active"
// @Router /runs/{id}/cancel [post]
func (h *StatusHandler) CancelRun(c echo.Context) error {
	runID, err := ulid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"error": "Invalid run ID format",
		})
	}

	if h.Tracker == nil || !h.Tracker.Cancel(runID) {
		return c.JSON(http.StatusNotFound, map[string]interface{}{
			"error": "Run not active",
		})
	}

	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"message": "Cancellation requested",
		"runId":   runID.String(),
	})
}
