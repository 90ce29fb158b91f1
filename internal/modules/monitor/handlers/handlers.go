// Package handlers provides HTTP handlers for the production monitoring API.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/fabricpulse/rtms/internal/modules/alerts"
	"github.com/fabricpulse/rtms/internal/modules/filters"
	"github.com/fabricpulse/rtms/internal/modules/hierarchy"
	"github.com/fabricpulse/rtms/internal/modules/monitor"
	"github.com/fabricpulse/rtms/internal/modules/reports"
)

// AlertLog reads previously persisted alerts.
type AlertLog interface {
	ListRecent(limit int) ([]alerts.Alert, error)
}

// Handler handles monitoring HTTP requests.
type Handler struct {
	service     *monitor.Service
	coordinator *filters.Coordinator
	alertLog    AlertLog
	reports     *reports.Writer
	log         zerolog.Logger
}

// NewHandler creates a new monitoring handler.
func NewHandler(
	service *monitor.Service,
	coordinator *filters.Coordinator,
	alertLog AlertLog,
	reportWriter *reports.Writer,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		service:     service,
		coordinator: coordinator,
		alertLog:    alertLog,
		reports:     reportWriter,
		log:         log.With().Str("handler", "monitor").Logger(),
	}
}

// RegisterRoutes registers all monitoring routes on the given router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/analyze", h.HandleAnalyze)
	r.Get("/efficiency", h.HandleEfficiency)
	r.Get("/hierarchy", h.HandleHierarchy)
	r.Get("/alerts", h.HandleAlerts)
	r.Get("/alerts/log", h.HandleAlertLog)
	r.Post("/refresh", h.HandleRefresh)
	r.Get("/filters/units", h.HandleFilterOptions(filters.SelectUnit))
	r.Get("/filters/floors", h.HandleFilterOptions(filters.SelectFloor))
	r.Get("/filters/lines", h.HandleFilterOptions(filters.SelectLine))
	r.Get("/filters/parts", h.HandleFilterOptions(filters.SelectPart))
	r.Post("/filters/select", h.HandleFilterSelect)
}

// HandleAnalyze returns the full analysis summary for the current selection.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	st := h.service.State()
	if st == nil {
		h.writeError(w, http.StatusServiceUnavailable, "No snapshot loaded yet")
		return
	}
	h.writeData(w, st.Summary, st.Summary.RecordsAnalyzed)
}

// HandleEfficiency returns the short unit→floor→line efficiency rollup.
func (h *Handler) HandleEfficiency(w http.ResponseWriter, r *http.Request) {
	st := h.service.State()
	if st == nil {
		h.writeError(w, http.StatusServiceUnavailable, "No snapshot loaded yet")
		return
	}
	tree := hierarchy.BuildTree(st.Tree.FlattenEmployees(), hierarchy.EfficiencyLevels(), h.service.Threshold())
	h.writeData(w, tree, tree.EmployeeCount)
}

// HandleHierarchy returns the full canonical rollup tree.
func (h *Handler) HandleHierarchy(w http.ResponseWriter, r *http.Request) {
	st := h.service.State()
	if st == nil {
		h.writeError(w, http.StatusServiceUnavailable, "No snapshot loaded yet")
		return
	}
	h.writeData(w, st.Tree, st.Tree.EmployeeCount)
}

// HandleAlerts returns the underperformer alerts from the latest rebuild.
func (h *Handler) HandleAlerts(w http.ResponseWriter, r *http.Request) {
	st := h.service.State()
	if st == nil {
		h.writeError(w, http.StatusServiceUnavailable, "No snapshot loaded yet")
		return
	}
	h.writeData(w, st.Alerts, len(st.Alerts))
}

// HandleAlertLog returns persisted alerts, newest first. Accepts ?limit=N.
func (h *Handler) HandleAlertLog(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = n
	}

	logged, err := h.alertLog.ListRecent(limit)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.writeData(w, logged, len(logged))
}

// HandleRefresh triggers an immediate snapshot fetch and rebuild.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Refresh(r.Context()); err != nil {
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	st := h.service.State()
	if st == nil {
		h.writeError(w, http.StatusServiceUnavailable, "No snapshot loaded yet")
		return
	}
	h.writeData(w, map[string]interface{}{
		"snapshot_id": st.SnapshotID,
		"records":     len(st.Records),
		"rebuilt_at":  st.RebuiltAt,
	}, len(st.Records))
}

// HandleFilterOptions returns the valid options for one cascade level,
// given the ancestor values in the query string. Options always come from
// the projection over the full snapshot, so they never shrink to just the
// currently selected path.
func (h *Handler) HandleFilterOptions(level filters.SelectionLevel) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		root := h.service.ProjectionTree()
		if root == nil {
			h.writeError(w, http.StatusServiceUnavailable, "No snapshot loaded yet")
			return
		}

		sel, err := selectionFromQuery(r, level)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		proj := filters.Project(root, sel)
		h.writeData(w, proj.Options, len(proj.Options))
	}
}

// selectionFromQuery builds the ancestor selection for an options request.
// Asking for floors requires unit, lines requires unit+floor, parts requires
// unit+floor+line. Units need no ancestors.
func selectionFromQuery(r *http.Request, level filters.SelectionLevel) (filters.Selection, error) {
	q := r.URL.Query()
	sel := filters.Selection{}
	ancestors := []struct {
		level filters.SelectionLevel
		param string
	}{
		{filters.SelectUnit, "unit_code"},
		{filters.SelectFloor, "floor_name"},
		{filters.SelectLine, "line_name"},
	}
	for _, a := range ancestors {
		if a.level >= level {
			break
		}
		value := q.Get(a.param)
		if value == "" {
			return sel, &missingParamError{param: a.param, level: level}
		}
		sel = sel.With(a.level, value)
	}
	return sel, nil
}

type missingParamError struct {
	param string
	level filters.SelectionLevel
}

func (e *missingParamError) Error() string {
	return "Missing required parameter '" + e.param + "' for " + e.level.String() + " options"
}

// HandleFilterSelect applies a filter change through the debounced
// coordinator. The response acknowledges the selection immediately; the
// rebuilt views arrive via the event stream once the debounce settles.
func (h *Handler) HandleFilterSelect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Level string `json:"level"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	level, ok := parseLevel(req.Level)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "Unknown filter level: "+req.Level)
		return
	}

	sel := h.coordinator.Set(level, req.Value)
	h.writeData(w, sel, 1)
}

func parseLevel(name string) (filters.SelectionLevel, bool) {
	switch name {
	case "unit":
		return filters.SelectUnit, true
	case "floor":
		return filters.SelectFloor, true
	case "line":
		return filters.SelectLine, true
	case "part":
		return filters.SelectPart, true
	}
	return 0, false
}

// HandleHourlyReport writes the flagged-employee CSV for the current
// snapshot and returns its path.
func (h *Handler) HandleHourlyReport(w http.ResponseWriter, r *http.Request) {
	st := h.service.State()
	if st == nil {
		h.writeError(w, http.StatusServiceUnavailable, "No snapshot loaded yet")
		return
	}

	path, err := h.reports.WriteFlagged(st.Tree.FlattenEmployees(), h.service.Threshold(), time.Now())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if path == "" {
		h.writeData(w, map[string]interface{}{"report": nil, "message": "No flagged employees"}, 0)
		return
	}
	h.writeData(w, map[string]interface{}{"report": path}, 1)
}

// writeData wraps a payload in the standard response envelope.
func (h *Handler) writeData(w http.ResponseWriter, data interface{}, count int) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "success",
		"data":      data,
		"count":     count,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]interface{}{
		"status":    "error",
		"error":     message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
