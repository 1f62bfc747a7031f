// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/voralis/envrisk/internal/adapters/repository"
	service "github.com/voralis/envrisk/internal/app"
	"github.com/voralis/envrisk/internal/domain/profile"
	"github.com/voralis/envrisk/internal/domain/reading"
	"github.com/voralis/envrisk/internal/domain/report"
	"github.com/voralis/envrisk/internal/domain/risk"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SubmitProfile(ctx context.Context, p profile.Profile) (repository.ProfileRecord, error)
	Profile(ctx context.Context, id string) (repository.ProfileRecord, error)
	GenerateReport(ctx context.Context, in service.GenerateInput) (report.Report, error)
	Report(ctx context.Context, id string) (repository.ReportRecord, float64, error)
	Percentile(ctx context.Context, score float64) (float64, error)
	UnlockReport(ctx context.Context, id string) error
	Reading(ctx context.Context, d reading.Domain, loc reading.Location) (service.DomainReading, error)
	ExportReports(ctx context.Context, limit int) ([]repository.ReportRecord, error)
	Stats(ctx context.Context) service.Stats
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	readingsHandler  *ReadingsHandler
	profilesHandler  *ProfilesHandler
	reportsHandler   *ReportsHandler
	exportHandler    *ExportHandler
	dashboardHandler *dashboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(deps),
		readingsHandler:  NewReadingsHandler(deps),
		profilesHandler:  NewProfilesHandler(deps),
		reportsHandler:   NewReportsHandler(deps),
		exportHandler:    NewExportHandler(deps),
		dashboardHandler: newdashboardHandler(),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/dashboard", s.dashboardHandler.HandleDashboard)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/readings/", MetricsMiddleware(s.readingsHandler.HandleGetReading, "readings"))
	mux.HandleFunc("/profiles", MetricsMiddleware(s.profilesHandler.HandlePostProfile, "profiles"))
	mux.HandleFunc("/profiles/", MetricsMiddleware(s.profilesHandler.HandleGetProfile, "profiles"))
	mux.HandleFunc("/reports", MetricsMiddleware(s.reportsHandler.HandlePostReport, "reports"))
	mux.HandleFunc("/reports/export", MetricsMiddleware(s.exportHandler.HandleExport, "reports_export"))
	mux.HandleFunc("/reports/", MetricsMiddleware(s.reportsHandler.HandleReportPath, "reports"))
}

// errorResponse is the uniform error body. Field and Value are set for
// validation failures so clients can point at the offending input.
type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
	Value string `json:"value,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, body errorResponse) {
	if body.Error == "" {
		body.Error = http.StatusText(status)
	}
	writeJSON(w, status, body)
}

// respondError translates domain and service errors into HTTP statuses.
// Validation errors carry the failing field and value in the body.
func respondError(w http.ResponseWriter, err error) {
	var enumP *profile.InvalidEnumError
	if errors.As(err, &enumP) {
		writeError(w, http.StatusBadRequest, errorResponse{
			Error: "invalid enum value", Field: enumP.Field, Value: enumP.Value,
		})
		return
	}
	var enumR *reading.InvalidEnumError
	if errors.As(err, &enumR) {
		writeError(w, http.StatusBadRequest, errorResponse{
			Error: "invalid enum value", Field: enumR.Field, Value: enumR.Value,
		})
		return
	}
	var oor *reading.OutOfRangeError
	if errors.As(err, &oor) {
		writeError(w, http.StatusBadRequest, errorResponse{
			Error: "value out of range", Field: oor.Field, Value: formatFloat(oor.Value),
		})
		return
	}

	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, profile.ErrInvalidEnum),
		errors.Is(err, reading.ErrInvalidEnum),
		errors.Is(err, reading.ErrOutOfRange),
		errors.Is(err, risk.ErrMissingDomain),
		errors.Is(err, service.ErrProfileConflict),
		errors.Is(err, service.ErrProfileRequired):
		writeError(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrDomainDisabled):
		writeError(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrNotReady):
		writeError(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	default:
		writeError(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
