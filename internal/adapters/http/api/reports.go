// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/voralis/envrisk/internal/adapters/repository"
	service "github.com/voralis/envrisk/internal/app"
	"github.com/voralis/envrisk/internal/domain/profile"
	"github.com/voralis/envrisk/internal/domain/reading"
	"github.com/voralis/envrisk/internal/domain/report"
)

// ReportDependencies defines the interface for report operations.
type ReportDependencies interface {
	GenerateReport(ctx context.Context, in service.GenerateInput) (report.Report, error)
	Report(ctx context.Context, id string) (repository.ReportRecord, float64, error)
	Percentile(ctx context.Context, score float64) (float64, error)
	UnlockReport(ctx context.Context, id string) error
}

// ReportsHandler handles report generation and retrieval.
type ReportsHandler struct {
	deps ReportDependencies
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(deps ReportDependencies) *ReportsHandler {
	return &ReportsHandler{deps: deps}
}

// reportRequest mirrors the OpenAPI schema for POST /reports. Exactly
// one of profile_id and lifestyle must be supplied; pointers distinguish
// missing coordinates from zero values.
type reportRequest struct {
	Latitude  *float64         `json:"latitude"`
	Longitude *float64         `json:"longitude"`
	RequestID string           `json:"request_id,omitempty"`
	ProfileID string           `json:"profile_id,omitempty"`
	Lifestyle *profile.Profile `json:"lifestyle,omitempty"`
}

func (rr reportRequest) validate() error {
	if rr.Latitude == nil {
		return fmt.Errorf("%w: missing latitude", ErrBadRequest)
	}
	if rr.Longitude == nil {
		return fmt.Errorf("%w: missing longitude", ErrBadRequest)
	}
	return nil
}

// reportResponse is the flat report body plus its standing among
// previously generated reports.
type reportResponse struct {
	report.Report
	ScorePercentile float64 `json:"score_percentile"`
}

type unlockResponse struct {
	ReportID string `json:"report_id"`
	IsPaid   bool   `json:"is_paid"`
}

// HandlePostReport handles POST /reports requests.
func (h *ReportsHandler) HandlePostReport(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_report"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, fmt.Errorf("%s: %w: %v", op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		respondError(w, err)
		return
	}

	rep, err := h.deps.GenerateReport(r.Context(), service.GenerateInput{
		Location:   reading.Location{Latitude: *req.Latitude, Longitude: *req.Longitude},
		Profile:    req.Lifestyle,
		ProfileID:  req.ProfileID,
		RequestKey: req.RequestID,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	pct, err := h.deps.Percentile(r.Context(), rep.RiskScore)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reportResponse{Report: rep, ScorePercentile: pct})
}

// HandleReportPath dispatches GET /reports/{id} and
// POST /reports/{id}/unlock.
func (h *ReportsHandler) HandleReportPath(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/reports/")
	switch {
	case r.Method == http.MethodGet && rest != "" && !strings.Contains(rest, "/"):
		h.handleGetReport(w, r, rest)
	case r.Method == http.MethodPost && strings.HasSuffix(rest, "/unlock"):
		id := strings.TrimSuffix(rest, "/unlock")
		if id == "" || strings.Contains(id, "/") {
			respondError(w, ErrBadRequest)
			return
		}
		h.handleUnlock(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (h *ReportsHandler) handleGetReport(w http.ResponseWriter, r *http.Request, id string) {
	rec, pct, err := h.deps.Report(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reportResponse{Report: rec.Report, ScorePercentile: pct})
}

func (h *ReportsHandler) handleUnlock(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.deps.UnlockReport(r.Context(), id); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, unlockResponse{ReportID: id, IsPaid: true})
}
