// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/voralis/envrisk/internal/adapters/repository"
	"github.com/voralis/envrisk/pkg/logger"
)

// ExportDependencies defines the interface for spreadsheet export.
type ExportDependencies interface {
	ExportReports(ctx context.Context, limit int) ([]repository.ReportRecord, error)
}

// ExportHandler serves recent assessments as an xlsx spreadsheet.
type ExportHandler struct {
	deps ExportDependencies
	log  logger.Logger
}

// NewExportHandler creates a new export handler.
func NewExportHandler(deps ExportDependencies) *ExportHandler {
	return &ExportHandler{deps: deps, log: logger.Get().Named("export")}
}

const exportSheet = "Assessments"

var exportColumns = []string{
	"id", "generated_at", "latitude", "longitude", "risk_score",
	"risk_level", "environmental_risk", "lifestyle_risk",
	"vulnerability_multiplier", "reduced_confidence", "paid",
}

// HandleExport handles GET /reports/export?limit=N requests.
func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	const op = "api.export_reports"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			respondError(w, fmt.Errorf("%s: %w: invalid limit %q", op, ErrBadRequest, raw))
			return
		}
		limit = n
	}

	recs, err := h.deps.ExportReports(r.Context(), limit)
	if err != nil {
		respondError(w, err)
		return
	}

	f, err := buildWorkbook(recs)
	if err != nil {
		h.log.Error(r.Context(), "workbook build failed", logger.Error(err))
		respondError(w, fmt.Errorf("%s: %w", op, err))
		return
	}
	defer func() { _ = f.Close() }()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="risk-reports.xlsx"`)
	if err := f.Write(w); err != nil {
		h.log.Error(r.Context(), "spreadsheet write failed", logger.Error(err))
	}
}

func buildWorkbook(recs []repository.ReportRecord) (*excelize.File, error) {
	f := excelize.NewFile()
	idx, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, fmt.Errorf("new sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}

	header := make([]any, len(exportColumns))
	for i, c := range exportColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("header row: %w", err)
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(exportColumns), 1)
	if err != nil {
		return nil, fmt.Errorf("header range: %w", err)
	}
	if err := f.SetCellStyle(exportSheet, "A1", last, style); err != nil {
		return nil, fmt.Errorf("apply style: %w", err)
	}

	for i, rec := range recs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("row cell: %w", err)
		}
		row := []any{
			rec.ID,
			rec.CreatedAt.UTC().Format(time.RFC3339),
			rec.Latitude,
			rec.Longitude,
			rec.RiskScore,
			string(rec.RiskLevel),
			rec.Report.EnvironmentalRisk,
			rec.Report.LifestyleRisk,
			rec.Report.VulnerabilityMultiplier,
			rec.ReducedConfidence,
			rec.Paid,
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("data row: %w", err)
		}
	}
	return f, nil
}
