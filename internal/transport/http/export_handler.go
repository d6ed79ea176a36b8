package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/charts"
	apierrors "github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/errors"
	"github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/exporter"
)

// ExportHandler serves downloadable exports of the processed dataset.
type ExportHandler struct {
	service      DatasetServiceInterface
	visualizer   *charts.Visualizer
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	now          func() time.Time
}

// NewExportHandler creates the export handler.
func NewExportHandler(service DatasetServiceInterface, visualizer *charts.Visualizer, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ExportHandler {
	return &ExportHandler{
		service:      service,
		visualizer:   visualizer,
		logger:       logger.With(slog.String("component", "export_handler")),
		errorHandler: errorHandler,
		now:          time.Now,
	}
}

// Routes returns the /api/export routes.
func (h *ExportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/report", h.ExportReport)
	r.Get("/csv", h.ExportCSV)
	r.Get("/excel", h.ExportExcel)
	return r
}

// ExportReport handles GET /api/export/report with a standalone HTML report
// attachment.
func (h *ExportHandler) ExportReport(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Snapshot()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	now := h.now()
	html, err := h.visualizer.GenerateReport(snap.Table, now)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.attach(w, fmt.Sprintf("tb_report_%s.html", h.stamp(now)), "text/html; charset=utf-8")
	w.Write(html)
}

// ExportCSV handles GET /api/export/csv, streaming the processed table.
func (h *ExportHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Snapshot()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.attach(w, fmt.Sprintf("tb_data_%s.csv", h.stamp(h.now())), "text/csv; charset=utf-8")
	if err := exporter.WriteCSV(w, snap.Table); err != nil {
		// Headers are gone; all we can do is log.
		h.logger.ErrorContext(r.Context(), "csv export aborted", slog.String("error", err.Error()))
	}
}

// ExportExcel handles GET /api/export/excel. The workbook is built in
// memory so a generation failure still yields a clean error response.
func (h *ExportHandler) ExportExcel(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Snapshot()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := exporter.WriteExcel(&buf, snap.Table); err != nil {
		h.errorHandler.HandleError(w, r, fmt.Errorf("build workbook: %w", err))
		return
	}

	h.attach(w, fmt.Sprintf("tb_data_%s.xlsx", h.stamp(h.now())),
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Write(buf.Bytes())
}

func (h *ExportHandler) attach(w http.ResponseWriter, filename, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}

func (h *ExportHandler) stamp(t time.Time) string {
	return t.Format("20060102_150405")
}
