package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/analysis"
	"github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/charts"
	"github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/dataset"
	apierrors "github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/errors"
)

// APIHandler serves the JSON API: chart payloads, analyses, the data
// preview, and the forced refresh.
type APIHandler struct {
	service      DatasetServiceInterface
	analyzer     *analysis.Analyzer
	visualizer   *charts.Visualizer
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewAPIHandler creates the API handler.
func NewAPIHandler(service DatasetServiceInterface, analyzer *analysis.Analyzer, visualizer *charts.Visualizer, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *APIHandler {
	return &APIHandler{
		service:      service,
		analyzer:     analyzer,
		visualizer:   visualizer,
		logger:       logger.With(slog.String("component", "api_handler")),
		errorHandler: errorHandler,
	}
}

// RegisterRoutes attaches the API routes to r, which is expected to be the
// /api subrouter.
func (h *APIHandler) RegisterRoutes(r chi.Router) {
	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/visualization/{chartType}", h.GetVisualization)
	r.Get("/analysis/{analysisType}", h.GetAnalysis)
	r.Get("/refresh-data", h.RefreshData)
}

type visualizationResponse struct {
	Success bool              `json:"success"`
	Chart   *charts.ChartSpec `json:"chart"`
}

// GetVisualization handles GET /api/visualization/{chartType}.
func (h *APIHandler) GetVisualization(w http.ResponseWriter, r *http.Request) {
	kind := charts.Kind(chi.URLParam(r, "chartType"))
	if !kind.Valid() {
		h.errorHandler.HandleError(w, r, apierrors.InvalidInput(fmt.Sprintf("unknown chart type %q", kind)))
		return
	}

	opts := charts.Options{}
	if raw := r.URL.Query().Get("top_n"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("top_n", "top_n must be a positive integer"))
			return
		}
		opts.TopN = n
	}

	snap, err := h.service.Snapshot()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	spec, err := h.visualizer.Build(kind, snap.Table, opts)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if spec == nil {
		h.errorHandler.HandleError(w, r, apierrors.NotFound(fmt.Sprintf("%s chart", kind)))
		return
	}

	render.JSON(w, r, visualizationResponse{Success: true, Chart: spec})
}

type analysisResponse struct {
	Success bool          `json:"success"`
	Type    analysis.Kind `json:"type"`
	Data    any           `json:"data"`
}

// GetAnalysis handles GET /api/analysis/{analysisType}.
func (h *APIHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	kind := analysis.Kind(chi.URLParam(r, "analysisType"))
	if !kind.Valid() {
		h.errorHandler.HandleError(w, r, apierrors.InvalidInput(fmt.Sprintf("unknown analysis type %q", kind)))
		return
	}

	snap, err := h.service.Snapshot()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var out any
	if kind == analysis.KindTopCountries {
		n := analysis.DefaultTopN
		if raw := r.URL.Query().Get("n"); raw != "" {
			n, err = strconv.Atoi(raw)
			if err != nil {
				h.errorHandler.HandleError(w, r, apierrors.ErrValidation("n", "n must be an integer"))
				return
			}
		}
		out, err = h.analyzer.TopCountries(snap.Table, n)
	} else {
		out, err = h.analyzer.Run(kind, snap.Table)
	}
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, analysisResponse{Success: true, Type: kind, Data: out})
}

const previewRows = 20

type previewMetadata struct {
	TotalRows int      `json:"total_rows"`
	Columns   []string `json:"columns"`
	Countries int      `json:"countries"`
	YearMin   int      `json:"year_min"`
	YearMax   int      `json:"year_max"`
}

type previewResponse struct {
	Success  bool            `json:"success"`
	Data     []dataset.Row   `json:"data"`
	Metadata previewMetadata `json:"metadata"`
}

// DataPreview handles GET /data/preview: the first rows of the processed
// table plus its shape.
func (h *APIHandler) DataPreview(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Snapshot()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	t := snap.Table
	yearMin, yearMax := t.YearRange()
	render.JSON(w, r, previewResponse{
		Success: true,
		Data:    t.Head(previewRows),
		Metadata: previewMetadata{
			TotalRows: t.Len(),
			Columns:   t.Columns(),
			Countries: t.UniqueCountries(),
			YearMin:   yearMin,
			YearMax:   yearMax,
		},
	})
}

type refreshResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Rows    int    `json:"rows"`
}

// RefreshData handles GET /api/refresh-data, forcing a reload from the
// remote source. On failure the previous dataset stays in service and the
// error is reported.
func (h *APIHandler) RefreshData(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Refresh(r.Context()); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	rows := 0
	if snap, err := h.service.Snapshot(); err == nil {
		rows = snap.Table.Len()
	}
	render.JSON(w, r, refreshResponse{
		Success: true,
		Message: "Dataset refreshed from remote source",
		Rows:    rows,
	})
}
