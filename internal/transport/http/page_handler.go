package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/analysis"
	"github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/charts"
	"github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/web"
)

// PageHandler serves the HTML pages.
type PageHandler struct {
	service  DatasetServiceInterface
	analyzer *analysis.Analyzer
	renderer *web.Renderer
	logger   *slog.Logger
}

// NewPageHandler creates the page handler.
func NewPageHandler(service DatasetServiceInterface, analyzer *analysis.Analyzer, renderer *web.Renderer, logger *slog.Logger) *PageHandler {
	return &PageHandler{
		service:  service,
		analyzer: analyzer,
		renderer: renderer,
		logger:   logger.With(slog.String("component", "page_handler")),
	}
}

// RegisterRoutes attaches the page routes to the root router.
func (h *PageHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Home)
	r.Get("/dashboard", h.Dashboard)
	r.Get("/visualizations", h.Visualizations)
}

type indexPage struct {
	State string
	Rows  int
}

// Home handles GET /.
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	page := indexPage{State: h.service.State().String()}
	if snap, err := h.service.Snapshot(); err == nil {
		page.Rows = snap.Table.Len()
	}
	h.render(w, r, "index.html.tmpl", page)
}

type dashboardPage struct {
	Summary      *analysis.SummaryStatistics
	Trends       []analysis.YearlyTrend
	TopCountries []analysis.CountryTotal
}

// Dashboard handles GET /dashboard.
func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Snapshot()
	if err != nil {
		h.renderError(w, r, http.StatusInternalServerError, "The dataset is not available yet. Try refreshing in a moment.")
		return
	}

	top, err := h.analyzer.TopCountries(snap.Table, analysis.DefaultTopN)
	if err != nil {
		h.renderError(w, r, http.StatusInternalServerError, "Dashboard data could not be computed.")
		return
	}

	h.render(w, r, "dashboard.html.tmpl", dashboardPage{
		Summary:      h.analyzer.SummaryStatistics(snap.Table),
		Trends:       h.analyzer.YearlyTrends(snap.Table),
		TopCountries: top,
	})
}

type visualizationsPage struct {
	ChartKinds []charts.Kind
}

// Visualizations handles GET /visualizations.
func (h *PageHandler) Visualizations(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "visualizations.html.tmpl", visualizationsPage{ChartKinds: charts.Kinds()})
}

// NotFound renders the HTML error page for unknown page routes.
func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusNotFound, "The page you requested does not exist.")
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.renderer.Render(w, name, data); err != nil {
		h.logger.ErrorContext(r.Context(), "page render failed",
			slog.String("template", name),
			slog.String("error", err.Error()))
	}
}

type errorPage struct {
	Message string
}

func (h *PageHandler) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.renderer.Render(w, "error.html.tmpl", errorPage{Message: message}); err != nil {
		h.logger.ErrorContext(r.Context(), "error page render failed", slog.String("error", err.Error()))
	}
}
