package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/analysis"
	"github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/charts"
	"github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/dataset"
	apierrors "github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/errors"
	"github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/services"
	"github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/web"
)

type fakeService struct {
	snapshot   *services.Snapshot
	snapErr    error
	refreshErr error
	refreshed  int
	state      services.State
}

func (f *fakeService) Snapshot() (*services.Snapshot, error) {
	if f.snapErr != nil {
		return nil, f.snapErr
	}
	return f.snapshot, nil
}

func (f *fakeService) Refresh(ctx context.Context) error {
	f.refreshed++
	return f.refreshErr
}

func (f *fakeService) State() services.State { return f.state }

func readyService() *fakeService {
	row := func(country, region string, year int, conf, mdrNew float64) dataset.Row {
		return dataset.Row{
			Country: country, Region: region, Year: year,
			MDRNew:       dataset.F(mdrNew),
			TotalLabConf: dataset.F(conf),
		}
	}
	return &fakeService{
		state: services.StateReady,
		snapshot: &services.Snapshot{
			LoadedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
			Table: &dataset.Table{Rows: []dataset.Row{
				row("Afghanistan", "EMR", 2018, 120, 5),
				row("Afghanistan", "EMR", 2019, 135, 6),
				row("Brazil", "AMR", 2018, 590, 12),
				row("Brazil", "AMR", 2019, 610, 14),
			}},
		},
	}
}

func unavailableService() *fakeService {
	return &fakeService{
		state:   services.StateFailed,
		snapErr: apierrors.DataUnavailable(errors.New("remote gone")),
	}
}

func testRouter(t *testing.T, svc DatasetServiceInterface) chi.Router {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	errorHandler := apierrors.NewErrorHandler(logger)
	analyzer := analysis.NewAnalyzer(logger)
	visualizer := charts.NewVisualizer(analyzer, logger)
	renderer, err := web.NewRenderer()
	require.NoError(t, err)

	api := NewAPIHandler(svc, analyzer, visualizer, logger, errorHandler)
	export := NewExportHandler(svc, visualizer, logger, errorHandler)
	health := NewHealthHandler(svc, "test")
	pages := NewPageHandler(svc, analyzer, renderer, logger)

	r := chi.NewRouter()
	pages.RegisterRoutes(r)
	r.Route("/api", func(r chi.Router) {
		api.RegisterRoutes(r)
		r.Get("/health", health.Health)
		r.Mount("/export", export.Routes())
	})
	r.Get("/data/preview", api.DataPreview)
	return r
}

func do(t *testing.T, router chi.Router, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestGetVisualization(t *testing.T) {
	router := testRouter(t, readyService())

	rec := do(t, router, "/api/visualization/line")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	chart := body["chart"].(map[string]any)
	assert.Equal(t, "line", chart["kind"])
}

func TestGetVisualizationUnknownKind(t *testing.T) {
	rec := do(t, testRouter(t, readyService()), "/api/visualization/bogus")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "INVALID_INPUT", body["code"])
}

func TestGetVisualizationTopN(t *testing.T) {
	router := testRouter(t, readyService())

	rec := do(t, router, "/api/visualization/bar?top_n=1")
	require.Equal(t, http.StatusOK, rec.Code)
	chart := decode(t, rec)["chart"].(map[string]any)
	assert.Len(t, chart["labels"], 1)

	rec = do(t, router, "/api/visualization/bar?top_n=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, "/api/visualization/bar?top_n=-2")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Zero is rejected rather than falling back to the default count.
	rec = do(t, router, "/api/visualization/bar?top_n=0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", decode(t, rec)["code"])
}

func TestGetVisualizationAbsentChart(t *testing.T) {
	// No region or metric data, so the pie chart has nothing to show.
	svc := &fakeService{
		state: services.StateReady,
		snapshot: &services.Snapshot{Table: &dataset.Table{Rows: []dataset.Row{
			{Country: "Nowhere", Year: 2020},
		}}},
	}
	rec := do(t, testRouter(t, svc), "/api/visualization/pie")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, rec)["code"])
}

func TestGetVisualizationDataUnavailable(t *testing.T) {
	rec := do(t, testRouter(t, unavailableService()), "/api/visualization/line")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "DATA_UNAVAILABLE", decode(t, rec)["code"])
}

func TestGetAnalysis(t *testing.T) {
	router := testRouter(t, readyService())

	for _, kind := range analysis.Kinds() {
		rec := do(t, router, "/api/analysis/"+string(kind))
		require.Equal(t, http.StatusOK, rec.Code, "kind %s", kind)
		body := decode(t, rec)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, string(kind), body["type"])
		assert.NotNil(t, body["data"])
	}
}

func TestGetAnalysisUnknownKind(t *testing.T) {
	rec := do(t, testRouter(t, readyService()), "/api/analysis/bogus")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetAnalysisTopCountriesN(t *testing.T) {
	router := testRouter(t, readyService())

	rec := do(t, router, "/api/analysis/top_countries?n=1")
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].([]any)
	assert.Len(t, data, 1)

	rec = do(t, router, "/api/analysis/top_countries?n=zero")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, "/api/analysis/top_countries?n=0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDataPreview(t *testing.T) {
	rec := do(t, testRouter(t, readyService()), "/data/preview")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Len(t, body["data"], 4)

	meta := body["metadata"].(map[string]any)
	assert.Equal(t, float64(4), meta["total_rows"])
	assert.Equal(t, float64(2), meta["countries"])
	assert.Equal(t, float64(2018), meta["year_min"])
	assert.Equal(t, float64(2019), meta["year_max"])
}

func TestRefreshData(t *testing.T) {
	svc := readyService()
	rec := do(t, testRouter(t, svc), "/api/refresh-data")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.refreshed)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(4), body["rows"])
}

func TestRefreshDataFailure(t *testing.T) {
	svc := readyService()
	svc.refreshErr = apierrors.DataUnavailable(errors.New("remote gone"))
	rec := do(t, testRouter(t, svc), "/api/refresh-data")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, false, decode(t, rec)["success"])
}

func TestExportCSV(t *testing.T) {
	rec := do(t, testRouter(t, readyService()), "/api/export/csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "tb_data_")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".csv")
	assert.Contains(t, rec.Body.String(), "Afghanistan")
}

func TestExportReport(t *testing.T) {
	rec := do(t, testRouter(t, readyService()), "/api/export/report")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "tb_report_")
	assert.Contains(t, rec.Body.String(), "TB Drug Resistance Surveillance Report")
}

func TestExportExcel(t *testing.T) {
	rec := do(t, testRouter(t, readyService()), "/api/export/excel")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotEmpty(t, rec.Body.Bytes())
}

func TestExportWhileUnavailable(t *testing.T) {
	router := testRouter(t, unavailableService())
	for _, path := range []string{"/api/export/csv", "/api/export/report", "/api/export/excel"} {
		rec := do(t, router, path)
		assert.Equal(t, http.StatusInternalServerError, rec.Code, path)
	}
}

func TestHealth(t *testing.T) {
	rec := do(t, testRouter(t, readyService()), "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ready", body["dataset_state"])
	assert.Equal(t, float64(4), body["dataset_rows"])
}

func TestHealthUnavailable(t *testing.T) {
	rec := do(t, testRouter(t, unavailableService()), "/api/health")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "unavailable", body["status"])
	assert.Equal(t, "failed", body["dataset_state"])
}

func TestPages(t *testing.T) {
	router := testRouter(t, readyService())

	rec := do(t, router, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "TB Drug Resistance Surveillance")

	rec = do(t, router, "/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Top Countries")
	assert.Contains(t, rec.Body.String(), "Brazil")

	rec = do(t, router, "/visualizations")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "region_boxplot")
}

func TestDashboardPageUnavailable(t *testing.T) {
	rec := do(t, testRouter(t, unavailableService()), "/dashboard")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Something went wrong")
}
