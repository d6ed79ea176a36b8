package http

import (
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/services"
)

// HealthHandler reports service liveness and dataset state.
type HealthHandler struct {
	service DatasetServiceInterface
	started time.Time
	version string
}

// NewHealthHandler creates the health handler.
func NewHealthHandler(service DatasetServiceInterface, version string) *HealthHandler {
	return &HealthHandler{
		service: service,
		started: time.Now(),
		version: version,
	}
}

type healthResponse struct {
	Status   string `json:"status"`
	State    string `json:"dataset_state"`
	Rows     int    `json:"dataset_rows"`
	LoadedAt string `json:"dataset_loaded_at,omitempty"`
	Uptime   string `json:"uptime"`
	Version  string `json:"version"`
}

// Health handles GET /api/health. The process is alive either way; the
// status distinguishes whether a dataset is being served.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:  "degraded",
		State:   h.service.State().String(),
		Uptime:  time.Since(h.started).Round(time.Second).String(),
		Version: h.version,
	}
	if snap, err := h.service.Snapshot(); err == nil {
		resp.Status = "ok"
		resp.Rows = snap.Table.Len()
		resp.LoadedAt = snap.LoadedAt.UTC().Format(time.RFC3339)
	}
	if h.service.State() == services.StateFailed && resp.Rows == 0 {
		resp.Status = "unavailable"
	}

	render.JSON(w, r, resp)
}
