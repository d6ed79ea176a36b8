package http

import (
	"context"

	"github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/services"
)

// DatasetServiceInterface is the service surface the handlers depend on,
// satisfied by services.DatasetService.
type DatasetServiceInterface interface {
	Snapshot() (*services.Snapshot, error)
	Refresh(ctx context.Context) error
	State() services.State
}
