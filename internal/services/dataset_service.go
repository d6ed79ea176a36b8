// Package services holds the application services behind the HTTP handlers.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/dataset"
	apperrors "github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/errors"
	"github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/infrastructure"
)

// State is the dataset lifecycle state.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
	StateFailed
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Snapshot is an immutable view of the loaded dataset. Callers must not
// mutate the table.
type Snapshot struct {
	Table    *dataset.Table
	LoadedAt time.Time
}

// DataProvider loads the raw dataset. Satisfied by dataset.Loader.
type DataProvider interface {
	Load(ctx context.Context, forceReload bool) (*dataset.RawTable, error)
}

// DatasetService owns the in-memory dataset and its lifecycle. The snapshot
// is replaced atomically under the write lock; a failed refresh keeps the
// previous snapshot so readers never lose a working dataset. Concurrent
// refreshes collapse into one underlying load whose result all callers
// share.
type DatasetService struct {
	loader  DataProvider
	pre     *dataset.Preprocessor
	metrics *infrastructure.Metrics
	logger  *slog.Logger

	mu       sync.RWMutex
	state    State
	snapshot *Snapshot
	lastErr  error

	group singleflight.Group
	now   func() time.Time
}

// NewDatasetService creates the service. metrics may be nil.
func NewDatasetService(loader DataProvider, pre *dataset.Preprocessor, metrics *infrastructure.Metrics, logger *slog.Logger) *DatasetService {
	return &DatasetService{
		loader:  loader,
		pre:     pre,
		metrics: metrics,
		logger:  logger.With(slog.String("component", "dataset_service")),
		now:     time.Now,
	}
}

// State returns the current lifecycle state.
func (s *DatasetService) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Snapshot returns the current dataset. It fails until the first successful
// load.
func (s *DatasetService) Snapshot() (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		if s.lastErr != nil {
			return nil, apperrors.DataUnavailable(s.lastErr)
		}
		return nil, apperrors.DataUnavailable(fmt.Errorf("dataset not initialized"))
	}
	return s.snapshot, nil
}

// Initialize performs the startup load, honoring the cache.
func (s *DatasetService) Initialize(ctx context.Context) error {
	return s.load(ctx, false)
}

// Refresh forces a reload from the remote source. Concurrent calls share a
// single load.
func (s *DatasetService) Refresh(ctx context.Context) error {
	return s.load(ctx, true)
}

func (s *DatasetService) load(ctx context.Context, force bool) error {
	_, err, _ := s.group.Do("load", func() (any, error) {
		return nil, s.doLoad(ctx, force)
	})
	return err
}

func (s *DatasetService) doLoad(ctx context.Context, force bool) error {
	s.mu.Lock()
	if s.state == StateUninitialized || s.state == StateFailed {
		s.state = StateInitializing
	}
	s.mu.Unlock()

	started := s.now()
	raw, err := s.loader.Load(ctx, force)
	if err == nil {
		var table *dataset.Table
		table, err = s.pre.Process(raw)
		if err == nil {
			s.install(table)
			s.logger.InfoContext(ctx, "dataset loaded",
				slog.Int("rows", table.Len()),
				slog.Bool("forced", force),
				slog.Duration("took", s.now().Sub(started)))
			s.observeRefresh("success")
			return nil
		}
	}

	s.mu.Lock()
	s.lastErr = err
	if s.snapshot == nil {
		s.state = StateFailed
	} else {
		// Keep serving the previous snapshot.
		s.state = StateReady
	}
	s.mu.Unlock()

	s.logger.ErrorContext(ctx, "dataset load failed",
		slog.Bool("forced", force),
		slog.String("error", err.Error()))
	s.observeRefresh("failure")
	return apperrors.DataUnavailable(err)
}

func (s *DatasetService) install(table *dataset.Table) {
	s.mu.Lock()
	s.snapshot = &Snapshot{Table: table, LoadedAt: s.now()}
	s.state = StateReady
	s.lastErr = nil
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.DatasetRows.Set(float64(table.Len()))
	}
}

func (s *DatasetService) observeRefresh(outcome string) {
	if s.metrics != nil {
		s.metrics.RefreshTotal.WithLabelValues(outcome).Inc()
	}
}
