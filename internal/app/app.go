// Package app wires configuration, services, and the HTTP server into the
// running dashboard application.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"

	"github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/analysis"
	"github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/charts"
	"github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/config"
	"github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/dataset"
	apperrors "github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/errors"
	"github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/infrastructure"
	custommw "github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/middleware"
	"github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/services"
	handlers "github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/internal/transport/http"
	"github.com/BawanthaBeliwaththa/Data-Visualizing-Dashboard/web"
)

// Version is overridable at build time with -ldflags.
var Version = "dev"

// Application is the dependency container for the dashboard.
type Application struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *infrastructure.Metrics
	Dataset *services.DatasetService
	Router  *chi.Mux
	Server  *http.Server
}

// New builds a fully wired application from configuration.
func New(cfg *config.Config) (*Application, error) {
	logger, err := infrastructure.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	metrics := infrastructure.NewMetrics()
	loader := dataset.NewLoader(cfg.Data, logger)
	pre := dataset.NewPreprocessor(logger)
	datasetService := services.NewDatasetService(loader, pre, metrics, logger)

	a := &Application{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
		Dataset: datasetService,
	}
	if err := a.setupRouter(); err != nil {
		return nil, err
	}

	a.Server = &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      a.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return a, nil
}

func (a *Application) setupRouter() error {
	renderer, err := web.NewRenderer()
	if err != nil {
		return err
	}

	logger := a.Logger
	errorHandler := apperrors.NewErrorHandler(logger)
	analyzer := analysis.NewAnalyzer(logger)
	visualizer := charts.NewVisualizer(analyzer, logger)

	api := handlers.NewAPIHandler(a.Dataset, analyzer, visualizer, logger, errorHandler)
	export := handlers.NewExportHandler(a.Dataset, visualizer, logger, errorHandler)
	health := handlers.NewHealthHandler(a.Dataset, Version)
	pages := handlers.NewPageHandler(a.Dataset, analyzer, renderer, logger)

	r := chi.NewRouter()
	r.Use(custommw.RequestID)
	r.Use(custommw.RealIP)

	r.Group(func(r chi.Router) {
		r.Use(custommw.StructuredLogger(logger))
		r.Use(custommw.Recoverer(logger))
		r.Use(custommw.Metrics(a.Metrics))
		r.Use(custommw.Compress(5))
		r.Use(custommw.SecurityHeaders)
		if a.Config.Security.EnableCORS {
			r.Use(custommw.CORS(custommw.CORSConfig{
				AllowedOrigins: a.Config.Security.AllowedOrigins,
				Logger:         logger,
			}))
		}
		if a.Config.Security.RateLimit.Enabled {
			r.Use(custommw.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				logger,
			).Handler)
		}
		r.Use(custommw.Timeout(a.Config.Server.WriteTimeout, logger))

		pages.RegisterRoutes(r)
		r.Get("/data/preview", api.DataPreview)
		r.Route("/api", func(r chi.Router) {
			api.RegisterRoutes(r)
			r.Get("/health", health.Health)
			r.Mount("/export", export.Routes())
		})

		// API callers get JSON, everyone else the error page.
		r.NotFound(func(w http.ResponseWriter, req *http.Request) {
			if strings.HasPrefix(req.URL.Path, "/api") || strings.HasPrefix(req.URL.Path, "/data") {
				errorHandler.NotFoundHandler(w, req)
				return
			}
			pages.NotFound(w, req)
		})
		r.MethodNotAllowed(errorHandler.MethodNotAllowedHandler)
	})

	// Scrape endpoint stays outside the middleware group.
	r.Handle("/metrics", a.Metrics.Handler())

	a.Router = r
	return nil
}

// Run starts the HTTP server, loads the dataset in the background, and
// blocks until ctx is cancelled, SIGINT/SIGTERM arrives, or the server
// fails.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Startup load uses the cache when present. Endpoints answer 500 until
	// it lands, so the server can come up before the data does.
	go func() {
		loadCtx, cancel := context.WithTimeout(context.Background(), 2*a.Config.Data.FetchTimeout)
		defer cancel()
		if err := a.Dataset.Initialize(loadCtx); err != nil {
			a.Logger.Error("initial dataset load failed", slog.String("error", err.Error()))
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("http server listening",
			slog.String("addr", a.Server.Addr),
			slog.String("version", Version))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down", slog.Duration("grace", a.Config.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	a.Logger.Info("server stopped")
	return nil
}
