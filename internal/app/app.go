package app

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"samarth/internal/config"
	"samarth/internal/dataset"
	"samarth/internal/errors"
	"samarth/internal/infrastructure"
	customMiddleware "samarth/internal/middleware"
	"samarth/internal/services"
	handlers "samarth/internal/transport/http"
)

const (
	// Version is the application version reported at startup
	Version = "1.0.0"
	// AppName is the human-readable application name
	AppName = "Samarth - Agricultural & Climate Insights"
)

// Application is the main application container
type Application struct {
	Config          *config.Config
	Router          *chi.Mux
	Server          *http.Server
	Loader          *dataset.Loader
	InsightsService *services.InsightsService
	HealthService   *services.HealthService
	Metrics         *customMiddleware.Metrics
	Logger          *slog.Logger
	WebFS           fs.FS
}

// NewApplication creates the application with all dependencies wired.
// webFS holds the embedded dashboard assets and may be nil in tests.
func NewApplication(webFS fs.FS) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("name", AppName),
		slog.String("version", Version))

	if err := cfg.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	app := &Application{
		Config: cfg,
		Logger: logger,
		WebFS:  webFS,
	}

	app.initializeServices()
	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices builds the loader and service layer
func (a *Application) initializeServices() {
	a.Loader = dataset.NewLoader(a.Config, a.Logger)
	a.InsightsService = services.NewInsightsService(a.Config, a.Loader, a.Logger)
	a.HealthService = services.NewHealthService(a.Loader, a.Logger)
	a.Metrics = customMiddleware.NewMetrics()
}

// setupRouter configures the HTTP router
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.Logger))
	r.Use(customMiddleware.SecurityHeaders)
	r.Use(a.Metrics.Handler)

	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
			AllowedOrigins: a.Config.Security.AllowedOrigins,
		}))
	}

	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	a.setupAPIRoutes(r)

	r.Handle("/metrics", a.Metrics.Expose())

	if a.WebFS != nil {
		web := handlers.NewWebHandler(a.WebFS)
		r.With(customMiddleware.Compress(5)).Handle("/*", web)
	}

	a.Router = r
}

// setupAPIRoutes mounts the API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	errorHandler := errors.NewErrorHandler(a.Logger, false)

	r.Route("/api", func(r chi.Router) {
		healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
		r.Get("/health", healthHandler.HealthCheck)

		insightsHandler := handlers.NewInsightsHandler(a.InsightsService, a.Logger, errorHandler)
		r.Mount("/insights", insightsHandler.Routes())

		referenceHandler := handlers.NewReferenceHandler(a.InsightsService, a.Logger, errorHandler)
		r.Mount("/reference", referenceHandler.Routes())
	})
}

// createServer builds the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start runs the HTTP server; cancel is invoked on a listener failure so
// the caller's shutdown path runs
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) {
	a.Logger.InfoContext(ctx, "server listening",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)),
		slog.String("level", a.Config.Logging.Level))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	// Warm the dataset caches in the background so the first request
	// doesn't pay the download cost
	go func() {
		if _, err := a.Loader.LoadTables(ctx); err != nil {
			a.Logger.WarnContext(ctx, "dataset warm-up failed",
				slog.String("error", err.Error()))
		}
	}()
}

// Stop gracefully shuts down the HTTP server
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.Logger.InfoContext(ctx, "shutdown complete")
	return nil
}

// Run starts the application and blocks until an interrupt arrives
func (a *Application) Run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a.Start(ctx, cancel)

	<-ctx.Done()

	return a.Stop(context.Background())
}
