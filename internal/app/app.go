package app

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"salespulse/internal/config"
	"salespulse/internal/errors"
	"salespulse/internal/files"
	"salespulse/internal/infrastructure"
	customMiddleware "salespulse/internal/middleware"
	"salespulse/internal/services"
	handlers "salespulse/internal/transport/http"
)

var (
	// Version is set at build time with -ldflags
	Version = config.AppVersion
	// BuildTime is set at build time with -ldflags; empty for go run
	BuildTime string
	// BuildID is a unique identifier for this build
	BuildID = generateBuildID()
)

func generateBuildID() string {
	h := sha256.New()
	h.Write([]byte(Version))
	h.Write([]byte(time.Now().Format("2006-01-02")))
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	Services      *ServiceContainer
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.AnalyticsMetrics
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Analytics *services.AnalyticsService
	Health    *services.HealthService
	Catalog   *files.Catalog
	Calendar  *config.Calendar
}

// Options tunes construction. Zero values select the defaults.
type Options struct {
	// OTel overrides the OpenTelemetry setup; nil uses DefaultOTelConfig.
	OTel *infrastructure.OTelConfig
}

// NewApplication loads configuration from the environment and builds the
// application.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger, Options{})
}

// New builds the application from an explicit configuration.
func New(cfg *config.Config, logger *slog.Logger, opts Options) (*Application, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", Version),
		slog.String("build_id", BuildID))

	otelProviders, err := infrastructure.InitializeOTel(opts.OTel, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.NewAnalyticsMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	cal, err := config.LoadCalendar(a.Config.Calendar.Path)
	if err != nil {
		return err
	}
	if err := cal.Validate(); err != nil {
		return errors.NewConfigError("invalid promotional calendar", err)
	}
	if a.Config.Calendar.Path != "" {
		a.Logger.Info("Promotional calendar loaded",
			slog.String("path", a.Config.Calendar.Path),
			slog.Int("windows", len(cal.Windows)))
	}

	catalog := files.NewCatalog(a.Config.Server.DataDir, a.Logger)
	if err := catalog.EnsureDir(); err != nil {
		return err
	}

	analytics := services.NewAnalyticsService(a.Config.Analysis, cal, a.Metrics, a.Logger)
	health := services.NewHealthService(Version, BuildTime, analytics, a.Logger)

	a.Services = &ServiceContainer{
		Analytics: analytics,
		Health:    health,
		Catalog:   catalog,
		Calendar:  cal,
	}
	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	errorHandler := errors.NewErrorHandler(a.Logger, a.Config.Logging.Development)
	validator := customMiddleware.NewValidator(a.Logger, errorHandler)

	// RequestID → RealIP → OTel → Logger → Recoverer → CORS → headers → rate limit → timeout
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics, a.Logger).Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(errorHandler))
	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(a.getCORSConfig()))
	}
	r.Use(customMiddleware.SecurityHeaders)
	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}
	if a.Config.Server.RequestTimeout > 0 {
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))
	}
	r.Use(validator.LimitBody)

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
	analyticsHandler := handlers.NewAnalyticsHandler(a.Services.Analytics, validator, a.Logger, errorHandler).
		WithCatalog(a.Services.Catalog)

	r.Route("/api", func(r chi.Router) {
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)
		r.Method(http.MethodGet, "/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP))
		r.Mount("/", analyticsHandler.Routes())
	})

	a.Router = r
}

func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	cfg := customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", customMiddleware.RequestIDHeader, "traceparent"},
		ExposedHeaders: []string{customMiddleware.RequestIDHeader},
		MaxAge:         300,
		Logger:         a.Logger,
	}
	if a.Config.Logging.Development {
		cfg.AllowedOrigins = append(cfg.AllowedOrigins, "http://localhost:3000", "http://127.0.0.1:3000")
	}
	return cfg
}

// createServer creates the HTTP server
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

// Preload loads a dataset before serving. "latest" picks the newest file
// in the data directory.
func (a *Application) Preload(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	if strings.EqualFold(path, "latest") {
		latest, err := a.Services.Catalog.Latest()
		if err != nil {
			return fmt.Errorf("preload: %w", err)
		}
		path = latest.Path
	} else {
		resolved, err := a.Services.Catalog.Resolve(path)
		if err != nil {
			return fmt.Errorf("preload: %w", err)
		}
		path = resolved
	}

	session, err := a.Services.Analytics.Load(ctx, path)
	if err != nil {
		return fmt.Errorf("preload %s: %w", path, err)
	}
	a.Logger.InfoContext(ctx, "Dataset preloaded", slog.String("session", session.String()))
	return nil
}

// Start starts the HTTP server in the background. A listen failure cancels ctx.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level),
		slog.String("data_dir", a.Services.Catalog.BaseDir()))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d/api", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.Services.Analytics.Invalidate(shutdownCtx)

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted or until ctx ends
func (a *Application) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
	}

	return a.Stop(ctx)
}

// performStartupHealthCheck checks that the data and export directories
// are usable. Problems are reported, not fatal.
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	var warnings []string

	dirs := map[string]string{
		"data":   a.Services.Catalog.BaseDir(),
		"export": a.Config.Export.Dir,
	}
	for name, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := checkWritable(dir); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s dir %s: %v", name, dir, err))
		}
	}

	if available, err := a.Services.Catalog.List(); err == nil {
		a.Logger.InfoContext(ctx, "Data directory scanned",
			slog.String("dir", a.Services.Catalog.BaseDir()),
			slog.Int("files", len(available)))
	}

	if len(warnings) > 0 {
		return fmt.Errorf("%s", strings.Join(warnings, "; "))
	}
	return nil
}

func checkWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".salespulse-probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
