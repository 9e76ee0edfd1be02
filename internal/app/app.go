package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"sharkclean/internal/config"
	"sharkclean/internal/dataprocessing"
	apierrors "sharkclean/internal/errors"
	"sharkclean/internal/infrastructure"
	customMiddleware "sharkclean/internal/middleware"
	"sharkclean/internal/operations"
	"sharkclean/internal/services"
	handlers "sharkclean/internal/transport/http"
	ws "sharkclean/internal/websocket"
	"sharkclean/pkg/contracts"
	"sharkclean/pkg/contracts/events"
)

// queueStopTimeout bounds how long Stop waits for running jobs
const queueStopTimeout = 30 * time.Second

// Application represents the main application container
type Application struct {
	Config      *config.Config
	Paths       *config.Paths
	Logger      *slog.Logger
	Router      *chi.Mux
	Server      *http.Server
	OTel        *infrastructure.OTelProviders
	Metrics     *infrastructure.BusinessMetrics
	Hub         *ws.Hub
	Broadcaster *operations.StatusBroadcaster
	JobQueue    *operations.JobQueue
	Scheduler   *Scheduler
	Services    *ServiceContainer

	errors    *apierrors.ErrorHandler
	validator *customMiddleware.Validator
	startTime time.Time
	cancel    context.CancelFunc
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Cleaning *services.CleaningService
	Classify *services.ClassifyService
	Datasets *services.DatasetService
	Health   *services.HealthService
}

// NewApplication loads configuration from configFile (empty searches the
// usual locations), initializes the global logger and builds the application.
func NewApplication(configFile string) (*Application, error) {
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadFile(configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return New(cfg, logger)
}

// New wires every component from cfg. Nothing is started until Start.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version))

	paths := cfg.ResolvedPaths()
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	otelProviders, err := infrastructure.InitializeOTel(
		infrastructure.OTelConfigFrom(cfg.Telemetry, contracts.Version), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:    cfg,
		Paths:     paths,
		Logger:    logger,
		OTel:      otelProviders,
		errors:    apierrors.NewErrorHandler(logger, false),
		validator: customMiddleware.NewValidator(),
		startTime: time.Now(),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	app.setupRouter()
	app.createServer()
	return app, nil
}

// initializeServices builds the hub, the job queue and the services in
// dependency order.
func (a *Application) initializeServices() error {
	meter := a.OTel.Meter

	metrics, err := infrastructure.CreateBusinessMetrics(meter)
	if err != nil {
		return fmt.Errorf("failed to create business metrics: %w", err)
	}
	a.Metrics = metrics

	if err := infrastructure.RegisterSystemMetrics(meter, a.startTime); err != nil {
		return fmt.Errorf("failed to register system metrics: %w", err)
	}

	wsMetrics, err := ws.NewMetrics(meter)
	if err != nil {
		return fmt.Errorf("failed to create websocket metrics: %w", err)
	}
	pipelineMetrics, err := dataprocessing.NewPipelineMetrics(meter)
	if err != nil {
		return fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	// The hub replays job snapshots to new clients; the broadcaster needs the
	// hub to publish. The closure breaks the cycle.
	a.Hub = ws.NewHub(a.Logger,
		ws.WithMetrics(wsMetrics),
		ws.WithSnapshots(func() []*events.JobSnapshot { return a.Broadcaster.Snapshots() }))
	a.Broadcaster = operations.NewStatusBroadcaster(a.Hub, a.Logger)

	cleaning := services.NewCleaningService(a.Config, a.Paths, a.Logger,
		services.WithPipelineTracer(a.OTel.Tracer),
		services.WithPipelineMetrics(pipelineMetrics))

	a.JobQueue = operations.NewJobQueue(
		a.Config.Cleaning.JobWorkers,
		a.Config.Cleaning.JobQueueSize,
		operations.NewMemoryJobStore(),
		cleaning,
		a.Logger,
		operations.WithBroadcaster(a.Broadcaster),
		operations.WithMetrics(metrics),
		operations.WithTracer(operations.NewJobTracer(a.OTel.Tracer)),
	)

	a.Services = &ServiceContainer{
		Cleaning: cleaning,
		Classify: services.NewClassifyService(a.Config.Cleaning.BatchWorkers, metrics, a.Logger),
		Datasets: services.NewDatasetService(a.Config, a.Paths, a.Logger),
		Health:   services.NewHealthService(a.Paths, a.Hub, a.JobQueue, a.Logger),
	}

	scheduler, err := NewScheduler(a.Config.Schedule, a.Config.Cleaning.Impute, a.JobQueue, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	a.Scheduler = scheduler
	return nil
}

// setupRouter configures middleware and routes. The WebSocket and metrics
// endpoints sit outside the group so no middleware wraps their writers.
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	r.NotFound(a.errors.NotFound)
	r.MethodNotAllowed(a.errors.MethodNotAllowed)

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.With(
		customMiddleware.WebSocketTrace(a.Logger),
		customMiddleware.StructuredLogger(a.Logger),
		customMiddleware.Recoverer(a.errors),
	).Handle("/ws", ws.NewHandler(a.Hub, a.Config.WebSocket, a.Config.Security.AllowedOrigins, a.Logger))

	if a.OTel.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTel.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.NewOTelMiddleware(a.OTel.Tracer, a.Metrics, a.Logger).Handler)
		// logs at a level per status, with redacted JSON bodies on 4xx/5xx
		r.Use(apierrors.NewErrorMiddleware(a.errors, a.Logger).Handler)
		r.Use(customMiddleware.DefaultSecureHeaders().Handler)
		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.corsConfig()))
		}
		if rl := a.Config.Security.RateLimit; rl.Enabled {
			r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.Logger, a.errors).Handler)
		}
		r.Use(customMiddleware.AuditLog(a.Logger))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.errors))

		a.setupAPIRoutes(r)
		r.Get("/", handlers.ServeStatusPage(a.JobQueue, a.Logger))
	})

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	health := handlers.NewHealthHandler(a.Services.Health, a.Logger)
	classify := handlers.NewClassifyHandler(a.Services.Classify, a.validator, a.errors, a.Logger)
	clean := handlers.NewCleanHandler(a.Services.Cleaning, a.validator, a.errors,
		a.Config.Cleaning.OutputSheet, a.Config.Cleaning.Impute, a.Logger)
	jobs := handlers.NewJobsHandler(a.JobQueue, a.Services.Datasets, a.validator, a.errors,
		a.Config.Cleaning.Impute, a.Logger)
	datasets := handlers.NewDatasetHandler(a.Services.Datasets, a.validator, a.errors, a.Logger)
	clientLog := handlers.NewClientLogHandler(a.validator, a.errors, a.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		r.Get("/health", health.HealthCheck)
		r.Get("/health/ready", health.ReadinessCheck)
		r.Get("/health/live", health.LivenessCheck)
		r.Get("/version", health.Version)

		r.Route("/v1", func(r chi.Router) {
			// Uploads are already compressed workbooks
			r.With(customMiddleware.MaxBody(a.Config.Cleaning.MaxUploadBytes)).Post("/clean", clean.Clean)

			r.Group(func(r chi.Router) {
				r.Use(customMiddleware.Compress(5))
				r.Use(customMiddleware.MaxBody(maxJSONBody))

				r.Post("/time/classify", classify.Classify)
				r.Mount("/jobs", jobs.Routes())
				r.Get("/datasets", datasets.List)
				r.Get("/profile", datasets.Profile)
				r.Get("/stats", health.Stats)
				r.Post("/client-log", clientLog.Handle)
			})
		})
	})
}

// maxJSONBody caps JSON request bodies. A full classify request of short
// strings fits comfortably.
const maxJSONBody = 8 << 20

func (a *Application) corsConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders: []string{
			"Location",
			"X-Request-ID",
			handlers.HeaderCleaningReport,
		},
		MaxAge: 300,
		Logger: a.Logger,
	}
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

// StartBackground starts the hub, the job queue and the scheduler. Start
// calls it before serving; tests call it directly.
func (a *Application) StartBackground(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)
	a.Hub.Start()
	a.JobQueue.Start(ctx)
	a.Scheduler.Start()
}

// Start starts the background services and the HTTP server. A listener
// failure cancels ctx through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("version", contracts.Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("raw_dir", a.Paths.RawDir),
		slog.String("clean_dir", a.Paths.CleanDir))

	a.StartBackground(ctx)

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	if status := a.Services.Health.ReadinessCheck(ctx); status.Status != "ready" {
		a.Logger.WarnContext(ctx, "Startup readiness check failed", slog.Any("services", status.Services))
	}

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application: the server drains first, then the
// scheduler, running jobs and the hub.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}

	a.stopBackground(ctx)

	if err := a.OTel.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

func (a *Application) stopBackground(ctx context.Context) {
	a.Scheduler.Stop()
	if err := a.JobQueue.Stop(queueStopTimeout); err != nil {
		a.Logger.ErrorContext(ctx, "Failed to stop job queue gracefully", slog.String("error", err.Error()))
	}
	if a.cancel != nil {
		a.cancel()
	}
	a.Broadcaster.Stop()
	a.Hub.Stop()
}

// Run runs the application until SIGINT or SIGTERM
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "Received signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		a.Logger.WarnContext(ctx, "Server stopped unexpectedly")
	}

	return a.Stop(context.Background())
}
