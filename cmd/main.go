package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/brandboard/internal/adapters/http/api"
	"github.com/okian/brandboard/internal/adapters/http/session"
	"github.com/okian/brandboard/internal/adapters/http/site"
	"github.com/okian/brandboard/internal/adapters/http/swagger"
	app "github.com/okian/brandboard/internal/app"
	"github.com/okian/brandboard/internal/config"
	"github.com/okian/brandboard/internal/domain/timeline"
	"github.com/okian/brandboard/pkg/logger"
	"github.com/okian/brandboard/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.InitWith(os.Stdout, cfg.LogFormat); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := buildService(ctx, cfg)
	if err != nil {
		loggerInstance.Error(ctx, "failed to build service", logger.Error(err))
		return
	}
	if err := svc.Start(ctx); err != nil {
		loggerInstance.Error(ctx, "failed to start service", logger.Error(err))
		return
	}

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := newHTTPServer(cfg, buildHandler(ctx, cfg, svc))

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("store", cfg.Store.Driver),
			logger.Bool("sessions", cfg.Session.Enabled))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "service shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// buildService opens the configured store and builds the dashboard service.
func buildService(ctx context.Context, cfg *config.Config) (*app.Service, error) {
	taxonomy, err := app.TaxonomyFromConfig(cfg.Attributes)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(cfg.Timeline.Location)
	if err != nil {
		return nil, err
	}
	granularity, err := timeline.ParseGranularity(cfg.Timeline.DefaultGranularity)
	if err != nil {
		return nil, err
	}

	store, err := app.OpenStore(ctx, cfg.Store, cfg.Breaker)
	if err != nil {
		return nil, err
	}

	return app.New(store,
		app.WithLogger(logger.Get().Named("service")),
		app.WithWorkerCount(cfg.Selection.WorkerCount),
		app.WithQueueSize(cfg.Selection.QueueSize),
		app.WithIdleTTL(cfg.Selection.IdleTTL),
		app.WithTables(app.TablesFromConfig(cfg.Store.Tables)),
		app.WithTaxonomy(taxonomy),
		app.WithLocation(loc),
		app.WithDefaultGranularity(granularity),
	), nil
}

// buildHandler assembles the router: session gating first, then the API,
// docs and dashboard page.
func buildHandler(ctx context.Context, cfg *config.Config, svc *app.Service) http.Handler {
	r := api.NewRouter()

	if cfg.Session.Enabled {
		gate := session.New(session.Config{
			CookieName:      cfg.Session.CookieName,
			Secret:          cfg.Session.JWTSecret,
			ProtectedPaths:  cfg.Session.ProtectedPaths,
			OnboardingPaths: cfg.Session.OnboardingPaths,
			LoginPath:       cfg.Session.LoginPath,
			OnboardingPath:  cfg.Session.OnboardingPath,
			ErrorPath:       cfg.Session.ErrorPath,
		}, svc)
		r.Use(gate.Handler)
	}

	api.NewServer(svc, svc,
		api.WithCORSOrigins(cfg.HTTP.CORSAllowedOrigins...),
		api.WithRateLimit(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow),
		api.WithMaxPlaces(cfg.HTTP.MaxPlaces),
	).Register(ctx, r)
	swagger.Register(ctx, r)
	site.Register(ctx, r)

	return r
}

func newHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics refreshes queue, worker and viewer gauges.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()

	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}
	if workerCount, ok := stats["workerCount"].(int); ok {
		metrics.UpdateWorkerCount(workerCount)
	}
	if viewers, ok := stats["trackedViewers"].(int); ok {
		metrics.UpdateTrackedViewers(viewers)
	}
}
