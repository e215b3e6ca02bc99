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

	_ "go.uber.org/automaxprocs"

	"github.com/okian/scorecast/internal/adapters/http/api"
	"github.com/okian/scorecast/internal/adapters/http/site"
	"github.com/okian/scorecast/internal/adapters/http/swagger"
	app "github.com/okian/scorecast/internal/app"
	"github.com/okian/scorecast/internal/config"
	"github.com/okian/scorecast/pkg/logger"
	"github.com/okian/scorecast/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Close() }()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Get().Error(ctx, "scorecast exited", logger.Error(err))
		_ = logger.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := setupLogging(cfg); err != nil {
		return err
	}
	log := logger.Get()

	svc := app.New(
		app.WithLogger(log.Named("service")),
		app.WithModelsDir(cfg.ModelsDir),
		app.WithLoadConcurrency(cfg.LoadConcurrency),
		app.WithPredictTimeout(cfg.PredictTimeout()),
	)
	// The registry is complete before the listener opens.
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           buildHandler(ctx, cfg, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// setupLogging re-initializes the global logger from cfg. An invalid level
// falls back to info.
func setupLogging(cfg *config.Config) error {
	opts := []logger.Option{logger.WithFormat(cfg.LogFormat)}
	if cfg.LogFile != "" {
		opts = append(opts, logger.WithFile(cfg.LogFile))
	}
	if err := logger.Init(opts...); err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(context.Background(), "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return nil
}

// buildHandler registers every route and wraps the mux in the shared
// middleware stack.
func buildHandler(ctx context.Context, cfg *config.Config, svc *app.Service) http.Handler {
	mux := http.NewServeMux()

	swagger.Register(ctx, mux)
	site.Register(ctx, mux)

	apiServer := api.NewServer(svc, svc, api.WithCORSOrigins(cfg.CORSAllowedOrigins))
	apiServer.Register(ctx, mux)

	return apiServer.Handler(mux)
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
