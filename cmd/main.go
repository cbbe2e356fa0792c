package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/adapters/forecast"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/adapters/http/api"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/adapters/http/swagger"
	app "github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/app"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/config"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/domain/reschedule"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/pkg/logger"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Get().Error(ctx, "skyguard exited", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Defaults -> .env -> YAML file -> env.
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if cfg.LogFormat != "text" {
		if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
			return err
		}
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	opts, err := serviceOptions(cfg, log)
	if err != nil {
		return err
	}
	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	go startMetricsUpdater(ctx, svc, cfg.MetricsInterval())

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc),
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
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
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

// serviceOptions translates configuration into service options. The
// forecast source is the seeded simulator wrapped with metrics.
func serviceOptions(cfg *config.Config, log logger.Logger) ([]app.Option, error) {
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}
	w, r := cfg.Weather, cfg.Reschedule
	source := forecast.Instrument("simulated", forecast.NewSimulatedSource(
		forecast.WithSeed(w.Seed),
		forecast.WithLatencyRange(time.Duration(w.LatencyMinMS)*time.Millisecond, time.Duration(w.LatencyMaxMS)*time.Millisecond),
		forecast.WithHorizon(cfg.ForecastHorizon()),
	))
	return []app.Option{
		app.WithLogger(log),
		app.WithPolicy(policy),
		app.WithWeatherSource(source),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithAutoRelease(cfg.AutoRelease),
		app.WithSearchHorizon(cfg.RescheduleHorizon()),
		app.WithSlotShape(cfg.SlotStep(), cfg.FlightDuration()),
		app.WithForecastTimeout(cfg.ForecastTimeout()),
		app.WithEngineOptions(
			reschedule.WithMaxCandidates(r.MaxCandidates),
			reschedule.WithTimeout(cfg.RescheduleTimeout()),
			reschedule.WithConcurrency(r.Concurrency),
			reschedule.WithOperatingHours(r.OperatingStartHour, r.OperatingEndHour),
			reschedule.WithHorizon(cfg.ForecastHorizon()),
			reschedule.WithScorer(reschedule.LeadTimeScorer{Horizon: cfg.ForecastHorizon(), Decay: r.LeadTimeDecay}),
		),
	}, nil
}

// newMux registers the docs and business routes.
func newMux(ctx context.Context, svc *app.Service) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc).Register(ctx, mux)
	return mux
}

// startMetricsUpdater refreshes process and service gauges until ctx ends.
func startMetricsUpdater(ctx context.Context, svc *app.Service, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateMetrics(svc)
		}
	}
}

// updateMetrics refreshes process gauges; GetStats publishes the queue,
// worker and booking gauges itself.
func updateMetrics(svc *app.Service) {
	metrics.UpdateSystemMetrics()
	_ = svc.GetStats()
}
