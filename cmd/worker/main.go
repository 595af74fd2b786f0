package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-workflow/internal/config"
	"github.com/jwalitptl/clinic-workflow/internal/repository/sqlstore"
	internalworker "github.com/jwalitptl/clinic-workflow/internal/worker"
	"github.com/jwalitptl/clinic-workflow/pkg/logger"
	"github.com/jwalitptl/clinic-workflow/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-workflow/pkg/metrics"
	"github.com/jwalitptl/clinic-workflow/pkg/worker"
)

const healthAddr = ":8081"

func setupHealthCheck(ready func(ctx context.Context) error, registry *prometheus.Registry, logger *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := ready(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: healthAddr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(err, "Health check server failed")
			os.Exit(1)
		}
	}()
	return srv
}

func main() {
	cfg, err := config.LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	appLogger := logger.NewLogger(cfg.ToLoggerConfig()).WithFields(map[string]interface{}{"component": "outbox-worker"})
	log.Logger = appLogger.Zerolog()

	registry := prometheus.NewRegistry()
	appMetrics := metrics.NewMetrics(cfg.Metrics.Namespace, registry)

	db, err := sqlstore.NewDB(cfg.Database)
	if err != nil {
		appLogger.Fatal(err, "Failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(cfg.ToBrokerConfig(), appLogger)
	if err != nil {
		appLogger.Fatal(err, "Failed to create Redis broker")
	}
	defer broker.Close()

	store := sqlstore.NewStore(db)
	outboxRepo := sqlstore.NewOutboxRepository(db)

	processor := worker.NewOutboxProcessor(outboxRepo, broker, cfg.ToWorkerConfig(), appLogger, appMetrics)
	cleanup := internalworker.NewOutboxCleanupWorker(outboxRepo, cfg.Outbox.Retention, cfg.Outbox.CleanupInterval, appLogger, appMetrics)

	healthSrv := setupHealthCheck(func(ctx context.Context) error {
		if err := store.Ping(ctx); err != nil {
			return err
		}
		return broker.Ping(ctx)
	}, registry, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		appLogger.Info("Shutting down...")
		cancel()
	}()

	go cleanup.Start(ctx)
	processor.Start(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	_ = healthSrv.Shutdown(shutdownCtx)
}
