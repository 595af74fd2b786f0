package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-workflow/internal/config"
	"github.com/jwalitptl/clinic-workflow/internal/handler/appointment"
	"github.com/jwalitptl/clinic-workflow/internal/handler/consultation"
	"github.com/jwalitptl/clinic-workflow/internal/handler/health"
	"github.com/jwalitptl/clinic-workflow/internal/handler/patient"
	"github.com/jwalitptl/clinic-workflow/internal/repository/sqlstore"
	"github.com/jwalitptl/clinic-workflow/internal/router"
	appointmentService "github.com/jwalitptl/clinic-workflow/internal/service/appointment"
	consultationService "github.com/jwalitptl/clinic-workflow/internal/service/consultation"
	patientService "github.com/jwalitptl/clinic-workflow/internal/service/patient"
	internalworker "github.com/jwalitptl/clinic-workflow/internal/worker"
	"github.com/jwalitptl/clinic-workflow/internal/workflow"
	"github.com/jwalitptl/clinic-workflow/pkg/logger"
	"github.com/jwalitptl/clinic-workflow/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-workflow/pkg/metrics"
	"github.com/jwalitptl/clinic-workflow/pkg/worker"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(cfg.ToLoggerConfig())
	log.Logger = appLogger.Zerolog()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(cfg.Metrics.Namespace, registry)

	// Initialize database
	db, err := sqlstore.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := sqlstore.Migrate(cfg.Database, db); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	// Initialize repositories
	store := sqlstore.NewStore(db)
	patientRepo := sqlstore.NewPatientRepository(db)
	appointmentRepo := sqlstore.NewAppointmentRepository(db)
	consultationRepo := sqlstore.NewConsultationRepository(db)
	outboxRepo := sqlstore.NewOutboxRepository(db)

	executor := workflow.NewExecutor(store, appLogger, appMetrics, workflow.WithOutbox(cfg.Outbox.Enabled))

	// Initialize services
	patientSvc := patientService.NewService(patientRepo, executor, appLogger, appMetrics)
	appointmentSvc := appointmentService.NewService(patientRepo, appointmentRepo, consultationRepo, executor, cfg.Location(), appLogger, appMetrics)
	consultationSvc := consultationService.NewService(patientRepo, appointmentRepo, consultationRepo, executor, appLogger, appMetrics)

	// Setup router
	r := router.NewRouter(router.RouterConfig{
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimit:        cfg.RateLimitRate(),
		RateBurst:        cfg.RateLimit.Burst,
		RateClientTTL:    cfg.RateLimit.ClientTTL,
		MetricsPrefix:    cfg.Metrics.Namespace + "_http",
		Registry:         registry,
	},
		health.NewHandler(store),
		patient.NewHandler(patientSvc, appointmentSvc, consultationSvc),
		appointment.NewHandler(appointmentSvc, consultationSvc),
		consultation.NewHandler(consultationSvc),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Outbox.Enabled && cfg.Outbox.EmbeddedWorker {
		broker, err := redis.NewRedisBroker(cfg.ToBrokerConfig(), appLogger)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer broker.Close()

		processor := worker.NewOutboxProcessor(outboxRepo, broker, cfg.ToWorkerConfig(), appLogger, appMetrics)
		go processor.Start(ctx)

		cleanup := internalworker.NewOutboxCleanupWorker(outboxRepo, cfg.Outbox.Retention, cfg.Outbox.CleanupInterval, appLogger, appMetrics)
		go cleanup.Start(ctx)
	}

	// Start server
	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
