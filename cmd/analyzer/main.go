package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	app_service "wallet-cluster-analyzer/internal/application/service"
	"wallet-cluster-analyzer/internal/domain/repository"
	domain_service "wallet-cluster-analyzer/internal/domain/service"
	"wallet-cluster-analyzer/internal/infrastructure/config"
	"wallet-cluster-analyzer/internal/infrastructure/database"
	"wallet-cluster-analyzer/internal/infrastructure/labels"
	"wallet-cluster-analyzer/internal/infrastructure/logger"
	"wallet-cluster-analyzer/internal/infrastructure/messaging"
	"wallet-cluster-analyzer/internal/infrastructure/metrics"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

const labelLoadTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load(os.Getenv("WALLET_ANALYZER_CONFIG"))
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.App.LogLevel)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	app := fx.New(
		fx.Supply(cfg),
		fx.Supply(log),
		fx.Supply(&cfg.NATS),
		fx.Supply(&cfg.Neo4J),
		fx.Supply(&cfg.Labels),
		fx.Provide(func() *zap.Logger { return log.Logger }),

		// Infrastructure providers
		fx.Provide(
			database.NewNeo4JClient,
			newAnalysisRepository,
			labels.NewFileLabelRepository,
			messaging.NewNATSConsumer,
			newMetrics,
		),

		// Domain and application services
		fx.Provide(
			newEntityLabeler,
			app_service.NewAnalysisPipeline,
			func(s *app_service.AnalysisApplicationService) domain_service.AnalysisService { return s },
		),

		fx.Invoke(startAnalyzer),
		fx.Invoke(startHealthServer),

		fx.WithLogger(func() fxevent.Logger {
			return fxevent.NopLogger
		}),
	)

	ctx := context.Background()
	if err := app.Start(ctx); err != nil {
		log.Error("Failed to start application", zap.Error(err))
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down application...")

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.Stop(stopCtx); err != nil {
		log.Error("Failed to stop application gracefully", zap.Error(err))
		os.Exit(1)
	}

	log.Info("Application stopped successfully")
}

func newMetrics(cfg *config.Config) *metrics.Metrics {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return metrics.NewMetrics(cfg.Metrics.Namespace)
}

// newAnalysisRepository returns nil when persistence is disabled
func newAnalysisRepository(cfg *config.Config, client *database.Neo4JClient, log *logger.Logger) repository.AnalysisRepository {
	if !cfg.Persistence.Enabled {
		return nil
	}
	return database.NewNeo4JAnalysisRepository(client, cfg.Neo4J.BatchSize, log)
}

func newEntityLabeler(
	labelRepo repository.LabelSourceRepository,
	cfg *config.Config,
	m *metrics.Metrics,
	log *logger.Logger,
) (*domain_service.EntityLabeler, error) {
	ctx, cancel := context.WithTimeout(context.Background(), labelLoadTimeout)
	defer cancel()
	return app_service.NewEntityLabeler(ctx, labelRepo, cfg, m, log)
}

// startAnalyzer connects the transports and runs the request workers
func startAnalyzer(
	lifecycle fx.Lifecycle,
	consumer *messaging.NATSConsumer,
	analysisService domain_service.AnalysisService,
	neo4jClient *database.Neo4JClient,
	log *logger.Logger,
	cfg *config.Config,
) {
	runCtx, cancelRun := context.WithCancel(context.Background())
	done := make(chan struct{})

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting analyzer...")

			if cfg.Persistence.Enabled {
				if err := neo4jClient.Connect(ctx); err != nil {
					return fmt.Errorf("failed to connect to Neo4J: %w", err)
				}
			}

			log.Info("NATS Configuration",
				zap.String("url", cfg.NATS.URL),
				zap.String("stream_name", cfg.NATS.StreamName),
				zap.String("subject_prefix", cfg.NATS.SubjectPrefix),
				zap.Bool("enabled", cfg.NATS.Enabled),
			)

			if err := consumer.Connect(ctx); err != nil {
				return fmt.Errorf("failed to connect to NATS: %w", err)
			}

			processor := app_service.NewRequestProcessor(
				analysisService,
				consumer,
				cfg.App.WorkerPoolSize,
				cfg.App.AnalysisTimeout,
				log,
			)
			go func() {
				defer close(done)
				processor.Run(runCtx, consumer.GetMessageChannel())
			}()

			log.Info("Analyzer started", zap.Int("workers", cfg.App.WorkerPoolSize))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Stopping analyzer...")
			cancelRun()
			select {
			case <-done:
			case <-ctx.Done():
				log.Warn("Timed out waiting for in-flight analyses")
			}

			if err := consumer.Disconnect(); err != nil {
				log.Error("Failed to disconnect from NATS", zap.Error(err))
			}
			return neo4jClient.Close(ctx)
		},
	})
}

// startHealthServer serves /health and, when enabled, /metrics
func startHealthServer(
	lifecycle fx.Lifecycle,
	cfg *config.Config,
	m *metrics.Metrics,
	consumer *messaging.NATSConsumer,
	log *logger.Logger,
) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if cfg.NATS.Enabled && !consumer.IsConnected() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"degraded","nats":"disconnected"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if m != nil {
		mux.Handle("/metrics", m.Handler())
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting health server...", zap.Int("port", cfg.App.HTTPPort))
			go func() {
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("Health server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Stopping health server...")
			return server.Shutdown(ctx)
		},
	})
}
