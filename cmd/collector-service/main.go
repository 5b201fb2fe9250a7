package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuongbtq/statmon/internal/api/handler"
	"github.com/cuongbtq/statmon/internal/api/router"
	"github.com/cuongbtq/statmon/internal/collector"
	"github.com/cuongbtq/statmon/internal/collector/storage"
	"github.com/cuongbtq/statmon/internal/config"
	"github.com/cuongbtq/statmon/internal/monitor/metrics"
	"github.com/cuongbtq/statmon/shared/logger"
	"github.com/cuongbtq/statmon/shared/postgresql"
	"github.com/cuongbtq/statmon/shared/rabbitmq"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	// Parse command-line flags
	defaultConfigPath := os.Getenv("COLLECTOR_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/collector-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateCollectorConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		if err := appLogger.Close(); err != nil {
			log.Println(err)
		}
	}()

	appLogger.Info("Starting collector service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	// Initialize PostgreSQL client
	dbClient, err := initPostgreSQL(&cfg.Database, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbClient.Close()

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = dbClient.Migrate(migrateCtx, storage.Schema)
	migrateCancel()
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	appLogger.Info("Database connection established")

	// Initialize RabbitMQ client
	rabbitClient, err := initRabbitMQ(&cfg.RabbitMQ, cfg.App.Name, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
	}
	defer rabbitClient.Close()

	appLogger.Info("RabbitMQ connection established")

	sink, metricsHandler := initMetrics(&cfg.Metrics, appLogger.Logger)
	store := storage.NewStorage(dbClient.GetDB(), appLogger.Logger)

	// Create worker instance
	workerInstance := collector.NewWorker(&collector.Config{
		Logger:        appLogger.Logger,
		Broker:        rabbitClient,
		Store:         store,
		Metrics:       sink,
		Concurrency:   cfg.Collector.Concurrency,
		PrefetchCount: cfg.RabbitMQ.Consumer.PrefetchCount,
		StoreTimeout:  cfg.Collector.StoreTimeout,
		ConsumerTag:   cfg.RabbitMQ.Consumer.Tag,
	})

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workerDone := make(chan error, 1)
	go func() {
		workerDone <- workerInstance.Start(ctx)
	}()

	// Stats history API
	r := initRouter(cfg.App.Environment, appLogger.Logger, store, dbClient, rabbitClient, router.Options{
		MetricsHandler: metricsHandler,
		MetricsPath:    cfg.Metrics.Path,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	appLogger.Info("Collector service started successfully",
		slog.String("address", addr),
	)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-quit:
		appLogger.Info("Received signal, shutting down gracefully",
			slog.String("signal", sig.String()),
		)
	case err := <-workerDone:
		// The delivery channel closed underneath the worker
		if err == nil {
			err = errors.New("collector worker stopped unexpectedly")
		}
		appLogger.Error("Worker error", slog.Any("error", err))
		runErr = err
	case err := <-serverErr:
		appLogger.Error("Server failed", slog.Any("error", err))
		runErr = err
	}

	// Cancel context to stop worker
	cancel()
	workerInstance.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Collector.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown", slog.Any("error", err))
	}

	if runErr == nil {
		select {
		case <-workerDone:
			appLogger.Info("Worker stopped gracefully")
		case <-shutdownCtx.Done():
			appLogger.Warn("Worker shutdown timeout exceeded, forcing exit")
		}
	}

	appLogger.Info("Collector service shutdown complete")
	return runErr
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	loggerCfg := &logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	}

	return logger.New(loggerCfg)
}

// initPostgreSQL initializes the PostgreSQL database client
func initPostgreSQL(cfg *config.DatabaseConfig, logger *slog.Logger) (*postgresql.Client, error) {
	dbConfig := &postgresql.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}

	return postgresql.NewClient(dbConfig, logger)
}

// initRabbitMQ initializes the RabbitMQ client. The collector declares the same
// exchange, queue and binding as the monitor so either side can start first.
func initRabbitMQ(cfg *config.RabbitMQConfig, appID string, logger *slog.Logger) (*rabbitmq.Client, error) {
	rabbitConfig := &rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		ExchangeAutoDelete: cfg.Exchange.AutoDelete,
		QueueName:          cfg.Queue.Name,
		QueueDurable:       cfg.Queue.Durable,
		QueueAutoDelete:    cfg.Queue.AutoDelete,
		QueueExclusive:     cfg.Queue.Exclusive,
		QueueMessageTTL:    cfg.Queue.MessageTTL,
		RoutingKey:         cfg.RoutingKey,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		ConnectionTimeout:  cfg.Connection.ConnectionTimeout,
		AppID:              appID,
	}

	return rabbitmq.NewClient(rabbitConfig, logger)
}

// initMetrics returns the metrics sink and, when enabled, the scrape handler
func initMetrics(cfg *config.MetricsConfig, logger *slog.Logger) (metrics.Sink, http.Handler) {
	if !cfg.Enabled {
		return metrics.NewNoopSink(), nil
	}

	return metrics.NewPrometheusSink(prometheus.DefaultRegisterer, logger), promhttp.Handler()
}

// initRouter initializes the Gin router with the stats history routes
func initRouter(environment string, logger *slog.Logger, store *storage.Storage, dbClient *postgresql.Client, rabbitClient *rabbitmq.Client, opts router.Options) *gin.Engine {
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	handlerDeps := &handler.Dependencies{
		Logger:      logger,
		ServiceName: "collector-service",
		Stats:       store,
		Checks: map[string]handler.HealthChecker{
			"database": dbClient,
			"rabbitmq": rabbitClient,
		},
	}

	return router.SetupCollectorRouter(handlerDeps, opts)
}
