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
	"github.com/cuongbtq/statmon/internal/config"
	"github.com/cuongbtq/statmon/internal/monitor/metrics"
	"github.com/cuongbtq/statmon/internal/monitor/scheduler"
	"github.com/cuongbtq/statmon/internal/monitor/task"
	"github.com/cuongbtq/statmon/shared/logger"
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
	defaultConfigPath := os.Getenv("MONITOR_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/monitor-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateMonitorConfig(); err != nil {
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

	appLogger.Info("Starting monitor service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	// Initialize RabbitMQ client
	rabbitClient, err := initRabbitMQ(&cfg.RabbitMQ, cfg.App.Name, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
	}
	defer rabbitClient.Close()

	appLogger.Info("RabbitMQ connection established")

	sink, metricsHandler := initMetrics(&cfg.Metrics, appLogger.Logger)

	// Repeating timer shared by every monitoring job
	timer := scheduler.NewCronTimer(appLogger.Logger)
	timer.Start()

	sched := initScheduler(cfg, timer, rabbitClient, sink, appLogger.Logger)

	// Initialize router
	r := initRouter(cfg.App.Environment, appLogger.Logger, sched, rabbitClient, router.Options{
		MetricsHandler: metricsHandler,
		MetricsPath:    cfg.Metrics.Path,
	})

	// Create HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	appLogger.Info("Starting HTTP server",
		slog.String("address", addr),
		slog.Duration("read_timeout", cfg.Server.ReadTimeout),
		slog.Duration("write_timeout", cfg.Server.WriteTimeout),
	)

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		appLogger.Info("Received signal, shutting down gracefully",
			slog.String("signal", sig.String()),
		)
	case err := <-serverErr:
		appLogger.Error("Server failed", slog.Any("error", err))
		sched.Shutdown()
		_ = timer.Stop(context.Background())
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop accepting start/stop requests before tearing jobs down
	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown",
			slog.Any("error", err),
		)
	}

	sched.Shutdown()

	if err := timer.Stop(ctx); err != nil {
		appLogger.Warn("In-flight ticks did not finish before shutdown timeout",
			slog.Any("error", err),
		)
	}

	appLogger.Info("Monitor service shutdown complete",
		slog.Int64("messages_sent", sched.Sequence()),
	)
	return nil
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

// initRabbitMQ initializes the RabbitMQ client
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

// initScheduler wires the task producers and broker publisher into the job scheduler
func initScheduler(cfg *config.Config, timer scheduler.Timer, client *rabbitmq.Client, sink metrics.Sink, logger *slog.Logger) *scheduler.Scheduler {
	producers := task.NewDefaultRegistry(&task.Config{
		ScriptsDir:    cfg.Tasks.ScriptsDir,
		ScriptTimeout: cfg.Tasks.ScriptTimeout,
		DiskPath:      cfg.Tasks.DiskPath,
	}, logger)

	publisher := scheduler.NewBrokerPublisher(client, scheduler.PublisherConfig{
		Timeout:       cfg.RabbitMQ.Publish.Timeout,
		RatePerSecond: cfg.RabbitMQ.Publish.RatePerSecond,
		Burst:         cfg.RabbitMQ.Publish.Burst,
	})

	return scheduler.New(scheduler.Config{
		SourceName:  cfg.App.Name,
		PublishAcks: cfg.Scheduler.PublishAcks,
	}, timer, producers, publisher, sink, logger)
}

// initRouter initializes the Gin router with all routes and middleware
func initRouter(environment string, logger *slog.Logger, sched *scheduler.Scheduler, rabbitClient *rabbitmq.Client, opts router.Options) *gin.Engine {
	// Set Gin mode based on environment
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	handlerDeps := &handler.Dependencies{
		Logger:      logger,
		ServiceName: "monitor-service",
		Scheduler:   sched,
		Checks: map[string]handler.HealthChecker{
			"rabbitmq": rabbitClient,
		},
	}

	return router.SetupMonitorRouter(handlerDeps, opts)
}
