package collector

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cuongbtq/statmon/internal/collector/domain"
	"github.com/cuongbtq/statmon/internal/monitor/metrics"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Broker is the consuming side of the RabbitMQ client
type Broker interface {
	Qos(prefetchCount int) error
	Consume(consumerTag string) (<-chan amqp.Delivery, error)
}

// Store persists decoded stats
type Store interface {
	InsertStat(ctx context.Context, stat *domain.Stat) error
}

// Config holds worker configuration
type Config struct {
	Logger        *slog.Logger
	Broker        Broker
	Store         Store
	Metrics       metrics.Sink
	Concurrency   int
	PrefetchCount int
	StoreTimeout  time.Duration
	ConsumerTag   string
}

// Worker consumes stats messages from RabbitMQ and stores them
type Worker struct {
	logger        *slog.Logger
	broker        Broker
	store         Store
	metrics       metrics.Sink
	concurrency   int
	prefetchCount int
	storeTimeout  time.Duration
	workerID      string
	clock         func() time.Time
	newID         func() string

	messagesChan chan *pendingMessage
	wg           sync.WaitGroup
	stopChan     chan struct{}
	stopOnce     sync.Once
}

// pendingMessage pairs a decoded message with the delivery to settle
type pendingMessage struct {
	msg      *domain.StatMessage
	delivery amqp.Delivery
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	concurrency := max(cfg.Concurrency, 1)

	sink := cfg.Metrics
	if sink == nil {
		sink = metrics.NewNoopSink()
	}

	workerID := cfg.ConsumerTag
	if workerID == "" {
		workerID = "collector-" + uuid.NewString()
	}

	return &Worker{
		logger:        cfg.Logger,
		broker:        cfg.Broker,
		store:         cfg.Store,
		metrics:       sink,
		concurrency:   concurrency,
		prefetchCount: cfg.PrefetchCount,
		storeTimeout:  cfg.StoreTimeout,
		workerID:      workerID,
		clock:         time.Now,
		newID:         uuid.NewString,
		messagesChan:  make(chan *pendingMessage, concurrency),
		stopChan:      make(chan struct{}),
	}
}

// Start consumes until ctx is canceled, Stop is called or the delivery
// channel closes. It returns after every worker goroutine has exited.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting collector worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("store_timeout", w.storeTimeout),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return fmt.Errorf("failed to setup consumer: %w", err)
	}

	w.spawnWorkerPool(ctx)
	w.startMessageDispatcher(ctx, deliveries)

	close(w.messagesChan)
	w.wg.Wait()

	w.logger.Info("Collector worker stopped",
		slog.String("worker_id", w.workerID),
	)
	return nil
}

// Stop signals the dispatcher and workers to exit
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		w.logger.Info("Stopping collector worker...")
		close(w.stopChan)
	})
}
