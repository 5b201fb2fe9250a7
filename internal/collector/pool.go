package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/statmon/internal/collector/domain"
	"github.com/cuongbtq/statmon/internal/monitor/metrics"
)

// spawnWorkerPool spawns N worker goroutines based on concurrency configuration
func (w *Worker) spawnWorkerPool(ctx context.Context) {
	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop(ctx, i)
	}

	w.logger.Info("Worker pool spawned",
		slog.Int("worker_count", w.concurrency),
		slog.String("worker_id", w.workerID),
	)
}

// workerLoop stores messages until messagesChan is closed. Messages still
// buffered on shutdown are settled rather than abandoned.
func (w *Worker) workerLoop(ctx context.Context, workerNum int) {
	defer w.wg.Done()

	workerName := fmt.Sprintf("%s-%d", w.workerID, workerNum)
	w.logger.Debug("Worker goroutine started",
		slog.String("worker_name", workerName),
	)

	for pending := range w.messagesChan {
		w.settle(workerName, pending, w.processMessage(ctx, pending.msg))
	}

	w.logger.Debug("Worker goroutine stopping - messagesChan closed",
		slog.String("worker_name", workerName),
	)
}

// settle ACKs or NACKs the delivery based on the processing result
func (w *Worker) settle(workerName string, pending *pendingMessage, err error) {
	key := pending.msg.Message.Parameters.Key

	if err == nil {
		if ackErr := pending.delivery.Ack(false); ackErr != nil {
			w.logger.Error("Failed to ACK message",
				slog.String("worker_name", workerName),
				slog.String("key", key),
				slog.Any("error", ackErr),
			)
			return
		}
		w.metrics.MessageProcessed(metrics.OutcomeStored)
		return
	}

	requeue := shouldRequeue(err)

	w.logger.Error("Stats message processing failed",
		slog.String("worker_name", workerName),
		slog.String("key", key),
		slog.Bool("requeue", requeue),
		slog.Any("error", err),
	)

	if nackErr := pending.delivery.Nack(false, requeue); nackErr != nil {
		w.logger.Error("Failed to NACK message",
			slog.String("worker_name", workerName),
			slog.String("key", key),
			slog.Any("error", nackErr),
		)
		return
	}

	if requeue {
		w.metrics.MessageProcessed(metrics.OutcomeRequeued)
	} else {
		w.metrics.MessageProcessed(metrics.OutcomeDropped)
	}
}

// shouldRequeue determines if a message should be requeued based on the error type
func shouldRequeue(err error) bool {
	if errors.Is(err, domain.ErrInvalidMessage) {
		return false
	}

	var retryableErr *domain.RetryableError
	return errors.As(err, &retryableErr)
}
