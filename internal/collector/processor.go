package collector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/statmon/internal/collector/domain"
)

// processMessage stores one decoded message under the store timeout
func (w *Worker) processMessage(ctx context.Context, msg *domain.StatMessage) error {
	stat := msg.Stat(w.newID())

	storeCtx := ctx
	if w.storeTimeout > 0 {
		var cancel context.CancelFunc
		storeCtx, cancel = context.WithTimeout(ctx, w.storeTimeout)
		defer cancel()
	}

	// Database failures are transient; the queue message ttl bounds redelivery
	if err := w.store.InsertStat(storeCtx, stat); err != nil {
		return domain.NewRetryableError(fmt.Errorf("failed to store stat: %w", err))
	}

	w.logger.Debug("Stat stored",
		slog.String("id", stat.ID),
		slog.String("key", stat.Key),
		slog.String("action", stat.Action),
		slog.Int64("counter", stat.Counter),
	)

	return nil
}
