package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/statmon/internal/collector/domain"
	monitordomain "github.com/cuongbtq/statmon/internal/monitor/domain"
	"github.com/cuongbtq/statmon/internal/monitor/metrics"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// messageIDNamespace scopes ids derived from message content
var messageIDNamespace = uuid.MustParse("5b0e7c1a-3f4d-4a8e-9c2b-6d1f0e8a7b34")

// setupConsumer sets QoS and returns the delivery channel
func (w *Worker) setupConsumer() (<-chan amqp.Delivery, error) {
	if w.prefetchCount > 0 {
		if err := w.broker.Qos(w.prefetchCount); err != nil {
			return nil, fmt.Errorf("failed to set QoS: %w", err)
		}

		w.logger.Info("RabbitMQ QoS configured",
			slog.Int("prefetch_count", w.prefetchCount),
		)
	}

	deliveries, err := w.broker.Consume(w.workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	return deliveries, nil
}

// startMessageDispatcher decodes deliveries and hands them to the worker pool
func (w *Worker) startMessageDispatcher(ctx context.Context, deliveries <-chan amqp.Delivery) {
	w.logger.Info("Message dispatcher started",
		slog.String("worker_id", w.workerID),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Message dispatcher stopped - context canceled")
			return

		case <-w.stopChan:
			w.logger.Info("Message dispatcher stopped - stopChan closed")
			return

		case delivery, ok := <-deliveries:
			if !ok {
				w.logger.Warn("RabbitMQ delivery channel closed")
				return
			}

			msg, err := w.decode(delivery)
			if err != nil {
				w.logger.Error("Dropping malformed stats message",
					slog.Any("error", err),
					slog.String("message_id", delivery.MessageId),
					slog.Int("body_size", len(delivery.Body)),
				)
				// Malformed messages are never requeued
				if nackErr := delivery.Nack(false, false); nackErr != nil {
					w.logger.Error("Failed to NACK malformed message",
						slog.Any("error", nackErr),
					)
				}
				w.metrics.MessageProcessed(metrics.OutcomeMalformed)
				continue
			}

			select {
			case w.messagesChan <- &pendingMessage{msg: msg, delivery: delivery}:
				w.logger.Debug("Stats message dispatched to worker pool",
					slog.String("key", msg.Message.Parameters.Key),
					slog.Uint64("delivery_tag", delivery.DeliveryTag),
				)
			case <-ctx.Done():
				w.requeueOnShutdown(delivery)
				return
			case <-w.stopChan:
				w.requeueOnShutdown(delivery)
				return
			}
		}
	}
}

func (w *Worker) requeueOnShutdown(delivery amqp.Delivery) {
	w.logger.Info("Message dispatcher stopped while dispatching message")
	if nackErr := delivery.Nack(false, true); nackErr != nil {
		w.logger.Error("Failed to NACK message on shutdown",
			slog.Any("error", nackErr),
		)
	}
}

// decode parses a delivery body into a StatMessage
func (w *Worker) decode(delivery amqp.Delivery) (*domain.StatMessage, error) {
	var msg monitordomain.Message
	if err := json.Unmarshal(delivery.Body, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidMessage, err)
	}

	if msg.Parameters.Key == "" {
		return nil, fmt.Errorf("%w: missing parameters.key", domain.ErrInvalidMessage)
	}

	messageID := delivery.MessageId
	if messageID == "" {
		messageID = contentMessageID(delivery)
	}

	return &domain.StatMessage{
		Message:     msg,
		MessageID:   messageID,
		DeliveryTag: delivery.DeliveryTag,
		ReceivedAt:  w.clock().UTC(),
	}, nil
}

// contentMessageID derives a stable id for deliveries published without a MessageId,
// so a redelivery of the same message still hits the message_id unique constraint
func contentMessageID(delivery amqp.Delivery) string {
	var name []byte
	name = append(name, delivery.AppId...)
	name = append(name, 0)
	name = delivery.Timestamp.UTC().AppendFormat(name, time.RFC3339Nano)
	name = append(name, 0)
	name = append(name, delivery.Body...)
	return uuid.NewSHA1(messageIDNamespace, name).String()
}
