package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cuongbtq/statmon/internal/monitor/domain"
	"golang.org/x/time/rate"
)

const (
	contentTypeJSON       = "application/json"
	defaultPublishTimeout = 5 * time.Second
)

// BrokerClient is the subset of the RabbitMQ client used for publishing
type BrokerClient interface {
	Publish(ctx context.Context, body []byte, contentType string) error
}

// PublisherConfig holds publish throttling settings
type PublisherConfig struct {
	// Timeout bounds the rate limit wait plus the broker publish
	Timeout time.Duration
	// RatePerSecond caps publishes across all jobs; zero or less means unlimited
	RatePerSecond float64
	Burst         int
}

// BrokerPublisher encodes Messages as JSON and publishes them to the broker
type BrokerPublisher struct {
	client  BrokerClient
	limiter *rate.Limiter
	timeout time.Duration
}

// NewBrokerPublisher creates a publisher on top of client
func NewBrokerPublisher(client BrokerClient, cfg PublisherConfig) *BrokerPublisher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}

	limit := rate.Inf
	burst := cfg.Burst
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
		if burst <= 0 {
			burst = max(1, int(cfg.RatePerSecond))
		}
	}

	return &BrokerPublisher{
		client:  client,
		limiter: rate.NewLimiter(limit, burst),
		timeout: timeout,
	}
}

// Publish sends msg to the broker, giving up once the publish timeout elapses
func (p *BrokerPublisher) Publish(ctx context.Context, msg domain.Message) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("publish rate limit: %w", err)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	if err := p.client.Publish(ctx, body, contentTypeJSON); err != nil {
		return err
	}

	return nil
}
