package task

import (
	"context"
	"log/slog"

	"github.com/cuongbtq/statmon/internal/monitor/domain"
)

// Producer yields a stats payload for a task name
type Producer interface {
	Produce(ctx context.Context, name string) (string, error)
}

// ProducerFunc adapts a plain function to the Producer interface
type ProducerFunc func(ctx context.Context, name string) (string, error)

// Produce calls f(ctx, name)
func (f ProducerFunc) Produce(ctx context.Context, name string) (string, error) {
	return f(ctx, name)
}

// Registry resolves task type tags to producers.
// Unknown tags resolve to the default producer.
type Registry struct {
	producers map[string]Producer
	fallback  Producer
	logger    *slog.Logger
}

// NewRegistry creates a registry whose unknown tags fall back to fallback
func NewRegistry(fallback Producer, logger *slog.Logger) *Registry {
	return &Registry{
		producers: make(map[string]Producer),
		fallback:  fallback,
		logger:    logger,
	}
}

// NewDefaultRegistry wires the system, script and ping producers
func NewDefaultRegistry(cfg *Config, logger *slog.Logger) *Registry {
	r := NewRegistry(NewPingProducer(), logger)
	r.Register(domain.TaskTypeSystem, NewSystemProducer(cfg.DiskPath))
	r.Register(domain.TaskTypeScript, NewScriptProducer(cfg.ScriptsDir, cfg.ScriptTimeout))
	return r
}

// Register binds a producer to a tag, replacing any previous binding
func (r *Registry) Register(tag string, p Producer) {
	r.producers[tag] = p
}

// Resolve returns the canonical tag and producer for a requested tag
func (r *Registry) Resolve(tag string) (string, Producer) {
	if p, ok := r.producers[tag]; ok {
		return tag, p
	}

	if tag != domain.TaskTypePing && tag != domain.TaskTypeDefault {
		r.logger.Warn("Unknown task type, using default producer",
			slog.String("type", tag),
		)
	}

	return domain.TaskTypeDefault, r.fallback
}
