package task

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// PingProducer is the default producer: a liveness reading for the host
type PingProducer struct {
	hostname func() (string, error)
	clock    func() time.Time
}

// NewPingProducer creates a ping producer
func NewPingProducer() *PingProducer {
	return &PingProducer{
		hostname: os.Hostname,
		clock:    time.Now,
	}
}

type pingStats struct {
	Status    string `json:"status"`
	Name      string `json:"name"`
	Host      string `json:"host"`
	Timestamp int64  `json:"timestamp"`
}

// Produce returns a pong payload tagged with the task name
func (p *PingProducer) Produce(_ context.Context, name string) (string, error) {
	host, err := p.hostname()
	if err != nil {
		host = "unknown"
	}

	data, err := json.Marshal(pingStats{
		Status:    "pong",
		Name:      name,
		Host:      host,
		Timestamp: p.clock().UnixMilli(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode ping stats: %w", err)
	}

	return string(data), nil
}
