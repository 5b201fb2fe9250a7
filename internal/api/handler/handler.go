package handler

import (
	"context"
	"log/slog"

	collectordomain "github.com/cuongbtq/statmon/internal/collector/domain"
	"github.com/cuongbtq/statmon/internal/collector/storage"
	"github.com/cuongbtq/statmon/internal/monitor/domain"
	"github.com/cuongbtq/statmon/internal/monitor/scheduler"
)

// JobScheduler is the part of the scheduler the control surface drives
type JobScheduler interface {
	Start(key string, intervalMillis int64, taskType, taskName string) (domain.Message, error)
	Stop(key string) domain.Message
	Jobs() []scheduler.JobInfo
	Job(key string) (scheduler.JobInfo, bool)
}

// StatsReader reads stored stats for the history API
type StatsReader interface {
	ListStats(ctx context.Context, filter storage.StatFilter) ([]collectordomain.Stat, error)
	LatestStat(ctx context.Context, key string) (*collectordomain.Stat, error)
}

// HealthChecker reports whether a backing service is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger      *slog.Logger
	ServiceName string
	Scheduler   JobScheduler
	Stats       StatsReader
	// Checks are reported by /health, keyed by component name
	Checks map[string]HealthChecker
}

// MonitorHandler handles the start/stop control surface
type MonitorHandler struct {
	logger    *slog.Logger
	scheduler JobScheduler
}

// NewMonitorHandler creates a new MonitorHandler instance
func NewMonitorHandler(deps *Dependencies) *MonitorHandler {
	return &MonitorHandler{
		logger:    deps.Logger,
		scheduler: deps.Scheduler,
	}
}

// StatsHandler handles stored stats queries
type StatsHandler struct {
	logger *slog.Logger
	stats  StatsReader
}

// NewStatsHandler creates a new StatsHandler instance
func NewStatsHandler(deps *Dependencies) *StatsHandler {
	return &StatsHandler{
		logger: deps.Logger,
		stats:  deps.Stats,
	}
}

// HealthHandler reports service and dependency health
type HealthHandler struct {
	service string
	checks  map[string]HealthChecker
}

// NewHealthHandler creates a new HealthHandler instance
func NewHealthHandler(deps *Dependencies) *HealthHandler {
	return &HealthHandler{
		service: deps.ServiceName,
		checks:  deps.Checks,
	}
}
