package metrics

import (
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusSink implements Sink with Prometheus collectors.
// Registration failures are logged; already-registered collectors are reused.
type PrometheusSink struct {
	activeJobs      prometheus.Gauge
	jobsStarted     *prometheus.CounterVec
	jobsStopped     *prometheus.CounterVec
	ticksTotal      *prometheus.CounterVec
	tickErrorsTotal *prometheus.CounterVec
	tickDuration    *prometheus.HistogramVec

	messagesProcessed *prometheus.CounterVec
}

// NewPrometheusSink creates a sink registered on reg
func NewPrometheusSink(reg prometheus.Registerer, logger *slog.Logger) *PrometheusSink {
	s := &PrometheusSink{
		activeJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "statmon_scheduler_active_jobs",
			Help: "Number of monitoring jobs currently scheduled.",
		}),
		jobsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statmon_scheduler_jobs_started_total",
			Help: "Total number of monitoring jobs registered, by task type.",
		}, []string{"task_type"}),
		jobsStopped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statmon_scheduler_jobs_stopped_total",
			Help: "Total number of monitoring jobs removed, by reason.",
		}, []string{"reason"}),
		ticksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statmon_scheduler_ticks_total",
			Help: "Total number of job ticks executed, by task type.",
		}, []string{"task_type"}),
		tickErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statmon_scheduler_tick_errors_total",
			Help: "Total number of ticks whose stats collection or publish failed.",
		}, []string{"task_type"}),
		tickDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "statmon_scheduler_tick_duration_seconds",
			Help:    "Duration of a job tick including stats collection and publish.",
			Buckets: prometheus.DefBuckets,
		}, []string{"task_type"}),
		messagesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statmon_collector_messages_total",
			Help: "Total number of stat messages handled by the collector, by outcome.",
		}, []string{"outcome"}),
	}

	s.activeJobs = register(reg, logger, s.activeJobs)
	s.jobsStarted = register(reg, logger, s.jobsStarted)
	s.jobsStopped = register(reg, logger, s.jobsStopped)
	s.ticksTotal = register(reg, logger, s.ticksTotal)
	s.tickErrorsTotal = register(reg, logger, s.tickErrorsTotal)
	s.tickDuration = register(reg, logger, s.tickDuration)
	s.messagesProcessed = register(reg, logger, s.messagesProcessed)

	return s
}

// register returns the collector that ended up registered on reg
func register[C prometheus.Collector](reg prometheus.Registerer, logger *slog.Logger, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		logger.Warn("Failed to register metric collector",
			slog.Any("error", err),
		)
	}
	return c
}

func (s *PrometheusSink) JobStarted(taskType string) {
	s.activeJobs.Inc()
	s.jobsStarted.WithLabelValues(taskType).Inc()
}

func (s *PrometheusSink) JobStopped(reason string) {
	s.activeJobs.Dec()
	s.jobsStopped.WithLabelValues(reason).Inc()
}

func (s *PrometheusSink) TickCompleted(taskType string, duration time.Duration, err error) {
	s.ticksTotal.WithLabelValues(taskType).Inc()
	s.tickDuration.WithLabelValues(taskType).Observe(duration.Seconds())
	if err != nil {
		s.tickErrorsTotal.WithLabelValues(taskType).Inc()
	}
}

func (s *PrometheusSink) MessageProcessed(outcome string) {
	s.messagesProcessed.WithLabelValues(outcome).Inc()
}
