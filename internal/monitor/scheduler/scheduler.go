package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cuongbtq/statmon/internal/monitor/domain"
	"github.com/cuongbtq/statmon/internal/monitor/metrics"
	"github.com/cuongbtq/statmon/internal/monitor/task"
)

// Publisher delivers a Message to the broker
type Publisher interface {
	Publish(ctx context.Context, msg domain.Message) error
}

// ProducerResolver maps a task type tag to its canonical tag and producer
type ProducerResolver interface {
	Resolve(tag string) (string, task.Producer)
}

// Config holds scheduler configuration
type Config struct {
	// SourceName identifies this process in every Message
	SourceName string
	// PublishAcks also sends start/stop acknowledgments to the broker
	PublishAcks bool
}

// Scheduler owns the registry of named recurring monitoring jobs
type Scheduler struct {
	config    Config
	timer     Timer
	producers ProducerResolver
	publisher Publisher
	metrics   metrics.Sink
	logger    *slog.Logger
	clock     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	jobs map[string]*job

	counter atomic.Int64
}

// New creates a scheduler. Jobs fire through timer, which the caller starts and stops.
func New(cfg Config, timer Timer, producers ProducerResolver, publisher Publisher, sink metrics.Sink, logger *slog.Logger) *Scheduler {
	if sink == nil {
		sink = metrics.NewNoopSink()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		config:    cfg,
		timer:     timer,
		producers: producers,
		publisher: publisher,
		metrics:   sink,
		logger:    logger,
		clock:     time.Now,
		ctx:       ctx,
		cancel:    cancel,
		jobs:      make(map[string]*job),
	}
}

// Start schedules a job under key, or refreshes its ttl if one is already running
// with the same interval. A running job with a different interval is restarted.
func (s *Scheduler) Start(key string, intervalMillis int64, taskType, taskName string) (domain.Message, error) {
	if key == "" {
		return domain.Message{}, domain.ErrEmptyKey
	}
	if intervalMillis <= 0 || intervalMillis > domain.MaxIntervalMillis {
		return domain.Message{}, fmt.Errorf("%w: %d", domain.ErrInvalidInterval, intervalMillis)
	}

	s.mu.Lock()

	if existing, ok := s.jobs[key]; ok && existing.intervalMillis != intervalMillis {
		s.removeLocked(existing, domain.StopReasonRestarted)
	}

	j, ok := s.jobs[key]
	if !ok {
		tag, producer := s.producers.Resolve(taskType)
		j = &job{
			key:            key,
			intervalMillis: intervalMillis,
			taskType:       tag,
			taskName:       taskName,
			producer:       producer,
			startedAt:      s.clock(),
		}
		j.registration = s.timer.Schedule(time.Duration(intervalMillis)*time.Millisecond, func() {
			s.tick(j)
		})
		s.jobs[key] = j
		s.metrics.JobStarted(tag)

		s.logger.Info("Monitoring job scheduled",
			slog.String("key", key),
			slog.Int64("interval_ms", intervalMillis),
			slog.String("task_type", tag),
			slog.String("task_name", taskName),
		)
	}

	// Refresh, never accumulate
	j.ttlMillis = intervalMillis * domain.TTLMultiplier

	s.mu.Unlock()

	ack := domain.Message{
		Counter: s.nextSequence(),
		Payload: fmt.Sprintf("started monitoring, %s", key),
		Name:    taskName,
		Parameters: domain.Parameters{
			Key:        key,
			Action:     domain.ActionStart,
			SourceName: s.config.SourceName,
		},
	}
	s.publishAck(ack)

	return ack, nil
}

// Stop cancels the job under key without waiting for an in-flight tick.
// Stopping an unknown key is a no-op.
func (s *Scheduler) Stop(key string) domain.Message {
	s.mu.Lock()
	if j, ok := s.jobs[key]; ok {
		s.removeLocked(j, domain.StopReasonRequested)
	}
	s.mu.Unlock()

	ack := domain.Message{
		Counter: s.nextSequence(),
		Payload: fmt.Sprintf("stopped monitoring, %s", key),
		Name:    s.config.SourceName,
		Parameters: domain.Parameters{
			Key:        key,
			Action:     domain.ActionStop,
			SourceName: s.config.SourceName,
		},
	}
	s.publishAck(ack)

	return ack
}

// Shutdown cancels every job and aborts in-flight stats collection
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	for _, j := range s.jobs {
		s.removeLocked(j, domain.StopReasonShutdown)
	}
	s.mu.Unlock()

	s.cancel()
}

// Jobs returns a snapshot of all scheduled jobs ordered by key
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	infos := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		infos = append(infos, j.info())
	}
	s.mu.Unlock()

	sort.Slice(infos, func(a, b int) bool {
		return infos[a].Key < infos[b].Key
	})
	return infos
}

// Job returns a snapshot of the job under key
func (s *Scheduler) Job(key string) (JobInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[key]
	if !ok {
		return JobInfo{}, false
	}
	return j.info(), true
}

// Sequence returns the last issued message counter
func (s *Scheduler) Sequence() int64 {
	return s.counter.Load()
}

func (s *Scheduler) nextSequence() int64 {
	return s.counter.Add(1)
}

// removeLocked cancels the job's registration and drops it from the registry.
// s.mu must be held.
func (s *Scheduler) removeLocked(j *job, reason string) {
	s.timer.Cancel(j.registration)
	delete(s.jobs, j.key)
	s.metrics.JobStopped(reason)

	s.logger.Info("Monitoring job removed",
		slog.String("key", j.key),
		slog.String("reason", reason),
		slog.Int64("ticks", j.ticks),
	)
}

// tick is the repeating callback of one job
func (s *Scheduler) tick(j *job) {
	s.mu.Lock()
	if current, ok := s.jobs[j.key]; !ok || current != j {
		// Trailing tick of a registration that was already cancelled
		s.mu.Unlock()
		s.logger.Debug("Skipping tick for removed job",
			slog.String("key", j.key),
		)
		return
	}

	if j.ttlMillis > 0 {
		j.ttlMillis -= j.intervalMillis
	}
	j.ticks++

	// The tick that exhausts the budget is the job's last one; it still publishes.
	if j.ttlMillis <= 0 {
		s.removeLocked(j, domain.StopReasonExpired)
	}
	s.mu.Unlock()

	start := s.clock()
	err := s.publishStats(j)
	s.metrics.TickCompleted(j.taskType, s.clock().Sub(start), err)

	if err != nil {
		s.logger.Warn("Error occurred while getting stats",
			slog.String("key", j.key),
			slog.String("task_type", j.taskType),
			slog.Any("error", err),
		)
	}
}

// publishStats collects one reading for j and hands it to the publisher
func (s *Scheduler) publishStats(j *job) error {
	payload, err := j.producer.Produce(s.ctx, j.taskName)
	if err != nil {
		return fmt.Errorf("failed to collect %s stats: %w", j.taskType, err)
	}

	msg := domain.Message{
		Counter: s.nextSequence(),
		Payload: payload,
		Name:    s.config.SourceName,
		Parameters: domain.Parameters{
			Key:        j.key,
			Action:     j.taskType,
			SourceName: s.config.SourceName,
			TaskName:   j.taskName,
		},
	}

	if err := s.publisher.Publish(s.ctx, msg); err != nil {
		return fmt.Errorf("failed to publish stats: %w", err)
	}

	return nil
}

func (s *Scheduler) publishAck(ack domain.Message) {
	if !s.config.PublishAcks {
		return
	}

	if err := s.publisher.Publish(s.ctx, ack); err != nil {
		s.logger.Warn("Failed to publish acknowledgment",
			slog.String("key", ack.Parameters.Key),
			slog.String("action", ack.Parameters.Action),
			slog.Any("error", err),
		)
	}
}
