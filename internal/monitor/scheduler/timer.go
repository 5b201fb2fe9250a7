package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Registration identifies one repeating timer entry
type Registration int

// Timer runs callbacks repeatedly until cancelled.
// Cancel must not wait for an in-flight callback to finish.
type Timer interface {
	Schedule(interval time.Duration, fn func()) Registration
	Cancel(r Registration)
}

// CronTimer is a Timer backed by a shared robfig/cron runner.
// Each registration is wrapped so that its callbacks never overlap.
type CronTimer struct {
	cron *cron.Cron
}

// NewCronTimer creates a stopped timer; call Start to begin firing
func NewCronTimer(logger *slog.Logger) *CronTimer {
	l := cronLogger{logger: logger}

	return &CronTimer{
		cron: cron.New(
			cron.WithLogger(l),
			cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
		),
	}
}

// Start begins firing registered callbacks
func (t *CronTimer) Start() {
	t.cron.Start()
}

// Stop stops firing and waits for running callbacks, bounded by ctx
func (t *CronTimer) Stop(ctx context.Context) error {
	done := t.cron.Stop()

	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Schedule registers fn to run every interval, first after one interval
func (t *CronTimer) Schedule(interval time.Duration, fn func()) Registration {
	id := t.cron.Schedule(fixedRate(interval), cron.FuncJob(fn))
	return Registration(id)
}

// Cancel removes the registration; a callback already running is left to finish
func (t *CronTimer) Cancel(r Registration) {
	t.cron.Remove(cron.EntryID(r))
}

// fixedRate is a cron.Schedule with millisecond precision.
// cron.Every rounds to whole seconds.
type fixedRate time.Duration

func (f fixedRate) Next(t time.Time) time.Time {
	return t.Add(time.Duration(f))
}

// cronLogger routes cron's logs into slog; its chatty info logs go to debug
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{slog.Any("error", err)}, keysAndValues...)...)
}
