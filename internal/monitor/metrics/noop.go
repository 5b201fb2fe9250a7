package metrics

import "time"

// NoopSink discards every metric. Used when metrics are disabled.
type NoopSink struct{}

// NewNoopSink returns a no-op metrics sink
func NewNoopSink() *NoopSink {
	return &NoopSink{}
}

func (n *NoopSink) JobStarted(taskType string)                                       {}
func (n *NoopSink) JobStopped(reason string)                                         {}
func (n *NoopSink) TickCompleted(taskType string, duration time.Duration, err error) {}
func (n *NoopSink) MessageProcessed(outcome string)                                  {}
