package metrics

import "time"

// Sink records scheduler and collector metrics.
// Implementations must not block or return errors.
type Sink interface {
	// Scheduler metrics
	JobStarted(taskType string)
	JobStopped(reason string)
	TickCompleted(taskType string, duration time.Duration, err error)

	// Collector metrics
	MessageProcessed(outcome string)
}

// Outcome constants for MessageProcessed
const (
	OutcomeStored    = "stored"
	OutcomeMalformed = "malformed"
	OutcomeRequeued  = "requeued"
	OutcomeDropped   = "dropped"
)
