package domain

import (
	"math"
	"time"
)

// Task type tags accepted by the control surface
const (
	TaskTypeSystem  = "system"
	TaskTypeScript  = "script"
	TaskTypePing    = "ping"
	TaskTypeDefault = "default"
)

// Acknowledgment actions
const (
	ActionStart = "start"
	ActionStop  = "stop"
)

// Reasons a job leaves the registry
const (
	StopReasonRequested = "requested"
	StopReasonExpired   = "expired"
	StopReasonRestarted = "restarted"
	StopReasonShutdown  = "shutdown"
)

// TTLMultiplier is the number of ticks a job survives without a refreshing Start call
const TTLMultiplier = 10

// MaxIntervalMillis is the largest interval whose duration and ttl both fit in an int64
const MaxIntervalMillis = math.MaxInt64 / int64(time.Millisecond)
