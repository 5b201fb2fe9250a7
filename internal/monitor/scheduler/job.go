package scheduler

import (
	"time"

	"github.com/cuongbtq/statmon/internal/monitor/task"
)

// job is one registry entry. Only ttlMillis and ticks change after creation,
// and only under Scheduler.mu.
type job struct {
	key            string
	intervalMillis int64
	taskType       string
	taskName       string
	producer       task.Producer
	registration   Registration
	startedAt      time.Time

	ttlMillis int64
	ticks     int64
}

// JobInfo is a point-in-time view of a scheduled job
type JobInfo struct {
	Key            string
	IntervalMillis int64
	TTLMillis      int64
	TaskType       string
	TaskName       string
	Ticks          int64
	StartedAt      time.Time
}

func (j *job) info() JobInfo {
	return JobInfo{
		Key:            j.key,
		IntervalMillis: j.intervalMillis,
		TTLMillis:      j.ttlMillis,
		TaskType:       j.taskType,
		TaskName:       j.taskName,
		Ticks:          j.ticks,
		StartedAt:      j.startedAt,
	}
}
