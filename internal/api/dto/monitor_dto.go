package dto

// StartRequest is bound from the /start query string
type StartRequest struct {
	Key      string `form:"key,default=ping"`
	Interval int64  `form:"interval,default=5000"`
	Type     string `form:"type,default=ping"`
	Name     string `form:"name,default=ping"`
}

// StopRequest is bound from the /stop query string
type StopRequest struct {
	Key string `form:"key,default=ping"`
}

type ListJobsResponse struct {
	Jobs  []JobDTO `json:"jobs"`
	Count int      `json:"count"`
}

type JobDTO struct {
	Key            string `json:"key"`
	IntervalMillis int64  `json:"interval_ms"`
	TTLMillis      int64  `json:"ttl_ms"`
	TaskType       string `json:"task_type"`
	TaskName       string `json:"task_name"`
	Ticks          int64  `json:"ticks"`
	StartedAt      string `json:"started_at"`
}
