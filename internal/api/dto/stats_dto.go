package dto

type ListStatsRequest struct {
	Key        string `form:"key"`
	Action     string `form:"action"`
	SourceName string `form:"source"`
	PageSize   int    `form:"page_size"`
	Cursor     string `form:"cursor"`
}

type ListStatsResponse struct {
	Stats      []StatDTO `json:"stats"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

type StatDTO struct {
	ID         string `json:"id"`
	MessageID  string `json:"message_id"`
	Counter    int64  `json:"counter"`
	Key        string `json:"key"`
	Action     string `json:"action"`
	Name       string `json:"name"`
	SourceName string `json:"source_name"`
	TaskName   string `json:"task_name"`
	Payload    string `json:"payload"`
	ReceivedAt string `json:"received_at"`
}
