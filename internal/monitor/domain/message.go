package domain

// Message is the record published to the broker on every tick and returned
// as the acknowledgment body of the control endpoints.
type Message struct {
	Counter    int64      `json:"counter"`
	Payload    string     `json:"payload"`
	Name       string     `json:"name"`
	Parameters Parameters `json:"parameters"`
}

// Parameters describes which job and action produced a Message
type Parameters struct {
	Key        string `json:"key"`
	Action     string `json:"action"`
	SourceName string `json:"sourceName"`
	TaskName   string `json:"taskName"`
}
