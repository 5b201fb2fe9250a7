package domain

import (
	"time"

	monitordomain "github.com/cuongbtq/statmon/internal/monitor/domain"
)

// Stat is one stored monitoring message
type Stat struct {
	ID         string    `db:"id"`
	MessageID  string    `db:"message_id"`
	Counter    int64     `db:"counter"`
	Key        string    `db:"stat_key"`
	Action     string    `db:"action"`
	Name       string    `db:"name"`
	SourceName string    `db:"source_name"`
	TaskName   string    `db:"task_name"`
	Payload    string    `db:"payload"`
	ReceivedAt time.Time `db:"received_at"`
}

// StatMessage is a decoded delivery waiting to be stored
type StatMessage struct {
	Message     monitordomain.Message
	MessageID   string
	DeliveryTag uint64
	ReceivedAt  time.Time
}

// Stat flattens the message into a storage row
func (m *StatMessage) Stat(id string) *Stat {
	return &Stat{
		ID:         id,
		MessageID:  m.MessageID,
		Counter:    m.Message.Counter,
		Key:        m.Message.Parameters.Key,
		Action:     m.Message.Parameters.Action,
		Name:       m.Message.Name,
		SourceName: m.Message.Parameters.SourceName,
		TaskName:   m.Message.Parameters.TaskName,
		Payload:    m.Message.Payload,
		ReceivedAt: m.ReceivedAt,
	}
}
