package events

import "time"

const RecordCompletedTopic = "timesupa.timecard.record.v1"

// RecordCompletedEvent is published whenever a time record reaches the
// completed state, whether by clock-out or by manual entry.
type RecordCompletedEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id,omitempty"`
	RecordID   string    `json:"record_id"`
	UserID     string    `json:"user_id"`
	Date       string    `json:"date"`
	TotalHours float64   `json:"total_hours"`
	OccurredAt time.Time `json:"occurred_at"`
}
