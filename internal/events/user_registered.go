package events

import "time"

const UserRegisteredTopic = "timesupa.user.lifecycle.v1"

type UserRegisteredEvent struct {
	EventType  string    `json:"event_type"`
	RequestID  string    `json:"request_id,omitempty"`
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}
