package chat

import "time"

// Session captures one live conversation with the assistant.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}
