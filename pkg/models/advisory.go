package models

import "time"

// AdvisoryMessage is one entry of a session's advisory exchange
type AdvisoryMessage struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Role      string    `json:"role"` // "user" or "assistant"
	Timestamp time.Time `json:"timestamp"`
}
