package models

import "time"

// Chat message kinds. Status messages are emitted by the transition engine,
// system messages by the platform, text messages by people.
const (
	MessageTypeText   = "text"
	MessageTypeSystem = "system"
	MessageTypeStatus = "status"
)

// ChatMessage is one entry in a request's append-only message log.
type ChatMessage struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"request_id"`
	SenderID   string    `json:"sender_id"`
	SenderType string    `json:"sender_type"` // customer or provider
	Message    string    `json:"message"`
	Type       string    `json:"type"`
	CreatedAt  time.Time `json:"created_at"`
}

// SendMessageRequest represents the data needed to post a chat message.
type SendMessageRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
}
