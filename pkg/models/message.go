package models

import (
	"time"
)

// Message is an immutable conversation entry. The only mutation after
// insert is the single read_at transition from null to a timestamp.
type Message struct {
	ID             string     `json:"id" db:"id"`
	ConversationID string     `json:"conversation_id" db:"conversation_id"`
	SenderID       string     `json:"sender_id" db:"sender_id"`
	ReceiverID     string     `json:"receiver_id" db:"receiver_id"`
	Content        string     `json:"content" db:"content"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	ReadAt         *time.Time `json:"read_at,omitempty" db:"read_at"`

	// Resolved from the user directory when returning a freshly sent message.
	SenderName      string `json:"sender_name,omitempty" db:"-"`
	SenderAvatarURL string `json:"sender_avatar_url,omitempty" db:"-"`
}

// SendMessageRequest is the request body for sending a message
type SendMessageRequest struct {
	ReceiverID string `json:"receiver_id" validate:"required"`
	Content    string `json:"content" validate:"required"`
}

// MessagePage is a page of messages ordered oldest first
type MessagePage struct {
	Items      []Message `json:"items"`
	TotalCount int       `json:"total_count"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
}
