package models

import (
	"time"
)

// CanonicalParticipants orders two participant ids into fixed low/high
// slots. Every caller that can construct a conversation key goes through
// this function so a pair always maps to one row, regardless of argument
// order. The order is plain lexicographic string comparison.
func CanonicalParticipants(a, b string) (low, high string) {
	if a < b {
		return a, b
	}
	return b, a
}

// ConversationContext narrows a conversation to a specific listing. At most
// one of PropertyID or RequestID may be set; both empty means a direct
// conversation with no listing attached.
type ConversationContext struct {
	PropertyID string `json:"property_id,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
}

// Conversation is a two-party message thread. Participants are stored in
// canonical low/high order with one unread counter per slot.
type Conversation struct {
	ID              string     `json:"id" db:"id"`
	ParticipantLow  string     `json:"participant_low" db:"participant_low"`
	ParticipantHigh string     `json:"participant_high" db:"participant_high"`
	PropertyID      *string    `json:"property_id,omitempty" db:"property_id"`
	RequestID       *string    `json:"request_id,omitempty" db:"request_id"`
	UnreadLow       int        `json:"unread_low" db:"unread_low"`
	UnreadHigh      int        `json:"unread_high" db:"unread_high"`
	LastMessageAt   time.Time  `json:"last_message_at" db:"last_message_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// HasParticipant reports whether userID occupies one of the two slots.
func (c *Conversation) HasParticipant(userID string) bool {
	return userID == c.ParticipantLow || userID == c.ParticipantHigh
}

// OtherParticipant returns the participant opposite userID. The caller must
// already know userID is a participant.
func (c *Conversation) OtherParticipant(userID string) string {
	if userID == c.ParticipantLow {
		return c.ParticipantHigh
	}
	return c.ParticipantLow
}

// UnreadFor returns the unread counter belonging to userID's slot.
func (c *Conversation) UnreadFor(userID string) int {
	if userID == c.ParticipantLow {
		return c.UnreadLow
	}
	return c.UnreadHigh
}

// GetOrCreateConversationRequest is the request body for resolving a
// conversation with another user
type GetOrCreateConversationRequest struct {
	OtherUserID string `json:"other_user_id" validate:"required"`
	PropertyID  string `json:"property_id,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
}

// ConversationSummary is one entry in a user's conversation list
type ConversationSummary struct {
	ID                 string    `json:"id"`
	OtherUserID        string    `json:"other_user_id"`
	OtherUserName      string    `json:"other_user_name"`
	OtherUserAvatarURL string    `json:"other_user_avatar_url,omitempty"`
	PropertyID         *string   `json:"property_id,omitempty"`
	RequestID          *string   `json:"request_id,omitempty"`
	LastMessagePreview string    `json:"last_message_preview"`
	UnreadCount        int       `json:"unread_count"`
	LastMessageAt      time.Time `json:"last_message_at"`
}

// TotalUnreadResponse is the API response for a user's badge count
type TotalUnreadResponse struct {
	TotalUnread int `json:"total_unread"`
}
