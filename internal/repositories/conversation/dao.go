package conversation

import (
	"database/sql"
	"time"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
)

const (
	conversationsTable = "conversations"
)

// ConversationRow represents the database row for a conversation
type ConversationRow struct {
	ID              sql.NullString `db:"id"`
	ParticipantLow  sql.NullString `db:"participant_low"`
	ParticipantHigh sql.NullString `db:"participant_high"`
	PropertyID      sql.NullString `db:"property_id"`
	RequestID       sql.NullString `db:"request_id"`
	UnreadLow       sql.NullInt64  `db:"unread_low"`
	UnreadHigh      sql.NullInt64  `db:"unread_high"`
	LastMessageAt   sql.NullTime   `db:"last_message_at"`
	CreatedAt       sql.NullTime   `db:"created_at"`
	UpdatedAt       sql.NullTime   `db:"updated_at"`
}

var conversationStruct = database.NewStruct(new(ConversationRow))

// FromConversation converts a domain model to a database row
func FromConversation(c *models.Conversation) *ConversationRow {
	row := &ConversationRow{
		ID:              sql.NullString{String: c.ID, Valid: c.ID != ""},
		ParticipantLow:  sql.NullString{String: c.ParticipantLow, Valid: c.ParticipantLow != ""},
		ParticipantHigh: sql.NullString{String: c.ParticipantHigh, Valid: c.ParticipantHigh != ""},
		UnreadLow:       sql.NullInt64{Int64: int64(c.UnreadLow), Valid: true},
		UnreadHigh:      sql.NullInt64{Int64: int64(c.UnreadHigh), Valid: true},
		LastMessageAt:   sql.NullTime{Time: c.LastMessageAt, Valid: !c.LastMessageAt.IsZero()},
		CreatedAt:       sql.NullTime{Time: c.CreatedAt, Valid: !c.CreatedAt.IsZero()},
		UpdatedAt:       sql.NullTime{Time: c.UpdatedAt, Valid: !c.UpdatedAt.IsZero()},
	}
	if c.PropertyID != nil {
		row.PropertyID = sql.NullString{String: *c.PropertyID, Valid: true}
	}
	if c.RequestID != nil {
		row.RequestID = sql.NullString{String: *c.RequestID, Valid: true}
	}
	return row
}

// ToConversation converts a database row to a domain model
func ToConversation(row *ConversationRow) *models.Conversation {
	c := &models.Conversation{
		ID:              row.ID.String,
		ParticipantLow:  row.ParticipantLow.String,
		ParticipantHigh: row.ParticipantHigh.String,
		UnreadLow:       int(row.UnreadLow.Int64),
		UnreadHigh:      int(row.UnreadHigh.Int64),
		LastMessageAt:   row.LastMessageAt.Time,
		CreatedAt:       row.CreatedAt.Time,
		UpdatedAt:       row.UpdatedAt.Time,
	}
	if row.PropertyID.Valid {
		propertyID := row.PropertyID.String
		c.PropertyID = &propertyID
	}
	if row.RequestID.Valid {
		requestID := row.RequestID.String
		c.RequestID = &requestID
	}
	return c
}

// ToConversations converts a slice of database rows to domain models
func ToConversations(rows []ConversationRow) []*models.Conversation {
	conversations := make([]*models.Conversation, len(rows))
	for i, row := range rows {
		conversations[i] = ToConversation(&row)
	}
	return conversations
}

// Now returns the current time in UTC
func Now() time.Time {
	return time.Now().UTC()
}
