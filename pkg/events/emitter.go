// Package events handles event emission for interaction and conversation
// lifecycle changes
package events

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

const (
	EventInteractionRecorded = "interaction.recorded"
	EventMatchDetected       = "match.detected"
	EventConversationCreated = "conversation.created"
	EventMessageSent         = "message.sent"
)

// InteractionRecordedEvent is emitted after every interaction upsert
type InteractionRecordedEvent struct {
	SchemaVersion   string    `json:"schema_version"`
	UserID          string    `json:"user_id"`
	ListingID       string    `json:"listing_id"`
	ListingType     string    `json:"listing_type"`
	InteractionType string    `json:"interaction_type"`
	PreviousType    string    `json:"previous_type,omitempty"`
	NewTotalLikes   int       `json:"new_total_likes"`
	Timestamp       time.Time `json:"timestamp"`
}

// MatchDetectedEvent is emitted when a like completes a mutual match
type MatchDetectedEvent struct {
	SchemaVersion       string    `json:"schema_version"`
	LikerUserID         string    `json:"liker_user_id"`
	MatchedUserID       string    `json:"matched_user_id"`
	LikedListingID      string    `json:"liked_listing_id"`
	ReciprocalListingID string    `json:"reciprocal_listing_id"`
	ConversationID      string    `json:"conversation_id"`
	Timestamp           time.Time `json:"timestamp"`
}

// ConversationCreatedEvent is emitted when a new conversation row wins the
// insert race
type ConversationCreatedEvent struct {
	SchemaVersion   string    `json:"schema_version"`
	ConversationID  string    `json:"conversation_id"`
	ParticipantLow  string    `json:"participant_low"`
	ParticipantHigh string    `json:"participant_high"`
	PropertyID      string    `json:"property_id,omitempty"`
	RequestID       string    `json:"request_id,omitempty"`
	Origin          string    `json:"origin"` // match or direct
	Timestamp       time.Time `json:"timestamp"`
}

// MessageSentEvent is emitted after a message commit
type MessageSentEvent struct {
	SchemaVersion  string    `json:"schema_version"`
	MessageID      string    `json:"message_id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	ReceiverID     string    `json:"receiver_id"`
	Timestamp      time.Time `json:"timestamp"`
}

// Publisher is the slice of the Kafka producer the emitter needs.
type Publisher interface {
	Publish(ctx context.Context, eventType, key string, payload any) error
}

// Emitter handles event emission for Clover. Emission failures are logged
// and swallowed: events are a downstream convenience and must never roll
// back a committed write.
type Emitter struct {
	producer Publisher
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer Publisher, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitInteractionRecorded emits an interaction.recorded event
func (e *Emitter) EmitInteractionRecorded(ctx context.Context, interaction *models.Interaction, previousType *models.InteractionType, newTotalLikes int) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitInteractionRecorded")
	defer span.End()

	event := &InteractionRecordedEvent{
		SchemaVersion:   SchemaVersion,
		UserID:          interaction.UserID,
		ListingID:       interaction.ListingID,
		ListingType:     string(interaction.ListingType),
		InteractionType: string(interaction.InteractionType),
		NewTotalLikes:   newTotalLikes,
		Timestamp:       time.Now().UTC(),
	}
	if previousType != nil {
		event.PreviousType = string(*previousType)
	}

	if err := e.producer.Publish(ctx, EventInteractionRecorded, interaction.ListingID, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit interaction.recorded event")
	}
}

// EmitMatchDetected emits a match.detected event
func (e *Emitter) EmitMatchDetected(ctx context.Context, likerUserID, matchedUserID, likedListingID, reciprocalListingID, conversationID string) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitMatchDetected")
	defer span.End()

	event := &MatchDetectedEvent{
		SchemaVersion:       SchemaVersion,
		LikerUserID:         likerUserID,
		MatchedUserID:       matchedUserID,
		LikedListingID:      likedListingID,
		ReciprocalListingID: reciprocalListingID,
		ConversationID:      conversationID,
		Timestamp:           time.Now().UTC(),
	}

	if err := e.producer.Publish(ctx, EventMatchDetected, conversationID, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit match.detected event")
	}
}

// EmitConversationCreated emits a conversation.created event
func (e *Emitter) EmitConversationCreated(ctx context.Context, conversation *models.Conversation, origin string) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitConversationCreated")
	defer span.End()

	event := &ConversationCreatedEvent{
		SchemaVersion:   SchemaVersion,
		ConversationID:  conversation.ID,
		ParticipantLow:  conversation.ParticipantLow,
		ParticipantHigh: conversation.ParticipantHigh,
		Origin:          origin,
		Timestamp:       time.Now().UTC(),
	}
	if conversation.PropertyID != nil {
		event.PropertyID = *conversation.PropertyID
	}
	if conversation.RequestID != nil {
		event.RequestID = *conversation.RequestID
	}

	if err := e.producer.Publish(ctx, EventConversationCreated, conversation.ID, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit conversation.created event")
	}
}

// EmitMessageSent emits a message.sent event
func (e *Emitter) EmitMessageSent(ctx context.Context, message *models.Message) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitMessageSent")
	defer span.End()

	event := &MessageSentEvent{
		SchemaVersion:  SchemaVersion,
		MessageID:      message.ID,
		ConversationID: message.ConversationID,
		SenderID:       message.SenderID,
		ReceiverID:     message.ReceiverID,
		Timestamp:      time.Now().UTC(),
	}

	if err := e.producer.Publish(ctx, EventMessageSent, message.ConversationID, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit message.sent event")
	}
}
