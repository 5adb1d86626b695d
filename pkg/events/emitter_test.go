package events

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

type published struct {
	eventType string
	key       string
	payload   any
}

type fakePublisher struct {
	events []published
	err    error
}

func (p *fakePublisher) Publish(ctx context.Context, eventType, key string, payload any) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, published{eventType: eventType, key: key, payload: payload})
	return nil
}

func noopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestEmitInteractionRecorded(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes keyed by listing with the previous type", func(t *testing.T) {
		publisher := &fakePublisher{}
		emitter := NewEmitter(publisher, noopLogger())

		previous := models.InteractionTypeDislike
		emitter.EmitInteractionRecorded(ctx, &models.Interaction{
			UserID:          "user-1",
			ListingID:       "prop-1",
			ListingType:     models.ListingTypeProperty,
			InteractionType: models.InteractionTypeLike,
		}, &previous, 3)

		require.Len(t, publisher.events, 1)
		assert.Equal(t, EventInteractionRecorded, publisher.events[0].eventType)
		assert.Equal(t, "prop-1", publisher.events[0].key)

		event, ok := publisher.events[0].payload.(*InteractionRecordedEvent)
		require.True(t, ok)
		assert.Equal(t, SchemaVersion, event.SchemaVersion)
		assert.Equal(t, "like", event.InteractionType)
		assert.Equal(t, "dislike", event.PreviousType)
		assert.Equal(t, 3, event.NewTotalLikes)
	})

	t.Run("publish failures are swallowed", func(t *testing.T) {
		publisher := &fakePublisher{err: errors.New("broker unavailable")}
		emitter := NewEmitter(publisher, noopLogger())

		emitter.EmitInteractionRecorded(ctx, &models.Interaction{ListingID: "prop-1"}, nil, 0)
		assert.Empty(t, publisher.events)
	})
}

func TestEmitConversationCreated(t *testing.T) {
	publisher := &fakePublisher{}
	emitter := NewEmitter(publisher, noopLogger())

	propertyID := "prop-1"
	emitter.EmitConversationCreated(context.Background(), &models.Conversation{
		ID:              "conv-1",
		ParticipantLow:  "user-a",
		ParticipantHigh: "user-b",
		PropertyID:      &propertyID,
	}, "match")

	require.Len(t, publisher.events, 1)
	assert.Equal(t, EventConversationCreated, publisher.events[0].eventType)

	event, ok := publisher.events[0].payload.(*ConversationCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, "conv-1", event.ConversationID)
	assert.Equal(t, "prop-1", event.PropertyID)
	assert.Empty(t, event.RequestID)
	assert.Equal(t, "match", event.Origin)
}

func TestEmitMessageSent(t *testing.T) {
	publisher := &fakePublisher{}
	emitter := NewEmitter(publisher, noopLogger())

	emitter.EmitMessageSent(context.Background(), &models.Message{
		ID:             "msg-1",
		ConversationID: "conv-1",
		SenderID:       "user-a",
		ReceiverID:     "user-b",
	})

	require.Len(t, publisher.events, 1)
	assert.Equal(t, EventMessageSent, publisher.events[0].eventType)
	assert.Equal(t, "conv-1", publisher.events[0].key)

	event, ok := publisher.events[0].payload.(*MessageSentEvent)
	require.True(t, ok)
	assert.Equal(t, "msg-1", event.MessageID)
	assert.Equal(t, "user-b", event.ReceiverID)
}
