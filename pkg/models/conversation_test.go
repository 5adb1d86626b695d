package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalParticipants(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		wantLow  string
		wantHigh string
	}{
		{name: "already ordered", a: "user-a", b: "user-b", wantLow: "user-a", wantHigh: "user-b"},
		{name: "reversed", a: "user-b", b: "user-a", wantLow: "user-a", wantHigh: "user-b"},
		{name: "uuid style ids", a: "f0e1", b: "0a9b", wantLow: "0a9b", wantHigh: "f0e1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			low, high := CanonicalParticipants(tt.a, tt.b)
			assert.Equal(t, tt.wantLow, low)
			assert.Equal(t, tt.wantHigh, high)

			lowSwapped, highSwapped := CanonicalParticipants(tt.b, tt.a)
			assert.Equal(t, low, lowSwapped)
			assert.Equal(t, high, highSwapped)
		})
	}
}

func TestConversationHelpers(t *testing.T) {
	c := &Conversation{
		ParticipantLow:  "user-a",
		ParticipantHigh: "user-b",
		UnreadLow:       2,
		UnreadHigh:      5,
	}

	assert.True(t, c.HasParticipant("user-a"))
	assert.True(t, c.HasParticipant("user-b"))
	assert.False(t, c.HasParticipant("user-c"))

	assert.Equal(t, "user-b", c.OtherParticipant("user-a"))
	assert.Equal(t, "user-a", c.OtherParticipant("user-b"))

	assert.Equal(t, 2, c.UnreadFor("user-a"))
	assert.Equal(t, 5, c.UnreadFor("user-b"))
}

func TestListingTypeCounterpart(t *testing.T) {
	assert.Equal(t, ListingTypeRequest, ListingTypeProperty.Counterpart())
	assert.Equal(t, ListingTypeProperty, ListingTypeRequest.Counterpart())
}

func TestTypeValidation(t *testing.T) {
	assert.True(t, ListingTypeProperty.IsValid())
	assert.True(t, ListingTypeRequest.IsValid())
	assert.False(t, ListingType("villa").IsValid())
	assert.False(t, ListingType("").IsValid())

	assert.True(t, InteractionTypeLike.IsValid())
	assert.True(t, InteractionTypeDislike.IsValid())
	assert.True(t, InteractionTypeSkip.IsValid())
	assert.False(t, InteractionType("superlike").IsValid())
}
