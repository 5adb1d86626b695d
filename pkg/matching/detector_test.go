package matching

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

type fakeListingSource struct {
	reciprocal *models.Listing
	err        error

	gotLikerID          string
	gotOwnerID          string
	gotCounterpartType  models.ListingType
	calls               int
}

func (f *fakeListingSource) FindReciprocalLike(ctx context.Context, likerID, ownerID string, counterpartType models.ListingType) (*models.Listing, error) {
	f.calls++
	f.gotLikerID = likerID
	f.gotOwnerID = ownerID
	f.gotCounterpartType = counterpartType
	return f.reciprocal, f.err
}

func noopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestDetect(t *testing.T) {
	property := &models.Listing{
		ID:          "prop-1",
		OwnerID:     "owner-1",
		ListingType: models.ListingTypeProperty,
		Title:       "Sunny apartment",
		IsActive:    true,
	}

	t.Run("no reciprocal like means no match", func(t *testing.T) {
		source := &fakeListingSource{}
		detector := NewDetector(source, noopLogger())

		result, err := detector.Detect(context.Background(), "liker-1", property)
		require.NoError(t, err)
		assert.False(t, result.Matched)
		assert.Nil(t, result.ReciprocalListing)
	})

	t.Run("reciprocal like produces a match", func(t *testing.T) {
		reciprocal := &models.Listing{
			ID:          "req-1",
			OwnerID:     "liker-1",
			ListingType: models.ListingTypeRequest,
			Title:       "Looking for 2 bedrooms",
			IsActive:    true,
		}
		source := &fakeListingSource{reciprocal: reciprocal}
		detector := NewDetector(source, noopLogger())

		result, err := detector.Detect(context.Background(), "liker-1", property)
		require.NoError(t, err)
		assert.True(t, result.Matched)
		assert.Equal(t, reciprocal, result.ReciprocalListing)
	})

	t.Run("queries the owner's like on the liker's counterpart listings", func(t *testing.T) {
		source := &fakeListingSource{}
		detector := NewDetector(source, noopLogger())

		_, err := detector.Detect(context.Background(), "liker-1", property)
		require.NoError(t, err)
		assert.Equal(t, "owner-1", source.gotLikerID)
		assert.Equal(t, "liker-1", source.gotOwnerID)
		assert.Equal(t, models.ListingTypeRequest, source.gotCounterpartType)
	})

	t.Run("liking a request searches for properties", func(t *testing.T) {
		request := &models.Listing{
			ID:          "req-9",
			OwnerID:     "owner-9",
			ListingType: models.ListingTypeRequest,
		}
		source := &fakeListingSource{}
		detector := NewDetector(source, noopLogger())

		_, err := detector.Detect(context.Background(), "liker-9", request)
		require.NoError(t, err)
		assert.Equal(t, models.ListingTypeProperty, source.gotCounterpartType)
	})

	t.Run("own listing never matches", func(t *testing.T) {
		source := &fakeListingSource{}
		detector := NewDetector(source, noopLogger())

		result, err := detector.Detect(context.Background(), "owner-1", property)
		require.NoError(t, err)
		assert.False(t, result.Matched)
		assert.Zero(t, source.calls)
	})
}

func TestConversationContextFor(t *testing.T) {
	property := &models.Listing{ID: "prop-1", ListingType: models.ListingTypeProperty}
	request := &models.Listing{ID: "req-1", ListingType: models.ListingTypeRequest}

	tests := []struct {
		name       string
		liked      *models.Listing
		reciprocal *models.Listing
	}{
		{name: "property liked last", liked: property, reciprocal: request},
		{name: "request liked last", liked: request, reciprocal: property},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConversationContextFor(tt.liked, tt.reciprocal)
			assert.Equal(t, "prop-1", got.PropertyID)
			assert.Equal(t, "req-1", got.RequestID)
		})
	}
}
