package listings

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/models"
)

type fakeWriter struct {
	upserted    []*models.Listing
	deactivated []string
	err         error
}

func (w *fakeWriter) Upsert(ctx context.Context, listing *models.Listing) error {
	if w.err != nil {
		return w.err
	}
	w.upserted = append(w.upserted, listing)
	return nil
}

func (w *fakeWriter) Deactivate(ctx context.Context, listingID string) error {
	if w.err != nil {
		return w.err
	}
	w.deactivated = append(w.deactivated, listingID)
	return nil
}

func noopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func message(value string) *kafka.IncomingMessage {
	return &kafka.IncomingMessage{
		Topic: "listing-events",
		Value: []byte(value),
	}
}

func TestIngesterHandle(t *testing.T) {
	ctx := context.Background()

	t.Run("upsert events write the read model", func(t *testing.T) {
		writer := &fakeWriter{}
		ingester := NewIngester(writer, noopLogger())

		err := ingester.Handle(ctx, message(`{
			"event_type": "listing.upserted",
			"listing_id": "prop-1",
			"listing_type": "property",
			"owner_id": "owner-1",
			"title": "Sunny apartment",
			"slug": "sunny-apartment",
			"is_active": true
		}`))
		require.NoError(t, err)

		require.Len(t, writer.upserted, 1)
		got := writer.upserted[0]
		assert.Equal(t, "prop-1", got.ID)
		assert.Equal(t, "owner-1", got.OwnerID)
		assert.Equal(t, models.ListingTypeProperty, got.ListingType)
		assert.Equal(t, "Sunny apartment", got.Title)
		assert.True(t, got.IsActive)
	})

	t.Run("deactivate events flip the listing off", func(t *testing.T) {
		writer := &fakeWriter{}
		ingester := NewIngester(writer, noopLogger())

		err := ingester.Handle(ctx, message(`{"event_type": "listing.deactivated", "listing_id": "prop-1"}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"prop-1"}, writer.deactivated)
	})

	t.Run("unparseable payloads are dropped without error", func(t *testing.T) {
		writer := &fakeWriter{}
		ingester := NewIngester(writer, noopLogger())

		err := ingester.Handle(ctx, message(`not json`))
		require.NoError(t, err)
		assert.Empty(t, writer.upserted)
		assert.Empty(t, writer.deactivated)
	})

	t.Run("missing listing id is dropped without error", func(t *testing.T) {
		writer := &fakeWriter{}
		ingester := NewIngester(writer, noopLogger())

		err := ingester.Handle(ctx, message(`{"event_type": "listing.upserted"}`))
		require.NoError(t, err)
		assert.Empty(t, writer.upserted)
	})

	t.Run("unknown event types are dropped without error", func(t *testing.T) {
		writer := &fakeWriter{}
		ingester := NewIngester(writer, noopLogger())

		err := ingester.Handle(ctx, message(`{"event_type": "listing.archived", "listing_id": "prop-1"}`))
		require.NoError(t, err)
		assert.Empty(t, writer.upserted)
		assert.Empty(t, writer.deactivated)
	})

	t.Run("unknown listing types are dropped without error", func(t *testing.T) {
		writer := &fakeWriter{}
		ingester := NewIngester(writer, noopLogger())

		err := ingester.Handle(ctx, message(`{"event_type": "listing.upserted", "listing_id": "prop-1", "listing_type": "villa"}`))
		require.NoError(t, err)
		assert.Empty(t, writer.upserted)
	})

	t.Run("storage failures bubble up for retry", func(t *testing.T) {
		writer := &fakeWriter{err: errors.New("connection refused")}
		ingester := NewIngester(writer, noopLogger())

		err := ingester.Handle(ctx, message(`{"event_type": "listing.deactivated", "listing_id": "prop-1"}`))
		require.Error(t, err)
	})
}
