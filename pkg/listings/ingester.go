// Package listings maintains the listing read model from events published
// by the listing service.
package listings

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Writer is the slice of the listing repository the ingester mutates
type Writer interface {
	Upsert(ctx context.Context, listing *models.Listing) error
	Deactivate(ctx context.Context, listingID string) error
}

// Ingester applies listing events to the read model. Handlers are
// idempotent: replaying an event converges on the same row.
type Ingester struct {
	listings Writer
	logger   ectologger.Logger
}

// NewIngester creates a new listing event ingester
func NewIngester(listings Writer, logger ectologger.Logger) *Ingester {
	return &Ingester{
		listings: listings,
		logger:   logger,
	}
}

// Handle processes one listing event. Returning an error leaves the message
// uncommitted so it is retried.
func (i *Ingester) Handle(ctx context.Context, msg *kafka.IncomingMessage) error {
	ctx, span := tracing.StartSpan(ctx, "listings.Ingester.Handle")
	defer span.End()

	event, err := msg.ParseListingEvent()
	if err != nil {
		// Malformed payloads never become parseable; log and drop.
		i.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"topic":  msg.Topic,
			"offset": msg.Offset,
		}).Error("Dropping unparseable listing event")
		return nil
	}

	log := i.logger.WithContext(ctx).WithFields(map[string]any{
		"event_type": event.EventType,
		"listing_id": event.ListingID,
	})

	switch event.EventType {
	case "listing.deactivated":
		if err := i.listings.Deactivate(ctx, event.ListingID); err != nil {
			return err
		}
		log.Debug("Deactivated listing from event")
		return nil

	case "listing.upserted":
		listingType := models.ListingType(event.ListingType)
		if !listingType.IsValid() {
			log.Error("Dropping listing event with unknown listing type")
			return nil
		}

		listing := &models.Listing{
			ID:          event.ListingID,
			OwnerID:     event.OwnerID,
			ListingType: listingType,
			Title:       event.Title,
			Slug:        event.Slug,
			IsActive:    event.IsActive,
		}
		if err := i.listings.Upsert(ctx, listing); err != nil {
			return err
		}
		log.Debug("Upserted listing from event")
		return nil

	default:
		// Unknown types stay unknown on retry; drop instead of wedging
		// the partition.
		log.Warnf("Dropping listing event with unknown type %q", event.EventType)
		return nil
	}
}
