// Package matching detects mutual interest between two independently owned
// listings: a match exists when each user holds an active like on a listing
// owned by the other.
package matching

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// ListingSource is the slice of the listing repository the detector reads.
type ListingSource interface {
	FindReciprocalLike(ctx context.Context, likerID, ownerID string, counterpartType models.ListingType) (*models.Listing, error)
}

// Detector finds the reciprocal side of a fresh like
type Detector struct {
	listings ListingSource
	logger   ectologger.Logger
}

// NewDetector creates a new match detector
func NewDetector(listings ListingSource, logger ectologger.Logger) *Detector {
	return &Detector{
		listings: listings,
		logger:   logger,
	}
}

// Detect checks whether likedListing's owner has already liked an active
// counterpart-type listing owned by likerUserID. It only reads; composing
// the conversation and intro message is the caller's job.
//
// When the owner has liked several qualifying listings the repository's
// most-recent ordering picks one, and picks the same one on every call for
// the same state, so repeated detection cannot flap between listings.
func (d *Detector) Detect(ctx context.Context, likerUserID string, likedListing *models.Listing) (*models.MatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "matching.Detector.Detect")
	defer span.End()

	if likerUserID == likedListing.OwnerID {
		return &models.MatchResult{Matched: false}, nil
	}

	counterpartType := likedListing.ListingType.Counterpart()

	reciprocal, err := d.listings.FindReciprocalLike(ctx, likedListing.OwnerID, likerUserID, counterpartType)
	if err != nil {
		return nil, err
	}
	if reciprocal == nil {
		return &models.MatchResult{Matched: false}, nil
	}

	d.logger.WithContext(ctx).WithFields(map[string]any{
		"liker_user_id":         likerUserID,
		"liked_listing_id":      likedListing.ID,
		"reciprocal_listing_id": reciprocal.ID,
	}).Info("Mutual match detected")

	return &models.MatchResult{
		Matched:           true,
		ReciprocalListing: reciprocal,
	}, nil
}

// ConversationContextFor builds the conversation context for a match. The
// property side always fills propertyId and the request side requestId, no
// matter which listing was liked last.
func ConversationContextFor(likedListing, reciprocalListing *models.Listing) models.ConversationContext {
	result := models.ConversationContext{}
	for _, l := range []*models.Listing{likedListing, reciprocalListing} {
		if l.ListingType == models.ListingTypeProperty {
			result.PropertyID = l.ID
		} else {
			result.RequestID = l.ID
		}
	}
	return result
}
