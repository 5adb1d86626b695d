// Package interactions records user preferences on listings and drives the
// downstream chain: like-count adjustment, mutual match detection, and
// conversation bootstrap on a match.
package interactions

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/conversations"
	"github.com/Ramsey-B/clover/pkg/matching"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// InteractionRepository is the persistence surface for interaction rows
type InteractionRepository interface {
	Get(ctx context.Context, userID, listingID string, listingType models.ListingType) (*models.Interaction, error)
	Upsert(ctx context.Context, userID, listingID string, listingType models.ListingType, interactionType models.InteractionType) (*models.Interaction, error)
}

// ListingRepository is the slice of the listing read model this service uses
type ListingRepository interface {
	Get(ctx context.Context, listingID string, listingType models.ListingType) (*models.Listing, error)
	AdjustLikeCount(ctx context.Context, listingID string, delta int) (int, error)
}

// MatchDetector checks a fresh like for a reciprocal one
type MatchDetector interface {
	Detect(ctx context.Context, likerUserID string, likedListing *models.Listing) (*models.MatchResult, error)
}

// ConversationService resolves and seeds the conversation for a match
type ConversationService interface {
	GetOrCreate(ctx context.Context, userA, userB string, convContext *models.ConversationContext, origin string) (*models.Conversation, bool, error)
	SendMessage(ctx context.Context, conversationID, senderID, receiverID, content string) (*models.Message, error)
}

// UserDirectory resolves profiles for match notifications
type UserDirectory interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
}

// Notifier pushes match notifications to the external relay
type Notifier interface {
	SendMatchText(ctx context.Context, phoneNumber, otherUserName, listingTitle, contextUserID string) error
}

// EventEmitter publishes interaction lifecycle events
type EventEmitter interface {
	EmitInteractionRecorded(ctx context.Context, interaction *models.Interaction, previousType *models.InteractionType, newTotalLikes int)
	EmitMatchDetected(ctx context.Context, likerUserID, matchedUserID, likedListingID, reciprocalListingID, conversationID string)
}

// Service orchestrates interaction recording
type Service struct {
	interactions  InteractionRepository
	listings      ListingRepository
	detector      MatchDetector
	conversations ConversationService
	users         UserDirectory
	notifier      Notifier
	emitter       EventEmitter
	logger        ectologger.Logger
}

// NewService creates a new interaction service
func NewService(
	interactions InteractionRepository,
	listings ListingRepository,
	detector MatchDetector,
	conversationService ConversationService,
	users UserDirectory,
	notifier Notifier,
	emitter EventEmitter,
	logger ectologger.Logger,
) *Service {
	return &Service{
		interactions:  interactions,
		listings:      listings,
		detector:      detector,
		conversations: conversationService,
		users:         users,
		notifier:      notifier,
		emitter:       emitter,
		logger:        logger,
	}
}

// RecordInteraction upserts the user's preference on a listing, adjusts the
// listing's like count for the transition, and, when the call transitioned
// the listing into a like, runs mutual match detection. Calling it twice
// with the same arguments is safe: the upsert replaces in place and the
// previous/new comparison makes the count delta zero on the repeat.
func (s *Service) RecordInteraction(ctx context.Context, userID, listingID string, listingType models.ListingType, newType models.InteractionType) (*models.RecordInteractionResponse, error) {
	ctx, span := tracing.StartSpan(ctx, "interactions.Service.RecordInteraction")
	defer span.End()

	if userID == "" {
		return nil, httperror.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	if listingID == "" {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "listing_id is required")
	}
	if !listingType.IsValid() {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown listing type %q", listingType)
	}
	if !newType.IsValid() {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown interaction type %q", newType)
	}

	listing, err := s.listings.Get(ctx, listingID, listingType)
	if err != nil {
		return nil, err
	}
	if listing.OwnerID == userID {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "cannot record an interaction on your own listing")
	}

	previous, err := s.interactions.Get(ctx, userID, listingID, listingType)
	if err != nil {
		return nil, err
	}
	var previousType *models.InteractionType
	if previous != nil {
		previousType = &previous.InteractionType
	}

	interaction, err := s.interactions.Upsert(ctx, userID, listingID, listingType, newType)
	if err != nil {
		return nil, err
	}

	totalLikes := listing.LikeCount
	delta := likeCountDelta(previousType, newType)
	if delta != 0 {
		totalLikes, err = s.listings.AdjustLikeCount(ctx, listingID, delta)
		if err != nil {
			return nil, err
		}
	}

	metrics.RecordInteraction(string(listingType), string(newType))
	s.emitter.EmitInteractionRecorded(ctx, interaction, previousType, totalLikes)

	response := &models.RecordInteractionResponse{
		NewTotalLikes:      totalLikes,
		NewInteractionType: newType,
	}

	if becameLike(previousType, newType) {
		matchDetails, err := s.handleFreshLike(ctx, userID, listing)
		if err != nil {
			return nil, err
		}
		response.MatchDetails = matchDetails
	}

	return response, nil
}

// GetListingInteractionDetails returns a listing's aggregate like count and,
// when userID is set, the caller's own interaction.
func (s *Service) GetListingInteractionDetails(ctx context.Context, listingID string, listingType models.ListingType, userID string) (*models.ListingInteractionDetails, error) {
	ctx, span := tracing.StartSpan(ctx, "interactions.Service.GetListingInteractionDetails")
	defer span.End()

	if listingID == "" {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "listing_id is required")
	}
	if !listingType.IsValid() {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown listing type %q", listingType)
	}

	listing, err := s.listings.Get(ctx, listingID, listingType)
	if err != nil {
		return nil, err
	}

	details := &models.ListingInteractionDetails{
		TotalLikes: listing.LikeCount,
	}

	if userID != "" {
		interaction, err := s.interactions.Get(ctx, userID, listingID, listingType)
		if err != nil {
			return nil, err
		}
		if interaction != nil {
			details.CurrentUserInteraction = &interaction.InteractionType
		}
	}

	return details, nil
}

// handleFreshLike runs match detection after a transition into like and, on
// a match, resolves the conversation and seeds it with an intro message.
// The match notification is best effort and never fails the call.
func (s *Service) handleFreshLike(ctx context.Context, userID string, listing *models.Listing) (*models.MatchDetails, error) {
	result, err := s.detector.Detect(ctx, userID, listing)
	if err != nil {
		return nil, err
	}
	if !result.Matched {
		return &models.MatchDetails{MatchFound: false}, nil
	}

	reciprocal := result.ReciprocalListing
	convContext := matching.ConversationContextFor(listing, reciprocal)

	conversation, created, err := s.conversations.GetOrCreate(ctx, userID, listing.OwnerID, &convContext, conversations.OriginMatch)
	if err != nil {
		return nil, err
	}

	if created {
		intro := fmt.Sprintf("It's a match! You're both interested: \"%s\" and \"%s\".", listing.Title, reciprocal.Title)
		if _, err := s.conversations.SendMessage(ctx, conversation.ID, userID, listing.OwnerID, intro); err != nil {
			s.logger.WithContext(ctx).WithError(err).Error("Failed to seed match conversation with intro message")
		}

		metrics.MatchesDetected.Inc()
		s.emitter.EmitMatchDetected(ctx, userID, listing.OwnerID, listing.ID, reciprocal.ID, conversation.ID)
		s.notifyMatch(ctx, userID, listing)
	}

	return &models.MatchDetails{
		MatchFound:          true,
		ConversationID:      conversation.ID,
		MatchedUserID:       listing.OwnerID,
		MatchedListingID:    reciprocal.ID,
		MatchedListingTitle: reciprocal.Title,
	}, nil
}

func (s *Service) notifyMatch(ctx context.Context, likerID string, likedListing *models.Listing) {
	ownerProfile, err := s.users.GetProfile(ctx, likedListing.OwnerID)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Failed to resolve owner profile for match notification")
		return
	}

	likerProfile, err := s.users.GetProfile(ctx, likerID)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Failed to resolve liker profile for match notification")
		return
	}

	if err := s.notifier.SendMatchText(ctx, ownerProfile.PhoneNumber, likerProfile.Name, likedListing.Title, likedListing.OwnerID); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("Match notification delivery failed")
	}
}

// likeCountDelta is the pure transition rule for the aggregate like count:
// only entering or leaving the like state moves it.
func likeCountDelta(previousType *models.InteractionType, newType models.InteractionType) int {
	wasLike := previousType != nil && *previousType == models.InteractionTypeLike
	isLike := newType == models.InteractionTypeLike

	switch {
	case !wasLike && isLike:
		return 1
	case wasLike && !isLike:
		return -1
	default:
		return 0
	}
}

func becameLike(previousType *models.InteractionType, newType models.InteractionType) bool {
	return newType == models.InteractionTypeLike &&
		(previousType == nil || *previousType != models.InteractionTypeLike)
}
