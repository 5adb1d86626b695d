package interactions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func noopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

type fakeInteractionRepo struct {
	types map[string]models.InteractionType
}

func newFakeInteractionRepo() *fakeInteractionRepo {
	return &fakeInteractionRepo{types: map[string]models.InteractionType{}}
}

func interactionKey(userID, listingID string, listingType models.ListingType) string {
	return userID + "|" + listingID + "|" + string(listingType)
}

func (r *fakeInteractionRepo) Get(ctx context.Context, userID, listingID string, listingType models.ListingType) (*models.Interaction, error) {
	t, ok := r.types[interactionKey(userID, listingID, listingType)]
	if !ok {
		return nil, nil
	}
	return &models.Interaction{
		UserID:          userID,
		ListingID:       listingID,
		ListingType:     listingType,
		InteractionType: t,
	}, nil
}

func (r *fakeInteractionRepo) Upsert(ctx context.Context, userID, listingID string, listingType models.ListingType, interactionType models.InteractionType) (*models.Interaction, error) {
	r.types[interactionKey(userID, listingID, listingType)] = interactionType
	return &models.Interaction{
		UserID:          userID,
		ListingID:       listingID,
		ListingType:     listingType,
		InteractionType: interactionType,
	}, nil
}

type fakeListingRepo struct {
	listings map[string]*models.Listing

	adjustCalls []int
}

func (r *fakeListingRepo) Get(ctx context.Context, listingID string, listingType models.ListingType) (*models.Listing, error) {
	l, ok := r.listings[listingID]
	if !ok || l.ListingType != listingType {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "listing not found")
	}
	return l, nil
}

func (r *fakeListingRepo) AdjustLikeCount(ctx context.Context, listingID string, delta int) (int, error) {
	r.adjustCalls = append(r.adjustCalls, delta)
	l := r.listings[listingID]
	l.LikeCount += delta
	if l.LikeCount < 0 {
		l.LikeCount = 0
	}
	return l.LikeCount, nil
}

type fakeDetector struct {
	result *models.MatchResult
	err    error
	calls  int
}

func (d *fakeDetector) Detect(ctx context.Context, likerUserID string, likedListing *models.Listing) (*models.MatchResult, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	if d.result != nil {
		return d.result, nil
	}
	return &models.MatchResult{Matched: false}, nil
}

type fakeConversationService struct {
	conversation *models.Conversation
	created      bool

	getOrCreateCalls int
	gotContext       *models.ConversationContext
	gotOrigin        string

	sentMessages []string
	sendErr      error
}

func (s *fakeConversationService) GetOrCreate(ctx context.Context, userA, userB string, convContext *models.ConversationContext, origin string) (*models.Conversation, bool, error) {
	s.getOrCreateCalls++
	s.gotContext = convContext
	s.gotOrigin = origin
	return s.conversation, s.created, nil
}

func (s *fakeConversationService) SendMessage(ctx context.Context, conversationID, senderID, receiverID, content string) (*models.Message, error) {
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	s.sentMessages = append(s.sentMessages, content)
	return &models.Message{ID: "msg-1", ConversationID: conversationID, Content: content}, nil
}

type fakeUserDirectory struct {
	profiles map[string]models.UserProfile
}

func (d *fakeUserDirectory) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	p, ok := d.profiles[userID]
	if !ok {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "user not found")
	}
	return &p, nil
}

type fakeNotifier struct {
	texts []string
	err   error
}

func (n *fakeNotifier) SendMatchText(ctx context.Context, phoneNumber, otherUserName, listingTitle, contextUserID string) error {
	if n.err != nil {
		return n.err
	}
	n.texts = append(n.texts, fmt.Sprintf("%s|%s|%s", phoneNumber, otherUserName, listingTitle))
	return nil
}

type fakeEmitter struct {
	interactionsRecorded int
	matchesDetected      int
}

func (e *fakeEmitter) EmitInteractionRecorded(ctx context.Context, interaction *models.Interaction, previousType *models.InteractionType, newTotalLikes int) {
	e.interactionsRecorded++
}

func (e *fakeEmitter) EmitMatchDetected(ctx context.Context, likerUserID, matchedUserID, likedListingID, reciprocalListingID, conversationID string) {
	e.matchesDetected++
}

type serviceFixture struct {
	service       *Service
	interactions  *fakeInteractionRepo
	listings      *fakeListingRepo
	detector      *fakeDetector
	conversations *fakeConversationService
	notifier      *fakeNotifier
	emitter       *fakeEmitter
}

func newFixture() *serviceFixture {
	f := &serviceFixture{
		interactions: newFakeInteractionRepo(),
		listings: &fakeListingRepo{listings: map[string]*models.Listing{
			"prop-1": {
				ID:          "prop-1",
				OwnerID:     "owner-1",
				ListingType: models.ListingTypeProperty,
				Title:       "Sunny apartment",
				IsActive:    true,
				LikeCount:   2,
			},
		}},
		detector:      &fakeDetector{},
		conversations: &fakeConversationService{},
		notifier:      &fakeNotifier{},
		emitter:       &fakeEmitter{},
	}
	f.service = NewService(
		f.interactions,
		f.listings,
		f.detector,
		f.conversations,
		&fakeUserDirectory{profiles: map[string]models.UserProfile{
			"owner-1": {ID: "owner-1", Name: "Olive", PhoneNumber: "+15550001111"},
			"liker-1": {ID: "liker-1", Name: "Liam"},
		}},
		f.notifier,
		f.emitter,
		noopLogger(),
	)
	return f
}

func (f *serviceFixture) record(t *testing.T, interactionType models.InteractionType) *models.RecordInteractionResponse {
	t.Helper()
	response, err := f.service.RecordInteraction(context.Background(), "liker-1", "prop-1", models.ListingTypeProperty, interactionType)
	require.NoError(t, err)
	return response
}

func TestRecordInteractionLikeCounting(t *testing.T) {
	t.Run("a fresh like adds one", func(t *testing.T) {
		f := newFixture()

		response := f.record(t, models.InteractionTypeLike)
		assert.Equal(t, 3, response.NewTotalLikes)
		assert.Equal(t, models.InteractionTypeLike, response.NewInteractionType)
		assert.Equal(t, []int{1}, f.listings.adjustCalls)
	})

	t.Run("repeating a like does not add again", func(t *testing.T) {
		f := newFixture()

		f.record(t, models.InteractionTypeLike)
		response := f.record(t, models.InteractionTypeLike)
		assert.Equal(t, 3, response.NewTotalLikes)
		assert.Equal(t, []int{1}, f.listings.adjustCalls)
	})

	t.Run("leaving the like state subtracts one", func(t *testing.T) {
		f := newFixture()

		f.record(t, models.InteractionTypeLike)
		response := f.record(t, models.InteractionTypeDislike)
		assert.Equal(t, 2, response.NewTotalLikes)
		assert.Equal(t, []int{1, -1}, f.listings.adjustCalls)
	})

	t.Run("transitions between non like states leave the count alone", func(t *testing.T) {
		f := newFixture()

		f.record(t, models.InteractionTypeDislike)
		response := f.record(t, models.InteractionTypeSkip)
		assert.Equal(t, 2, response.NewTotalLikes)
		assert.Empty(t, f.listings.adjustCalls)
	})

	t.Run("dislike into like adds one", func(t *testing.T) {
		f := newFixture()

		f.record(t, models.InteractionTypeDislike)
		response := f.record(t, models.InteractionTypeLike)
		assert.Equal(t, 3, response.NewTotalLikes)
		assert.Equal(t, []int{1}, f.listings.adjustCalls)
	})
}

func TestRecordInteractionValidation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name            string
		userID          string
		listingID       string
		listingType     models.ListingType
		interactionType models.InteractionType
		wantStatus      int
	}{
		{
			name:            "missing user is unauthorized",
			listingID:       "prop-1",
			listingType:     models.ListingTypeProperty,
			interactionType: models.InteractionTypeLike,
			wantStatus:      http.StatusUnauthorized,
		},
		{
			name:            "missing listing id",
			userID:          "liker-1",
			listingType:     models.ListingTypeProperty,
			interactionType: models.InteractionTypeLike,
			wantStatus:      http.StatusBadRequest,
		},
		{
			name:            "unknown listing type",
			userID:          "liker-1",
			listingID:       "prop-1",
			listingType:     models.ListingType("villa"),
			interactionType: models.InteractionTypeLike,
			wantStatus:      http.StatusBadRequest,
		},
		{
			name:            "unknown interaction type",
			userID:          "liker-1",
			listingID:       "prop-1",
			listingType:     models.ListingTypeProperty,
			interactionType: models.InteractionType("superlike"),
			wantStatus:      http.StatusBadRequest,
		},
		{
			name:            "own listing",
			userID:          "owner-1",
			listingID:       "prop-1",
			listingType:     models.ListingTypeProperty,
			interactionType: models.InteractionTypeLike,
			wantStatus:      http.StatusBadRequest,
		},
		{
			name:            "unknown listing",
			userID:          "liker-1",
			listingID:       "prop-404",
			listingType:     models.ListingTypeProperty,
			interactionType: models.InteractionTypeLike,
			wantStatus:      http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()

			_, err := f.service.RecordInteraction(ctx, tt.userID, tt.listingID, tt.listingType, tt.interactionType)
			require.Error(t, err)
			assert.Equal(t, tt.wantStatus, httperror.GetStatusCode(err))
		})
	}
}

func TestRecordInteractionMatchFlow(t *testing.T) {
	reciprocal := &models.Listing{
		ID:          "req-1",
		OwnerID:     "liker-1",
		ListingType: models.ListingTypeRequest,
		Title:       "Looking for 2 bedrooms",
	}

	t.Run("a mutual like creates the conversation and seeds the intro", func(t *testing.T) {
		f := newFixture()
		f.detector.result = &models.MatchResult{Matched: true, ReciprocalListing: reciprocal}
		f.conversations.conversation = &models.Conversation{ID: "conv-1", ParticipantLow: "liker-1", ParticipantHigh: "owner-1"}
		f.conversations.created = true

		response := f.record(t, models.InteractionTypeLike)

		require.NotNil(t, response.MatchDetails)
		assert.True(t, response.MatchDetails.MatchFound)
		assert.Equal(t, "conv-1", response.MatchDetails.ConversationID)
		assert.Equal(t, "owner-1", response.MatchDetails.MatchedUserID)
		assert.Equal(t, "req-1", response.MatchDetails.MatchedListingID)
		assert.Equal(t, "Looking for 2 bedrooms", response.MatchDetails.MatchedListingTitle)

		assert.Equal(t, "match", f.conversations.gotOrigin)
		require.NotNil(t, f.conversations.gotContext)
		assert.Equal(t, "prop-1", f.conversations.gotContext.PropertyID)
		assert.Equal(t, "req-1", f.conversations.gotContext.RequestID)

		require.Len(t, f.conversations.sentMessages, 1)
		assert.Contains(t, f.conversations.sentMessages[0], "It's a match!")
		assert.Equal(t, 1, f.emitter.matchesDetected)
		require.Len(t, f.notifier.texts, 1)
		assert.Contains(t, f.notifier.texts[0], "+15550001111")
	})

	t.Run("re-liking an existing match does not seed a second intro", func(t *testing.T) {
		f := newFixture()
		f.detector.result = &models.MatchResult{Matched: true, ReciprocalListing: reciprocal}
		f.conversations.conversation = &models.Conversation{ID: "conv-1", ParticipantLow: "liker-1", ParticipantHigh: "owner-1"}
		f.conversations.created = false

		response := f.record(t, models.InteractionTypeLike)

		require.NotNil(t, response.MatchDetails)
		assert.True(t, response.MatchDetails.MatchFound)
		assert.Equal(t, "conv-1", response.MatchDetails.ConversationID)
		assert.Empty(t, f.conversations.sentMessages)
		assert.Zero(t, f.emitter.matchesDetected)
		assert.Empty(t, f.notifier.texts)
	})

	t.Run("no reciprocal like reports no match", func(t *testing.T) {
		f := newFixture()

		response := f.record(t, models.InteractionTypeLike)

		require.NotNil(t, response.MatchDetails)
		assert.False(t, response.MatchDetails.MatchFound)
		assert.Empty(t, response.MatchDetails.ConversationID)
		assert.Zero(t, f.conversations.getOrCreateCalls)
	})

	t.Run("detection only runs on a transition into like", func(t *testing.T) {
		f := newFixture()

		f.record(t, models.InteractionTypeLike)
		f.record(t, models.InteractionTypeLike)
		assert.Equal(t, 1, f.detector.calls)

		f.record(t, models.InteractionTypeDislike)
		assert.Equal(t, 1, f.detector.calls)

		f.record(t, models.InteractionTypeLike)
		assert.Equal(t, 2, f.detector.calls)
	})

	t.Run("notification failure does not fail the interaction", func(t *testing.T) {
		f := newFixture()
		f.detector.result = &models.MatchResult{Matched: true, ReciprocalListing: reciprocal}
		f.conversations.conversation = &models.Conversation{ID: "conv-1"}
		f.conversations.created = true
		f.notifier.err = errors.New("relay unreachable")

		response := f.record(t, models.InteractionTypeLike)
		require.NotNil(t, response.MatchDetails)
		assert.True(t, response.MatchDetails.MatchFound)
	})

	t.Run("intro message failure does not fail the interaction", func(t *testing.T) {
		f := newFixture()
		f.detector.result = &models.MatchResult{Matched: true, ReciprocalListing: reciprocal}
		f.conversations.conversation = &models.Conversation{ID: "conv-1"}
		f.conversations.created = true
		f.conversations.sendErr = errors.New("store unavailable")

		response := f.record(t, models.InteractionTypeLike)
		require.NotNil(t, response.MatchDetails)
		assert.True(t, response.MatchDetails.MatchFound)
	})
}

func TestGetListingInteractionDetails(t *testing.T) {
	ctx := context.Background()

	t.Run("anonymous callers get the aggregate only", func(t *testing.T) {
		f := newFixture()

		details, err := f.service.GetListingInteractionDetails(ctx, "prop-1", models.ListingTypeProperty, "")
		require.NoError(t, err)
		assert.Equal(t, 2, details.TotalLikes)
		assert.Nil(t, details.CurrentUserInteraction)
	})

	t.Run("authenticated callers see their own interaction", func(t *testing.T) {
		f := newFixture()
		f.record(t, models.InteractionTypeDislike)

		details, err := f.service.GetListingInteractionDetails(ctx, "prop-1", models.ListingTypeProperty, "liker-1")
		require.NoError(t, err)
		require.NotNil(t, details.CurrentUserInteraction)
		assert.Equal(t, models.InteractionTypeDislike, *details.CurrentUserInteraction)
	})

	t.Run("no interaction yields a nil current interaction", func(t *testing.T) {
		f := newFixture()

		details, err := f.service.GetListingInteractionDetails(ctx, "prop-1", models.ListingTypeProperty, "liker-1")
		require.NoError(t, err)
		assert.Nil(t, details.CurrentUserInteraction)
	})

	t.Run("unknown listing is not found", func(t *testing.T) {
		f := newFixture()

		_, err := f.service.GetListingInteractionDetails(ctx, "prop-404", models.ListingTypeProperty, "")
		require.Error(t, err)
		assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
	})
}

func TestLikeCountDelta(t *testing.T) {
	like := models.InteractionTypeLike
	dislike := models.InteractionTypeDislike

	tests := []struct {
		name     string
		previous *models.InteractionType
		next     models.InteractionType
		want     int
	}{
		{name: "nothing to like", previous: nil, next: models.InteractionTypeLike, want: 1},
		{name: "dislike to like", previous: &dislike, next: models.InteractionTypeLike, want: 1},
		{name: "like to like", previous: &like, next: models.InteractionTypeLike, want: 0},
		{name: "like to dislike", previous: &like, next: models.InteractionTypeDislike, want: -1},
		{name: "like to skip", previous: &like, next: models.InteractionTypeSkip, want: -1},
		{name: "nothing to skip", previous: nil, next: models.InteractionTypeSkip, want: 0},
		{name: "dislike to skip", previous: &dislike, next: models.InteractionTypeSkip, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, likeCountDelta(tt.previous, tt.next))
		})
	}
}
