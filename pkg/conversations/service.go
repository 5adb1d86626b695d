// Package conversations implements the conversation registry and messaging
// channel: idempotent conversation creation over a canonical participant
// pair, message delivery with per-party unread counters, and read receipts.
package conversations

import (
	"context"
	"database/sql"
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const (
	// OriginMatch marks conversations created by the mutual match flow
	OriginMatch = "match"
	// OriginDirect marks conversations created by a direct contact request
	OriginDirect = "direct"
)

// ConversationRepository is the persistence surface for conversation rows
type ConversationRepository interface {
	GetByKey(ctx context.Context, participantLow, participantHigh string, propertyID, requestID *string) (*models.Conversation, error)
	Create(ctx context.Context, conversation *models.Conversation) (*models.Conversation, error)
	GetByID(ctx context.Context, id string) (*models.Conversation, error)
	ListForUser(ctx context.Context, userID string, limit int) ([]*models.Conversation, error)
	ApplyMessage(ctx context.Context, conversationID, receiverID string) error
	ResetUnread(ctx context.Context, conversationID, userID string) error
	TotalUnread(ctx context.Context, userID string) (int, error)
}

// MessageRepository is the persistence surface for message rows
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) (*models.Message, error)
	MarkRead(ctx context.Context, conversationID, receiverID string) (int64, error)
	ListPage(ctx context.Context, conversationID string, page, pageSize int) ([]models.Message, int, error)
	GetLatestByConversation(ctx context.Context, conversationIDs []string) (map[string]models.Message, error)
}

// UserDirectory resolves display fields for message and summary rendering
type UserDirectory interface {
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	GetProfiles(ctx context.Context, userIDs []string) (map[string]models.UserProfile, error)
}

// UnreadBadgeCache fronts the badge count query
type UnreadBadgeCache interface {
	Get(ctx context.Context, userID string) (count int, found bool)
	Set(ctx context.Context, userID string, count int)
	Invalidate(ctx context.Context, userIDs ...string)
}

// EventEmitter publishes conversation lifecycle events
type EventEmitter interface {
	EmitConversationCreated(ctx context.Context, conversation *models.Conversation, origin string)
	EmitMessageSent(ctx context.Context, message *models.Message)
}

// Config contains conversation service limits
type Config struct {
	MessageMaxLength      int
	MessagePageSize       int
	ConversationListLimit int
}

// Service orchestrates conversation and message operations
type Service struct {
	db            database.DB
	conversations ConversationRepository
	messages      MessageRepository
	users         UserDirectory
	emitter       EventEmitter
	unreadCache   UnreadBadgeCache
	logger        ectologger.Logger
	cfg           Config
}

// NewService creates a new conversation service
func NewService(
	db database.DB,
	conversations ConversationRepository,
	messages MessageRepository,
	users UserDirectory,
	emitter EventEmitter,
	unreadCache UnreadBadgeCache,
	cfg Config,
	logger ectologger.Logger,
) *Service {
	return &Service{
		db:            db,
		conversations: conversations,
		messages:      messages,
		users:         users,
		emitter:       emitter,
		unreadCache:   unreadCache,
		logger:        logger,
		cfg:           cfg,
	}
}

// GetOrCreate resolves the single conversation for a participant pair and
// listing context, creating it when absent. Arguments may arrive in either
// order; the pair is canonicalized before touching the store. When two
// callers race to create the same key, the loser's insert is rejected by
// the unique index and the loser re-reads the winner's row, so every caller
// converges on one conversation id.
func (s *Service) GetOrCreate(ctx context.Context, userA, userB string, convContext *models.ConversationContext, origin string) (conversation *models.Conversation, created bool, err error) {
	ctx, span := tracing.StartSpan(ctx, "conversations.Service.GetOrCreate")
	defer span.End()

	if userA == "" || userB == "" {
		return nil, false, httperror.NewHTTPError(http.StatusBadRequest, "both participants are required")
	}
	if userA == userB {
		return nil, false, httperror.NewHTTPError(http.StatusBadRequest, "a conversation needs two distinct participants")
	}

	var propertyID, requestID *string
	if convContext != nil {
		if convContext.PropertyID != "" && convContext.RequestID != "" {
			return nil, false, httperror.NewHTTPError(http.StatusBadRequest, "a conversation context may reference a property or a request, not both")
		}
		if convContext.PropertyID != "" {
			propertyID = &convContext.PropertyID
		}
		if convContext.RequestID != "" {
			requestID = &convContext.RequestID
		}
	}

	low, high := models.CanonicalParticipants(userA, userB)

	existing, err := s.conversations.GetByKey(ctx, low, high, propertyID, requestID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	inserted, err := s.conversations.Create(ctx, &models.Conversation{
		ParticipantLow:  low,
		ParticipantHigh: high,
		PropertyID:      propertyID,
		RequestID:       requestID,
	})
	if err != nil {
		return nil, false, err
	}

	if inserted == nil {
		// Lost the insert race; the winner's row exists now.
		winner, err := s.conversations.GetByKey(ctx, low, high, propertyID, requestID)
		if err != nil {
			return nil, false, err
		}
		if winner == nil {
			s.logger.WithContext(ctx).WithFields(map[string]any{
				"participant_low":  low,
				"participant_high": high,
			}).Error("Conversation insert conflicted but no row found on re-read")
			return nil, false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to resolve conversation")
		}
		return winner, false, nil
	}

	metrics.RecordConversationCreated(origin)
	s.emitter.EmitConversationCreated(ctx, inserted, origin)

	return inserted, true, nil
}

// SendMessage appends a message to a conversation. The message insert and
// the receiver's unread counter bump commit in one transaction; the counter
// and last-activity timestamp themselves move in a single update statement.
func (s *Service) SendMessage(ctx context.Context, conversationID, senderID, receiverID, content string) (*models.Message, error) {
	ctx, span := tracing.StartSpan(ctx, "conversations.Service.SendMessage")
	defer span.End()

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "message content is empty")
	}
	if s.cfg.MessageMaxLength > 0 && len(content) > s.cfg.MessageMaxLength {
		return nil, httperror.NewHTTPErrorf(http.StatusBadRequest, "message content exceeds %d characters", s.cfg.MessageMaxLength)
	}
	if senderID == "" || receiverID == "" {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "sender and receiver are required")
	}
	if senderID == receiverID {
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "sender and receiver must be distinct")
	}

	conversation, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(senderID) || !conversation.HasParticipant(receiverID) {
		return nil, httperror.NewHTTPError(http.StatusForbidden, "sender and receiver must both be participants of this conversation")
	}

	txCtx, tx, err := s.db.GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to send message")
	}
	defer tx.Rollback(ctx)

	message, err := s.messages.Create(txCtx, &models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		ReceiverID:     receiverID,
		Content:        content,
	})
	if err != nil {
		return nil, err
	}

	if err := s.conversations.ApplyMessage(txCtx, conversationID, receiverID); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to send message")
	}

	s.unreadCache.Invalidate(ctx, receiverID)
	metrics.MessagesSent.Inc()
	s.emitter.EmitMessageSent(ctx, message)

	if profile, err := s.users.GetProfile(ctx, senderID); err == nil {
		message.SenderName = profile.Name
		message.SenderAvatarURL = profile.AvatarURL
	} else {
		s.logger.WithContext(ctx).WithError(err).Warn("Failed to resolve sender profile for message response")
	}

	return message, nil
}

// MarkAsRead stamps read receipts on the caller's unread messages and then
// resets their unread counter. The receipts go first: a crash in between
// leaves the badge over-counting nothing and under-counting at worst.
func (s *Service) MarkAsRead(ctx context.Context, conversationID, callerID string) error {
	ctx, span := tracing.StartSpan(ctx, "conversations.Service.MarkAsRead")
	defer span.End()

	if callerID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	conversation, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conversation.HasParticipant(callerID) {
		return httperror.NewHTTPError(http.StatusForbidden, "caller is not a participant of this conversation")
	}

	stamped, err := s.messages.MarkRead(ctx, conversationID, callerID)
	if err != nil {
		return err
	}

	if err := s.conversations.ResetUnread(ctx, conversationID, callerID); err != nil {
		return err
	}

	s.unreadCache.Invalidate(ctx, callerID)

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"conversation_id": conversationID,
		"stamped":         stamped,
	}).Debug("Marked conversation as read")

	return nil
}

// ListForUser returns the caller's conversations as summaries, newest
// activity first.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]models.ConversationSummary, error) {
	ctx, span := tracing.StartSpan(ctx, "conversations.Service.ListForUser")
	defer span.End()

	if userID == "" {
		return nil, httperror.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	conversations, err := s.conversations.ListForUser(ctx, userID, s.cfg.ConversationListLimit)
	if err != nil {
		return nil, err
	}
	if len(conversations) == 0 {
		return []models.ConversationSummary{}, nil
	}

	conversationIDs := make([]string, len(conversations))
	otherIDs := make([]string, len(conversations))
	for i, c := range conversations {
		conversationIDs[i] = c.ID
		otherIDs[i] = c.OtherParticipant(userID)
	}

	latest, err := s.messages.GetLatestByConversation(ctx, conversationIDs)
	if err != nil {
		return nil, err
	}

	profiles, err := s.users.GetProfiles(ctx, otherIDs)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.ConversationSummary, len(conversations))
	for i, c := range conversations {
		otherID := c.OtherParticipant(userID)
		summary := models.ConversationSummary{
			ID:            c.ID,
			OtherUserID:   otherID,
			PropertyID:    c.PropertyID,
			RequestID:     c.RequestID,
			UnreadCount:   c.UnreadFor(userID),
			LastMessageAt: c.LastMessageAt,
		}
		if profile, ok := profiles[otherID]; ok {
			summary.OtherUserName = profile.Name
			summary.OtherUserAvatarURL = profile.AvatarURL
		}
		if m, ok := latest[c.ID]; ok {
			summary.LastMessagePreview = previewOf(m.Content)
		}
		summaries[i] = summary
	}

	return summaries, nil
}

// GetMessages returns one page of a conversation's messages, oldest first.
func (s *Service) GetMessages(ctx context.Context, conversationID, callerID string, page int) (*models.MessagePage, error) {
	ctx, span := tracing.StartSpan(ctx, "conversations.Service.GetMessages")
	defer span.End()

	if callerID == "" {
		return nil, httperror.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	conversation, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(callerID) {
		return nil, httperror.NewHTTPError(http.StatusForbidden, "caller is not a participant of this conversation")
	}

	if page < 1 {
		page = 1
	}

	items, total, err := s.messages.ListPage(ctx, conversationID, page, s.cfg.MessagePageSize)
	if err != nil {
		return nil, err
	}

	return &models.MessagePage{
		Items:      items,
		TotalCount: total,
		Page:       page,
		PageSize:   s.cfg.MessagePageSize,
	}, nil
}

// TotalUnread returns the user's badge count, served from the cache when a
// fresh value exists.
func (s *Service) TotalUnread(ctx context.Context, userID string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "conversations.Service.TotalUnread")
	defer span.End()

	if userID == "" {
		return 0, httperror.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}

	if count, found := s.unreadCache.Get(ctx, userID); found {
		return count, nil
	}

	total, err := s.conversations.TotalUnread(ctx, userID)
	if err != nil {
		return 0, err
	}

	s.unreadCache.Set(ctx, userID, total)

	return total, nil
}

func previewOf(content string) string {
	const maxPreview = 120
	runes := []rune(content)
	if len(runes) <= maxPreview {
		return content
	}
	return string(runes[:maxPreview]) + "..."
}
