package conversation

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Repository handles conversation persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new conversation repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// GetByKey retrieves the conversation for a canonical participant pair and
// listing context, or nil when none exists. Unset context fields are
// compared as null.
func (r *Repository) GetByKey(ctx context.Context, participantLow, participantHigh string, propertyID, requestID *string) (*models.Conversation, error) {
	ctx, span := tracing.StartSpan(ctx, "conversation.Repository.GetByKey")
	defer span.End()

	query := `
		SELECT id, participant_low, participant_high, property_id, request_id, unread_low, unread_high, last_message_at, created_at, updated_at
		FROM conversations
		WHERE participant_low = $1
		  AND participant_high = $2
		  AND property_id IS NOT DISTINCT FROM $3
		  AND request_id IS NOT DISTINCT FROM $4`

	var row ConversationRow
	if err := r.db.GetContext(ctx, &row, query, participantLow, participantHigh, propertyID, requestID); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get conversation by key")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get conversation")
	}

	return ToConversation(&row), nil
}

// Create inserts a new conversation row. When a concurrent caller already
// inserted the same canonical key the unique index rejects this insert, the
// statement affects zero rows, and Create returns nil so the caller can
// re-read the winner's row.
func (r *Repository) Create(ctx context.Context, conversation *models.Conversation) (*models.Conversation, error) {
	ctx, span := tracing.StartSpan(ctx, "conversation.Repository.Create")
	defer span.End()

	if conversation.ID == "" {
		conversation.ID = uuid.New().String()
	}

	now := Now()
	conversation.CreatedAt = now
	conversation.UpdatedAt = now
	if conversation.LastMessageAt.IsZero() {
		conversation.LastMessageAt = now
	}

	row := FromConversation(conversation)
	ib := conversationStruct.InsertInto(conversationsTable, row)
	ib = ib.OnConflictDoNothing()
	query, args := ib.Build()

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":               conversation.ID,
		"participant_low":  conversation.ParticipantLow,
		"participant_high": conversation.ParticipantHigh,
	}).Debug("Creating conversation")

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create conversation")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create conversation")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to read conversation insert result")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create conversation")
	}
	if affected == 0 {
		return nil, nil
	}

	return conversation, nil
}

// GetByID retrieves a conversation by ID
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Conversation, error) {
	ctx, span := tracing.StartSpan(ctx, "conversation.Repository.GetByID")
	defer span.End()

	sb := conversationStruct.SelectFrom(conversationsTable)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var row ConversationRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, "conversation not found")
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get conversation")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get conversation")
	}

	return ToConversation(&row), nil
}

// ListForUser retrieves the user's conversations ordered by last activity
func (r *Repository) ListForUser(ctx context.Context, userID string, limit int) ([]*models.Conversation, error) {
	ctx, span := tracing.StartSpan(ctx, "conversation.Repository.ListForUser")
	defer span.End()

	if limit < 1 || limit > 500 {
		limit = 100
	}

	sb := conversationStruct.SelectFrom(conversationsTable)
	sb.Where(sb.Or(
		sb.Equal("participant_low", userID),
		sb.Equal("participant_high", userID),
	))
	sb.OrderBy("last_message_at").Desc()
	sb.Limit(limit)

	query, args := sb.Build()
	var rows []ConversationRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list conversations")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list conversations")
	}

	return ToConversations(rows), nil
}

// ApplyMessage bumps the receiver's unread counter and the last-activity
// timestamp in one statement, so neither can be observed without the other.
// It joins the transaction already on the context.
func (r *Repository) ApplyMessage(ctx context.Context, conversationID, receiverID string) error {
	ctx, span := tracing.StartSpan(ctx, "conversation.Repository.ApplyMessage")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update conversation")
	}

	now := Now()
	query := `
		UPDATE conversations
		SET unread_low = unread_low + CASE WHEN participant_low = $1 THEN 1 ELSE 0 END,
		    unread_high = unread_high + CASE WHEN participant_high = $1 THEN 1 ELSE 0 END,
		    last_message_at = $2,
		    updated_at = $2
		WHERE id = $3
		  AND (participant_low = $1 OR participant_high = $1)`

	result, err := tx.ExecContext(ctx, query, receiverID, now, conversationID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"conversation_id": conversationID}).Error("Failed to apply message to conversation")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update conversation")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to read conversation update result")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update conversation")
	}
	if affected == 0 {
		return httperror.NewHTTPError(http.StatusForbidden, "receiver is not a participant of this conversation")
	}

	return nil
}

// ResetUnread zeroes the caller's unread counter. Runs after read receipts
// are stamped so a crash in between under-counts rather than over-counts.
func (r *Repository) ResetUnread(ctx context.Context, conversationID, userID string) error {
	ctx, span := tracing.StartSpan(ctx, "conversation.Repository.ResetUnread")
	defer span.End()

	query := `
		UPDATE conversations
		SET unread_low = CASE WHEN participant_low = $1 THEN 0 ELSE unread_low END,
		    unread_high = CASE WHEN participant_high = $1 THEN 0 ELSE unread_high END,
		    updated_at = $2
		WHERE id = $3
		  AND (participant_low = $1 OR participant_high = $1)`

	if _, err := r.db.ExecContext(ctx, query, userID, Now(), conversationID); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"conversation_id": conversationID}).Error("Failed to reset unread counter")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to reset unread counter")
	}

	return nil
}

// TotalUnread sums the user's slot counter across every conversation they
// participate in.
func (r *Repository) TotalUnread(ctx context.Context, userID string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "conversation.Repository.TotalUnread")
	defer span.End()

	query := `
		SELECT COALESCE(SUM(CASE
			WHEN participant_low = $1 THEN unread_low
			WHEN participant_high = $1 THEN unread_high
			ELSE 0
		END), 0)
		FROM conversations
		WHERE participant_low = $1 OR participant_high = $1`

	var total int
	if err := r.db.GetContext(ctx, &total, query, userID); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to sum unread counters")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get unread count")
	}

	return total, nil
}
