package message

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const messagesTable = "messages"

// Repository handles message persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new message repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a message row. It joins the transaction already on the
// context so the insert commits together with the conversation counter
// update.
func (r *Repository) Create(ctx context.Context, message *models.Message) (*models.Message, error) {
	ctx, span := tracing.StartSpan(ctx, "message.Repository.Create")
	defer span.End()

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to send message")
	}

	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	message.CreatedAt = time.Now().UTC()

	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto(messagesTable)
	ib.Cols("id", "conversation_id", "sender_id", "receiver_id", "content", "created_at")
	ib.Values(message.ID, message.ConversationID, message.SenderID, message.ReceiverID, message.Content, message.CreatedAt)

	query, args := ib.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"conversation_id": message.ConversationID}).Error("Failed to create message")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to send message")
	}

	return message, nil
}

// MarkRead stamps read receipts on every unread message in the conversation
// addressed to receiverID and returns how many were stamped.
func (r *Repository) MarkRead(ctx context.Context, conversationID, receiverID string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "message.Repository.MarkRead")
	defer span.End()

	query := `
		UPDATE messages
		SET read_at = $1
		WHERE conversation_id = $2
		  AND receiver_id = $3
		  AND read_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, time.Now().UTC(), conversationID, receiverID)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"conversation_id": conversationID}).Error("Failed to mark messages as read")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to mark messages as read")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to read mark-read result")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to mark messages as read")
	}

	return affected, nil
}

// ListPage retrieves one page of a conversation's messages, oldest first.
func (r *Repository) ListPage(ctx context.Context, conversationID string, page, pageSize int) ([]models.Message, int, error) {
	ctx, span := tracing.StartSpan(ctx, "message.Repository.ListPage")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	countQuery := `SELECT COUNT(*) FROM messages WHERE conversation_id = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, conversationID); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count messages")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list messages")
	}

	query := `
		SELECT id, conversation_id, sender_id, receiver_id, content, created_at, read_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3`

	var results []models.Message
	if err := r.db.SelectContext(ctx, &results, query, conversationID, pageSize, (page-1)*pageSize); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list messages")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list messages")
	}

	return results, total, nil
}

// GetLatestByConversation fetches the newest message of each given
// conversation, keyed by conversation id. Used to build list previews
// without one query per conversation.
func (r *Repository) GetLatestByConversation(ctx context.Context, conversationIDs []string) (map[string]models.Message, error) {
	ctx, span := tracing.StartSpan(ctx, "message.Repository.GetLatestByConversation")
	defer span.End()

	if len(conversationIDs) == 0 {
		return map[string]models.Message{}, nil
	}

	query := `
		SELECT DISTINCT ON (conversation_id) id, conversation_id, sender_id, receiver_id, content, created_at, read_at
		FROM messages
		WHERE conversation_id = ANY($1)
		ORDER BY conversation_id, created_at DESC, id DESC`

	var results []models.Message
	if err := r.db.SelectContext(ctx, &results, query, pq.Array(conversationIDs)); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get latest messages")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get latest messages")
	}

	latest := make(map[string]models.Message, len(results))
	for _, m := range results {
		latest[m.ConversationID] = m
	}

	return latest, nil
}
