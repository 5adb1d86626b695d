package interaction

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const interactionsTable = "interactions"

// Repository handles interaction persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new interaction repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Get retrieves a user's interaction on a listing, or nil when the user has
// never interacted with it.
func (r *Repository) Get(ctx context.Context, userID, listingID string, listingType models.ListingType) (*models.Interaction, error) {
	ctx, span := tracing.StartSpan(ctx, "interaction.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "user_id", "listing_id", "listing_type", "interaction_type", "created_at", "updated_at")
	sb.From(interactionsTable)
	sb.Where(
		sb.Equal("user_id", userID),
		sb.Equal("listing_id", listingID),
		sb.Equal("listing_type", listingType),
	)

	query, args := sb.Build()
	var result models.Interaction
	if err := r.db.GetContext(ctx, &result, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get interaction")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get interaction")
	}

	return &result, nil
}

// Upsert writes the user's latest interaction type on a listing. A second
// call for the same (user, listing, listing type) replaces the type in
// place rather than appending a history row.
func (r *Repository) Upsert(ctx context.Context, userID, listingID string, listingType models.ListingType, interactionType models.InteractionType) (*models.Interaction, error) {
	ctx, span := tracing.StartSpan(ctx, "interaction.Repository.Upsert")
	defer span.End()

	now := time.Now().UTC()
	result := &models.Interaction{
		ID:              uuid.New().String(),
		UserID:          userID,
		ListingID:       listingID,
		ListingType:     listingType,
		InteractionType: interactionType,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	ib := database.NewInsertBuilder()
	ib = ib.InsertInto(interactionsTable)
	ib = ib.Cols("id", "user_id", "listing_id", "listing_type", "interaction_type", "created_at", "updated_at")
	ib = ib.Values(result.ID, result.UserID, result.ListingID, result.ListingType, result.InteractionType, result.CreatedAt, result.UpdatedAt)
	ub := ib.OnConflict("user_id", "listing_id", "listing_type")
	ub.Set(
		ub.Assign("interaction_type", database.Excluded("interaction_type")),
		ub.Assign("updated_at", database.Excluded("updated_at")),
	)

	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"listing_id":   listingID,
			"listing_type": listingType,
		}).Error("Failed to upsert interaction")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to record interaction")
	}

	return result, nil
}
