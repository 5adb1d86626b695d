package listing

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const listingsTable = "listings"

// Repository handles the listing read model. Rows are maintained from
// listing events; the only counter this service owns is like_count.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new listing repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Get retrieves a listing by id and type
func (r *Repository) Get(ctx context.Context, listingID string, listingType models.ListingType) (*models.Listing, error) {
	ctx, span := tracing.StartSpan(ctx, "listing.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "owner_id", "listing_type", "title", "slug", "is_active", "like_count", "created_at", "updated_at")
	sb.From(listingsTable)
	sb.Where(
		sb.Equal("id", listingID),
		sb.Equal("listing_type", listingType),
	)

	query, args := sb.Build()
	var result models.Listing
	if err := r.db.GetContext(ctx, &result, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("listing %s not found", listingID))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get listing")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get listing")
	}

	return &result, nil
}

// AdjustLikeCount applies delta to a listing's like count as a single
// atomic expression, floored at zero, and returns the new count.
func (r *Repository) AdjustLikeCount(ctx context.Context, listingID string, delta int) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "listing.Repository.AdjustLikeCount")
	defer span.End()

	query := `UPDATE listings SET like_count = GREATEST(like_count + $1, 0), updated_at = $2 WHERE id = $3 RETURNING like_count`

	var count int
	if err := r.db.GetContext(ctx, &count, query, delta, time.Now().UTC(), listingID); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return 0, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("listing %s not found", listingID))
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"listing_id": listingID, "delta": delta}).Error("Failed to adjust like count")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to adjust like count")
	}

	return count, nil
}

// FindReciprocalLike looks for an active listing of counterpartType owned by
// ownerID that likerID has an active like on. When several qualify the most
// recently created wins, so repeated calls for the same state always return
// the same listing.
func (r *Repository) FindReciprocalLike(ctx context.Context, likerID, ownerID string, counterpartType models.ListingType) (*models.Listing, error) {
	ctx, span := tracing.StartSpan(ctx, "listing.Repository.FindReciprocalLike")
	defer span.End()

	query := `
		SELECT l.id, l.owner_id, l.listing_type, l.title, l.slug, l.is_active, l.like_count, l.created_at, l.updated_at
		FROM listings l
		JOIN interactions i ON i.listing_id = l.id AND i.listing_type = l.listing_type
		WHERE i.user_id = $1
		  AND i.interaction_type = $2
		  AND l.owner_id = $3
		  AND l.listing_type = $4
		  AND l.is_active = TRUE
		ORDER BY l.created_at DESC, l.id DESC
		LIMIT 1`

	var result models.Listing
	if err := r.db.GetContext(ctx, &result, query, likerID, models.InteractionTypeLike, ownerID, counterpartType); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to query reciprocal like")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to query reciprocal like")
	}

	return &result, nil
}

// Upsert writes a listing row from a listing event. The like count is owned
// by this service and is deliberately left out of the update set.
func (r *Repository) Upsert(ctx context.Context, listing *models.Listing) error {
	ctx, span := tracing.StartSpan(ctx, "listing.Repository.Upsert")
	defer span.End()

	now := time.Now().UTC()

	ib := database.NewInsertBuilder()
	ib = ib.InsertInto(listingsTable)
	ib = ib.Cols("id", "owner_id", "listing_type", "title", "slug", "is_active", "like_count", "created_at", "updated_at")
	ib = ib.Values(listing.ID, listing.OwnerID, listing.ListingType, listing.Title, listing.Slug, listing.IsActive, 0, now, now)
	ub := ib.OnConflict("id")
	ub.Set(
		ub.Assign("owner_id", database.Excluded("owner_id")),
		ub.Assign("title", database.Excluded("title")),
		ub.Assign("slug", database.Excluded("slug")),
		ub.Assign("is_active", database.Excluded("is_active")),
		ub.Assign("updated_at", now),
	)

	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"listing_id": listing.ID}).Error("Failed to upsert listing")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert listing")
	}

	return nil
}

// Deactivate marks a listing inactive so it stops qualifying for matches.
func (r *Repository) Deactivate(ctx context.Context, listingID string) error {
	ctx, span := tracing.StartSpan(ctx, "listing.Repository.Deactivate")
	defer span.End()

	query := `UPDATE listings SET is_active = FALSE, updated_at = $1 WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, time.Now().UTC(), listingID); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"listing_id": listingID}).Error("Failed to deactivate listing")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to deactivate listing")
	}

	return nil
}
