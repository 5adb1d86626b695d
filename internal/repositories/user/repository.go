package user

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const usersTable = "users"

// Repository reads the user directory. This service never writes user rows.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new user repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// GetProfile retrieves a user's display fields and phone number
func (r *Repository) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	ctx, span := tracing.StartSpan(ctx, "user.Repository.GetProfile")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "name", "COALESCE(avatar_url, '') AS avatar_url", "COALESCE(phone_number, '') AS phone_number")
	sb.From(usersTable)
	sb.Where(sb.Equal("id", userID))

	query, args := sb.Build()
	var result models.UserProfile
	if err := r.db.GetContext(ctx, &result, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("user %s not found", userID))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get user profile")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get user profile")
	}

	return &result, nil
}

// GetProfiles retrieves profiles for a set of users, keyed by id. Missing
// users are simply absent from the map.
func (r *Repository) GetProfiles(ctx context.Context, userIDs []string) (map[string]models.UserProfile, error) {
	ctx, span := tracing.StartSpan(ctx, "user.Repository.GetProfiles")
	defer span.End()

	if len(userIDs) == 0 {
		return map[string]models.UserProfile{}, nil
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "name", "COALESCE(avatar_url, '') AS avatar_url", "COALESCE(phone_number, '') AS phone_number")
	sb.From(usersTable)
	sb.Where(sb.In("id", sqlbuilder.List(userIDs)))

	query, args := sb.Build()
	var results []models.UserProfile
	if err := r.db.SelectContext(ctx, &results, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get user profiles")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get user profiles")
	}

	profiles := make(map[string]models.UserProfile, len(results))
	for _, p := range results {
		profiles[p.ID] = p
	}

	return profiles, nil
}
