package models

import (
	"time"
)

// Listing is the read model of a published property or request. Ownership
// and activity are maintained from listing events; this service only ever
// mutates the like count.
type Listing struct {
	ID          string      `json:"id" db:"id"`
	OwnerID     string      `json:"owner_id" db:"owner_id"`
	ListingType ListingType `json:"listing_type" db:"listing_type"`
	Title       string      `json:"title" db:"title"`
	Slug        string      `json:"slug" db:"slug"`
	IsActive    bool        `json:"is_active" db:"is_active"`
	LikeCount   int         `json:"like_count" db:"like_count"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}
