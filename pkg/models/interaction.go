package models

import (
	"time"
)

// ListingType identifies which side of the marketplace a listing belongs to.
type ListingType string

const (
	ListingTypeProperty ListingType = "property"
	ListingTypeRequest  ListingType = "request"
)

// IsValid checks if the listing type is one of the known values
func (t ListingType) IsValid() bool {
	return t == ListingTypeProperty || t == ListingTypeRequest
}

// Counterpart returns the opposite listing type. A property's counterpart is
// a request and vice versa.
func (t ListingType) Counterpart() ListingType {
	if t == ListingTypeProperty {
		return ListingTypeRequest
	}
	return ListingTypeProperty
}

// InteractionType is a user's recorded preference toward a listing.
type InteractionType string

const (
	InteractionTypeLike    InteractionType = "like"
	InteractionTypeDislike InteractionType = "dislike"
	InteractionTypeSkip    InteractionType = "skip"
)

// IsValid checks if the interaction type is one of the known values
func (t InteractionType) IsValid() bool {
	return t == InteractionTypeLike || t == InteractionTypeDislike || t == InteractionTypeSkip
}

// Interaction is a user's latest preference on a listing. There is at most
// one row per (user, listing, listing type); recording again replaces the
// type in place.
type Interaction struct {
	ID              string          `json:"id" db:"id"`
	UserID          string          `json:"user_id" db:"user_id"`
	ListingID       string          `json:"listing_id" db:"listing_id"`
	ListingType     ListingType     `json:"listing_type" db:"listing_type"`
	InteractionType InteractionType `json:"interaction_type" db:"interaction_type"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// RecordInteractionRequest is the request body for recording an interaction
type RecordInteractionRequest struct {
	ListingID       string `json:"listing_id" validate:"required"`
	ListingType     string `json:"listing_type" validate:"required,oneof=property request"`
	InteractionType string `json:"interaction_type" validate:"required,oneof=like dislike skip"`
}

// RecordInteractionResponse is the API response for recording an interaction
type RecordInteractionResponse struct {
	NewTotalLikes      int             `json:"new_total_likes"`
	NewInteractionType InteractionType `json:"new_interaction_type"`
	MatchDetails       *MatchDetails   `json:"match_details,omitempty"`
}

// ListingInteractionDetails is the API response for a listing's aggregate
// interaction state, including the caller's own interaction when known.
type ListingInteractionDetails struct {
	TotalLikes             int              `json:"total_likes"`
	CurrentUserInteraction *InteractionType `json:"current_user_interaction,omitempty"`
}
