package models

// MatchResult is the outcome of a reciprocal-like check. ReciprocalListing
// is set only when Matched is true.
type MatchResult struct {
	Matched           bool     `json:"matched"`
	ReciprocalListing *Listing `json:"reciprocal_listing,omitempty"`
}

// MatchDetails is the API shape returned alongside a recorded like when the
// like completed a mutual match.
type MatchDetails struct {
	MatchFound          bool   `json:"match_found"`
	ConversationID      string `json:"conversation_id,omitempty"`
	MatchedUserID       string `json:"matched_user_id,omitempty"`
	MatchedListingID    string `json:"matched_listing_id,omitempty"`
	MatchedListingTitle string `json:"matched_listing_title,omitempty"`
}
