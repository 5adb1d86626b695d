package models

// UserProfile is the slice of the user directory this service reads:
// display fields for message rendering and the phone number for match
// notifications.
type UserProfile struct {
	ID          string `json:"id" db:"id"`
	Name        string `json:"name" db:"name"`
	AvatarURL   string `json:"avatar_url,omitempty" db:"avatar_url"`
	PhoneNumber string `json:"phone_number,omitempty" db:"phone_number"`
}
