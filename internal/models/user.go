package models

import "time"

// User is the profile document for an authenticated account. The ID is
// the provider-issued identifier and is stable for the account's lifetime.
type User struct {
	ID              string     `bson:"_id" json:"id"`
	FirstName       string     `bson:"firstName" json:"firstName"`
	LastName        string     `bson:"lastName,omitempty" json:"lastName,omitempty"`
	Email           string     `bson:"email" json:"email"`
	ProfileImageURL string     `bson:"profileImageURL,omitempty" json:"profileImageURL,omitempty"`
	Provider        string     `bson:"provider,omitempty" json:"provider,omitempty"`
	CreatedAt       time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt       *time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}
