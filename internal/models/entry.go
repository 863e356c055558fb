package models

import "time"

// JournalEntry is a single dated, optionally geotagged and photo-illustrated
// journal entry. The ID is generated client-side at creation and never changes;
// CreatedAt is set once; UpdatedAt stays nil until the first successful edit.
type JournalEntry struct {
	ID          string     `bson:"_id" json:"id"`
	UserID      string     `bson:"userId" json:"userId"`
	Title       string     `bson:"title" json:"title"`
	Description string     `bson:"description" json:"description"`
	ImageURI    string     `bson:"imageURI,omitempty" json:"imageURI,omitempty"`
	Latitude    *float64   `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude   *float64   `bson:"longitude,omitempty" json:"longitude,omitempty"`
	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt   *time.Time `bson:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}
