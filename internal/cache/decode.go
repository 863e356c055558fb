package cache

import (
	"fmt"

	"github.com/andibalo/ujournal-sub000/internal/models"
	"github.com/andibalo/ujournal-sub000/internal/store"
)

// entryFields builds the full remote document for an entry. Optional fields
// are omitted entirely rather than written as nulls.
func entryFields(e models.JournalEntry) store.Document {
	fields := store.Document{
		"userId":      e.UserID,
		"title":       e.Title,
		"description": e.Description,
		"createdAt":   e.CreatedAt,
	}
	if e.ImageURI != "" {
		fields["imageURI"] = e.ImageURI
	}
	if e.Latitude != nil {
		fields["latitude"] = *e.Latitude
	}
	if e.Longitude != nil {
		fields["longitude"] = *e.Longitude
	}
	if e.UpdatedAt != nil {
		fields["updatedAt"] = *e.UpdatedAt
	}
	return fields
}

// entryFromDocument decodes a remote entry document. Entries need userId,
// title, description and createdAt; everything else is optional.
func entryFromDocument(doc store.Document) (models.JournalEntry, error) {
	id, ok := store.StringField(doc, "_id")
	if !ok {
		return models.JournalEntry{}, fmt.Errorf("%w: entry missing _id", ErrDecode)
	}

	entry := models.JournalEntry{ID: id}

	if entry.UserID, ok = store.StringField(doc, "userId"); !ok {
		return models.JournalEntry{}, fmt.Errorf("%w: entry %s missing userId", ErrDecode, id)
	}
	if entry.Title, ok = store.StringField(doc, "title"); !ok {
		return models.JournalEntry{}, fmt.Errorf("%w: entry %s missing title", ErrDecode, id)
	}
	if entry.Description, ok = store.StringField(doc, "description"); !ok {
		return models.JournalEntry{}, fmt.Errorf("%w: entry %s missing description", ErrDecode, id)
	}
	if entry.CreatedAt, ok = store.TimeField(doc, "createdAt"); !ok {
		return models.JournalEntry{}, fmt.Errorf("%w: entry %s missing createdAt", ErrDecode, id)
	}

	entry.ImageURI, _ = store.StringField(doc, "imageURI")
	if lat, ok := store.FloatField(doc, "latitude"); ok {
		entry.Latitude = &lat
	}
	if lon, ok := store.FloatField(doc, "longitude"); ok {
		entry.Longitude = &lon
	}
	if updated, ok := store.TimeField(doc, "updatedAt"); ok {
		entry.UpdatedAt = &updated
	}

	return entry, nil
}

// userFields builds the full remote document for a user profile.
func userFields(u models.User) store.Document {
	fields := store.Document{
		"firstName": u.FirstName,
		"email":     u.Email,
		"createdAt": u.CreatedAt,
	}
	if u.LastName != "" {
		fields["lastName"] = u.LastName
	}
	if u.ProfileImageURL != "" {
		fields["profileImageURL"] = u.ProfileImageURL
	}
	if u.Provider != "" {
		fields["provider"] = u.Provider
	}
	if u.UpdatedAt != nil {
		fields["updatedAt"] = *u.UpdatedAt
	}
	return fields
}

// userFromDocument decodes a remote user document. firstName, email and
// createdAt are required; lastName, profileImageURL, provider and updatedAt
// are optional.
func userFromDocument(id string, doc store.Document) (models.User, error) {
	user := models.User{ID: id}

	var ok bool
	if user.FirstName, ok = store.StringField(doc, "firstName"); !ok {
		return models.User{}, fmt.Errorf("%w: user %s missing firstName", ErrDecode, id)
	}
	if user.Email, ok = store.StringField(doc, "email"); !ok {
		return models.User{}, fmt.Errorf("%w: user %s missing email", ErrDecode, id)
	}
	if user.CreatedAt, ok = store.TimeField(doc, "createdAt"); !ok {
		return models.User{}, fmt.Errorf("%w: user %s missing createdAt", ErrDecode, id)
	}

	user.LastName, _ = store.StringField(doc, "lastName")
	user.ProfileImageURL, _ = store.StringField(doc, "profileImageURL")
	user.Provider, _ = store.StringField(doc, "provider")
	if updated, ok := store.TimeField(doc, "updatedAt"); ok {
		user.UpdatedAt = &updated
	}

	return user, nil
}
