// Package store is the gateway to the remote document database. The rest of
// the service talks to it through the DocumentStore interface so the remote
// side can be swapped out (or mocked) without touching the caches.
package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Collections used by this service.
const (
	CollectionEntries     = "entries"
	CollectionUsers       = "users"
	CollectionCredentials = "credentials"
)

// ErrNotFound is returned when the requested document does not exist.
var ErrNotFound = errors.New("document not found")

// Document is a single remote document as a field map.
type Document map[string]interface{}

// DocumentStore exposes the narrow create/read/update/delete/list surface
// the caches reconcile against.
type DocumentStore interface {
	// Get returns the document with the given id, or ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)
	// List returns every document matching the filter fields.
	List(ctx context.Context, collection string, filter Document) ([]Document, error)
	// Set writes the full document, overwriting any existing copy.
	Set(ctx context.Context, collection, id string, fields Document) error
	// Update applies a partial update. The store assigns updatedAt
	// server-side; callers never supply it.
	Update(ctx context.Context, collection, id string, fields Document) error
	// Delete removes the document. Deleting a missing document is not an error.
	Delete(ctx context.Context, collection, id string) error
}

// StringField reads a string field from a document.
func StringField(doc Document, key string) (string, bool) {
	v, ok := doc[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// FloatField reads a numeric field from a document. BSON decoding can yield
// either float64 or an integer type depending on how the value was written.
func FloatField(doc Document, key string) (float64, bool) {
	switch v := doc[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}

// TimeField reads a timestamp field from a document. Documents decoded from
// BSON carry primitive.DateTime; documents built in-process carry time.Time.
func TimeField(doc Document, key string) (time.Time, bool) {
	switch v := doc[key].(type) {
	case time.Time:
		return v, true
	case primitive.DateTime:
		return v.Time(), true
	}
	return time.Time{}, false
}
