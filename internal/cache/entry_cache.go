package cache

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/andibalo/ujournal-sub000/internal/models"
	"github.com/andibalo/ujournal-sub000/internal/store"
)

// writeTimeout bounds each asynchronous remote write.
const writeTimeout = 5 * time.Second

// dateLabelLayout is the medium date format used as the grouped-view key.
const dateLabelLayout = "Jan 2, 2006"

// WritePolicy decides what happens to optimistic local state when the
// asynchronous remote write fails.
type WritePolicy int

const (
	// WriteKeepLocal keeps the optimistic mutation and only surfaces the
	// failure as an error event. This is the default.
	WriteKeepLocal WritePolicy = iota
	// WriteRollback restores the state captured before the mutation.
	WriteRollback
)

// EventType identifies an entry-cache change event.
type EventType string

const (
	EventAdded       EventType = "entry_added"
	EventUpdated     EventType = "entry_updated"
	EventRemoved     EventType = "entry_removed"
	EventRefreshed   EventType = "entries_refreshed"
	EventWriteFailed EventType = "entry_write_failed"
)

// Event is the payload fanned out to entry-cache subscribers.
type Event struct {
	Type    EventType            `json:"type"`
	ID      string               `json:"id,omitempty"`
	Entry   *models.JournalEntry `json:"entry,omitempty"`
	Message string               `json:"message,omitempty"`
}

// NewEntry carries the user-supplied fields for a new journal entry. The
// cache assigns the identifier and creation timestamp.
type NewEntry struct {
	Title       string
	Description string
	ImageURI    string
	Latitude    *float64
	Longitude   *float64
}

// EntryPatch is a partial update; nil fields are left untouched.
type EntryPatch struct {
	Title       *string
	Description *string
	ImageURI    *string
	Latitude    *float64
	Longitude   *float64
}

// EntryCache holds the ordered in-memory collection of the user's journal
// entries, newest first by insertion. Mutations apply synchronously to the
// collection and are pushed to the remote store asynchronously; each mutating
// operation returns a buffered result channel so the caller can await, retry
// or ignore the remote outcome.
type EntryCache struct {
	store  store.DocumentStore
	userID string
	policy WritePolicy

	mu      sync.RWMutex
	entries []models.JournalEntry
	lastErr string

	subMu   sync.RWMutex
	subs    map[int]chan Event
	nextSub int

	now func() time.Time
	loc *time.Location
}

func NewEntryCache(st store.DocumentStore, userID string, policy WritePolicy) *EntryCache {
	return &EntryCache{
		store:  st,
		userID: userID,
		policy: policy,
		subs:   make(map[int]chan Event),
		now:    time.Now,
		loc:    time.Local,
	}
}

// List returns a copy of the current in-memory collection, most recently
// created first.
func (c *EntryCache) List() []models.JournalEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.JournalEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Get looks up a single entry by id.
func (c *EntryCache) Get(id string) (models.JournalEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if idx := c.indexLocked(id); idx >= 0 {
		return c.entries[idx], true
	}
	return models.JournalEntry{}, false
}

// Err returns the message of the last failed remote write, if any.
func (c *EntryCache) Err() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Add prepends the entry immediately and persists it in the background.
// The returned entry carries the generated id and creation timestamp.
func (c *EntryCache) Add(e NewEntry) (models.JournalEntry, <-chan error) {
	entry := models.JournalEntry{
		ID:          uuid.NewString(),
		UserID:      c.userID,
		Title:       e.Title,
		Description: e.Description,
		ImageURI:    e.ImageURI,
		Latitude:    e.Latitude,
		Longitude:   e.Longitude,
		CreatedAt:   c.now(),
	}

	c.mu.Lock()
	c.entries = append([]models.JournalEntry{entry}, c.entries...)
	c.mu.Unlock()

	published := entry
	c.publish(Event{Type: EventAdded, ID: entry.ID, Entry: &published})

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		err := c.store.Set(ctx, store.CollectionEntries, entry.ID, entryFields(entry))
		if err != nil {
			c.writeFailed(entry.ID, err, func() { c.dropEntry(entry.ID) })
		}
		done <- err
	}()
	return entry, done
}

// Update mutates the in-memory entry synchronously and pushes only the
// changed fields to the remote store; the store assigns updatedAt.
// Returns ErrNotFound when the id is absent, leaving the collection unchanged.
func (c *EntryCache) Update(id string, patch EntryPatch) (<-chan error, error) {
	now := c.now()

	c.mu.Lock()
	idx := c.indexLocked(id)
	if idx < 0 {
		c.mu.Unlock()
		return nil, ErrNotFound
	}

	// An all-nil patch changes nothing: no updatedAt bump, no event, no write.
	if patch.Title == nil && patch.Description == nil && patch.ImageURI == nil &&
		patch.Latitude == nil && patch.Longitude == nil {
		c.mu.Unlock()
		done := make(chan error, 1)
		done <- nil
		return done, nil
	}

	prev := c.entries[idx]
	fields := store.Document{}
	e := &c.entries[idx]
	if patch.Title != nil {
		e.Title = *patch.Title
		fields["title"] = *patch.Title
	}
	if patch.Description != nil {
		e.Description = *patch.Description
		fields["description"] = *patch.Description
	}
	if patch.ImageURI != nil {
		e.ImageURI = *patch.ImageURI
		fields["imageURI"] = *patch.ImageURI
	}
	if patch.Latitude != nil {
		lat := *patch.Latitude
		e.Latitude = &lat
		fields["latitude"] = lat
	}
	if patch.Longitude != nil {
		lon := *patch.Longitude
		e.Longitude = &lon
		fields["longitude"] = lon
	}
	e.UpdatedAt = &now
	updated := *e
	c.mu.Unlock()

	c.publish(Event{Type: EventUpdated, ID: id, Entry: &updated})

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		err := c.store.Update(ctx, store.CollectionEntries, id, fields)
		if err != nil {
			c.writeFailed(id, err, func() { c.restoreEntry(prev) })
		}
		done <- err
	}()
	return done, nil
}

// Remove deletes the entry from the collection synchronously and issues the
// remote delete in the background. Removing an id that is not cached still
// issues the remote delete.
func (c *EntryCache) Remove(id string) <-chan error {
	c.mu.Lock()
	idx := c.indexLocked(id)
	var prev models.JournalEntry
	if idx >= 0 {
		prev = c.entries[idx]
		c.entries = append(c.entries[:idx], c.entries[idx+1:]...)
	}
	c.mu.Unlock()

	if idx >= 0 {
		c.publish(Event{Type: EventRemoved, ID: id})
	}

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		err := c.store.Delete(ctx, store.CollectionEntries, id)
		if err != nil {
			var rollback func()
			if idx >= 0 {
				rollback = func() { c.reinsertEntry(prev, idx) }
			}
			c.writeFailed(id, err, rollback)
		}
		done <- err
	}()
	return done
}

// DateGroup is one calendar day's entries in the grouped display view.
type DateGroup struct {
	Label   string                `json:"label"`
	Entries []models.JournalEntry `json:"entries"`
}

// GroupedByDate sorts all entries descending by creation time and groups
// them by calendar day, labeled with the medium date format. Groups keep
// the descending order internally.
func (c *EntryCache) GroupedByDate() []DateGroup {
	all := c.List()
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	var groups []DateGroup
	for _, e := range all {
		label := e.CreatedAt.In(c.loc).Format(dateLabelLayout)
		if n := len(groups); n > 0 && groups[n-1].Label == label {
			groups[n-1].Entries = append(groups[n-1].Entries, e)
			continue
		}
		groups = append(groups, DateGroup{Label: label, Entries: []models.JournalEntry{e}})
	}
	return groups
}

// Refresh replaces the collection from the remote store, newest first.
func (c *EntryCache) Refresh(ctx context.Context) error {
	docs, err := c.store.List(ctx, store.CollectionEntries, store.Document{"userId": c.userID})
	if err != nil {
		return fmt.Errorf("list entries: %w", err)
	}

	entries := make([]models.JournalEntry, 0, len(docs))
	for _, doc := range docs {
		entry, err := entryFromDocument(doc)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})

	c.mu.Lock()
	c.entries = entries
	c.lastErr = ""
	c.mu.Unlock()

	c.publish(Event{Type: EventRefreshed})
	return nil
}

// Subscribe registers an event channel. The returned func unsubscribes and
// closes the channel. Slow subscribers drop events rather than block writers.
func (c *EntryCache) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)

	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.subMu.Unlock()

	return ch, func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		if _, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(ch)
		}
	}
}

// Subscribers reports the number of active event subscribers.
func (c *EntryCache) Subscribers() int {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	return len(c.subs)
}

func (c *EntryCache) publish(ev Event) {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	for _, ch := range c.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// writeFailed records the failure, applies the rollback when the policy asks
// for one, and fans the error out to subscribers.
func (c *EntryCache) writeFailed(id string, err error, rollback func()) {
	c.mu.Lock()
	c.lastErr = err.Error()
	c.mu.Unlock()

	if c.policy == WriteRollback && rollback != nil {
		rollback()
	}

	c.publish(Event{Type: EventWriteFailed, ID: id, Message: err.Error()})
}

// indexLocked returns the position of id, or -1. Callers hold c.mu.
func (c *EntryCache) indexLocked(id string) int {
	for i := range c.entries {
		if c.entries[i].ID == id {
			return i
		}
	}
	return -1
}

func (c *EntryCache) dropEntry(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if idx := c.indexLocked(id); idx >= 0 {
		c.entries = append(c.entries[:idx], c.entries[idx+1:]...)
	}
}

func (c *EntryCache) restoreEntry(prev models.JournalEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if idx := c.indexLocked(prev.ID); idx >= 0 {
		c.entries[idx] = prev
	}
}

func (c *EntryCache) reinsertEntry(prev models.JournalEntry, at int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.indexLocked(prev.ID) >= 0 {
		return
	}
	if at > len(c.entries) {
		at = len(c.entries)
	}
	c.entries = append(c.entries[:at], append([]models.JournalEntry{prev}, c.entries[at:]...)...)
}
