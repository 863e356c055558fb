package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andibalo/ujournal-sub000/internal/store"
)

type mockStore struct {
	get    func(ctx context.Context, collection, id string) (store.Document, error)
	list   func(ctx context.Context, collection string, filter store.Document) ([]store.Document, error)
	set    func(ctx context.Context, collection, id string, fields store.Document) error
	update func(ctx context.Context, collection, id string, fields store.Document) error
	delete func(ctx context.Context, collection, id string) error
}

func (m *mockStore) Get(ctx context.Context, collection, id string) (store.Document, error) {
	if m.get == nil {
		return nil, store.ErrNotFound
	}
	return m.get(ctx, collection, id)
}

func (m *mockStore) List(ctx context.Context, collection string, filter store.Document) ([]store.Document, error) {
	if m.list == nil {
		return nil, nil
	}
	return m.list(ctx, collection, filter)
}

func (m *mockStore) Set(ctx context.Context, collection, id string, fields store.Document) error {
	if m.set == nil {
		return nil
	}
	return m.set(ctx, collection, id, fields)
}

func (m *mockStore) Update(ctx context.Context, collection, id string, fields store.Document) error {
	if m.update == nil {
		return nil
	}
	return m.update(ctx, collection, id, fields)
}

func (m *mockStore) Delete(ctx context.Context, collection, id string) error {
	if m.delete == nil {
		return nil
	}
	return m.delete(ctx, collection, id)
}

func newTestEntryCache(st store.DocumentStore, policy WritePolicy) *EntryCache {
	c := NewEntryCache(st, "user-1", policy)
	c.loc = time.UTC
	return c
}

func TestAddPrependsBeforePersistence(t *testing.T) {
	release := make(chan struct{})
	persisted := make(chan string, 1)
	st := &mockStore{
		set: func(ctx context.Context, collection, id string, fields store.Document) error {
			<-release
			persisted <- id
			return nil
		},
	}

	c := newTestEntryCache(st, WriteKeepLocal)
	_, first := c.Add(NewEntry{Title: "first"})
	close(release)
	require.NoError(t, <-first)
	<-persisted

	release = make(chan struct{})
	st.set = func(ctx context.Context, collection, id string, fields store.Document) error {
		<-release
		persisted <- id
		return nil
	}

	entry, done := c.Add(NewEntry{Title: "second", Description: "newest"})

	// Optimistic: the entry leads the list while the remote write is still blocked
	entries := c.List()
	require.Len(t, entries, 2)
	assert.Equal(t, entry.ID, entries[0].ID)
	assert.Equal(t, "second", entries[0].Title)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, entry.ID, <-persisted)
}

func TestAddGeneratesIdentityAndTimestamps(t *testing.T) {
	var written store.Document
	st := &mockStore{
		set: func(ctx context.Context, collection, id string, fields store.Document) error {
			assert.Equal(t, store.CollectionEntries, collection)
			written = fields
			return nil
		},
	}

	c := newTestEntryCache(st, WriteKeepLocal)
	entry, done := c.Add(NewEntry{Title: "Trip", Description: "Beach day"})
	require.NoError(t, <-done)

	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "user-1", entry.UserID)
	assert.False(t, entry.CreatedAt.IsZero())
	assert.Nil(t, entry.UpdatedAt)

	got := c.List()[0]
	assert.Equal(t, "Trip", got.Title)
	assert.Equal(t, "Beach day", got.Description)
	assert.Empty(t, got.ImageURI)
	assert.Nil(t, got.Latitude)
	assert.Nil(t, got.Longitude)
	assert.Nil(t, got.UpdatedAt)

	// Absent optional fields are omitted from the remote document entirely
	require.NotNil(t, written)
	assert.NotContains(t, written, "imageURI")
	assert.NotContains(t, written, "latitude")
	assert.NotContains(t, written, "longitude")
	assert.NotContains(t, written, "updatedAt")
}

func TestUpdateMissingEntry(t *testing.T) {
	c := newTestEntryCache(&mockStore{}, WriteKeepLocal)
	entry, done := c.Add(NewEntry{Title: "keep"})
	require.NoError(t, <-done)

	before := c.List()

	title := "nope"
	_, err := c.Update("no-such-id", EntryPatch{Title: &title})
	require.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, before, c.List())
	got, ok := c.Get(entry.ID)
	require.True(t, ok)
	assert.Equal(t, "keep", got.Title)
}

func TestUpdatePushesOnlyChangedFields(t *testing.T) {
	var pushed store.Document
	st := &mockStore{
		update: func(ctx context.Context, collection, id string, fields store.Document) error {
			pushed = fields
			return nil
		},
	}

	c := newTestEntryCache(st, WriteKeepLocal)
	entry, done := c.Add(NewEntry{Title: "old", Description: "stays"})
	require.NoError(t, <-done)

	title := "new"
	upd, err := c.Update(entry.ID, EntryPatch{Title: &title})
	require.NoError(t, err)
	require.NoError(t, <-upd)

	require.NotNil(t, pushed)
	assert.Equal(t, store.Document{"title": "new"}, pushed)

	got, ok := c.Get(entry.ID)
	require.True(t, ok)
	assert.Equal(t, "new", got.Title)
	assert.Equal(t, "stays", got.Description)
	require.NotNil(t, got.UpdatedAt)
}

func TestRemoveThenGet(t *testing.T) {
	deleted := make(chan string, 1)
	st := &mockStore{
		delete: func(ctx context.Context, collection, id string) error {
			deleted <- id
			return nil
		},
	}

	c := newTestEntryCache(st, WriteKeepLocal)
	entry, done := c.Add(NewEntry{Title: "bye"})
	require.NoError(t, <-done)

	require.NoError(t, <-c.Remove(entry.ID))

	_, ok := c.Get(entry.ID)
	assert.False(t, ok)
	assert.Empty(t, c.List())
	assert.Equal(t, entry.ID, <-deleted)
}

func TestGroupedByDate(t *testing.T) {
	c := newTestEntryCache(&mockStore{}, WriteKeepLocal)

	times := []time.Time{
		time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 6, 8, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 5, 17, 30, 0, 0, time.UTC),
	}
	i := 0
	c.now = func() time.Time {
		ts := times[i]
		i++
		return ts
	}

	for _, title := range []string{"morning", "next day", "evening"} {
		_, done := c.Add(NewEntry{Title: title})
		require.NoError(t, <-done)
	}

	groups := c.GroupedByDate()
	require.Len(t, groups, 2)

	assert.Equal(t, "Jan 6, 2024", groups[0].Label)
	require.Len(t, groups[0].Entries, 1)
	assert.Equal(t, "next day", groups[0].Entries[0].Title)

	// Same calendar day lands in one group, sorted descending within it
	assert.Equal(t, "Jan 5, 2024", groups[1].Label)
	require.Len(t, groups[1].Entries, 2)
	assert.Equal(t, "evening", groups[1].Entries[0].Title)
	assert.Equal(t, "morning", groups[1].Entries[1].Title)
}

func TestWriteFailureKeepsOptimisticState(t *testing.T) {
	st := &mockStore{
		set: func(ctx context.Context, collection, id string, fields store.Document) error {
			return errors.New("store unreachable")
		},
	}

	c := newTestEntryCache(st, WriteKeepLocal)
	events, unsubscribe := c.Subscribe()
	defer unsubscribe()

	entry, done := c.Add(NewEntry{Title: "still here"})
	require.Error(t, <-done)

	// Default policy: the optimistic prepend survives the failed write
	got, ok := c.Get(entry.ID)
	require.True(t, ok)
	assert.Equal(t, "still here", got.Title)
	assert.Equal(t, "store unreachable", c.Err())

	ev := <-events
	assert.Equal(t, EventAdded, ev.Type)
	ev = <-events
	assert.Equal(t, EventWriteFailed, ev.Type)
	assert.Equal(t, entry.ID, ev.ID)
	assert.Equal(t, "store unreachable", ev.Message)
}

func TestWriteFailureRollsBackAdd(t *testing.T) {
	st := &mockStore{
		set: func(ctx context.Context, collection, id string, fields store.Document) error {
			return errors.New("store unreachable")
		},
	}

	c := newTestEntryCache(st, WriteRollback)
	entry, done := c.Add(NewEntry{Title: "gone"})
	require.Error(t, <-done)

	_, ok := c.Get(entry.ID)
	assert.False(t, ok)
	assert.Empty(t, c.List())
}

func TestWriteFailureRollsBackUpdate(t *testing.T) {
	st := &mockStore{
		update: func(ctx context.Context, collection, id string, fields store.Document) error {
			return errors.New("store unreachable")
		},
	}

	c := newTestEntryCache(st, WriteRollback)
	entry, done := c.Add(NewEntry{Title: "original"})
	require.NoError(t, <-done)

	title := "edited"
	upd, err := c.Update(entry.ID, EntryPatch{Title: &title})
	require.NoError(t, err)
	require.Error(t, <-upd)

	got, ok := c.Get(entry.ID)
	require.True(t, ok)
	assert.Equal(t, "original", got.Title)
	assert.Nil(t, got.UpdatedAt)
}

func TestUpdateEmptyPatchIsNoOp(t *testing.T) {
	st := &mockStore{
		update: func(ctx context.Context, collection, id string, fields store.Document) error {
			t.Error("unexpected remote update for an empty patch")
			return nil
		},
	}

	c := newTestEntryCache(st, WriteKeepLocal)
	entry, done := c.Add(NewEntry{Title: "same"})
	require.NoError(t, <-done)

	events, unsubscribe := c.Subscribe()
	defer unsubscribe()

	upd, err := c.Update(entry.ID, EntryPatch{})
	require.NoError(t, err)
	require.NoError(t, <-upd)

	got, ok := c.Get(entry.ID)
	require.True(t, ok)
	assert.Nil(t, got.UpdatedAt)

	select {
	case ev := <-events:
		t.Fatalf("unexpected %s event for an empty patch", ev.Type)
	default:
	}
}

func TestWriteFailureRollsBackRemove(t *testing.T) {
	st := &mockStore{
		delete: func(ctx context.Context, collection, id string) error {
			return errors.New("store unreachable")
		},
	}

	c := newTestEntryCache(st, WriteRollback)
	for _, title := range []string{"oldest", "middle", "newest"} {
		_, done := c.Add(NewEntry{Title: title})
		require.NoError(t, <-done)
	}

	middle := c.List()[1]
	require.Error(t, <-c.Remove(middle.ID))

	// The failed delete reinserts the entry at its prior position
	entries := c.List()
	require.Len(t, entries, 3)
	assert.Equal(t, "newest", entries[0].Title)
	assert.Equal(t, "middle", entries[1].Title)
	assert.Equal(t, "oldest", entries[2].Title)

	got, ok := c.Get(middle.ID)
	require.True(t, ok)
	assert.Equal(t, "middle", got.Title)
}

func TestRefreshReplacesCollectionNewestFirst(t *testing.T) {
	st := &mockStore{
		list: func(ctx context.Context, collection string, filter store.Document) ([]store.Document, error) {
			assert.Equal(t, store.Document{"userId": "user-1"}, filter)
			return []store.Document{
				{
					"_id":         "a",
					"userId":      "user-1",
					"title":       "older",
					"description": "",
					"createdAt":   time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
				},
				{
					"_id":         "b",
					"userId":      "user-1",
					"title":       "newer",
					"description": "",
					"createdAt":   time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC),
					"latitude":    12.5,
					"longitude":   -70.25,
				},
			}, nil
		},
	}

	c := newTestEntryCache(st, WriteKeepLocal)
	require.NoError(t, c.Refresh(context.Background()))

	entries := c.List()
	require.Len(t, entries, 2)
	assert.Equal(t, "newer", entries[0].Title)
	assert.Equal(t, "older", entries[1].Title)
	require.NotNil(t, entries[0].Latitude)
	assert.Equal(t, 12.5, *entries[0].Latitude)
	require.NotNil(t, entries[0].Longitude)
	assert.Equal(t, -70.25, *entries[0].Longitude)
}
