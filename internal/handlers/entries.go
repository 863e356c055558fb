package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/andibalo/ujournal-sub000/internal/cache"
	"github.com/andibalo/ujournal-sub000/internal/models"
)

type CreateEntryRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ImageURI    string   `json:"imageURI,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

type UpdateEntryRequest struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	ImageURI    *string  `json:"imageURI,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

type EntryResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message,omitempty"`
	Entry   *models.JournalEntry `json:"entry,omitempty"`
}

type EntriesResponse struct {
	Success bool                  `json:"success"`
	Entries []models.JournalEntry `json:"entries"`
	Total   int                   `json:"total"`
}

type GroupedEntriesResponse struct {
	Success bool              `json:"success"`
	Groups  []cache.DateGroup `json:"groups"`
}

// CreateEntry adds a journal entry to the caller's cache. The response
// reflects the optimistic in-memory state; persistence completes in the
// background and failures surface on the entry event stream.
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	var req CreateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Title == "" && req.Description == "" {
		writeError(w, http.StatusBadRequest, "Title or description is required")
		return
	}

	entry, _ := sess.Entries.Add(cache.NewEntry{
		Title:       req.Title,
		Description: req.Description,
		ImageURI:    req.ImageURI,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	})

	writeJSON(w, http.StatusCreated, EntryResponse{
		Success: true,
		Message: "Entry created successfully",
		Entry:   &entry,
	})
}

// GetEntries returns the in-memory collection, newest first.
func (h *Handler) GetEntries(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	entries := sess.Entries.List()
	writeJSON(w, http.StatusOK, EntriesResponse{
		Success: true,
		Entries: entries,
		Total:   len(entries),
	})
}

// GetEntriesGrouped returns the calendar-day grouped view.
func (h *Handler) GetEntriesGrouped(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	writeJSON(w, http.StatusOK, GroupedEntriesResponse{
		Success: true,
		Groups:  sess.Entries.GroupedByDate(),
	})
}

// GetEntry is the point lookup used by detail and edit screens.
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	entry, ok := sess.Entries.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Entry not found")
		return
	}

	writeJSON(w, http.StatusOK, EntryResponse{Success: true, Entry: &entry})
}

// UpdateEntry applies a partial update to an entry.
func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	var req UpdateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	id := chi.URLParam(r, "id")
	_, err := sess.Entries.Update(id, cache.EntryPatch{
		Title:       req.Title,
		Description: req.Description,
		ImageURI:    req.ImageURI,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	})
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Entry not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update entry")
		return
	}

	entry, _ := sess.Entries.Get(id)
	writeJSON(w, http.StatusOK, EntryResponse{
		Success: true,
		Message: "Entry updated successfully",
		Entry:   &entry,
	})
}

// DeleteEntry removes an entry from the cache and the remote store.
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	sess.Entries.Remove(chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, EntryResponse{
		Success: true,
		Message: "Entry deleted successfully",
	})
}
