package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/andibalo/ujournal-sub000/internal/auth"
	"github.com/andibalo/ujournal-sub000/internal/models"
	"github.com/andibalo/ujournal-sub000/internal/store"
)

type SaveProfileRequest struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName,omitempty"`
	Email           string `json:"email"`
	ProfileImageURL string `json:"profileImageURL,omitempty"`
	Provider        string `json:"provider,omitempty"`
}

type ProfileImageRequest struct {
	ImageURI string `json:"imageURI"`
}

type ProfileResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	User    *models.User `json:"user,omitempty"`
}

// GetMe loads and returns the caller's profile document.
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	user, err := sess.User.LoadCurrentUser(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUnauthenticated):
			writeError(w, http.StatusUnauthorized, "Authentication required")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "Profile not found")
		default:
			writeError(w, http.StatusInternalServerError, "Failed to load profile")
		}
		return
	}

	writeJSON(w, http.StatusOK, ProfileResponse{Success: true, User: &user})
}

// SaveProfile overwrites the caller's profile document. The response waits
// for the remote write so the client learns whether the save stuck.
func (h *Handler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	var req SaveProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.FirstName == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "First name and email are required")
		return
	}

	// Keep the original creation time when the profile already exists
	createdAt := time.Now()
	if current, ok := sess.User.CurrentUser(); ok {
		createdAt = current.CreatedAt
	}

	user := models.User{
		ID:              sess.UserID,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		ProfileImageURL: req.ProfileImageURL,
		Provider:        req.Provider,
		CreatedAt:       createdAt,
	}

	if err := <-sess.User.SaveUser(user); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save profile")
		return
	}

	writeJSON(w, http.StatusOK, ProfileResponse{
		Success: true,
		Message: "Profile saved successfully",
		User:    &user,
	})
}

// UpdateProfileImage pushes a partial update of just the profile image field.
func (h *Handler) UpdateProfileImage(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	var req ProfileImageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.ImageURI == "" {
		writeError(w, http.StatusBadRequest, "Image URI is required")
		return
	}

	if err := <-sess.User.UpdateProfileImage(sess.UserID, req.ImageURI); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update profile image")
		return
	}

	user, _ := sess.User.CurrentUser()
	writeJSON(w, http.StatusOK, ProfileResponse{
		Success: true,
		Message: "Profile image updated successfully",
		User:    &user,
	})
}
