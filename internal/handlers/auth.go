package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/andibalo/ujournal-sub000/internal/auth"
	"github.com/andibalo/ujournal-sub000/internal/cache"
)

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CredentialSigninRequest struct {
	Provider string `json:"provider"`
	IDToken  string `json:"id_token"`
}

type AuthResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
	UserID  string `json:"user_id,omitempty"`
}

// Signup registers a new account and opens its cache session.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sess, err := h.registry.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, authErrorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{
		Success: true,
		Message: "Account created successfully",
		Token:   sess.User.Token(),
		UserID:  sess.UserID,
	})
}

// Signin authenticates with email and password.
func (h *Handler) Signin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sess, err := h.registry.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, authErrorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Signed in successfully",
		Token:   sess.User.Token(),
		UserID:  sess.UserID,
	})
}

// SigninWithCredential authenticates with an external identity credential.
func (h *Handler) SigninWithCredential(w http.ResponseWriter, r *http.Request) {
	var req CredentialSigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cred := auth.Credential{Provider: req.Provider, IDToken: req.IDToken}
	sess, err := h.registry.LoginWithCredential(r.Context(), cred)
	if err != nil {
		writeError(w, authErrorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Signed in successfully",
		Token:   sess.User.Token(),
		UserID:  sess.UserID,
	})
}

// Signout tears down the caller's cache session and invalidates the token.
func (h *Handler) Signout(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := h.registry.Logout(r.Context(), token); err != nil {
		if errors.Is(err, auth.ErrUnauthenticated) {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to sign out")
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Success: true,
		Message: "Signed out successfully",
	})
}

func authErrorStatus(err error) int {
	switch {
	case errors.Is(err, cache.ErrValidation), errors.Is(err, auth.ErrCredentialType):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
