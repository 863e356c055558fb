package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/andibalo/ujournal-sub000/internal/cache"
	"github.com/andibalo/ujournal-sub000/internal/services"
)

// Handler carries the service objects the HTTP layer works with. Caches are
// resolved per request from the registry; handlers never hold ambient state.
type Handler struct {
	registry *cache.Registry
	images   *services.ImageService
}

func New(registry *cache.Registry, images *services.ImageService) *Handler {
	return &Handler{registry: registry, images: images}
}

// extractBearerToken returns the token from an "Authorization: Bearer x" header.
func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// session resolves the request's bearer token to the caller's cache session.
// Writes a 401 response and returns nil when there is no valid session.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) *cache.Session {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		// Browser websocket clients can't set headers; allow a query token
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return nil
	}

	sess, err := h.registry.Attach(r.Context(), token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return nil
	}
	return sess
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"message": message,
	})
}
