package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/andibalo/ujournal-sub000/internal/handlers"
)

func SetupRoutes(r *chi.Mux, h *handlers.Handler) {
	// Auth routes
	r.Post("/api/auth/signup", h.Signup)
	r.Post("/api/auth/signin", h.Signin)
	r.Post("/api/auth/signin/credential", h.SigninWithCredential)
	r.Post("/api/auth/signout", h.Signout)

	// Profile routes
	r.Get("/api/me", h.GetMe)
	r.Put("/api/profile", h.SaveProfile)
	r.Put("/api/profile/image", h.UpdateProfileImage)

	// Journal entry routes
	r.Post("/api/entries", h.CreateEntry)
	r.Get("/api/entries", h.GetEntries)
	r.Get("/api/entries/grouped", h.GetEntriesGrouped)
	r.Get("/api/entries/{id}", h.GetEntry)
	r.Put("/api/entries/{id}", h.UpdateEntry)
	r.Delete("/api/entries/{id}", h.DeleteEntry)

	// Image upload
	r.Post("/api/upload", h.UploadImage)

	// WebSocket stream of entry-cache change events
	r.Get("/ws/entries", h.EntriesStream)
}
