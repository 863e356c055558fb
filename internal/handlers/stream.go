package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var entriesUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS is enforced at the HTTP layer already
		return true
	},
}

const streamWriteTimeout = 10 * time.Second

// EntriesStream streams the caller's entry-cache events over a WebSocket so
// the presentation layer can re-render on every change. Authentication uses
// the session token (Authorization header or `token` query parameter).
func (h *Handler) EntriesStream(w http.ResponseWriter, r *http.Request) {
	sess := h.session(w, r)
	if sess == nil {
		return
	}

	conn, err := entriesUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade entries stream: %v", err)
		return
	}
	defer conn.Close()

	events, unsubscribe := sess.Entries.Subscribe()
	defer unsubscribe()

	// Reader goroutine: we ignore client messages, but reading is what
	// detects a closed connection.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
