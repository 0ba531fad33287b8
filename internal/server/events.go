package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/raphaelgruber/knowbot/internal/api"
	"github.com/raphaelgruber/knowbot/internal/models"
)

const (
	keepAlivePingInterval = 10 * time.Second
	eventWriteTimeout     = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local dev
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// handleEvents streams workspace events as JSON text frames.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	// Clear deadlines inherited from the HTTP server timeouts.
	_ = conn.SetReadDeadline(time.Time{})

	clientID := uuid.NewString()
	logger := s.logger.With("client", clientID)

	events, unsubscribe := s.deps.Workspace.Subscribe()
	defer unsubscribe()

	logger.Debug("event subscriber connected")
	defer logger.Debug("event subscriber disconnected")

	// The client never sends data; reading detects when it goes away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	write := func(v any) error {
		_ = conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
		return conn.WriteJSON(v)
	}

	if err := write(models.Event{Type: api.EventReady}); err != nil {
		return
	}

	ticker := time.NewTicker(keepAlivePingInterval)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-events:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "workspace closed"),
					time.Now().Add(eventWriteTimeout))
				return
			}
			if err := write(e); err != nil {
				logger.Debug("event write failed", "error", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(eventWriteTimeout)); err != nil {
				return
			}
		case <-gone:
			return
		}
	}
}
