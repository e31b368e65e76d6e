package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/interfaces"
)

const (
	wsWriteWait    = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Origin policy is enforced by the CORS layer for API routes
	},
}

// WebSocketHandler streams queue lifecycle events (completed, failed,
// stalled) to connected clients. The stream is observational; clients that
// miss events fall back to polling.
type WebSocketHandler struct {
	events interfaces.EventService
	logger arbor.ILogger
}

// NewWebSocketHandler creates a new websocket handler
func NewWebSocketHandler(events interfaces.EventService, logger arbor.ILogger) *WebSocketHandler {
	return &WebSocketHandler{
		events: events,
		logger: logger,
	}
}

// HandleWebSocket handles GET /ws
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	id, events := h.events.Subscribe()
	h.logger.Debug().Str("subscriber", id).Str("remote", r.RemoteAddr).Msg("WebSocket client connected")

	defer func() {
		h.events.Unsubscribe(id)
		conn.Close()
		h.logger.Debug().Str("subscriber", id).Msg("WebSocket client disconnected")
	}()

	// Reader goroutine: we never expect client messages, but reading is how
	// close frames and dead peers are noticed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
