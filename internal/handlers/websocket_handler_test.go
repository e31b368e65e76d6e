package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/models"
	"github.com/ternarybob/vigil/internal/services/events"
)

func TestHandleWebSocket_StreamsQueueEvents(t *testing.T) {
	broker := events.NewBroker(common.GetLogger())
	defer broker.Close()

	h := NewWebSocketHandler(broker, common.GetLogger())
	server := httptest.NewServer(http.HandlerFunc(h.HandleWebSocket))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give the handler a moment to register its subscription
	time.Sleep(50 * time.Millisecond)
	broker.Publish(models.QueueEvent{
		Type:      models.QueueEventCompleted,
		JobID:     "job-1",
		URL:       "https://example.com",
		Timestamp: time.Now(),
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event models.QueueEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, models.QueueEventCompleted, event.Type)
	assert.Equal(t, "job-1", event.JobID)
}
