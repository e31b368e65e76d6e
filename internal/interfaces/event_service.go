package interfaces

import (
	"github.com/ternarybob/vigil/internal/models"
)

// EventService fans queue lifecycle events out to subscribers (WebSocket
// clients). Publishing never blocks; slow subscribers drop events.
type EventService interface {
	Publish(event models.QueueEvent)
	Subscribe() (id string, ch <-chan models.QueueEvent)
	Unsubscribe(id string)
	Close()
}
