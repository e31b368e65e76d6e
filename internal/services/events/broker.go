// Package events fans queue lifecycle events out to WebSocket subscribers.
package events

import (
	"sync"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/models"
)

const subscriberBuffer = 16

// Broker relays queue events to any number of subscribers. Slow
// subscribers drop events rather than stalling the source.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[string]chan models.QueueEvent
	closed      bool
	logger      arbor.ILogger
}

// NewBroker creates the broker
func NewBroker(logger arbor.ILogger) *Broker {
	return &Broker{
		subscribers: make(map[string]chan models.QueueEvent),
		logger:      logger,
	}
}

// Run consumes a queue event stream until it closes
func (b *Broker) Run(source <-chan models.QueueEvent) {
	for event := range source {
		b.Publish(event)
	}
}

// Publish delivers an event to every subscriber without blocking
func (b *Broker) Publish(event models.QueueEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			b.logger.Debug().Str("subscriber", id).Msg("Dropping event for slow subscriber")
		}
	}
}

// Subscribe registers a new event consumer
func (b *Broker) Subscribe() (string, <-chan models.QueueEvent) {
	ch := make(chan models.QueueEvent, subscriberBuffer)
	id := uuid.New().String()

	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subscribers[id] = ch
	}
	b.mu.Unlock()

	return id, ch
}

// Unsubscribe removes a consumer and closes its channel
func (b *Broker) Unsubscribe(id string) {
	b.mu.Lock()
	if ch, ok := b.subscribers[id]; ok {
		delete(b.subscribers, id)
		close(ch)
	}
	b.mu.Unlock()
}

// Close shuts down all subscriber channels
func (b *Broker) Close() {
	b.mu.Lock()
	b.closed = true
	for id, ch := range b.subscribers {
		delete(b.subscribers, id)
		close(ch)
	}
	b.mu.Unlock()
}
