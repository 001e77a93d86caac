// Package events fans activity log entries out to live subscribers.
package events

import (
	"sync"

	"github.com/mikey/cybershield/internal/core"
	"go.uber.org/zap"
)

// subscriberBuffer is the number of events queued per subscriber
const subscriberBuffer = 64

// Hub implements core.EventPublisher. Slow subscribers miss events rather
// than blocking publishers.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[chan *core.Activity]struct{}
	logger      *zap.Logger
}

// NewHub creates a new event hub
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subscribers: make(map[chan *core.Activity]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a subscriber. The cancel function must be called when
// the subscriber goes away; it closes the channel.
func (h *Hub) Subscribe() (<-chan *core.Activity, func()) {
	ch := make(chan *core.Activity, subscriberBuffer)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, ch)
			close(ch)
			h.mu.Unlock()
		})
	}
	return ch, cancel
}

// Publish sends an activity to every subscriber
func (h *Hub) Publish(activity *core.Activity) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers {
		select {
		case ch <- activity:
		default:
			h.logger.Warn("Dropped event for slow subscriber", zap.String("title", activity.Title))
		}
	}
}

// SubscriberCount returns the number of active subscribers
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
