package feed

import (
	"sync"

	"github.com/gatherly-app/backend/internal/models"
)

// ChangeType tags a row-level change on the notifications table.
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// Change is a single row-level change delivered to subscribers.
// INSERT and UPDATE carry the new row image; DELETE carries only the old id.
type Change struct {
	Type  ChangeType           `json:"type"`
	New   *models.Notification `json:"new,omitempty"`
	OldID string               `json:"old_id,omitempty"`
}

// subscriberBuffer is the per-subscriber channel capacity. A consumer that
// falls further behind than this loses events instead of blocking publishers.
const subscriberBuffer = 16

type subscriber struct {
	ch chan Change
}

// Hub fans out notification changes to per-user subscribers.
type Hub struct {
	mu   sync.Mutex
	subs map[uint]map[*subscriber]struct{}
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{subs: make(map[uint]map[*subscriber]struct{})}
}

// Subscribe registers a listener for changes scoped to userID. The returned
// cancel function releases the subscription and closes the channel; it is
// safe to call more than once.
func (h *Hub) Subscribe(userID uint) (<-chan Change, func()) {
	sub := &subscriber{ch: make(chan Change, subscriberBuffer)}

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*subscriber]struct{})
	}
	h.subs[userID][sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if set, ok := h.subs[userID]; ok {
				delete(set, sub)
				if len(set) == 0 {
					delete(h.subs, userID)
				}
			}
			h.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Publish delivers a change to every subscriber of userID without blocking.
func (h *Hub) Publish(userID uint, change Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[userID] {
		select {
		case sub.ch <- change:
		default:
			// Subscriber is not keeping up; drop rather than stall publishers.
		}
	}
}

// SubscriberCount reports the number of active subscribers for userID.
func (h *Hub) SubscriberCount(userID uint) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[userID])
}
