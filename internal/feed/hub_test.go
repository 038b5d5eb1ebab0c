package feed

import (
	"testing"

	"github.com/gatherly-app/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubPublishReachesSubscriber(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe(7)
	defer cancel()

	hub.Publish(7, Change{Type: ChangeInsert, New: &models.Notification{ID: "n1", UserID: 7}})

	change := <-ch
	assert.Equal(t, ChangeInsert, change.Type)
	require.NotNil(t, change.New)
	assert.Equal(t, "n1", change.New.ID)
}

func TestHubScopesByUser(t *testing.T) {
	hub := NewHub()
	mine, cancelMine := hub.Subscribe(1)
	defer cancelMine()
	theirs, cancelTheirs := hub.Subscribe(2)
	defer cancelTheirs()

	hub.Publish(1, Change{Type: ChangeDelete, OldID: "x"})

	assert.Len(t, mine, 1)
	assert.Empty(t, theirs, "change for user 1 must not reach user 2")
}

func TestHubFansOutToAllSubscribers(t *testing.T) {
	hub := NewHub()
	a, cancelA := hub.Subscribe(3)
	defer cancelA()
	b, cancelB := hub.Subscribe(3)
	defer cancelB()

	hub.Publish(3, Change{Type: ChangeDelete, OldID: "y"})

	assert.Len(t, a, 1)
	assert.Len(t, b, 1)
}

func TestHubCancelClosesChannel(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe(5)

	require.Equal(t, 1, hub.SubscriberCount(5))
	cancel()
	assert.Zero(t, hub.SubscriberCount(5))

	_, ok := <-ch
	assert.False(t, ok)

	// A second cancel must not panic on the already-closed channel.
	cancel()
}

func TestHubPublishNeverBlocks(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe(9)
	defer cancel()

	// Push past the buffer; overflow is dropped, not blocked on.
	for i := 0; i < subscriberBuffer+5; i++ {
		hub.Publish(9, Change{Type: ChangeDelete, OldID: "z"})
	}

	assert.Len(t, ch, subscriberBuffer)
}

func TestHubPublishWithoutSubscribers(t *testing.T) {
	hub := NewHub()
	// Must be a harmless no-op.
	hub.Publish(42, Change{Type: ChangeInsert, New: &models.Notification{ID: "n"}})
	assert.Zero(t, hub.SubscriberCount(42))
}
