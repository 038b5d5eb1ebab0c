package notifysync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

// fakeGateway scripts gateway responses and records calls.
type fakeGateway struct {
	mu        sync.Mutex
	listFn    func(ctx context.Context) ([]Notification, error)
	markFn    func(ids []string) error
	deleteFn  func(ids []string) error
	listCalls int
}

func (g *fakeGateway) List(ctx context.Context) ([]Notification, error) {
	g.mu.Lock()
	g.listCalls++
	fn := g.listFn
	g.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(ctx)
}

func (g *fakeGateway) MarkRead(_ context.Context, ids []string) error {
	g.mu.Lock()
	fn := g.markFn
	g.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(ids)
}

func (g *fakeGateway) Delete(_ context.Context, ids []string) error {
	g.mu.Lock()
	fn := g.deleteFn
	g.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(ids)
}

func (g *fakeGateway) calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.listCalls
}

func (g *fakeGateway) setList(fn func(ctx context.Context) ([]Notification, error)) {
	g.mu.Lock()
	g.listFn = fn
	g.mu.Unlock()
}

// scriptedFeed hands out a shared change channel and remembers the
// subscription contexts it saw.
type scriptedFeed struct {
	mu       sync.Mutex
	ch       chan Change
	contexts []context.Context
}

func newScriptedFeed() *scriptedFeed {
	return &scriptedFeed{ch: make(chan Change)}
}

func (f *scriptedFeed) Subscribe(ctx context.Context, _ Identity) (<-chan Change, error) {
	f.mu.Lock()
	f.contexts = append(f.contexts, ctx)
	f.mu.Unlock()
	return f.ch, nil
}

func (f *scriptedFeed) subscriptions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.contexts)
}

func (f *scriptedFeed) lastContext() context.Context {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.contexts) == 0 {
		return nil
	}
	return f.contexts[len(f.contexts)-1]
}

// captureEvents collects notices and failures for assertions.
type captureEvents struct {
	mu       sync.Mutex
	notices  []string
	failures []string
}

func (e *captureEvents) Notice(message string) {
	e.mu.Lock()
	e.notices = append(e.notices, message)
	e.mu.Unlock()
}

func (e *captureEvents) Failure(message string) {
	e.mu.Lock()
	e.failures = append(e.failures, message)
	e.mu.Unlock()
}

func (e *captureEvents) Trace(string, ...any) {}

func (e *captureEvents) noticeCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.notices)
}

func (e *captureEvents) failureCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.failures)
}

func testNotifications() []Notification {
	return []Notification{
		{ID: "1", UserID: 7, Type: "invite", Message: "You are invited", Read: false},
		{ID: "2", UserID: 7, Type: "comment", Message: "New comment", Read: false},
	}
}

// newTestController wires a controller to the fakes.
func newTestController(gw *fakeGateway, feed *scriptedFeed, events *captureEvents) *Controller {
	return New("http://unused",
		WithGateway(func(Identity) Gateway { return gw }),
		WithChangeFeed(feed),
		WithEvents(events),
	)
}

// startAndLoad binds the identity and waits for the initial load to settle.
func startAndLoad(t *testing.T, c *Controller) {
	t.Helper()
	c.Start(&Identity{UserID: 7, Token: "token"})
	require.Eventually(t, func() bool { return !c.Loading() }, waitFor, tick)
}

func TestStartWithoutIdentity(t *testing.T) {
	gw := &fakeGateway{}
	feed := newScriptedFeed()
	c := newTestController(gw, feed, &captureEvents{})

	c.Start(nil)

	assert.Empty(t, c.Items())
	assert.False(t, c.Loading())
	assert.Zero(t, gw.calls(), "no network call without an identity")
	assert.Zero(t, feed.subscriptions(), "no feed subscription without an identity")
}

func TestInitialLoadReplacesItems(t *testing.T) {
	gw := &fakeGateway{}
	gw.setList(func(context.Context) ([]Notification, error) { return testNotifications(), nil })
	c := newTestController(gw, newScriptedFeed(), &captureEvents{})

	startAndLoad(t, c)

	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "1", items[0].ID)
	assert.Equal(t, "2", items[1].ID)
	assert.Equal(t, 2, c.UnreadCount())
	assert.Empty(t, c.LastError())
}

func TestLoadFailureKeepsItems(t *testing.T) {
	gw := &fakeGateway{}
	gw.setList(func(context.Context) ([]Notification, error) { return testNotifications(), nil })
	events := &captureEvents{}
	c := newTestController(gw, newScriptedFeed(), events)

	startAndLoad(t, c)
	require.Len(t, c.Items(), 2)

	gw.setList(func(context.Context) ([]Notification, error) {
		return nil, errors.New("database exploded")
	})
	c.Load()

	assert.Len(t, c.Items(), 2, "failed refresh must not overwrite items")
	assert.Equal(t, "database exploded", c.LastError())
	assert.Equal(t, 1, events.failureCount())
	assert.False(t, c.Loading())
}

func TestLoadIsNoOpWithoutIdentity(t *testing.T) {
	gw := &fakeGateway{}
	c := newTestController(gw, newScriptedFeed(), &captureEvents{})

	c.Load()

	assert.Zero(t, gw.calls())
}

func TestMarkReadSuccess(t *testing.T) {
	gw := &fakeGateway{}
	gw.setList(func(context.Context) ([]Notification, error) { return testNotifications(), nil })
	c := newTestController(gw, newScriptedFeed(), &captureEvents{})
	startAndLoad(t, c)

	c.MarkRead([]string{"1"})

	items := c.Items()
	require.Len(t, items, 2)
	assert.True(t, items[0].Read)
	assert.Equal(t, "1", items[0].ID, "order must be preserved")
	assert.Equal(t, testNotifications()[1], items[1], "items outside the id set are untouched")
	assert.Equal(t, 1, c.UnreadCount())
}

func TestMarkReadFailureIsTransient(t *testing.T) {
	gw := &fakeGateway{}
	gw.setList(func(context.Context) ([]Notification, error) { return testNotifications(), nil })
	gw.markFn = func([]string) error { return errors.New("connection refused") }
	events := &captureEvents{}
	c := newTestController(gw, newScriptedFeed(), events)
	startAndLoad(t, c)

	c.MarkRead([]string{"1", "2"})

	assert.Equal(t, testNotifications(), c.Items(), "failed mutation leaves state unchanged")
	assert.Equal(t, 1, events.failureCount())
	assert.Empty(t, c.LastError(), "mutation errors never persist into LastError")
}

func TestMarkReadNoOpWithoutIdentity(t *testing.T) {
	called := false
	gw := &fakeGateway{markFn: func([]string) error {
		called = true
		return nil
	}}
	c := newTestController(gw, newScriptedFeed(), &captureEvents{})

	c.MarkRead([]string{"1"})

	assert.False(t, called)
}

func TestDeleteNotificationsSuccess(t *testing.T) {
	gw := &fakeGateway{}
	gw.setList(func(context.Context) ([]Notification, error) {
		return []Notification{
			{ID: "1", Read: true}, {ID: "2"}, {ID: "3"},
		}, nil
	})
	c := newTestController(gw, newScriptedFeed(), &captureEvents{})
	startAndLoad(t, c)

	c.DeleteNotifications([]string{"2"})

	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "1", items[0].ID)
	assert.Equal(t, "3", items[1].ID, "survivor order preserved")
}

func TestDeleteFailureLeavesState(t *testing.T) {
	gw := &fakeGateway{}
	gw.setList(func(context.Context) ([]Notification, error) { return testNotifications(), nil })
	gw.deleteFn = func([]string) error { return errors.New("boom") }
	events := &captureEvents{}
	c := newTestController(gw, newScriptedFeed(), events)
	startAndLoad(t, c)

	c.DeleteNotifications([]string{"1"})

	assert.Equal(t, testNotifications(), c.Items())
	assert.Equal(t, 1, events.failureCount())
}

func TestPushInsertPrepends(t *testing.T) {
	gw := &fakeGateway{}
	gw.setList(func(context.Context) ([]Notification, error) { return testNotifications(), nil })
	feed := newScriptedFeed()
	events := &captureEvents{}
	c := newTestController(gw, feed, events)
	startAndLoad(t, c)

	feed.ch <- Change{Type: ChangeInsert, New: &Notification{ID: "3", Message: "fresh"}}

	require.Eventually(t, func() bool { return len(c.Items()) == 3 }, waitFor, tick)
	assert.Equal(t, "3", c.Items()[0].ID, "new item becomes the head")
	require.Eventually(t, func() bool { return events.noticeCount() == 1 }, waitFor, tick)
	events.mu.Lock()
	assert.Equal(t, "fresh", events.notices[0])
	events.mu.Unlock()
}

func TestPushInsertDuplicateGrowsList(t *testing.T) {
	gw := &fakeGateway{}
	gw.setList(func(context.Context) ([]Notification, error) { return testNotifications(), nil })
	feed := newScriptedFeed()
	c := newTestController(gw, feed, &captureEvents{})
	startAndLoad(t, c)

	// Every INSERT grows the list by one, even for a repeated id.
	feed.ch <- Change{Type: ChangeInsert, New: &Notification{ID: "1", Message: "again"}}
	require.Eventually(t, func() bool { return len(c.Items()) == 3 }, waitFor, tick)
}

func TestPushUpdateReplacesInPlace(t *testing.T) {
	gw := &fakeGateway{}
	gw.setList(func(context.Context) ([]Notification, error) { return testNotifications(), nil })
	feed := newScriptedFeed()
	c := newTestController(gw, feed, &captureEvents{})
	startAndLoad(t, c)

	updated := testNotifications()[0]
	updated.Read = true
	feed.ch <- Change{Type: ChangeUpdate, New: &updated}

	require.Eventually(t, func() bool { return c.UnreadCount() == 1 }, waitFor, tick)
	items := c.Items()
	assert.True(t, items[0].Read)
	assert.Equal(t, "1", items[0].ID, "position preserved")
	assert.Equal(t, testNotifications()[1], items[1])
}

func TestPushUpdateUnknownIsDropped(t *testing.T) {
	gw := &fakeGateway{}
	gw.setList(func(context.Context) ([]Notification, error) { return testNotifications(), nil })
	feed := newScriptedFeed()
	c := newTestController(gw, feed, &captureEvents{})
	startAndLoad(t, c)

	feed.ch <- Change{Type: ChangeUpdate, New: &Notification{ID: "missing", Read: true}}
	// Follow with a delete so we can observe the update was processed.
	feed.ch <- Change{Type: ChangeDelete, OldID: "2"}

	require.Eventually(t, func() bool { return len(c.Items()) == 1 }, waitFor, tick)
	assert.Equal(t, "1", c.Items()[0].ID, "unknown update must not insert")
}

func TestPushDeleteIsIdempotent(t *testing.T) {
	gw := &fakeGateway{}
	gw.setList(func(context.Context) ([]Notification, error) { return testNotifications(), nil })
	feed := newScriptedFeed()
	c := newTestController(gw, feed, &captureEvents{})
	startAndLoad(t, c)

	feed.ch <- Change{Type: ChangeDelete, OldID: "1"}
	require.Eventually(t, func() bool { return len(c.Items()) == 1 }, waitFor, tick)
	after := c.Items()

	feed.ch <- Change{Type: ChangeDelete, OldID: "1"}
	// Push another event to make sure the duplicate has been applied.
	feed.ch <- Change{Type: ChangeInsert, New: &Notification{ID: "9", Message: "x"}}
	require.Eventually(t, func() bool { return len(c.Items()) == 2 }, waitFor, tick)

	assert.Equal(t, after[0], c.Items()[1], "second delete of the same id changed nothing")
}

func TestIdentityChangeDiscardsStaleResponse(t *testing.T) {
	release := make(chan struct{})
	stale := []Notification{{ID: "stale", Message: "old identity"}}
	fresh := []Notification{{ID: "fresh", Message: "new identity"}}

	gw := &fakeGateway{}
	first := true
	var mu sync.Mutex
	gw.setList(func(context.Context) ([]Notification, error) {
		mu.Lock()
		wasFirst := first
		first = false
		mu.Unlock()
		if wasFirst {
			<-release // hold the first identity's response in flight
			return stale, nil
		}
		return fresh, nil
	})
	c := newTestController(gw, newScriptedFeed(), &captureEvents{})

	c.Start(&Identity{UserID: 1, Token: "a"})
	c.Start(&Identity{UserID: 2, Token: "b"})
	require.Eventually(t, func() bool { return gw.calls() == 2 && !c.Loading() }, waitFor, tick)

	close(release) // late response for the first identity arrives now

	assert.Never(t, func() bool {
		items := c.Items()
		return len(items) == 1 && items[0].ID == "stale"
	}, 100*time.Millisecond, tick, "stale response must be discarded")
	assert.Equal(t, "fresh", c.Items()[0].ID)
}

func TestStopReleasesSubscription(t *testing.T) {
	gw := &fakeGateway{}
	feed := newScriptedFeed()
	c := newTestController(gw, feed, &captureEvents{})

	c.Start(&Identity{UserID: 7, Token: "t"})
	require.Eventually(t, func() bool { return feed.subscriptions() == 1 }, waitFor, tick)

	c.Stop()

	ctx := feed.lastContext()
	require.NotNil(t, ctx)
	select {
	case <-ctx.Done():
	case <-time.After(waitFor):
		t.Fatal("subscription context not cancelled on Stop")
	}
	assert.Empty(t, c.Items())
	assert.False(t, c.Loading())
}

func TestRestartCancelsPreviousSubscription(t *testing.T) {
	gw := &fakeGateway{}
	feed := newScriptedFeed()
	c := newTestController(gw, feed, &captureEvents{})

	c.Start(&Identity{UserID: 1, Token: "a"})
	require.Eventually(t, func() bool { return feed.subscriptions() == 1 }, waitFor, tick)
	firstCtx := feed.lastContext()

	c.Start(&Identity{UserID: 2, Token: "b"})

	select {
	case <-firstCtx.Done():
	case <-time.After(waitFor):
		t.Fatal("previous identity's subscription left active")
	}
	require.Eventually(t, func() bool { return feed.subscriptions() == 2 }, waitFor, tick)
}

func TestUnreadCountAlwaysDerived(t *testing.T) {
	gw := &fakeGateway{}
	gw.setList(func(context.Context) ([]Notification, error) {
		return []Notification{{ID: "1"}, {ID: "2", Read: true}, {ID: "3"}}, nil
	})
	c := newTestController(gw, newScriptedFeed(), &captureEvents{})
	startAndLoad(t, c)

	assert.Equal(t, 2, c.UnreadCount())
	c.MarkRead([]string{"1"})
	assert.Equal(t, 1, c.UnreadCount())
	c.DeleteNotifications([]string{"3"})
	assert.Equal(t, 0, c.UnreadCount())
}
