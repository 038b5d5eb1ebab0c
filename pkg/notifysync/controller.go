// Package notifysync keeps a local view of a user's notifications in sync
// with the server. It combines a full fetch over the REST gateway with a
// live change feed, reconciling pushed inserts, updates and deletes into
// an in-memory list the UI reads from.
//
// The local list is a best-effort, eventually consistent projection of the
// server rows owned by the bound identity. Mutations are confirmation
// first: mark-read and delete only touch local state after the server has
// acknowledged them.
package notifysync

import (
	"context"
	"net/http"
	"sync"
)

// Controller owns the in-memory notification list for one identity at a
// time. All methods are safe for concurrent use; each state change is
// applied atomically under the controller's lock.
type Controller struct {
	events     Events
	feed       ChangeFeed
	newGateway func(Identity) Gateway
	client     *http.Client

	mu         sync.Mutex
	identity   *Identity
	items      []Notification
	loading    bool
	lastError  string
	generation uint64
	cancelFeed context.CancelFunc
}

// Option configures a Controller.
type Option func(*Controller)

// WithHTTPClient sets the HTTP client used by the default gateway and feed.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Controller) { c.client = client }
}

// WithEvents sets the sink notices and traces are delivered to.
func WithEvents(events Events) Option {
	return func(c *Controller) { c.events = events }
}

// WithChangeFeed replaces the default SSE feed.
func WithChangeFeed(feed ChangeFeed) Option {
	return func(c *Controller) { c.feed = feed }
}

// WithGateway replaces the default HTTP gateway constructor.
func WithGateway(newGateway func(Identity) Gateway) Option {
	return func(c *Controller) { c.newGateway = newGateway }
}

// New creates a Controller for the notifications API rooted at baseURL.
// The controller is idle until Start binds it to an identity.
func New(baseURL string, opts ...Option) *Controller {
	c := &Controller{
		events: LogEvents{},
		client: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.feed == nil {
		c.feed = NewSSEFeed(baseURL, c.client)
	}
	if c.newGateway == nil {
		client := c.client
		c.newGateway = func(id Identity) Gateway {
			return NewHTTPGateway(baseURL, id.Token, client)
		}
	}
	return c
}

// Start binds the controller to an identity: it loads the full list and
// subscribes to the identity's change feed. A nil identity clears local
// state without touching the network. Calling Start again releases the
// previous identity's subscription first, and any responses still in
// flight for it are discarded.
func (c *Controller) Start(identity *Identity) {
	c.mu.Lock()
	c.generation++
	gen := c.generation
	if c.cancelFeed != nil {
		c.cancelFeed()
		c.cancelFeed = nil
	}
	c.identity = identity

	if identity == nil {
		c.items = nil
		c.loading = false
		c.mu.Unlock()
		return
	}

	c.loading = true
	c.lastError = ""
	id := *identity
	ctx, cancel := context.WithCancel(context.Background())
	c.cancelFeed = cancel
	c.mu.Unlock()

	go c.run(ctx, id, gen)
}

// Stop releases the bound identity, its feed subscription and local state.
func (c *Controller) Stop() {
	c.Start(nil)
}

// run performs the initial load, then consumes the change feed until the
// binding is released.
func (c *Controller) run(ctx context.Context, id Identity, gen uint64) {
	c.load(ctx, id, gen)

	changes, err := c.feed.Subscribe(ctx, id)
	if err != nil {
		c.events.Trace("change feed subscription failed: %v", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				c.events.Trace("change feed closed")
				return
			}
			c.apply(gen, change)
		}
	}
}

// Load refreshes the full list from the gateway. A refresh replaces the
// local list wholesale; it never raises an arrival notice, since nothing
// in it is news.
func (c *Controller) Load() {
	c.mu.Lock()
	if c.identity == nil {
		c.mu.Unlock()
		return
	}
	id := *c.identity
	gen := c.generation
	c.loading = true
	c.mu.Unlock()

	c.load(context.Background(), id, gen)
}

func (c *Controller) load(ctx context.Context, id Identity, gen uint64) {
	// Loading clears on every exit path for the generation that set it.
	defer func() {
		c.mu.Lock()
		if gen == c.generation {
			c.loading = false
		}
		c.mu.Unlock()
	}()

	items, err := c.newGateway(id).List(ctx)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.events.Trace("discarding stale list response")
		return
	}
	if err != nil {
		c.lastError = err.Error()
		c.mu.Unlock()
		c.events.Failure("Failed to load notifications: " + err.Error())
		return
	}
	c.items = items
	c.mu.Unlock()
}

// MarkRead marks the given ids as read. No-op without a bound identity.
// Local state changes only after the server confirms; a failure raises a
// transient notice and leaves both the list and LastError untouched.
func (c *Controller) MarkRead(ids []string) {
	c.mu.Lock()
	if c.identity == nil {
		c.mu.Unlock()
		return
	}
	id := *c.identity
	gen := c.generation
	c.mu.Unlock()

	if len(ids) == 0 {
		return
	}

	if err := c.newGateway(id).MarkRead(context.Background(), ids); err != nil {
		c.events.Failure("Failed to mark notifications as read: " + err.Error())
		return
	}

	wanted := idSet(ids)
	c.mu.Lock()
	if gen == c.generation {
		for i := range c.items {
			if wanted[c.items[i].ID] {
				c.items[i].Read = true
			}
		}
	}
	c.mu.Unlock()
}

// DeleteNotifications removes the given ids. No-op without a bound
// identity; confirmation-first like MarkRead. Survivors keep their order.
func (c *Controller) DeleteNotifications(ids []string) {
	c.mu.Lock()
	if c.identity == nil {
		c.mu.Unlock()
		return
	}
	id := *c.identity
	gen := c.generation
	c.mu.Unlock()

	if len(ids) == 0 {
		return
	}

	if err := c.newGateway(id).Delete(context.Background(), ids); err != nil {
		c.events.Failure("Failed to delete notifications: " + err.Error())
		return
	}

	wanted := idSet(ids)
	c.mu.Lock()
	if gen == c.generation {
		kept := c.items[:0]
		for _, item := range c.items {
			if !wanted[item.ID] {
				kept = append(kept, item)
			}
		}
		c.items = kept
	}
	c.mu.Unlock()
}

// apply reconciles one pushed change into local state. Events are
// idempotent: a repeated UPDATE or DELETE is a no-op the second time.
func (c *Controller) apply(gen uint64, change Change) {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		c.events.Trace("discarding stale feed event")
		return
	}

	switch change.Type {
	case ChangeInsert:
		if change.New == nil {
			c.mu.Unlock()
			c.events.Trace("insert event without row image")
			return
		}
		c.items = append([]Notification{*change.New}, c.items...)
		message := change.New.Message
		c.mu.Unlock()
		// The push insert is the only arrival path that notifies the user.
		c.events.Notice(message)
		return

	case ChangeUpdate:
		if change.New != nil {
			for i := range c.items {
				if c.items[i].ID == change.New.ID {
					c.items[i] = *change.New
					break
				}
			}
			// An update for an unknown row is dropped: the controller
			// should already have seen its insert.
		}

	case ChangeDelete:
		oldID := change.OldID
		if oldID == "" && change.New != nil {
			oldID = change.New.ID
		}
		kept := c.items[:0]
		for _, item := range c.items {
			if item.ID != oldID {
				kept = append(kept, item)
			}
		}
		c.items = kept

	default:
		c.events.Trace("unknown change type %q", change.Type)
	}
	c.mu.Unlock()
}

// Items returns a copy of the current notification list.
func (c *Controller) Items() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]Notification, len(c.items))
	copy(items, c.items)
	return items
}

// Loading reports whether an initial load or refresh is in flight.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// LastError returns the message of the most recent load failure, or the
// empty string. Mutation failures are transient notices and never land
// here.
func (c *Controller) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// UnreadCount counts unread items. It is always derived from the list,
// never stored, so it cannot drift.
func (c *Controller) UnreadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, item := range c.items {
		if !item.Read {
			count++
		}
	}
	return count
}

func idSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
