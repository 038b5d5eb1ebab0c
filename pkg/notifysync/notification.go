package notifysync

import "time"

// Notification mirrors the server's notification row as served by the
// notifications API.
type Notification struct {
	ID        string    `json:"id"`
	UserID    uint      `json:"user_id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	EventID   *uint     `json:"event_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Identity is the authenticated user context a Controller is bound to.
// The token authenticates every gateway call and the feed subscription.
type Identity struct {
	UserID uint
	Token  string
}

// ChangeType tags a change feed event.
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// Change is a row-level change delivered by the feed. INSERT and UPDATE
// carry the new row image; DELETE carries the old row's id.
type Change struct {
	Type  ChangeType    `json:"type"`
	New   *Notification `json:"new,omitempty"`
	OldID string        `json:"old_id,omitempty"`
}
