package models

import "time"

// Notification types emitted by the application.
const (
	NotificationTypeInvite      = "invite"
	NotificationTypeInviteReply = "invite_reply"
	NotificationTypeComment     = "comment"
	NotificationTypeEventUpdate = "event_update"
	NotificationTypeSystem      = "system"
)

// Notification represents a user notification (PostgreSQL).
// The ID is an opaque UUID string so clients can treat it as a stable key.
type Notification struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	UserID    uint      `json:"user_id" gorm:"index"` // Owning identity; all queries are scoped to it
	Type      string    `json:"type" gorm:"size:30;index"`
	Message   string    `json:"message"`
	Read      bool      `json:"read" gorm:"default:false;index"`
	EventID   *uint     `json:"event_id" gorm:"index"` // Optional reference to a related event
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
