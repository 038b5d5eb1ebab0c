package models

import "time"

// Invite statuses
const (
	InviteStatusPending  = "pending"
	InviteStatusAccepted = "accepted"
	InviteStatusDeclined = "declined"
)

// Invite represents an invitation of a user to an event
type Invite struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	EventID   uint      `json:"event_id" gorm:"index;uniqueIndex:idx_event_invitee"`
	UserID    uint      `json:"user_id" gorm:"index;uniqueIndex:idx_event_invitee"` // Invitee
	InviterID uint      `json:"inviter_id" gorm:"index"`
	Status    string    `json:"status" gorm:"size:20;default:pending"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateInviteRequest defines the request body for inviting a user to an event
type CreateInviteRequest struct {
	UserID uint `json:"user_id" validate:"required"`
}

// RespondInviteRequest defines the request body for accepting or declining an invite
type RespondInviteRequest struct {
	Status string `json:"status" validate:"required,oneof=accepted declined"`
}
