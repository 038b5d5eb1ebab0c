package models

import "time"

// Event represents a gathering created by a user
type Event struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	CreatorID   uint      `json:"creator_id" gorm:"index"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      *time.Time `json:"ends_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateEventRequest defines the request body for creating a new event
type CreateEventRequest struct {
	Title       string     `json:"title" validate:"required,min=1,max=120"`
	Description string     `json:"description" validate:"max=2000"`
	Location    string     `json:"location" validate:"max=250"`
	StartsAt    time.Time  `json:"starts_at" validate:"required"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
}

// UpdateEventRequest defines the request body for updating an existing event
type UpdateEventRequest struct {
	Title       string     `json:"title,omitempty" validate:"omitempty,min=1,max=120"`
	Description string     `json:"description,omitempty" validate:"omitempty,max=2000"`
	Location    string     `json:"location,omitempty" validate:"omitempty,max=250"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
}
