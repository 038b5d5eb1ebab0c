package models

import "time"

// Post represents a text post shared by a user (PostgreSQL)
type Post struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	UserID        uint      `json:"user_id" gorm:"index"`
	Content       string    `json:"content"`
	CommentsCount int       `json:"comments_count" gorm:"default:0"`
	Tags          []Tag     `json:"tags,omitempty" gorm:"many2many:post_tags;"`
	CreatedAt     time.Time `json:"created_at" gorm:"index"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Content string   `json:"content" validate:"required,min=1,max=280"`
	Tags    []string `json:"tags,omitempty" validate:"omitempty,max=10,dive,min=1,max=40"`
}

// UpdatePostRequest defines the request body for updating an existing post
type UpdatePostRequest struct {
	Content string   `json:"content,omitempty" validate:"omitempty,min=1,max=280"`
	Tags    []string `json:"tags,omitempty" validate:"omitempty,max=10,dive,min=1,max=40"`
}
