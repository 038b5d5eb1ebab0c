package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity represents an entry in a user's activity stream, stored in MongoDB.
// The stream is append-heavy and unbounded, so it lives outside PostgreSQL.
type Activity struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID     uint               `json:"user_id" bson:"user_id"`
	Action     string             `json:"action" bson:"action"` // created_event, accepted_invite, posted, commented, ...
	TargetType string             `json:"target_type" bson:"target_type"`
	TargetID   string             `json:"target_id" bson:"target_id"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
}
