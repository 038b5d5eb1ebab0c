package repositories

import (
	"context"
	"time"

	"github.com/gatherly-app/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ActivityRepository defines the interface for activity stream operations
type ActivityRepository interface {
	RecordActivity(ctx context.Context, activity *models.Activity) error
	GetActivitiesByUserID(ctx context.Context, userID uint, skip, limit int64) ([]models.Activity, error)
}

// MongoActivityRepository implements ActivityRepository for MongoDB
type MongoActivityRepository struct {
	collection *mongo.Collection
}

// NewMongoActivityRepository creates a new MongoActivityRepository
func NewMongoActivityRepository(db *mongo.Database) *MongoActivityRepository {
	return &MongoActivityRepository{collection: db.Collection("activities")}
}

// RecordActivity appends an entry to the user's activity stream
func (r *MongoActivityRepository) RecordActivity(ctx context.Context, activity *models.Activity) error {
	activity.ID = primitive.NewObjectID()
	activity.CreatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, activity)
	return err
}

// GetActivitiesByUserID retrieves a user's activity stream, newest first
func (r *MongoActivityRepository) GetActivitiesByUserID(ctx context.Context, userID uint, skip, limit int64) ([]models.Activity, error) {
	var activities []models.Activity
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}
