package repositories

import (
	"github.com/gatherly-app/backend/internal/models"
	"gorm.io/gorm"
)

// EventRepository defines the interface for event data operations
type EventRepository interface {
	CreateEvent(event *models.Event) error
	GetEventByID(id uint) (*models.Event, error)
	GetEventsByCreatorID(creatorID uint) ([]models.Event, error)
	GetEventsForUser(userID uint) ([]models.Event, error)
	UpdateEvent(event *models.Event) error
	DeleteEvent(id uint) error
}

// PostgresEventRepository implements EventRepository for PostgreSQL
type PostgresEventRepository struct {
	db *gorm.DB
}

// NewPostgresEventRepository creates a new PostgresEventRepository
func NewPostgresEventRepository(db *gorm.DB) *PostgresEventRepository {
	return &PostgresEventRepository{db: db}
}

// CreateEvent creates a new event in PostgreSQL
func (r *PostgresEventRepository) CreateEvent(event *models.Event) error {
	return r.db.Create(event).Error
}

// GetEventByID retrieves an event by ID from PostgreSQL
func (r *PostgresEventRepository) GetEventByID(id uint) (*models.Event, error) {
	var event models.Event
	if err := r.db.First(&event, id).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

// GetEventsByCreatorID retrieves all events created by a user
func (r *PostgresEventRepository) GetEventsByCreatorID(creatorID uint) ([]models.Event, error) {
	var events []models.Event
	err := r.db.Where("creator_id = ?", creatorID).Order("starts_at ASC").Find(&events).Error
	return events, err
}

// GetEventsForUser retrieves events the user created or accepted an invite to
func (r *PostgresEventRepository) GetEventsForUser(userID uint) ([]models.Event, error) {
	var events []models.Event
	err := r.db.Where("creator_id = ? OR id IN (?)",
		userID,
		r.db.Table("invites").Select("event_id").Where("user_id = ? AND status = ?", userID, models.InviteStatusAccepted),
	).Order("starts_at ASC").Find(&events).Error
	return events, err
}

// UpdateEvent updates an existing event in PostgreSQL
func (r *PostgresEventRepository) UpdateEvent(event *models.Event) error {
	return r.db.Save(event).Error
}

// DeleteEvent deletes an event by ID from PostgreSQL
func (r *PostgresEventRepository) DeleteEvent(id uint) error {
	return r.db.Delete(&models.Event{}, id).Error
}
