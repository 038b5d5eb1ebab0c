package repositories

import (
	"time"

	"github.com/gatherly-app/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationRepository defines the interface for notification operations.
// Every read and write is scoped to the owning user; ids that belong to
// someone else simply match no rows.
type NotificationRepository interface {
	CreateNotification(notification *models.Notification) error
	GetByUserID(userID uint) ([]models.Notification, error)
	GetByIDs(userID uint, ids []string) ([]models.Notification, error)
	GetUnreadCount(userID uint) (int64, error)
	MarkRead(userID uint, ids []string) error
	DeleteNotifications(userID uint, ids []string) error
}

type postgresNotificationRepository struct {
	db *gorm.DB
}

func NewPostgresNotificationRepository(db *gorm.DB) NotificationRepository {
	return &postgresNotificationRepository{db: db}
}

func (r *postgresNotificationRepository) CreateNotification(notification *models.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	return r.db.Create(notification).Error
}

func (r *postgresNotificationRepository) GetByUserID(userID uint) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&notifications).Error
	return notifications, err
}

func (r *postgresNotificationRepository) GetByIDs(userID uint, ids []string) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.db.Where("user_id = ? AND id IN ?", userID, ids).
		Find(&notifications).Error
	return notifications, err
}

func (r *postgresNotificationRepository) GetUnreadCount(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).Where("user_id = ? AND read = false", userID).Count(&count).Error
	return count, err
}

func (r *postgresNotificationRepository) MarkRead(userID uint, ids []string) error {
	return r.db.Model(&models.Notification{}).
		Where("user_id = ? AND id IN ?", userID, ids).
		Updates(map[string]interface{}{"read": true, "updated_at": time.Now()}).Error
}

func (r *postgresNotificationRepository) DeleteNotifications(userID uint, ids []string) error {
	return r.db.Where("user_id = ? AND id IN ?", userID, ids).
		Delete(&models.Notification{}).Error
}
