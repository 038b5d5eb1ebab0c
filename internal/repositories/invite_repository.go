package repositories

import (
	"fmt"

	"github.com/gatherly-app/backend/internal/models"
	"gorm.io/gorm"
)

// InviteRepository defines the interface for invite data operations
type InviteRepository interface {
	CreateInvite(invite *models.Invite) error
	GetInviteByID(id uint) (*models.Invite, error)
	GetInvitesByEventID(eventID uint) ([]models.Invite, error)
	GetInvitesForUser(userID uint) ([]models.Invite, error)
	HasInvite(eventID, userID uint) (bool, error)
	UpdateInvite(invite *models.Invite) error
	DeleteInvite(id uint) error
}

// PostgresInviteRepository implements InviteRepository for PostgreSQL
type PostgresInviteRepository struct {
	db *gorm.DB
}

// NewPostgresInviteRepository creates a new PostgresInviteRepository
func NewPostgresInviteRepository(db *gorm.DB) *PostgresInviteRepository {
	return &PostgresInviteRepository{db: db}
}

func (r *PostgresInviteRepository) CreateInvite(invite *models.Invite) error {
	return r.db.Create(invite).Error
}

func (r *PostgresInviteRepository) GetInviteByID(id uint) (*models.Invite, error) {
	var invite models.Invite
	if err := r.db.First(&invite, id).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

func (r *PostgresInviteRepository) GetInvitesByEventID(eventID uint) ([]models.Invite, error) {
	var invites []models.Invite
	err := r.db.Where("event_id = ?", eventID).Find(&invites).Error
	return invites, err
}

func (r *PostgresInviteRepository) GetInvitesForUser(userID uint) ([]models.Invite, error) {
	var invites []models.Invite
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&invites).Error
	return invites, err
}

func (r *PostgresInviteRepository) HasInvite(eventID, userID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Invite{}).Where("event_id = ? AND user_id = ?", eventID, userID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresInviteRepository) UpdateInvite(invite *models.Invite) error {
	return r.db.Save(invite).Error
}

func (r *PostgresInviteRepository) DeleteInvite(id uint) error {
	res := r.db.Delete(&models.Invite{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("invite not found")
	}
	return nil
}
