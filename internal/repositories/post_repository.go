package repositories

import (
	"strings"

	"github.com/gatherly-app/backend/internal/models"
	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(post *models.Post, tagNames []string) error
	GetPostByID(id uint) (*models.Post, error)
	GetPostsByUserID(userID uint, offset, limit int) ([]models.Post, error)
	GetAllPosts(offset, limit int) ([]models.Post, error)
	GetPostsByTag(tagName string, offset, limit int) ([]models.Post, error)
	UpdatePost(post *models.Post, tagNames []string) error
	DeletePost(id uint) error
	IncrementCommentsCount(postID uint) error
	DecrementCommentsCount(postID uint) error
}

// PostgresPostRepository implements PostRepository for PostgreSQL
type PostgresPostRepository struct {
	db *gorm.DB
}

// NewPostgresPostRepository creates a new PostgresPostRepository
func NewPostgresPostRepository(db *gorm.DB) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

// resolveTags finds or creates tags for the given names. Names are
// normalized to lower case so "Go" and "go" share a tag row.
func (r *PostgresPostRepository) resolveTags(tx *gorm.DB, names []string) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(names))
	seen := make(map[string]bool)
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		var tag models.Tag
		if err := tx.Where(models.Tag{Name: name}).FirstOrCreate(&tag).Error; err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// CreatePost creates a new post and attaches its tags in one transaction
func (r *PostgresPostRepository) CreatePost(post *models.Post, tagNames []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		tags, err := r.resolveTags(tx, tagNames)
		if err != nil {
			return err
		}
		post.Tags = tags
		return tx.Create(post).Error
	})
}

// GetPostByID retrieves a post by ID with its tags preloaded
func (r *PostgresPostRepository) GetPostByID(id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.Preload("Tags").First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// GetPostsByUserID retrieves posts by a specific user, newest first
func (r *PostgresPostRepository) GetPostsByUserID(userID uint, offset, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.Preload("Tags").Where("user_id = ?", userID).
		Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&posts).Error
	return posts, err
}

// GetAllPosts retrieves all posts with pagination, newest first
func (r *PostgresPostRepository) GetAllPosts(offset, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.Preload("Tags").
		Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&posts).Error
	return posts, err
}

// GetPostsByTag retrieves posts labelled with the given tag name
func (r *PostgresPostRepository) GetPostsByTag(tagName string, offset, limit int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.Preload("Tags").
		Where("id IN (?)", r.db.Table("post_tags").
			Select("post_id").
			Where("tag_id IN (?)", r.db.Model(&models.Tag{}).Select("id").Where("name = ?", strings.ToLower(tagName))),
		).
		Order("created_at DESC").Offset(offset).Limit(limit).
		Find(&posts).Error
	return posts, err
}

// UpdatePost updates a post and replaces its tag associations
func (r *PostgresPostRepository) UpdatePost(post *models.Post, tagNames []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if tagNames != nil {
			tags, err := r.resolveTags(tx, tagNames)
			if err != nil {
				return err
			}
			if err := tx.Model(post).Association("Tags").Replace(tags); err != nil {
				return err
			}
		}
		return tx.Save(post).Error
	})
}

// DeletePost deletes a post and clears its tag associations
func (r *PostgresPostRepository) DeletePost(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Post{ID: id}).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, id).Error
	})
}

// IncrementCommentsCount increments the denormalized comment counter
func (r *PostgresPostRepository) IncrementCommentsCount(postID uint) error {
	return r.db.Model(&models.Post{}).Where("id = ?", postID).
		UpdateColumn("comments_count", gorm.Expr("comments_count + 1")).Error
}

// DecrementCommentsCount decrements the denormalized comment counter
func (r *PostgresPostRepository) DecrementCommentsCount(postID uint) error {
	return r.db.Model(&models.Post{}).Where("id = ? AND comments_count > 0", postID).
		UpdateColumn("comments_count", gorm.Expr("comments_count - 1")).Error
}
