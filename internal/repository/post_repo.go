package repository

import (
	"context"
	"errors"
	"work-allocation/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id string) ([]models.Assignment, error)
	GetByID(ctx context.Context, id string) (*models.Post, error)
	GetAll(ctx context.Context) ([]*models.Post, error)
	Exists(ctx context.Context, id string) (bool, error)
}

type GormPostRepository struct {
	db     *gorm.DB
	logger *logrus.Entry
}

func NewGormPostRepository(db *gorm.DB, logger *logrus.Logger) *GormPostRepository {
	return &GormPostRepository{
		db:     db,
		logger: logger.WithField("repo", "posts"),
	}
}

func (r *GormPostRepository) Create(ctx context.Context, post *models.Post) error {
	result := r.db.WithContext(ctx).Omit(clause.Associations).Create(post)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to create post")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"post_id": post.ID,
		"name":    post.Name,
	}).Info("Post created")
	return nil
}

func (r *GormPostRepository) Update(ctx context.Context, post *models.Post) error {
	result := r.db.WithContext(ctx).Model(&models.Post{ID: post.ID}).
		Select("name", "description").
		Updates(post)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to update post")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	r.logger.WithField("post_id", post.ID).Info("Post updated")
	return nil
}

// Delete удаляет пост и назначения на него. Возвращает удаленные назначения,
// чтобы клиенты могли убрать их из своих планов.
func (r *GormPostRepository) Delete(ctx context.Context, id string) ([]models.Assignment, error) {
	var removed []models.Assignment

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Find(&removed).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Assignment{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.Post{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		r.logger.WithError(err).WithField("post_id", id).Error("Failed to delete post")
		return nil, err
	}

	r.logger.WithFields(logrus.Fields{
		"post_id":    id,
		"unassigned": len(removed),
	}).Info("Post deleted")
	return removed, nil
}

func (r *GormPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	result := r.db.WithContext(ctx).
		Preload("Assignments.Worker.OriginalPost").
		Where("id = ?", id).
		First(&post)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithField("post_id", id).Debug("Post not found")
		return nil, nil
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get post by ID")
		return nil, result.Error
	}

	return &post, nil
}

func (r *GormPostRepository) GetAll(ctx context.Context) ([]*models.Post, error) {
	var posts []*models.Post
	result := r.db.WithContext(ctx).
		Preload("Assignments.Worker.OriginalPost").
		Order("name ASC").
		Find(&posts)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get all posts")
		return nil, result.Error
	}

	r.logger.WithField("count", len(posts)).Debug("Retrieved all posts")
	return posts, nil
}

func (r *GormPostRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Count(&count)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to check post existence")
		return false, result.Error
	}

	return count > 0, nil
}
