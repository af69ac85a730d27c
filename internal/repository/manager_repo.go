package repository

import (
	"context"
	"errors"
	"work-allocation/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type ManagerRepository interface {
	Create(ctx context.Context, manager *models.Manager) error
	GetByUsername(ctx context.Context, username string) (*models.Manager, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
}

type GormManagerRepository struct {
	db     *gorm.DB
	logger *logrus.Entry
}

func NewGormManagerRepository(db *gorm.DB, logger *logrus.Logger) *GormManagerRepository {
	return &GormManagerRepository{
		db:     db,
		logger: logger.WithField("repo", "managers"),
	}
}

func (r *GormManagerRepository) Create(ctx context.Context, manager *models.Manager) error {
	if err := r.db.WithContext(ctx).Create(manager).Error; err != nil {
		r.logger.WithError(err).Error("Failed to create manager")
		return err
	}

	r.logger.WithField("username", manager.Username).Info("Manager registered")
	return nil
}

func (r *GormManagerRepository) GetByUsername(ctx context.Context, username string) (*models.Manager, error) {
	var manager models.Manager
	result := r.db.WithContext(ctx).Where("username = ?", username).First(&manager)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}

	return &manager, nil
}

func (r *GormManagerRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Manager{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}

	return count > 0, nil
}
