package repository

import (
	"context"
	"errors"
	"work-allocation/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WorkerRepository interface {
	Create(ctx context.Context, worker *models.Worker) error
	Update(ctx context.Context, worker *models.Worker) error
	UpdateType(ctx context.Context, id string, workerType models.WorkerType) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.Worker, error)
	GetAll(ctx context.Context) ([]*models.Worker, error)
	GetAllWithAssignments(ctx context.Context) ([]*models.Worker, error)
	CountByOriginalPost(ctx context.Context, postID string) (int64, error)
	GetByOriginalPost(ctx context.Context, postID string) ([]*models.Worker, error)
	ReassignOriginalPost(ctx context.Context, fromPostID, toPostID string) (int64, error)
}

type GormWorkerRepository struct {
	db     *gorm.DB
	logger *logrus.Entry
}

func NewGormWorkerRepository(db *gorm.DB, logger *logrus.Logger) *GormWorkerRepository {
	return &GormWorkerRepository{
		db:     db,
		logger: logger.WithField("repo", "workers"),
	}
}

func (r *GormWorkerRepository) Create(ctx context.Context, worker *models.Worker) error {
	result := r.db.WithContext(ctx).Omit(clause.Associations).Create(worker)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to create worker")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"worker_id": worker.ID,
		"type":      worker.Type,
		"post_id":   worker.OriginalPostID,
	}).Info("Worker created")
	return nil
}

func (r *GormWorkerRepository) Update(ctx context.Context, worker *models.Worker) error {
	result := r.db.WithContext(ctx).Model(&models.Worker{ID: worker.ID}).
		Select("anciennete", "name", "type", "original_post_id").
		Updates(worker)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to update worker")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	r.logger.WithField("worker_id", worker.ID).Info("Worker updated")
	return nil
}

func (r *GormWorkerRepository) UpdateType(ctx context.Context, id string, workerType models.WorkerType) error {
	result := r.db.WithContext(ctx).Model(&models.Worker{}).
		Where("id = ?", id).
		Update("type", workerType)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to update worker type")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	r.logger.WithFields(logrus.Fields{
		"worker_id": id,
		"type":      workerType,
	}).Info("Worker type updated")
	return nil
}

// Delete удаляет работника вместе с его назначениями и присутствиями
func (r *GormWorkerRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("worker_id = ?", id).Delete(&models.Assignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("worker_id = ?", id).Delete(&models.WorkerPresence{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.Worker{})
		if result.Error != nil {
			r.logger.WithError(result.Error).Error("Failed to delete worker")
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		r.logger.WithField("worker_id", id).Info("Worker deleted")
		return nil
	})
}

func (r *GormWorkerRepository) GetByID(ctx context.Context, id string) (*models.Worker, error) {
	var worker models.Worker
	result := r.db.WithContext(ctx).Preload("OriginalPost").Where("id = ?", id).First(&worker)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithField("worker_id", id).Debug("Worker not found")
		return nil, nil
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get worker by ID")
		return nil, result.Error
	}

	return &worker, nil
}

func (r *GormWorkerRepository) GetAll(ctx context.Context) ([]*models.Worker, error) {
	var workers []*models.Worker
	result := r.db.WithContext(ctx).Preload("OriginalPost").Order("anciennete ASC, name ASC").Find(&workers)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get all workers")
		return nil, result.Error
	}

	r.logger.WithField("count", len(workers)).Debug("Retrieved all workers")
	return workers, nil
}

func (r *GormWorkerRepository) GetAllWithAssignments(ctx context.Context) ([]*models.Worker, error) {
	var workers []*models.Worker
	result := r.db.WithContext(ctx).
		Preload("OriginalPost").
		Preload("Assignments", func(db *gorm.DB) *gorm.DB {
			return db.Order("assigned_at DESC")
		}).
		Preload("Assignments.Post").
		Order("anciennete ASC, name ASC").
		Find(&workers)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get workers with assignments")
		return nil, result.Error
	}

	return workers, nil
}

func (r *GormWorkerRepository) CountByOriginalPost(ctx context.Context, postID string) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Worker{}).
		Where("original_post_id = ?", postID).
		Count(&count)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to count workers by original post")
		return 0, result.Error
	}

	return count, nil
}

func (r *GormWorkerRepository) GetByOriginalPost(ctx context.Context, postID string) ([]*models.Worker, error) {
	var workers []*models.Worker
	err := r.db.WithContext(ctx).Where("original_post_id = ?", postID).
		Order("anciennete ASC").
		Find(&workers).Error
	return workers, err
}

func (r *GormWorkerRepository) ReassignOriginalPost(ctx context.Context, fromPostID, toPostID string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Worker{}).
		Where("original_post_id = ?", fromPostID).
		Update("original_post_id", toPostID)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to reassign original post")
		return 0, result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"from_post_id": fromPostID,
		"to_post_id":   toPostID,
		"count":        result.RowsAffected,
	}).Info("Workers reassigned to another original post")
	return result.RowsAffected, nil
}
