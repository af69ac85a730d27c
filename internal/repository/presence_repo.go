package repository

import (
	"context"
	"errors"
	"work-allocation/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WorkerPresenceRepository interface {
	Upsert(ctx context.Context, presence *models.WorkerPresence) error
	CreateBatch(ctx context.Context, presences []models.WorkerPresence) error
	GetByPlanAndWorker(ctx context.Context, planID, workerID string) (*models.WorkerPresence, error)
	GetByPlanID(ctx context.Context, planID string) ([]*models.WorkerPresence, error)
	CountByPlanAndWorker(ctx context.Context, planID, workerID string) (int64, error)
}

type GormWorkerPresenceRepository struct {
	db     *gorm.DB
	logger *logrus.Entry
}

func NewGormWorkerPresenceRepository(db *gorm.DB, logger *logrus.Logger) *GormWorkerPresenceRepository {
	return &GormWorkerPresenceRepository{
		db:     db,
		logger: logger.WithField("repo", "worker_presences"),
	}
}

// Upsert записывает присутствие для пары (plan, worker), не создавая дубликатов
func (r *GormWorkerPresenceRepository) Upsert(ctx context.Context, presence *models.WorkerPresence) error {
	result := r.db.WithContext(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "plan_id"}, {Name: "worker_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"type", "updated_at"}),
	}).Create(presence)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to upsert worker presence")
		return result.Error
	}

	stored, err := r.GetByPlanAndWorker(ctx, presence.PlanID, presence.WorkerID)
	if err != nil {
		return err
	}
	if stored == nil {
		return gorm.ErrRecordNotFound
	}
	*presence = *stored

	r.logger.WithFields(logrus.Fields{
		"plan_id":   presence.PlanID,
		"worker_id": presence.WorkerID,
		"type":      presence.Type,
	}).Info("Worker presence saved")
	return nil
}

func (r *GormWorkerPresenceRepository) CreateBatch(ctx context.Context, presences []models.WorkerPresence) error {
	if len(presences) == 0 {
		return nil
	}

	result := r.db.WithContext(ctx).Omit(clause.Associations).CreateInBatches(&presences, 100)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to create worker presences")
		return result.Error
	}

	r.logger.WithField("count", len(presences)).Debug("Worker presences created")
	return nil
}

func (r *GormWorkerPresenceRepository) GetByPlanAndWorker(ctx context.Context, planID, workerID string) (*models.WorkerPresence, error) {
	var presence models.WorkerPresence
	result := r.db.WithContext(ctx).
		Preload("Worker.OriginalPost").
		Where("plan_id = ? AND worker_id = ?", planID, workerID).
		First(&presence)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get worker presence")
		return nil, result.Error
	}

	return &presence, nil
}

func (r *GormWorkerPresenceRepository) GetByPlanID(ctx context.Context, planID string) ([]*models.WorkerPresence, error) {
	var presences []*models.WorkerPresence
	result := r.db.WithContext(ctx).
		Preload("Worker.OriginalPost").
		Where("plan_id = ?", planID).
		Find(&presences)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get worker presences by plan")
		return nil, result.Error
	}

	return presences, nil
}

func (r *GormWorkerPresenceRepository) CountByPlanAndWorker(ctx context.Context, planID, workerID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.WorkerPresence{}).
		Where("plan_id = ? AND worker_id = ?", planID, workerID).
		Count(&count).Error
	return count, err
}
