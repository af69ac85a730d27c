package repository

import (
	"context"
	"errors"
	"time"
	"work-allocation/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PlanRepository interface {
	Create(ctx context.Context, plan *models.Plan) error
	Update(ctx context.Context, plan *models.Plan) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.Plan, error)
	GetWithRelations(ctx context.Context, id string) (*models.Plan, error)
	GetAll(ctx context.Context) ([]*models.Plan, error)
	GetByCreatedRange(ctx context.Context, from, to time.Time) ([]*models.Plan, error)
	DeleteByCreatedRange(ctx context.Context, from, to time.Time) (int64, error)
}

type GormPlanRepository struct {
	db     *gorm.DB
	logger *logrus.Entry
}

func NewGormPlanRepository(db *gorm.DB, logger *logrus.Logger) *GormPlanRepository {
	return &GormPlanRepository{
		db:     db,
		logger: logger.WithField("repo", "plans"),
	}
}

// withRelations подгружает назначения и присутствия вместе с работниками и постами
func withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Assignments", func(db *gorm.DB) *gorm.DB {
			return db.Order("assigned_at DESC")
		}).
		Preload("Assignments.Worker.OriginalPost").
		Preload("Assignments.Post").
		Preload("WorkerPresences.Worker.OriginalPost")
}

func (r *GormPlanRepository) Create(ctx context.Context, plan *models.Plan) error {
	result := r.db.WithContext(ctx).Omit(clause.Associations).Create(plan)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to create plan")
		return result.Error
	}

	r.logger.WithFields(logrus.Fields{
		"plan_id": plan.ID,
		"name":    plan.Name,
	}).Info("Plan created")
	return nil
}

func (r *GormPlanRepository) Update(ctx context.Context, plan *models.Plan) error {
	result := r.db.WithContext(ctx).Model(&models.Plan{ID: plan.ID}).
		Select("name", "date").
		Updates(plan)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to update plan")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	r.logger.WithField("plan_id", plan.ID).Info("Plan updated")
	return nil
}

// Delete удаляет план вместе с назначениями и присутствиями
func (r *GormPlanRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deletePlanChildren(tx, []string{id}); err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&models.Plan{})
		if result.Error != nil {
			r.logger.WithError(result.Error).Error("Failed to delete plan")
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		r.logger.WithField("plan_id", id).Info("Plan deleted")
		return nil
	})
}

func (r *GormPlanRepository) GetByID(ctx context.Context, id string) (*models.Plan, error) {
	var plan models.Plan
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&plan)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		r.logger.WithField("plan_id", id).Debug("Plan not found")
		return nil, nil
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get plan by ID")
		return nil, result.Error
	}

	return &plan, nil
}

func (r *GormPlanRepository) GetWithRelations(ctx context.Context, id string) (*models.Plan, error) {
	var plan models.Plan
	result := withRelations(r.db.WithContext(ctx)).Where("id = ?", id).First(&plan)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get plan with relations")
		return nil, result.Error
	}

	return &plan, nil
}

func (r *GormPlanRepository) GetAll(ctx context.Context) ([]*models.Plan, error) {
	var plans []*models.Plan
	result := withRelations(r.db.WithContext(ctx)).Order("created_at DESC").Find(&plans)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get all plans")
		return nil, result.Error
	}

	r.logger.WithField("count", len(plans)).Debug("Retrieved all plans")
	return plans, nil
}

// GetByCreatedRange возвращает планы, созданные в интервале [from, to], без связей
func (r *GormPlanRepository) GetByCreatedRange(ctx context.Context, from, to time.Time) ([]*models.Plan, error) {
	var plans []*models.Plan
	result := r.db.WithContext(ctx).
		Where("created_at >= ? AND created_at <= ?", from, to).
		Order("created_at ASC").
		Find(&plans)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get plans by range")
		return nil, result.Error
	}

	return plans, nil
}

// DeleteByCreatedRange удаляет планы, созданные в интервале [from, to], включая границы
func (r *GormPlanRepository) DeleteByCreatedRange(ctx context.Context, from, to time.Time) (int64, error) {
	var deleted int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&models.Plan{}).
			Where("created_at >= ? AND created_at <= ?", from, to).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		if err := deletePlanChildren(tx, ids); err != nil {
			return err
		}

		result := tx.Where("id IN ?", ids).Delete(&models.Plan{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return nil
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to delete plans by range")
		return 0, err
	}

	r.logger.WithFields(logrus.Fields{
		"from":  from.Format(time.RFC3339),
		"to":    to.Format(time.RFC3339),
		"count": deleted,
	}).Info("Plans deleted by range")
	return deleted, nil
}

func deletePlanChildren(tx *gorm.DB, planIDs []string) error {
	if err := tx.Where("plan_id IN ?", planIDs).Delete(&models.Assignment{}).Error; err != nil {
		return err
	}
	return tx.Where("plan_id IN ?", planIDs).Delete(&models.WorkerPresence{}).Error
}
