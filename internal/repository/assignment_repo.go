package repository

import (
	"context"
	"errors"
	"work-allocation/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AssignmentRepository interface {
	Upsert(ctx context.Context, assignment *models.Assignment) (bool, error)
	CreateBatch(ctx context.Context, assignments []models.Assignment) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.Assignment, error)
	GetByPlanAndWorker(ctx context.Context, planID, workerID string) (*models.Assignment, error)
	GetByPlanID(ctx context.Context, planID string) ([]*models.Assignment, error)
	GetAll(ctx context.Context) ([]*models.Assignment, error)
	CountByPlanAndWorker(ctx context.Context, planID, workerID string) (int64, error)
}

type GormAssignmentRepository struct {
	db     *gorm.DB
	logger *logrus.Entry
}

func NewGormAssignmentRepository(db *gorm.DB, logger *logrus.Logger) *GormAssignmentRepository {
	return &GormAssignmentRepository{
		db:     db,
		logger: logger.WithField("repo", "assignments"),
	}
}

func withAssignmentRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Plan").Preload("Worker.OriginalPost").Preload("Post")
}

// Upsert создает или перезаписывает назначение для пары (plan, worker).
// Конфликт уникального индекса решается на стороне базы, поэтому параллельные
// вызовы оставляют одну строку. Возвращает true, если строка была создана.
func (r *GormAssignmentRepository) Upsert(ctx context.Context, assignment *models.Assignment) (bool, error) {
	existing, err := r.GetByPlanAndWorker(ctx, assignment.PlanID, assignment.WorkerID)
	if err != nil {
		return false, err
	}

	result := r.db.WithContext(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "plan_id"}, {Name: "worker_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"post_id", "assigned_by", "updated_at"}),
	}).Create(assignment)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to upsert assignment")
		return false, result.Error
	}

	stored, err := r.GetByPlanAndWorker(ctx, assignment.PlanID, assignment.WorkerID)
	if err != nil {
		return false, err
	}
	if stored == nil {
		return false, gorm.ErrRecordNotFound
	}
	*assignment = *stored

	r.logger.WithFields(logrus.Fields{
		"assignment_id": assignment.ID,
		"plan_id":       assignment.PlanID,
		"worker_id":     assignment.WorkerID,
		"post_id":       assignment.PostID,
		"created":       existing == nil,
	}).Info("Assignment saved")
	return existing == nil, nil
}

func (r *GormAssignmentRepository) CreateBatch(ctx context.Context, assignments []models.Assignment) error {
	if len(assignments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).CreateInBatches(&assignments, 100).Error
}

func (r *GormAssignmentRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Assignment{})
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to delete assignment")
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	r.logger.WithField("assignment_id", id).Info("Assignment deleted")
	return nil
}

func (r *GormAssignmentRepository) GetByID(ctx context.Context, id string) (*models.Assignment, error) {
	var assignment models.Assignment
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&assignment)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get assignment by ID")
		return nil, result.Error
	}

	return &assignment, nil
}

func (r *GormAssignmentRepository) GetByPlanAndWorker(ctx context.Context, planID, workerID string) (*models.Assignment, error) {
	var assignment models.Assignment
	result := withAssignmentRelations(r.db.WithContext(ctx)).
		Where("plan_id = ? AND worker_id = ?", planID, workerID).
		First(&assignment)

	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get assignment by plan and worker")
		return nil, result.Error
	}

	return &assignment, nil
}

func (r *GormAssignmentRepository) GetByPlanID(ctx context.Context, planID string) ([]*models.Assignment, error) {
	var assignments []*models.Assignment
	result := withAssignmentRelations(r.db.WithContext(ctx)).
		Where("plan_id = ?", planID).
		Order("assigned_at DESC").
		Find(&assignments)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get assignments by plan")
		return nil, result.Error
	}

	return assignments, nil
}

func (r *GormAssignmentRepository) GetAll(ctx context.Context) ([]*models.Assignment, error) {
	var assignments []*models.Assignment
	result := withAssignmentRelations(r.db.WithContext(ctx)).Order("assigned_at DESC").Find(&assignments)
	if result.Error != nil {
		r.logger.WithError(result.Error).Error("Failed to get all assignments")
		return nil, result.Error
	}

	return assignments, nil
}

func (r *GormAssignmentRepository) CountByPlanAndWorker(ctx context.Context, planID, workerID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Assignment{}).
		Where("plan_id = ? AND worker_id = ?", planID, workerID).
		Count(&count).Error
	return count, err
}
