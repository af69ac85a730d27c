package service

import (
	"context"
	"strings"
	"time"
	"work-allocation/internal/apperr"
	"work-allocation/internal/events"
	"work-allocation/internal/metrics"
	"work-allocation/internal/models"
	"work-allocation/internal/repository"

	"github.com/sirupsen/logrus"
)

type WorkerService struct {
	store   *repository.Store
	events  broadcaster
	metrics *metrics.Recorder
	logger  *logrus.Logger
}

type WorkerInput struct {
	Anciennete     string
	Name           string
	Type           models.WorkerType
	OriginalPostID string
}

// WorkerPatch - частичное изменение работника. nil поля не меняются.
type WorkerPatch struct {
	Anciennete     *string
	Name           *string
	Type           *models.WorkerType
	OriginalPostID *string
}

func NewWorkerService(store *repository.Store, publisher events.Publisher, opts ...Option) *WorkerService {
	o := buildOptions(opts)
	return &WorkerService{
		store:   store,
		events:  o.broadcaster(publisher),
		metrics: o.metrics,
		logger:  o.logger,
	}
}

// CreateWorker создает работника. Тип должен быть типом происхождения,
// исходный пост должен существовать.
func (s *WorkerService) CreateWorker(ctx context.Context, in WorkerInput) (_ *models.Worker, err error) {
	defer observe(s.metrics, "create_worker", time.Now(), &err)

	worker := &models.Worker{
		Anciennete:     strings.TrimSpace(in.Anciennete),
		Name:           strings.TrimSpace(in.Name),
		Type:           in.Type,
		OriginalPostID: strings.TrimSpace(in.OriginalPostID),
	}
	if err := validateWorker(worker); err != nil {
		s.logger.WithField("name", worker.Name).Warn("Invalid worker data")
		return nil, err
	}
	if err := s.requirePost(ctx, worker.OriginalPostID); err != nil {
		return nil, err
	}

	if err := s.store.Workers.Create(ctx, worker); err != nil {
		return nil, storeErr("create worker", err)
	}

	return s.GetWorker(ctx, worker.ID)
}

// UpdateWorker применяет частичные изменения. Смена исходного поста
// рассылается клиентам отдельным событием.
func (s *WorkerService) UpdateWorker(ctx context.Context, id string, patch WorkerPatch) (_ *models.Worker, err error) {
	defer observe(s.metrics, "update_worker", time.Now(), &err)

	worker, err := s.GetWorker(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *worker

	if patch.Anciennete != nil {
		worker.Anciennete = strings.TrimSpace(*patch.Anciennete)
	}
	if patch.Name != nil {
		worker.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Type != nil {
		worker.Type = *patch.Type
	}
	if patch.OriginalPostID != nil {
		worker.OriginalPostID = strings.TrimSpace(*patch.OriginalPostID)
	}
	if err := validateWorker(worker); err != nil {
		return nil, err
	}

	postChanged := worker.OriginalPostID != before.OriginalPostID
	if postChanged {
		if err := s.requirePost(ctx, worker.OriginalPostID); err != nil {
			return nil, err
		}
	}

	worker.OriginalPost = nil
	if err := s.store.Workers.Update(ctx, worker); err != nil {
		return nil, storeErr("update worker", err)
	}

	updated, err := s.GetWorker(ctx, id)
	if err != nil {
		return nil, err
	}

	if postChanged {
		s.logger.WithFields(logrus.Fields{
			"worker_id":    id,
			"from_post_id": before.OriginalPostID,
			"to_post_id":   updated.OriginalPostID,
		}).Info("Worker original post changed")
		s.events.emit(ctx, events.WorkerOriginalPostUpdated, WorkerEvent{Worker: updated})
	}
	if updated.Type != before.Type {
		s.events.emit(ctx, events.WorkerTypeChanged, WorkerEvent{Worker: updated})
	}
	return updated, nil
}

// DeleteWorker удаляет работника с его назначениями и присутствиями
func (s *WorkerService) DeleteWorker(ctx context.Context, id string) (err error) {
	defer observe(s.metrics, "delete_worker", time.Now(), &err)

	if _, err := s.GetWorker(ctx, id); err != nil {
		return err
	}
	if err := s.store.Workers.Delete(ctx, id); err != nil {
		return storeErr("delete worker", err)
	}
	return nil
}

// ListWorkers возвращает работников по старшинству
func (s *WorkerService) ListWorkers(ctx context.Context) ([]*models.Worker, error) {
	workers, err := s.store.Workers.GetAll(ctx)
	if err != nil {
		return nil, storeErr("list workers", err)
	}
	return workers, nil
}

// ListWorkersWithAssignments дополняет список назначениями с постами, для выгрузки
func (s *WorkerService) ListWorkersWithAssignments(ctx context.Context) ([]*models.Worker, error) {
	workers, err := s.store.Workers.GetAllWithAssignments(ctx)
	if err != nil {
		return nil, storeErr("list workers with assignments", err)
	}
	return workers, nil
}

func (s *WorkerService) GetWorker(ctx context.Context, id string) (*models.Worker, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperr.Validation("worker id is required", "id")
	}
	worker, err := s.store.Workers.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get worker", err)
	}
	if worker == nil {
		return nil, apperr.NotFound("worker", id)
	}
	return worker, nil
}

func (s *WorkerService) requirePost(ctx context.Context, id string) error {
	exists, err := s.store.Posts.Exists(ctx, id)
	if err != nil {
		return storeErr("get post", err)
	}
	if !exists {
		return apperr.NotFound("post", id)
	}
	return nil
}

func validateWorker(w *models.Worker) error {
	fields := missing(
		field{"anciennete", w.Anciennete},
		field{"name", w.Name},
		field{"originalPostId", w.OriginalPostID},
	)
	if len(fields) > 0 {
		return apperr.Validation("anciennete, name and originalPostId are required", fields...)
	}
	if !w.Type.IsOrigin() {
		return apperr.Validation("worker type must be one of the 6 origin types", "type")
	}
	return nil
}
