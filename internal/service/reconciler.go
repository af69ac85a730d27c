package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"work-allocation/internal/apperr"
	"work-allocation/internal/events"
	"work-allocation/internal/metrics"
	"work-allocation/internal/models"
	"work-allocation/internal/repository"

	"github.com/sirupsen/logrus"
)

// Reconciler держит согласованными тип происхождения работника, его
// присутствие в плане и назначение на пост. После каждого коммита
// публикует одно событие в комнату.
type Reconciler struct {
	store   *repository.Store
	events  broadcaster
	now     func() time.Time
	metrics *metrics.Recorder
	logger  *logrus.Logger
}

// AssignInput - назначение работника на пост в плане
type AssignInput struct {
	PlanID     string
	WorkerID   string
	PostID     string
	AssignedBy *string
}

// PlanInput - параметры нового плана или копии
type PlanInput struct {
	Name      string
	Date      *time.Time
	CreatedBy *string
}

// PlanUpdate - частичное изменение плана. nil поля не меняются.
type PlanUpdate struct {
	Name *string
	Date *time.Time
}

func NewReconciler(store *repository.Store, publisher events.Publisher, opts ...Option) *Reconciler {
	o := buildOptions(opts)
	return &Reconciler{
		store:   store,
		events:  o.broadcaster(publisher),
		now:     o.now,
		metrics: o.metrics,
		logger:  o.logger,
	}
}

// SetSessionPresence записывает присутствие работника в плане.
// Тип работника не меняется, для этого есть RecategorizeWorker.
func (r *Reconciler) SetSessionPresence(ctx context.Context, planID, workerID string, presenceType models.WorkerType) (_ *models.WorkerPresence, err error) {
	defer observe(r.metrics, "set_session_presence", time.Now(), &err)

	if f := missing(field{"planId", planID}, field{"workerId", workerID}); len(f) > 0 {
		return nil, apperr.Validation("planId and workerId are required", f...)
	}
	if !presenceType.IsValid() {
		r.logger.WithFields(logrus.Fields{
			"plan_id":   planID,
			"worker_id": workerID,
			"type":      presenceType,
		}).Warn("Rejected unknown presence type")
		return nil, apperr.Validation(fmt.Sprintf("invalid worker type %q", presenceType), "type")
	}

	if _, err := r.requirePlan(ctx, planID); err != nil {
		return nil, err
	}
	if _, err := r.requireWorker(ctx, workerID); err != nil {
		return nil, err
	}

	presence := &models.WorkerPresence{PlanID: planID, WorkerID: workerID, Type: presenceType}
	if err := r.store.Presences.Upsert(ctx, presence); err != nil {
		return nil, storeErr("set presence", err)
	}

	r.logger.WithFields(logrus.Fields{
		"plan_id":   planID,
		"worker_id": workerID,
		"type":      presenceType,
	}).Info("Session presence updated")

	r.events.emit(ctx, events.WorkerPresenceUpdated, PresenceEvent{Presence: presence, PlanID: planID})
	return presence, nil
}

// RecategorizeWorker меняет постоянный тип работника. Присутствия в планах не трогает.
func (r *Reconciler) RecategorizeWorker(ctx context.Context, workerID string, originType models.WorkerType) (_ *models.Worker, err error) {
	defer observe(r.metrics, "recategorize_worker", time.Now(), &err)

	if strings.TrimSpace(workerID) == "" {
		return nil, apperr.Validation("workerId is required", "workerId")
	}
	if !originType.IsOrigin() {
		r.logger.WithFields(logrus.Fields{
			"worker_id": workerID,
			"type":      originType,
		}).Warn("Rejected non-origin worker type")
		return nil, apperr.Validation("worker type must be one of the 6 origin types", "type")
	}

	if _, err := r.requireWorker(ctx, workerID); err != nil {
		return nil, err
	}
	if err := r.store.Workers.UpdateType(ctx, workerID, originType); err != nil {
		return nil, storeErr("update worker type", err)
	}

	worker, err := r.requireWorker(ctx, workerID)
	if err != nil {
		return nil, err
	}

	r.events.emit(ctx, events.WorkerTypeChanged, WorkerEvent{Worker: worker})
	return worker, nil
}

// AssignWorkerToPost создает или перезаписывает назначение для пары (plan, worker).
// Второе значение сообщает, была ли создана новая строка.
func (r *Reconciler) AssignWorkerToPost(ctx context.Context, in AssignInput) (_ *models.Assignment, created bool, err error) {
	defer observe(r.metrics, "assign_worker", time.Now(), &err)

	if f := missing(
		field{"planId", in.PlanID},
		field{"workerId", in.WorkerID},
		field{"postId", in.PostID},
	); len(f) > 0 {
		return nil, false, apperr.Validation("planId, workerId and postId are required", f...)
	}

	if _, err := r.requirePlan(ctx, in.PlanID); err != nil {
		return nil, false, err
	}
	if _, err := r.requireWorker(ctx, in.WorkerID); err != nil {
		return nil, false, err
	}
	if err := r.requirePost(ctx, in.PostID); err != nil {
		return nil, false, err
	}

	assignment := &models.Assignment{
		PlanID:     in.PlanID,
		WorkerID:   in.WorkerID,
		PostID:     in.PostID,
		AssignedBy: in.AssignedBy,
	}
	created, err = r.store.Assignments.Upsert(ctx, assignment)
	if err != nil {
		return nil, false, storeErr("assign worker", err)
	}

	r.events.emit(ctx, events.WorkerAssigned, AssignmentEvent{Assignment: assignment, PlanID: in.PlanID})
	return assignment, created, nil
}

// UnassignWorker удаляет назначение и возвращает удалённую запись
func (r *Reconciler) UnassignWorker(ctx context.Context, assignmentID string) (_ *models.Assignment, err error) {
	defer observe(r.metrics, "unassign_worker", time.Now(), &err)

	if strings.TrimSpace(assignmentID) == "" {
		return nil, apperr.Validation("assignment id is required", "id")
	}

	assignment, err := r.store.Assignments.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, storeErr("get assignment", err)
	}
	if assignment == nil {
		return nil, apperr.NotFound("assignment", assignmentID)
	}

	if err := r.store.Assignments.Delete(ctx, assignmentID); err != nil {
		return nil, storeErr("delete assignment", err)
	}

	r.events.emit(ctx, events.WorkerUnassigned, UnassignmentEvent{AssignmentID: assignmentID, PlanID: assignment.PlanID})
	return assignment, nil
}

// CreatePlan создает план и в той же транзакции записывает присутствие
// каждого работника по его текущему типу
func (r *Reconciler) CreatePlan(ctx context.Context, in PlanInput) (_ *models.Plan, err error) {
	defer observe(r.metrics, "create_plan", time.Now(), &err)

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Validation("plan name is required", "name")
	}

	plan := &models.Plan{
		Name:      name,
		Date:      dateOnly(in.Date),
		CreatedBy: in.CreatedBy,
		CreatedAt: r.now().UTC(),
	}

	var seeded int
	err = r.store.WithTx(ctx, func(tx *repository.Store) error {
		if err := tx.Plans.Create(ctx, plan); err != nil {
			return err
		}

		workers, err := tx.Workers.GetAll(ctx)
		if err != nil {
			return err
		}

		presences := make([]models.WorkerPresence, 0, len(workers))
		for _, w := range workers {
			presences = append(presences, models.WorkerPresence{
				PlanID:   plan.ID,
				WorkerID: w.ID,
				Type:     w.Type,
			})
		}
		seeded = len(presences)
		return tx.Presences.CreateBatch(ctx, presences)
	})
	if err != nil {
		return nil, storeErr("create plan", err)
	}

	full, err := r.requirePlanWithRelations(ctx, plan.ID)
	if err != nil {
		return nil, err
	}

	r.logger.WithFields(logrus.Fields{
		"plan_id": plan.ID,
		"count":   seeded,
	}).Info("Plan created with seeded presences")

	r.events.emit(ctx, events.PlanCreated, PlanEvent{Plan: full})
	return full, nil
}

// CopyPlan создает план из существующего: присутствия берутся из исходного
// плана (или из текущего типа работника), назначения копируются как есть
func (r *Reconciler) CopyPlan(ctx context.Context, sourceID string, in PlanInput) (_ *models.Plan, err error) {
	defer observe(r.metrics, "copy_plan", time.Now(), &err)

	if strings.TrimSpace(sourceID) == "" {
		return nil, apperr.Validation("source plan id is required", "id")
	}

	var plan *models.Plan
	err = r.store.WithTx(ctx, func(tx *repository.Store) error {
		source, err := tx.Plans.GetWithRelations(ctx, sourceID)
		if err != nil {
			return err
		}
		if source == nil {
			return apperr.NotFound("plan", sourceID)
		}

		name := strings.TrimSpace(in.Name)
		if name == "" {
			name = source.Name + " (Copie)"
		}
		plan = &models.Plan{
			Name:      name,
			Date:      dateOnly(in.Date),
			CreatedBy: in.CreatedBy,
			CreatedAt: r.now().UTC(),
		}
		if err := tx.Plans.Create(ctx, plan); err != nil {
			return err
		}

		workers, err := tx.Workers.GetAll(ctx)
		if err != nil {
			return err
		}

		// Присутствие из исходного плана важнее текущего типа работника
		presences := make([]models.WorkerPresence, 0, len(workers))
		for _, w := range workers {
			presenceType, ok := source.PresenceOf(w.ID)
			if !ok {
				presenceType = w.Type
			}
			presences = append(presences, models.WorkerPresence{
				PlanID:   plan.ID,
				WorkerID: w.ID,
				Type:     presenceType,
			})
		}
		if err := tx.Presences.CreateBatch(ctx, presences); err != nil {
			return err
		}

		assignments := make([]models.Assignment, 0, len(source.Assignments))
		for _, a := range source.Assignments {
			assignments = append(assignments, models.Assignment{
				PlanID:     plan.ID,
				WorkerID:   a.WorkerID,
				PostID:     a.PostID,
				AssignedBy: a.AssignedBy,
			})
		}
		return tx.Assignments.CreateBatch(ctx, assignments)
	})
	if err != nil {
		return nil, storeErr("copy plan", err)
	}

	full, err := r.requirePlanWithRelations(ctx, plan.ID)
	if err != nil {
		return nil, err
	}

	r.logger.WithFields(logrus.Fields{
		"plan_id":        plan.ID,
		"source_plan_id": sourceID,
		"assignments":    len(full.Assignments),
	}).Info("Plan copied")

	r.events.emit(ctx, events.PlanCreated, PlanEvent{Plan: full})
	return full, nil
}

// DeletePlansInRange удаляет планы, созданные в [from, to] включительно,
// вместе с их назначениями и присутствиями. Возвращает число удалённых планов.
func (r *Reconciler) DeletePlansInRange(ctx context.Context, from, to time.Time) (_ int64, err error) {
	defer observe(r.metrics, "delete_plans_in_range", time.Now(), &err)

	if err := validateRange(from, to); err != nil {
		return 0, err
	}

	deleted, err := r.store.Plans.DeleteByCreatedRange(ctx, from.UTC(), to.UTC())
	if err != nil {
		return 0, storeErr("delete plans in range", err)
	}

	r.events.emit(ctx, events.PlanUpdated, PlansPurgedEvent{Deleted: deleted, From: from.UTC(), To: to.UTC()})
	return deleted, nil
}

// UpdatePlan меняет имя и/или дату плана
func (r *Reconciler) UpdatePlan(ctx context.Context, id string, in PlanUpdate) (_ *models.Plan, err error) {
	defer observe(r.metrics, "update_plan", time.Now(), &err)

	plan, err := r.requirePlan(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Validation("plan name must not be empty", "name")
		}
		plan.Name = name
	}
	if in.Date != nil {
		plan.Date = dateOnly(in.Date)
	}

	if err := r.store.Plans.Update(ctx, plan); err != nil {
		return nil, storeErr("update plan", err)
	}

	full, err := r.requirePlanWithRelations(ctx, id)
	if err != nil {
		return nil, err
	}

	r.events.emit(ctx, events.PlanUpdated, PlanEvent{Plan: full})
	return full, nil
}

// DeletePlan удаляет план с назначениями и присутствиями
func (r *Reconciler) DeletePlan(ctx context.Context, id string) (err error) {
	defer observe(r.metrics, "delete_plan", time.Now(), &err)

	if _, err := r.requirePlan(ctx, id); err != nil {
		return err
	}
	if err := r.store.Plans.Delete(ctx, id); err != nil {
		return storeErr("delete plan", err)
	}

	r.events.emit(ctx, events.PlanDeleted, PlanDeletedEvent{PlanID: id})
	return nil
}

// GetPlan возвращает план с назначениями и присутствиями
func (r *Reconciler) GetPlan(ctx context.Context, id string) (*models.Plan, error) {
	return r.requirePlanWithRelations(ctx, id)
}

// ListPlans возвращает все планы, новые первыми
func (r *Reconciler) ListPlans(ctx context.Context) ([]*models.Plan, error) {
	plans, err := r.store.Plans.GetAll(ctx)
	if err != nil {
		return nil, storeErr("list plans", err)
	}
	return plans, nil
}

// ListPlansInRange возвращает планы, созданные в [from, to], старые первыми
func (r *Reconciler) ListPlansInRange(ctx context.Context, from, to time.Time) ([]*models.Plan, error) {
	if err := validateRange(from, to); err != nil {
		return nil, err
	}

	plans, err := r.store.Plans.GetByCreatedRange(ctx, from.UTC(), to.UTC())
	if err != nil {
		return nil, storeErr("list plans in range", err)
	}
	return plans, nil
}

// EffectivePresence возвращает сохранённое присутствие или тип происхождения работника
func (r *Reconciler) EffectivePresence(ctx context.Context, planID, workerID string) (models.WorkerType, error) {
	if _, err := r.requirePlan(ctx, planID); err != nil {
		return "", err
	}
	worker, err := r.requireWorker(ctx, workerID)
	if err != nil {
		return "", err
	}

	presence, err := r.store.Presences.GetByPlanAndWorker(ctx, planID, workerID)
	if err != nil {
		return "", storeErr("get presence", err)
	}
	if presence == nil {
		return worker.Type, nil
	}
	return presence.Type, nil
}

// AutoAssign назначает каждого работника из видимых основных групп
// присутствия на его исходный пост. Пустой filter означает все группы.
func (r *Reconciler) AutoAssign(ctx context.Context, planID, filter string, assignedBy *string) (_ []*models.Assignment, err error) {
	defer observe(r.metrics, "auto_assign", time.Now(), &err)

	if strings.TrimSpace(planID) == "" {
		return nil, apperr.Validation("planId is required", "planId")
	}

	visible := models.VisibleMainTypes(filter)
	var saved []*models.Assignment

	err = r.store.WithTx(ctx, func(tx *repository.Store) error {
		plan, err := tx.Plans.GetByID(ctx, planID)
		if err != nil {
			return err
		}
		if plan == nil {
			return apperr.NotFound("plan", planID)
		}

		workers, err := tx.Workers.GetAll(ctx)
		if err != nil {
			return err
		}
		stored, err := tx.Presences.GetByPlanID(ctx, planID)
		if err != nil {
			return err
		}
		presence := make(map[string]models.WorkerType, len(stored))
		for _, p := range stored {
			presence[p.WorkerID] = p.Type
		}

		for _, w := range workers {
			t, ok := presence[w.ID]
			if !ok {
				t = w.Type
			}
			if !visible[t] {
				continue
			}

			a := &models.Assignment{
				PlanID:     planID,
				WorkerID:   w.ID,
				PostID:     w.OriginalPostID,
				AssignedBy: assignedBy,
			}
			if _, err := tx.Assignments.Upsert(ctx, a); err != nil {
				return err
			}
			saved = append(saved, a)
		}
		return nil
	})
	if err != nil {
		return nil, storeErr("auto assign", err)
	}

	r.logger.WithFields(logrus.Fields{
		"plan_id": planID,
		"filter":  filter,
		"count":   len(saved),
	}).Info("Workers auto-assigned to original posts")

	for _, a := range saved {
		r.events.emit(ctx, events.WorkerAssigned, AssignmentEvent{Assignment: a, PlanID: planID})
	}
	return saved, nil
}

// ListAssignments возвращает назначения плана или все, если planID пуст
func (r *Reconciler) ListAssignments(ctx context.Context, planID string) ([]*models.Assignment, error) {
	var (
		assignments []*models.Assignment
		err         error
	)
	if planID == "" {
		assignments, err = r.store.Assignments.GetAll(ctx)
	} else {
		assignments, err = r.store.Assignments.GetByPlanID(ctx, planID)
	}
	if err != nil {
		return nil, storeErr("list assignments", err)
	}
	return assignments, nil
}

func (r *Reconciler) requirePlan(ctx context.Context, id string) (*models.Plan, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperr.Validation("plan id is required", "planId")
	}
	plan, err := r.store.Plans.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get plan", err)
	}
	if plan == nil {
		return nil, apperr.NotFound("plan", id)
	}
	return plan, nil
}

func (r *Reconciler) requirePlanWithRelations(ctx context.Context, id string) (*models.Plan, error) {
	plan, err := r.store.Plans.GetWithRelations(ctx, id)
	if err != nil {
		return nil, storeErr("get plan", err)
	}
	if plan == nil {
		return nil, apperr.NotFound("plan", id)
	}
	return plan, nil
}

func (r *Reconciler) requireWorker(ctx context.Context, id string) (*models.Worker, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperr.Validation("worker id is required", "workerId")
	}
	worker, err := r.store.Workers.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get worker", err)
	}
	if worker == nil {
		return nil, apperr.NotFound("worker", id)
	}
	return worker, nil
}

func (r *Reconciler) requirePost(ctx context.Context, id string) error {
	exists, err := r.store.Posts.Exists(ctx, id)
	if err != nil {
		return storeErr("get post", err)
	}
	if !exists {
		return apperr.NotFound("post", id)
	}
	return nil
}

func validateRange(from, to time.Time) error {
	var fields []string
	if from.IsZero() {
		fields = append(fields, "start")
	}
	if to.IsZero() {
		fields = append(fields, "end")
	}
	if len(fields) > 0 {
		return apperr.Validation("start and end dates are required", fields...)
	}
	if from.After(to) {
		return apperr.Validation("start must not be after end", "start", "end")
	}
	return nil
}

// dateOnly отбрасывает время суток, дата плана хранится без времени
func dateOnly(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}
