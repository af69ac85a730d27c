package service

import (
	"context"
	"testing"
	"work-allocation/internal/apperr"
	"work-allocation/internal/events"
	"work-allocation/internal/models"
	"work-allocation/internal/repository/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateWorker(t *testing.T) {
	store := repotest.Open(t)
	fx := repotest.NewFixtures(t, store)
	svc := NewWorkerService(store, events.NewRecorder(), WithLogger(repotest.Logger()))
	ctx := context.Background()
	post := fx.Post("Quai 1")

	worker, err := svc.CreateWorker(ctx, WorkerInput{
		Anciennete:     "0042",
		Name:           " Alice ",
		Type:           models.TypeOccasionelDuJour,
		OriginalPostID: post.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", worker.Name)
	require.NotNil(t, worker.OriginalPost)
	assert.Equal(t, "Quai 1", worker.OriginalPost.Name)

	tests := []struct {
		name string
		in   WorkerInput
		kind apperr.Kind
	}{
		{"missing name", WorkerInput{Anciennete: "1", Type: models.TypePermanentJour, OriginalPostID: post.ID}, apperr.KindValidation},
		{"presence-only type", WorkerInput{Anciennete: "1", Name: "B", Type: models.TypeAbsent, OriginalPostID: post.ID}, apperr.KindValidation},
		{"unknown post", WorkerInput{Anciennete: "1", Name: "B", Type: models.TypePermanentJour, OriginalPostID: "nope"}, apperr.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateWorker(ctx, tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}
}

func TestUpdateWorkerEmitsOriginalPostChange(t *testing.T) {
	store := repotest.Open(t)
	fx := repotest.NewFixtures(t, store)
	recorder := events.NewRecorder()
	svc := NewWorkerService(store, recorder, WithLogger(repotest.Logger()))
	ctx := context.Background()
	p1 := fx.Post("P1")
	p2 := fx.Post("P2")
	w := fx.Worker("Alice", models.TypePermanentJour, p1)

	name := "Alice B."
	updated, err := svc.UpdateWorker(ctx, w.ID, WorkerPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Alice B.", updated.Name)
	assert.Empty(t, recorder.Events())

	updated, err = svc.UpdateWorker(ctx, w.ID, WorkerPatch{OriginalPostID: &p2.ID})
	require.NoError(t, err)
	assert.Equal(t, p2.ID, updated.OriginalPostID)
	assert.Equal(t, []string{events.WorkerOriginalPostUpdated}, recorder.Names())

	bad := models.TypeVacances
	_, err = svc.UpdateWorker(ctx, w.ID, WorkerPatch{Type: &bad})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	missingPost := "nope"
	_, err = svc.UpdateWorker(ctx, w.ID, WorkerPatch{OriginalPostID: &missingPost})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDeleteWorkerRemovesPlanRows(t *testing.T) {
	store := repotest.Open(t)
	fx := repotest.NewFixtures(t, store)
	recorder := events.NewRecorder()
	rec := NewReconciler(store, recorder, WithLogger(repotest.Logger()))
	svc := NewWorkerService(store, recorder, WithLogger(repotest.Logger()))
	ctx := context.Background()
	post := fx.Post("P1")
	w := fx.Worker("Alice", models.TypePermanentJour, post)

	plan, err := rec.CreatePlan(ctx, PlanInput{Name: "Lundi"})
	require.NoError(t, err)
	_, _, err = rec.AssignWorkerToPost(ctx, AssignInput{PlanID: plan.ID, WorkerID: w.ID, PostID: post.ID})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteWorker(ctx, w.ID))

	reloaded, err := rec.GetPlan(ctx, plan.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.Assignments)
	assert.Empty(t, reloaded.WorkerPresences)

	assert.True(t, apperr.Is(svc.DeleteWorker(ctx, w.ID), apperr.KindNotFound))
}

func TestListWorkersOrderedBySeniority(t *testing.T) {
	store := repotest.Open(t)
	fx := repotest.NewFixtures(t, store)
	svc := NewWorkerService(store, nil, WithLogger(repotest.Logger()))
	post := fx.Post("P1")
	fx.Worker("Zoé", models.TypePermanentJour, post)
	fx.Worker("Adam", models.TypePermanentSoir, post)

	workers, err := svc.ListWorkers(context.Background())
	require.NoError(t, err)
	require.Len(t, workers, 2)
	assert.Equal(t, "Adam", workers[0].Name)
}
