package repository_test

import (
	"context"
	"testing"
	"time"
	"work-allocation/internal/models"
	"work-allocation/internal/repository"
	"work-allocation/internal/repository/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignmentUpsertKeepsOneRow(t *testing.T) {
	ctx := context.Background()
	store := repotest.Open(t)
	fx := repotest.NewFixtures(t, store)

	p1 := fx.Post("Quai 1")
	p2 := fx.Post("Quai 2")
	w := fx.Worker("Martin", models.TypePermanentJour, p1)
	plan := &models.Plan{Name: "Lundi", CreatedAt: time.Now().UTC()}
	require.NoError(t, store.Plans.Create(ctx, plan))

	first := &models.Assignment{PlanID: plan.ID, WorkerID: w.ID, PostID: p1.ID}
	created, err := store.Assignments.Upsert(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)

	second := &models.Assignment{PlanID: plan.ID, WorkerID: w.ID, PostID: p2.ID}
	created, err = store.Assignments.Upsert(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, p2.ID, second.PostID)
	require.NotNil(t, second.Post)
	assert.Equal(t, "Quai 2", second.Post.Name)

	count, err := store.Assignments.CountByPlanAndWorker(ctx, plan.ID, w.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestPresenceUpsertKeepsOneRow(t *testing.T) {
	ctx := context.Background()
	store := repotest.Open(t)
	fx := repotest.NewFixtures(t, store)

	post := fx.Post("Tri")
	w := fx.Worker("Durand", models.TypePermanentSoir, post)
	plan := &models.Plan{Name: "Mardi", CreatedAt: time.Now().UTC()}
	require.NoError(t, store.Plans.Create(ctx, plan))

	for _, typ := range []models.WorkerType{models.TypeAbsent, models.TypeVacances} {
		require.NoError(t, store.Presences.Upsert(ctx, &models.WorkerPresence{
			PlanID: plan.ID, WorkerID: w.ID, Type: typ,
		}))
	}

	count, err := store.Presences.CountByPlanAndWorker(ctx, plan.ID, w.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	stored, err := store.Presences.GetByPlanAndWorker(ctx, plan.ID, w.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, models.TypeVacances, stored.Type)
}

func TestDeleteByCreatedRangeIsInclusive(t *testing.T) {
	ctx := context.Background()
	store := repotest.Open(t)

	day := func(d int) time.Time { return time.Date(2025, time.January, d, 0, 0, 0, 0, time.UTC) }
	for _, d := range []int{1, 2, 5, 9, 10} {
		require.NoError(t, store.Plans.Create(ctx, &models.Plan{Name: day(d).Format("2006-01-02"), CreatedAt: day(d)}))
	}

	deleted, err := store.Plans.DeleteByCreatedRange(ctx, day(2), day(9))
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	left, err := store.Plans.GetAll(ctx)
	require.NoError(t, err)
	var names []string
	for _, p := range left {
		names = append(names, p.Name)
	}
	assert.ElementsMatch(t, []string{"2025-01-01", "2025-01-10"}, names)
}

func TestDeletePostRemovesAssignments(t *testing.T) {
	ctx := context.Background()
	store := repotest.Open(t)
	fx := repotest.NewFixtures(t, store)

	home := fx.Post("Accueil")
	extra := fx.Post("Renfort")
	w := fx.Worker("Petit", models.TypeMobiliteDuJour, home)
	plan := &models.Plan{Name: "Mercredi", CreatedAt: time.Now().UTC()}
	require.NoError(t, store.Plans.Create(ctx, plan))
	_, err := store.Assignments.Upsert(ctx, &models.Assignment{PlanID: plan.ID, WorkerID: w.ID, PostID: extra.ID})
	require.NoError(t, err)

	removed, err := store.Posts.Delete(ctx, extra.ID)
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, w.ID, removed[0].WorkerID)

	left, err := store.Assignments.GetByPlanID(ctx, plan.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestWorkerOriginalPostIsRestricted(t *testing.T) {
	ctx := context.Background()
	store := repotest.Open(t)
	fx := repotest.NewFixtures(t, store)

	post := fx.Post("Caisse")
	fx.Worker("Leroy", models.TypeOccasionelSoir, post)

	_, err := store.Posts.Delete(ctx, post.ID)
	require.Error(t, err)

	still, err := store.Posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.NotNil(t, still)
}

func TestWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	store := repotest.Open(t)

	err := store.WithTx(ctx, func(tx *repository.Store) error {
		if err := tx.Plans.Create(ctx, &models.Plan{Name: "Rollback", CreatedAt: time.Now().UTC()}); err != nil {
			return err
		}
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	plans, err := store.Plans.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, plans)
}

func TestPing(t *testing.T) {
	store := repotest.Open(t)
	require.NoError(t, store.Ping(context.Background()))

	require.NoError(t, store.Close())
	assert.Error(t, store.Ping(context.Background()))
}
