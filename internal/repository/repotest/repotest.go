// Package repotest opens throwaway in-memory stores for tests.
package repotest

import (
	"context"
	"fmt"
	"io"
	"testing"
	"work-allocation/internal/models"
	"work-allocation/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// Logger returns a logger that discards output.
func Logger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// Open returns a migrated store backed by a private in-memory SQLite database.
func Open(t testing.TB) *repository.Store {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString())
	db, err := repository.Open(dsn, Logger())
	require.NoError(t, err)

	store, err := repository.NewStore(db, Logger())
	require.NoError(t, err)

	t.Cleanup(func() { _ = store.Close() })
	return store
}

// Fixtures creates rows directly through the store, bypassing the services.
type Fixtures struct {
	t     testing.TB
	store *repository.Store
}

func NewFixtures(t testing.TB, store *repository.Store) *Fixtures {
	return &Fixtures{t: t, store: store}
}

func (f *Fixtures) Post(name string) *models.Post {
	f.t.Helper()
	post := &models.Post{Name: name}
	require.NoError(f.t, f.store.Posts.Create(context.Background(), post))
	return post
}

func (f *Fixtures) Worker(name string, workerType models.WorkerType, post *models.Post) *models.Worker {
	f.t.Helper()
	worker := &models.Worker{
		Anciennete:     "A-" + name,
		Name:           name,
		Type:           workerType,
		OriginalPostID: post.ID,
	}
	require.NoError(f.t, f.store.Workers.Create(context.Background(), worker))
	return worker
}
