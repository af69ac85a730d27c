package apperr

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(nil))
	assert.Equal(t, KindValidation, KindOf(Validation("bad", "type")))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))

	wrapped := fmt.Errorf("set presence: %w", NotFound("plan", "p1"))
	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindNotFound))
	assert.False(t, Is(wrapped, KindConflict))
}

func TestValidationFields(t *testing.T) {
	err := Validation("type must be an origin type", "type")
	require.Equal(t, []string{"type"}, err.Fields)
	assert.Equal(t, "type must be an origin type", err.Error())
}

func TestFromStore(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"not found", gorm.ErrRecordNotFound, KindNotFound},
		{"fk sentinel", gorm.ErrForeignKeyViolated, KindConflict},
		{"fk sqlite", errors.New("FOREIGN KEY constraint failed"), KindConflict},
		{"unique sqlite", errors.New("UNIQUE constraint failed: assignments.plan_id, assignments.worker_id"), KindConflict},
		{"closed", errors.New("sql: database is closed"), KindUnavailable},
		{"conn done", sql.ErrConnDone, KindUnavailable},
		{"generic", errors.New("disk I/O error"), KindUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FromStore(tc.err)
			assert.Equal(t, tc.want, KindOf(got))
			assert.ErrorIs(t, got, tc.err)
		})
	}

	assert.NoError(t, FromStore(nil))

	original := Conflict("post in use")
	assert.Same(t, original, FromStore(original))
}
