package export

import (
	"bytes"
	"testing"
	"time"
	"work-allocation/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestPlanWorkbook(t *testing.T) {
	desc := "Chargement"
	quai := &models.Post{ID: "post-1", Name: "Quai 1", Description: &desc}
	bureau := &models.Post{ID: "post-2", Name: "Bureau"}
	alice := &models.Worker{ID: "w1", Anciennete: "001", Name: "Alice", Type: models.TypePermanentJour, OriginalPost: quai}
	bruno := &models.Worker{ID: "w2", Anciennete: "002", Name: "Bruno", Type: models.TypeOccasionelSoir, OriginalPost: bureau}
	chloe := &models.Worker{ID: "w3", Anciennete: "003", Name: "Chloé", Type: models.TypeMobiliteDuJour, OriginalPost: quai}

	plan := &models.Plan{
		ID:   "plan-1",
		Name: "Lundi",
		Assignments: []models.Assignment{
			{WorkerID: "w1", PostID: "post-1", Worker: alice, Post: quai},
			{WorkerID: "w2", PostID: "post-1", Worker: bruno, Post: quai},
		},
		WorkerPresences: []models.WorkerPresence{
			{WorkerID: "w2", Type: models.TypeAbsent},
		},
	}

	f, err := PlanWorkbook(plan, []*models.Worker{alice, bruno, chloe})
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetWorkers, SheetPosts}, f.GetSheetList())

	rows, err := f.GetRows(SheetWorkers)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, workerHeader, rows[0])
	assert.Equal(t, []string{"001", "Alice", "PERMANENT_JOUR", "Quai 1", "Quai 1"}, rows[1])
	assert.Equal(t, []string{"002", "Bruno", "ABSENT", "Bureau", "Quai 1"}, rows[2])
	require.GreaterOrEqual(t, len(rows[3]), 4)
	assert.Equal(t, []string{"003", "Chloé", "MOBILITE_DU_JOUR", "Quai 1"}, rows[3][:4])

	rows, err = f.GetRows(SheetPosts)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Quai 1", "Chargement", "Alice (001), Bruno (002)", "2"}, rows[1])

	var buf bytes.Buffer
	_, err = f.WriteTo(&buf)
	require.NoError(t, err)
	reopened, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, []string{SheetWorkers, SheetPosts}, reopened.GetSheetList())
}

func TestPlanWorkbookWithoutAssignmentsKeepsHeaders(t *testing.T) {
	f, err := PlanWorkbook(&models.Plan{ID: "p"}, nil)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetPosts)
	require.NoError(t, err)
	assert.Equal(t, [][]string{postHeader}, rows)
}

func TestPlansWorkbook(t *testing.T) {
	date := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	f, err := PlansWorkbook([]*models.Plan{
		{Name: "Lundi", Date: &date, CreatedAt: time.Date(2025, 1, 5, 18, 0, 0, 0, time.UTC)},
		{Name: "Sans date", CreatedAt: time.Date(2025, 1, 7, 8, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetPlans)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Lundi", "2025-01-06", "2025-01-05"}, rows[1])
	assert.Equal(t, []string{"Sans date", "", "2025-01-07"}, rows[2])
}

func TestWorkersAndPostsWorkbooks(t *testing.T) {
	quai := &models.Post{ID: "post-1", Name: "Quai 1"}
	alice := &models.Worker{
		ID: "w1", Anciennete: "001", Name: "Alice", Type: models.TypePermanentJour,
		OriginalPost: quai,
		Assignments:  []models.Assignment{{Post: quai}},
	}
	quai.Assignments = []models.Assignment{{Worker: alice}}

	f, err := WorkersWorkbook([]*models.Worker{alice})
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(SheetWorkers)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Quai 1", rows[1][4])

	g, err := PostsWorkbook([]*models.Post{quai})
	require.NoError(t, err)
	defer g.Close()
	rows, err = g.GetRows(SheetPosts)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Alice (001)", rows[1][2])
	assert.Equal(t, "1", rows[1][3])
}

func TestPlanFileName(t *testing.T) {
	date := time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		plan *models.Plan
		want string
	}{
		{"plain", &models.Plan{Name: "Lundi"}, "Lundi"},
		{"unsafe characters", &models.Plan{Name: "Plan 1/2 [soir]: v?*"}, "Plan 1_2 _soir__ v__"},
		{"date fallback", &models.Plan{Name: " ", Date: &date}, "2025-02-03"},
		{"id fallback", &models.Plan{ID: "0123456789abcdef"}, "01234567"},
		{"truncated", &models.Plan{Name: "Planification hebdomadaire du quai numéro 12"}, "Planification hebdomadaire du quai numér"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PlanFileName(tt.plan))
		})
	}
}
