// Package export builds spreadsheet workbooks of workers, posts and plans.
package export

import (
	"fmt"
	"strings"
	"time"
	"work-allocation/internal/models"

	"github.com/xuri/excelize/v2"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	SheetWorkers     = "Travailleurs"
	SheetPosts       = "Postes"
	SheetPlans       = "Plans"
	maxFileNameRunes = 40
)

var (
	workerHeader     = []string{"Ancienneté", "Nom", "Type", "Poste Original", "Postes Assignés"}
	postHeader       = []string{"Nom", "Description", "Travailleurs Assignés", "Nombre de Travailleurs"}
	planHeader       = []string{"Nom", "Date du plan", "Créé le"}
	workerListHeader = []string{"Ancienneté", "Nom", "Type", "Poste Original", "Postes Assignés", "Date de Création"}
	postListHeader   = []string{"Nom", "Description", "Travailleurs Assignés", "Nombre de Travailleurs", "Date de Création"}
)

// PlanWorkbook builds the two-sheet export of one plan. Every worker gets a
// row, typed by the plan presence or by the origin type when none is stored.
// plan must carry its assignments with workers and posts preloaded.
func PlanWorkbook(plan *models.Plan, workers []*models.Worker) (*excelize.File, error) {
	postsByWorker := make(map[string][]string)
	for _, a := range plan.Assignments {
		postsByWorker[a.WorkerID] = append(postsByWorker[a.WorkerID], postName(a.Post))
	}

	workerRows := make([][]any, 0, len(workers))
	for _, w := range workers {
		presence, ok := plan.PresenceOf(w.ID)
		if !ok {
			presence = w.Type
		}
		workerRows = append(workerRows, []any{
			w.Anciennete,
			w.Name,
			string(presence),
			postName(w.OriginalPost),
			strings.Join(postsByWorker[w.ID], ", "),
		})
	}

	// Посты в порядке первого назначения
	type postGroup struct {
		post    *models.Post
		workers []string
	}
	var order []string
	groups := make(map[string]*postGroup)
	for _, a := range plan.Assignments {
		g, ok := groups[a.PostID]
		if !ok {
			g = &postGroup{post: a.Post}
			groups[a.PostID] = g
			order = append(order, a.PostID)
		}
		g.workers = append(g.workers, workerLabel(a.Worker))
	}

	postRows := make([][]any, 0, len(order))
	for _, id := range order {
		g := groups[id]
		postRows = append(postRows, []any{
			postName(g.post),
			postDescription(g.post),
			strings.Join(g.workers, ", "),
			len(g.workers),
		})
	}

	f := excelize.NewFile()
	if err := writeSheet(f, SheetWorkers, workerHeader, workerRows); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := writeSheet(f, SheetPosts, postHeader, postRows); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

// WorkersWorkbook lists every worker with the posts they are assigned to
// across all plans. Assignments must have Post preloaded.
func WorkersWorkbook(workers []*models.Worker) (*excelize.File, error) {
	rows := make([][]any, 0, len(workers))
	for _, w := range workers {
		names := make([]string, 0, len(w.Assignments))
		for _, a := range w.Assignments {
			names = append(names, postName(a.Post))
		}
		rows = append(rows, []any{
			w.Anciennete,
			w.Name,
			string(w.Type),
			postName(w.OriginalPost),
			strings.Join(names, ", "),
			w.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	f := excelize.NewFile()
	if err := writeSheet(f, SheetWorkers, workerListHeader, rows); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

// PostsWorkbook lists posts with the workers assigned to them.
// Assignments must have Worker preloaded.
func PostsWorkbook(posts []*models.Post) (*excelize.File, error) {
	rows := make([][]any, 0, len(posts))
	for _, p := range posts {
		labels := make([]string, 0, len(p.Assignments))
		for _, a := range p.Assignments {
			labels = append(labels, workerLabel(a.Worker))
		}
		rows = append(rows, []any{
			p.Name,
			postDescription(p),
			strings.Join(labels, ", "),
			len(p.Assignments),
			p.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	f := excelize.NewFile()
	if err := writeSheet(f, SheetPosts, postListHeader, rows); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

// PlansWorkbook is the summary of plans created in a range.
func PlansWorkbook(plans []*models.Plan) (*excelize.File, error) {
	rows := make([][]any, 0, len(plans))
	for _, p := range plans {
		date := ""
		if p.Date != nil {
			date = p.Date.UTC().Format(time.DateOnly)
		}
		rows = append(rows, []any{p.Name, date, p.CreatedAt.UTC().Format(time.DateOnly)})
	}

	f := excelize.NewFile()
	if err := writeSheet(f, SheetPlans, planHeader, rows); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

// PlanFileName returns the download name of a plan export without extension.
// Falls back to the plan date, then to the id prefix, when the name is blank.
func PlanFileName(plan *models.Plan) string {
	base := strings.TrimSpace(plan.Name)
	if base == "" && plan.Date != nil {
		base = plan.Date.UTC().Format(time.DateOnly)
	}
	if base == "" {
		base = plan.ID
		if len(base) > 8 {
			base = base[:8]
		}
	}
	return SafeName(base)
}

// SafeName replaces characters spreadsheet tools reject in names and
// truncates to 40 characters.
func SafeName(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '?', '*', '[', ']', ':':
			return '_'
		}
		return r
	}, s)

	runes := []rune(cleaned)
	if len(runes) > maxFileNameRunes {
		runes = runes[:maxFileNameRunes]
	}
	return string(runes)
}

// writeSheet renames the default sheet on first use, otherwise adds one.
func writeSheet(f *excelize.File, sheet string, header []string, rows [][]any) error {
	if idx, _ := f.GetSheetIndex("Sheet1"); idx >= 0 {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return fmt.Errorf("rename sheet %s: %w", sheet, err)
		}
	} else if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}

	head := make([]any, len(header))
	for i, h := range header {
		head[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return fmt.Errorf("write header of %s: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d of %s: %w", i+2, sheet, err)
		}
	}
	return nil
}

func postName(p *models.Post) string {
	if p == nil {
		return ""
	}
	return p.Name
}

func postDescription(p *models.Post) string {
	if p == nil || p.Description == nil {
		return ""
	}
	return *p.Description
}

func workerLabel(w *models.Worker) string {
	if w == nil {
		return ""
	}
	return fmt.Sprintf("%s (%s)", w.Name, w.Anciennete)
}
