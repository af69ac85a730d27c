package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"work-allocation/internal/export"

	"github.com/xuri/excelize/v2"
)

func (h *Handler) exportWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := h.workers.ListWorkersWithAssignments(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	f, err := export.WorkersWorkbook(workers)
	h.sendWorkbook(w, r, f, err, "workers")
}

func (h *Handler) exportPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.ListPosts(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	f, err := export.PostsWorkbook(posts)
	h.sendWorkbook(w, r, f, err, "posts")
}

func (h *Handler) exportPlans(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r.URL.Query().Get("start"), r.URL.Query().Get("end"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	plans, err := h.reconciler.ListPlansInRange(r.Context(), from, to)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	f, err := export.PlansWorkbook(plans)
	h.sendWorkbook(w, r, f, err, "plans")
}

// exportPlan - две вкладки: работники с присутствием и посты с назначенными
func (h *Handler) exportPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.reconciler.GetPlan(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	workers, err := h.workers.ListWorkers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	f, err := export.PlanWorkbook(plan, workers)
	h.sendWorkbook(w, r, f, err, export.PlanFileName(plan))
}

func (h *Handler) sendWorkbook(w http.ResponseWriter, r *http.Request, f *excelize.File, err error, name string) {
	if err != nil {
		h.writeError(w, r, fmt.Errorf("build workbook: %w", err))
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			h.logger.WithError(err).Warn("Failed to close workbook")
		}
	}()

	buf, err := f.WriteToBuffer()
	if err != nil {
		h.writeError(w, r, fmt.Errorf("write workbook: %w", err))
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", url.PathEscape(name)))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WithError(err).Warn("Failed to send workbook")
	}
}
