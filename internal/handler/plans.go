package handler

import (
	"net/http"
	"work-allocation/internal/models"
	"work-allocation/internal/service"
)

type planRequest struct {
	Name      *string `json:"name"`
	Date      *string `json:"date"`
	CreatedBy *string `json:"createdBy"`
}

type rangeRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type presenceRequest struct {
	Type models.WorkerType `json:"type"`
	// Recategorize также меняет постоянный тип работника, если Type - тип происхождения
	Recategorize bool `json:"recategorize"`
}

type presenceResponse struct {
	Presence *models.WorkerPresence `json:"presence"`
	Worker   *models.Worker         `json:"worker,omitempty"`
}

type effectivePresence struct {
	PlanID   string            `json:"planId"`
	WorkerID string            `json:"workerId"`
	Type     models.WorkerType `json:"type"`
}

type autoAssignRequest struct {
	Filter     string  `json:"filter"`
	AssignedBy *string `json:"assignedBy"`
}

func (h *Handler) listPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.reconciler.ListPlans(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, plans)
}

// listPlansInRange - планы, созданные между ?start и ?end включительно
func (h *Handler) listPlansInRange(w http.ResponseWriter, r *http.Request) {
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
	h.writeJSON(w, http.StatusOK, plans)
}

func (h *Handler) getPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.reconciler.GetPlan(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, plan)
}

func (h *Handler) createPlan(w http.ResponseWriter, r *http.Request) {
	in, ok := h.planInput(w, r)
	if !ok {
		return
	}

	plan, err := h.reconciler.CreatePlan(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, plan)
}

func (h *Handler) copyPlan(w http.ResponseWriter, r *http.Request) {
	in, ok := h.planInput(w, r)
	if !ok {
		return
	}

	plan, err := h.reconciler.CopyPlan(r.Context(), r.PathValue("id"), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, plan)
}

func (h *Handler) planInput(w http.ResponseWriter, r *http.Request) (service.PlanInput, bool) {
	var req planRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return service.PlanInput{}, false
	}
	date, err := parseOptionalDate(req.Date, "date")
	if err != nil {
		h.writeError(w, r, err)
		return service.PlanInput{}, false
	}
	return service.PlanInput{
		Name:      deref(req.Name),
		Date:      date,
		CreatedBy: actor(r, req.CreatedBy),
	}, true
}

func (h *Handler) updatePlan(w http.ResponseWriter, r *http.Request) {
	var req planRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	date, err := parseOptionalDate(req.Date, "date")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	plan, err := h.reconciler.UpdatePlan(r.Context(), r.PathValue("id"), service.PlanUpdate{
		Name: req.Name,
		Date: date,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, plan)
}

func (h *Handler) deletePlan(w http.ResponseWriter, r *http.Request) {
	if err := h.reconciler.DeletePlan(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) bulkDeletePlans(w http.ResponseWriter, r *http.Request) {
	var req rangeRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	from, to, err := parseRange(req.Start, req.End)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	deleted, err := h.reconciler.DeletePlansInRange(r.Context(), from, to)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

// setPresence - перенос карточки работника в коробку присутствия.
// С recategorize и типом происхождения меняется и постоянный тип.
func (h *Handler) setPresence(w http.ResponseWriter, r *http.Request) {
	var req presenceRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	planID, workerID := r.PathValue("id"), r.PathValue("workerId")
	presence, err := h.reconciler.SetSessionPresence(r.Context(), planID, workerID, req.Type)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := presenceResponse{Presence: presence}
	if req.Recategorize && req.Type.IsOrigin() {
		worker, err := h.reconciler.RecategorizeWorker(r.Context(), workerID, req.Type)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		resp.Worker = worker
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) getPresence(w http.ResponseWriter, r *http.Request) {
	planID, workerID := r.PathValue("id"), r.PathValue("workerId")
	presenceType, err := h.reconciler.EffectivePresence(r.Context(), planID, workerID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, effectivePresence{PlanID: planID, WorkerID: workerID, Type: presenceType})
}

func (h *Handler) autoAssign(w http.ResponseWriter, r *http.Request) {
	var req autoAssignRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	assignments, err := h.reconciler.AutoAssign(r.Context(), r.PathValue("id"), req.Filter, actor(r, req.AssignedBy))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if assignments == nil {
		assignments = []*models.Assignment{}
	}
	h.writeJSON(w, http.StatusOK, assignments)
}
