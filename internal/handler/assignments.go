package handler

import (
	"net/http"
	"work-allocation/internal/service"
)

type assignmentRequest struct {
	PlanID     string  `json:"planId"`
	WorkerID   string  `json:"workerId"`
	PostID     string  `json:"postId"`
	AssignedBy *string `json:"assignedBy"`
}

func (h *Handler) listAssignments(w http.ResponseWriter, r *http.Request) {
	assignments, err := h.reconciler.ListAssignments(r.Context(), r.URL.Query().Get("planId"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, assignments)
}

// createAssignment отвечает 201 для нового назначения и 200 для перезаписи
func (h *Handler) createAssignment(w http.ResponseWriter, r *http.Request) {
	var req assignmentRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	assignment, created, err := h.reconciler.AssignWorkerToPost(r.Context(), service.AssignInput{
		PlanID:     req.PlanID,
		WorkerID:   req.WorkerID,
		PostID:     req.PostID,
		AssignedBy: actor(r, req.AssignedBy),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	h.writeJSON(w, status, assignment)
}

func (h *Handler) deleteAssignment(w http.ResponseWriter, r *http.Request) {
	if _, err := h.reconciler.UnassignWorker(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
