package handler

import (
	"net/http"
	"work-allocation/internal/models"
	"work-allocation/internal/service"
)

type workerRequest struct {
	Anciennete     *string            `json:"anciennete"`
	Name           *string            `json:"name"`
	Type           *models.WorkerType `json:"type"`
	OriginalPostID *string            `json:"originalPostId"`
}

type typeRequest struct {
	Type models.WorkerType `json:"type"`
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func (h *Handler) listWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := h.workers.ListWorkers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, workers)
}

func (h *Handler) getWorker(w http.ResponseWriter, r *http.Request) {
	worker, err := h.workers.GetWorker(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, worker)
}

func (h *Handler) createWorker(w http.ResponseWriter, r *http.Request) {
	var req workerRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	worker, err := h.workers.CreateWorker(r.Context(), service.WorkerInput{
		Anciennete:     deref(req.Anciennete),
		Name:           deref(req.Name),
		Type:           deref(req.Type),
		OriginalPostID: deref(req.OriginalPostID),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, worker)
}

func (h *Handler) updateWorker(w http.ResponseWriter, r *http.Request) {
	var req workerRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	worker, err := h.workers.UpdateWorker(r.Context(), r.PathValue("id"), service.WorkerPatch{
		Anciennete:     req.Anciennete,
		Name:           req.Name,
		Type:           req.Type,
		OriginalPostID: req.OriginalPostID,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, worker)
}

// recategorizeWorker меняет только тип происхождения
func (h *Handler) recategorizeWorker(w http.ResponseWriter, r *http.Request) {
	var req typeRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	worker, err := h.reconciler.RecategorizeWorker(r.Context(), r.PathValue("id"), req.Type)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, worker)
}

func (h *Handler) deleteWorker(w http.ResponseWriter, r *http.Request) {
	if err := h.workers.DeleteWorker(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
