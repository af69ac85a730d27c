package handler

import (
	"net/http"
	"work-allocation/internal/models"
	"work-allocation/internal/service"
)

type postRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type reassignRequest struct {
	ToPostID string `json:"toPostId"`
}

type reassignResponse struct {
	Moved   int              `json:"moved"`
	Workers []*models.Worker `json:"workers"`
}

func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.ListPosts(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, posts)
}

func (h *Handler) getPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.GetPost(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, post)
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	post, err := h.posts.CreatePost(r.Context(), deref(req.Name), req.Description)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, post)
}

func (h *Handler) updatePost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	post, err := h.posts.UpdatePost(r.Context(), r.PathValue("id"), service.PostPatch{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, post)
}

// deletePost отвечает 409, пока пост остаётся исходным для работников
func (h *Handler) deletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.posts.DeletePost(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// reassignPost переносит всех работников с исходного поста {id} на toPostId
func (h *Handler) reassignPost(w http.ResponseWriter, r *http.Request) {
	var req reassignRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	moved, err := h.posts.ReassignOriginalPost(r.Context(), r.PathValue("id"), req.ToPostID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if moved == nil {
		moved = []*models.Worker{}
	}
	h.writeJSON(w, http.StatusOK, reassignResponse{Moved: len(moved), Workers: moved})
}
