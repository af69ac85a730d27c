package service

import (
	"context"
	"strings"
	"time"
	"work-allocation/internal/apperr"
	"work-allocation/internal/events"
	"work-allocation/internal/metrics"
	"work-allocation/internal/models"
	"work-allocation/internal/repository"

	"github.com/sirupsen/logrus"
)

// PostInUseMessage - сообщение пользователю, когда пост ещё является исходным для работников
const PostInUseMessage = "Ce poste ne peut pas être supprimé car il est utilisé comme poste original par certains travailleurs. Veuillez d'abord réassigner ces travailleurs."

type PostService struct {
	store   *repository.Store
	events  broadcaster
	metrics *metrics.Recorder
	logger  *logrus.Logger
}

// PostPatch - частичное изменение поста
type PostPatch struct {
	Name        *string
	Description *string
}

func NewPostService(store *repository.Store, publisher events.Publisher, opts ...Option) *PostService {
	o := buildOptions(opts)
	return &PostService{
		store:   store,
		events:  o.broadcaster(publisher),
		metrics: o.metrics,
		logger:  o.logger,
	}
}

func (s *PostService) CreatePost(ctx context.Context, name string, description *string) (_ *models.Post, err error) {
	defer observe(s.metrics, "create_post", time.Now(), &err)

	post := &models.Post{Name: strings.TrimSpace(name), Description: description}
	if post.Name == "" {
		return nil, apperr.Validation("post name is required", "name")
	}

	if err := s.store.Posts.Create(ctx, post); err != nil {
		return nil, storeErr("create post", err)
	}
	return post, nil
}

func (s *PostService) UpdatePost(ctx context.Context, id string, patch PostPatch) (_ *models.Post, err error) {
	defer observe(s.metrics, "update_post", time.Now(), &err)

	post, err := s.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		post.Name = strings.TrimSpace(*patch.Name)
		if post.Name == "" {
			return nil, apperr.Validation("post name must not be empty", "name")
		}
	}
	if patch.Description != nil {
		post.Description = patch.Description
	}

	post.Assignments = nil
	if err := s.store.Posts.Update(ctx, post); err != nil {
		return nil, storeErr("update post", err)
	}

	updated, err := s.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}

	s.events.emit(ctx, events.PostUpdated, PostEvent{Post: updated})
	return updated, nil
}

// DeletePost удаляет пост и назначения на него. Пост, который является
// исходным хотя бы для одного работника, не удаляется.
func (s *PostService) DeletePost(ctx context.Context, id string) (err error) {
	defer observe(s.metrics, "delete_post", time.Now(), &err)

	if strings.TrimSpace(id) == "" {
		return apperr.Validation("post id is required", "id")
	}

	var removed []models.Assignment
	err = s.store.WithTx(ctx, func(tx *repository.Store) error {
		exists, err := tx.Posts.Exists(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return apperr.NotFound("post", id)
		}

		owners, err := tx.Workers.CountByOriginalPost(ctx, id)
		if err != nil {
			return err
		}
		if owners > 0 {
			s.logger.WithFields(logrus.Fields{
				"post_id": id,
				"count":   owners,
			}).Warn("Refused to delete post still used as original post")
			return apperr.Conflict(PostInUseMessage)
		}

		removed, err = tx.Posts.Delete(ctx, id)
		return err
	})
	if err != nil {
		// Ограничение внешнего ключа на случай гонки с созданием работника
		if apperr.Is(apperr.FromStore(err), apperr.KindConflict) {
			return apperr.Conflict(PostInUseMessage)
		}
		return storeErr("delete post", err)
	}

	s.events.emit(ctx, events.PostDeleted, PostDeletedEvent{PostID: id})
	for _, a := range removed {
		s.events.emit(ctx, events.WorkerUnassigned, UnassignmentEvent{AssignmentID: a.ID, PlanID: a.PlanID})
	}
	return nil
}

// ReassignOriginalPost переносит всех работников с исходного поста from на to.
// Используется перед удалением поста.
func (s *PostService) ReassignOriginalPost(ctx context.Context, fromPostID, toPostID string) (_ []*models.Worker, err error) {
	defer observe(s.metrics, "reassign_original_post", time.Now(), &err)

	if f := missing(field{"fromPostId", fromPostID}, field{"toPostId", toPostID}); len(f) > 0 {
		return nil, apperr.Validation("source and target posts are required", f...)
	}
	if fromPostID == toPostID {
		return nil, apperr.Validation("target post must differ from source post", "toPostId")
	}

	var moved []*models.Worker
	err = s.store.WithTx(ctx, func(tx *repository.Store) error {
		for _, id := range []string{fromPostID, toPostID} {
			exists, err := tx.Posts.Exists(ctx, id)
			if err != nil {
				return err
			}
			if !exists {
				return apperr.NotFound("post", id)
			}
		}

		workers, err := tx.Workers.GetByOriginalPost(ctx, fromPostID)
		if err != nil {
			return err
		}
		if _, err := tx.Workers.ReassignOriginalPost(ctx, fromPostID, toPostID); err != nil {
			return err
		}

		moved = make([]*models.Worker, 0, len(workers))
		for _, w := range workers {
			updated, err := tx.Workers.GetByID(ctx, w.ID)
			if err != nil {
				return err
			}
			if updated != nil {
				moved = append(moved, updated)
			}
		}
		return nil
	})
	if err != nil {
		return nil, storeErr("reassign original post", err)
	}

	for _, w := range moved {
		s.events.emit(ctx, events.WorkerOriginalPostUpdated, WorkerEvent{Worker: w})
	}
	return moved, nil
}

// ListPosts возвращает посты по имени вместе с назначениями
func (s *PostService) ListPosts(ctx context.Context) ([]*models.Post, error) {
	posts, err := s.store.Posts.GetAll(ctx)
	if err != nil {
		return nil, storeErr("list posts", err)
	}
	return posts, nil
}

func (s *PostService) GetPost(ctx context.Context, id string) (*models.Post, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperr.Validation("post id is required", "id")
	}
	post, err := s.store.Posts.GetByID(ctx, id)
	if err != nil {
		return nil, storeErr("get post", err)
	}
	if post == nil {
		return nil, apperr.NotFound("post", id)
	}
	return post, nil
}
