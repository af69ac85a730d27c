package handler

import (
	"context"
	"net/http"
	"work-allocation/internal/service"

	"github.com/sirupsen/logrus"
)

// Pinger - проверка доступности хранилища для /api/health
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	reconciler *service.Reconciler
	workers    *service.WorkerService
	posts      *service.PostService
	auth       *service.AuthService
	store      Pinger

	frontendURL string
	realtime    http.Handler
	metrics     http.Handler
	logger      *logrus.Logger
}

type Option func(*Handler)

// WithFrontendURL разрешает CORS-запросы с адреса клиента
func WithFrontendURL(url string) Option {
	return func(h *Handler) {
		h.frontendURL = url
	}
}

// WithRealtime монтирует websocket-хаб на /ws
func WithRealtime(hub http.Handler) Option {
	return func(h *Handler) {
		h.realtime = hub
	}
}

// WithMetrics монтирует экспорт Prometheus на /metrics
func WithMetrics(metrics http.Handler) Option {
	return func(h *Handler) {
		h.metrics = metrics
	}
}

func WithLogger(logger *logrus.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

func NewHandler(
	reconciler *service.Reconciler,
	workers *service.WorkerService,
	posts *service.PostService,
	auth *service.AuthService,
	store Pinger,
	opts ...Option,
) *Handler {
	h := &Handler{
		reconciler: reconciler,
		workers:    workers,
		posts:      posts,
		auth:       auth,
		store:      store,
		logger:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes собирает маршруты API и оборачивает их в общие middleware
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", h.health)

	mux.HandleFunc("POST /api/auth/register", h.register)
	mux.HandleFunc("POST /api/auth/login", h.login)

	mux.HandleFunc("GET /api/workers", h.listWorkers)
	mux.HandleFunc("POST /api/workers", h.createWorker)
	mux.HandleFunc("GET /api/workers/{id}", h.getWorker)
	mux.HandleFunc("PUT /api/workers/{id}", h.updateWorker)
	mux.HandleFunc("PATCH /api/workers/{id}/type", h.recategorizeWorker)
	mux.HandleFunc("DELETE /api/workers/{id}", h.deleteWorker)

	mux.HandleFunc("GET /api/posts", h.listPosts)
	mux.HandleFunc("POST /api/posts", h.createPost)
	mux.HandleFunc("GET /api/posts/{id}", h.getPost)
	mux.HandleFunc("PUT /api/posts/{id}", h.updatePost)
	mux.HandleFunc("DELETE /api/posts/{id}", h.deletePost)
	mux.HandleFunc("POST /api/posts/{id}/reassign", h.reassignPost)

	mux.HandleFunc("GET /api/plans", h.listPlans)
	mux.HandleFunc("POST /api/plans", h.createPlan)
	mux.HandleFunc("GET /api/plans/range", h.listPlansInRange)
	mux.HandleFunc("POST /api/plans/bulk-delete", h.bulkDeletePlans)
	mux.HandleFunc("GET /api/plans/{id}", h.getPlan)
	mux.HandleFunc("PUT /api/plans/{id}", h.updatePlan)
	mux.HandleFunc("DELETE /api/plans/{id}", h.deletePlan)
	mux.HandleFunc("POST /api/plans/{id}/copy", h.copyPlan)
	mux.HandleFunc("POST /api/plans/{id}/auto-assign", h.autoAssign)
	mux.HandleFunc("GET /api/plans/{id}/presence/{workerId}", h.getPresence)
	mux.HandleFunc("PUT /api/plans/{id}/presence/{workerId}", h.setPresence)

	mux.HandleFunc("GET /api/assignments", h.listAssignments)
	mux.HandleFunc("POST /api/assignments", h.createAssignment)
	mux.HandleFunc("DELETE /api/assignments/{id}", h.deleteAssignment)

	mux.HandleFunc("GET /api/export/workers", h.exportWorkers)
	mux.HandleFunc("GET /api/export/posts", h.exportPosts)
	mux.HandleFunc("GET /api/export/plans", h.exportPlans)
	mux.HandleFunc("GET /api/export/plan/{id}", h.exportPlan)

	if h.realtime != nil {
		mux.Handle("GET /ws", h.realtime)
	}
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics)
	}

	var root http.Handler = mux
	root = h.identify(root)
	root = h.cors(root)
	root = h.logRequests(root)
	root = h.recoverPanics(root)
	return root
}
