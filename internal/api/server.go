package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"habit-streaks/internal/metrics"
	"habit-streaks/internal/model"
	"habit-streaks/internal/service"
)

// Deps are the collaborators the HTTP layer talks to.
type Deps struct {
	Tasks       *service.TaskService
	Users       *service.UserService
	Categories  *service.CategoryService
	DB          *gorm.DB
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	Log         *zap.SugaredLogger
	RateLimiter *RateLimiter
	CORSOrigins []string
	MetricsUser string
	MetricsPass string
}

type handler struct {
	tasks      *service.TaskService
	users      *service.UserService
	categories *service.CategoryService
	db         *gorm.DB
	log        *zap.SugaredLogger
}

// NewRouter builds the full HTTP handler with middleware applied.
func NewRouter(d Deps) http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop().Sugar()
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}

	h := &handler{
		tasks:      d.Tasks,
		users:      d.Users,
		categories: d.Categories,
		db:         d.DB,
		log:        d.Log,
	}

	r := mux.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(monitorMiddleware(d.Metrics, d.Log))

	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	r.Handle("/metrics", basicAuth(d.MetricsUser, d.MetricsPass,
		promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	if d.RateLimiter != nil {
		v1.Use(d.RateLimiter.Middleware)
	}

	v1.HandleFunc("/users", h.createUser).Methods(http.MethodPost)
	v1.HandleFunc("/users/{id}", h.getUser).Methods(http.MethodGet)

	v1.HandleFunc("/tasks", h.createTask).Methods(http.MethodPost)
	v1.HandleFunc("/tasks", h.listTasks).Methods(http.MethodGet)
	v1.HandleFunc("/tasks/{id}", h.getTask).Methods(http.MethodGet)
	v1.HandleFunc("/tasks/{id}", h.renameTask).Methods(http.MethodPut)
	v1.HandleFunc("/tasks/{id}", h.deleteTask).Methods(http.MethodDelete)
	v1.HandleFunc("/tasks/{id}/completions", h.taskHistory).Methods(http.MethodGet)

	v1.HandleFunc("/occurrences/{id}/complete", h.completeOccurrence).Methods(http.MethodPost)

	v1.HandleFunc("/categories", h.listCategories).Methods(http.MethodGet)

	origins := d.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cors := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins(origins),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", requestIDHeader}),
	)
	recovery := gorillaHandlers.RecoveryHandler(
		gorillaHandlers.RecoveryLogger(zap.NewStdLog(d.Log.Desugar().Named("recovery"))),
		gorillaHandlers.PrintRecoveryStack(true),
	)
	return recovery(cors(r))
}

// NewServer wraps the router in an http.Server with conservative timeouts.
func NewServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	sqlDB, err := h.db.DB()
	if err == nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		h.log.Errorw("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// userFrom resolves the acting user. Unknown users are reported as not found.
func (h *handler) userFrom(ctx context.Context, id uint) (*model.User, error) {
	if id == 0 {
		return nil, errValidation("user_id is required")
	}
	return h.users.Get(ctx, id)
}

func (h *handler) userFromQuery(r *http.Request) (*model.User, error) {
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		return nil, errValidation("user_id is required")
	}
	id, err := parseID(raw, "user_id")
	if err != nil {
		return nil, err
	}
	return h.users.Get(r.Context(), id)
}

// respondError maps service errors onto status codes. Missing, foreign and stale records
// share one body so callers cannot tell them apart.
func (h *handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		h.log.Errorw("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", requestID(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
