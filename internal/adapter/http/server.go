// Package http exposes the auto-transfer engine as a JSON REST API.
package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/simaogato/autofund-backend/internal/domain"
	"github.com/simaogato/autofund-backend/internal/usecase/coordinator"
	"github.com/simaogato/autofund-backend/internal/usecase/schedule"
)

// ScheduleManager is the schedule store as seen by the API
type ScheduleManager interface {
	Create(ctx context.Context, input schedule.CreateInput) (*domain.TransferSchedule, error)
	Update(ctx context.Context, input schedule.UpdateInput) (*domain.TransferSchedule, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]domain.ScheduleView, error)
}

// HistoryReader reads the execution ledger
type HistoryReader interface {
	History(ctx context.Context, userID uuid.UUID, goalID *uuid.UUID, limit int) ([]*domain.LedgerEntry, error)
}

// Runner executes runs and manual contributions
type Runner interface {
	Run(ctx context.Context, userID uuid.UUID) (*domain.RunSummary, error)
	Contribute(ctx context.Context, input coordinator.ContributeInput) (*coordinator.ContributeResult, error)
}

// Server is the REST API server
type Server struct {
	schedules ScheduleManager
	history   HistoryReader
	runner    Runner
	token     string
	logger    *zap.SugaredLogger

	metricsEnabled bool
}

// NewServer creates a new API server
func NewServer(schedules ScheduleManager, history HistoryReader, runner Runner, token string, logger *zap.SugaredLogger) *Server {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Server{
		schedules: schedules,
		history:   history,
		runner:    runner,
		token:     token,
		logger:    logger,
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/auto-transfers", func(r chi.Router) {
		r.Use(AuthMiddleware(s.token))

		r.Get("/", s.handleList)
		r.Post("/", s.handleCreate)
		r.Get("/history", s.handleHistory)
		r.Post("/execute", s.handleExecute)
		r.Post("/manual", s.handleManual)
		r.Put("/{id}", s.handleUpdate)
		r.Delete("/{id}", s.handleDelete)
	})

	return r
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeDomainError maps domain errors to HTTP status codes
// Validation -> 400, not found or not owned -> 404, anything else -> 500 with a generic message.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case domain.IsValidationError(err):
		writeError(w, http.StatusBadRequest, errors.UnwrapAll(err).Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		s.logger.Errorw("Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
