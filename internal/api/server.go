package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/KitchenboT/internal/models"
	"github.com/Kerhoff/KitchenboT/internal/service"
)

// Server provides the HTTP endpoints next to the bot: device heartbeats,
// liveness and Prometheus metrics.
type Server struct {
	svc     *service.Service
	logger  *logrus.Logger
	metrics http.Handler
	mux     *http.ServeMux
}

// NewServer creates a Server, registers all routes, and returns it.
// metricsHandler may be nil to leave /metrics unregistered.
func NewServer(svc *service.Service, metricsHandler http.Handler, logger *logrus.Logger) *Server {
	s := &Server{svc: svc, logger: logger, metrics: metricsHandler, mux: http.NewServeMux()}
	s.routes()
	return s
}

// Handler returns the http.Handler that can be passed to http.Server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /heartbeat/{id}", s.handleHeartbeat)
	s.mux.HandleFunc("POST /heartbeat/{id}", s.handleHeartbeat)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics)
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.WithError(err).Error("failed to encode JSON response")
		}
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// handleHeartbeat records a ping from an external device. The shared secret
// and optional status come from the query string.
func (s *Server) handleHeartbeat(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	q := r.URL.Query()

	err := s.svc.Beat(r.Context(), id, q.Get("secret"), q.Get("status"))
	switch {
	case err == nil:
		s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "id": id})
	case errors.Is(err, models.ErrNotAuthorized):
		s.logger.WithFields(logrus.Fields{"device": id, "remote": r.RemoteAddr}).Warn("Rejected heartbeat with bad secret")
		s.respondError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, service.ErrInvalidInput):
		s.respondError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.WithError(err).WithField("device", id).Error("failed to record heartbeat")
		s.respondError(w, http.StatusInternalServerError, "failed to record heartbeat")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   s.svc.Now().UTC().Format(time.RFC3339),
	})
}
