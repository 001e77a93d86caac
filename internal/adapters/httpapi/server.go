// Package httpapi exposes the threat service over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mikey/cybershield/internal/adapters/events"
	"github.com/mikey/cybershield/internal/core"
	"go.uber.org/zap"
)

// maxBodyBytes bounds JSON and form request bodies
const maxBodyBytes = 10 << 20

// Server is the HTTP API server
type Server struct {
	service *core.ThreatService
	hub     *events.Hub
	logger  *zap.Logger
	srv     *http.Server
}

// NewServer creates a new HTTP API server listening on addr
func NewServer(service *core.ThreatService, hub *events.Hub, logger *zap.Logger, addr string) *Server {
	s := &Server{
		service: service,
		hub:     hub,
		logger:  logger,
	}
	s.srv = &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // the live feed keeps connections open
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Router builds the route table
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "pong"})
	})

	r.Route("/api", func(api chi.Router) {
		api.Post("/analyze-email", s.analyzeEmail)
		api.Post("/email-webhook", s.emailWebhook)

		api.Get("/emails", s.listEmails)
		api.Get("/emails/phishing/{status}", s.listEmailsByVerdict)
		api.Get("/emails/{id}", s.getEmail)
		api.Patch("/emails/{id}/quarantine", s.setQuarantine)
		api.Post("/emails/{id}/analyze", s.reanalyzeEmail)

		api.Post("/analyze-website", s.analyzeWebsite)
		api.Get("/websites", s.listWebsites)
		api.Get("/activities", s.listActivities)

		if s.hub != nil {
			api.Get("/ws", s.hub.ServeWS)
		}
	})
	return r
}

// Start serves HTTP in the background
func (s *Server) Start() error {
	s.logger.Info("HTTP API starting", zap.String("address", s.srv.Addr))
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()
	return nil
}

// Stop shuts the server down gracefully
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("HTTP request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeError maps a service error onto a status code
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		jsonError(w, "not found", http.StatusNotFound)
	case errors.Is(err, core.ErrInvalidInput):
		jsonError(w, err.Error(), http.StatusBadRequest)
	default:
		s.logger.Error("Request failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		jsonError(w, "internal server error", http.StatusInternalServerError)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// queryLimit reads the optional limit parameter; zero means no limit
func queryLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		jsonError(w, "limit must be a non-negative integer", http.StatusBadRequest)
		return 0, false
	}
	return limit, true
}
