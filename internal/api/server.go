package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"livecap/internal/history"
	"livecap/internal/lockstore"
	"livecap/internal/logging"
)

// MaxCaptureLimit bounds the limit query parameter of /api/captures.
const MaxCaptureLimit = 500

// LockLister lists lock markers.
type LockLister interface {
	List() ([]lockstore.Marker, error)
}

// HistoryReader reads recent journal entries.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

// ActiveReporter reports sources with a running job.
type ActiveReporter interface {
	ActiveSources() []string
}

// Options configures a Server. Locks is required; History and Active may be nil.
type Options struct {
	Bind      string
	Token     string
	Locks     LockLister
	History   HistoryReader
	Active    ActiveReporter
	RunID     string
	StartedAt time.Time
	Logger    *slog.Logger
}

// Server is the status HTTP server.
type Server struct {
	opts     Options
	logger   *slog.Logger
	now      func() time.Time
	router   chi.Router
	listener net.Listener
	server   *http.Server
}

// NewServer builds the router. It does not listen until Start.
func NewServer(opts Options) *Server {
	if opts.StartedAt.IsZero() {
		opts.StartedAt = time.Now()
	}
	s := &Server{
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "api"),
		now:    time.Now,
	}
	s.router = s.routes()
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(bearerAuth(strings.TrimSpace(s.opts.Token)))
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		s.writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/locks", s.handleLocks)
		r.Get("/captures", s.handleCaptures)
	})
	return r
}

// Start listens on the configured bind address and serves until ctx ends.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.opts.Bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening",
		logging.String("address", listener.Addr().String()),
		logging.Bool("auth", s.opts.Token != ""),
	)
	return nil
}

// Addr returns the bound address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down, waiting up to five seconds for open requests.
func (s *Server) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	active := []string{}
	if s.opts.Active != nil {
		active = append(active, s.opts.Active.ActiveSources()...)
	}
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		RunID:         s.opts.RunID,
		PID:           os.Getpid(),
		StartedAt:     s.opts.StartedAt.UTC(),
		UptimeSeconds: int64(s.now().Sub(s.opts.StartedAt).Seconds()),
		ActiveJobs:    active,
	})
}

func (s *Server) handleLocks(w http.ResponseWriter, _ *http.Request) {
	if s.opts.Locks == nil {
		s.writeJSON(w, http.StatusOK, LocksResponse{Locks: []LockView{}})
		return
	}
	markers, err := s.opts.Locks.List()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	now := s.now()
	views := make([]LockView, 0, len(markers))
	for _, m := range markers {
		views = append(views, LockView{Marker: m, AgeSeconds: int64(m.Age(now).Seconds())})
	}
	s.writeJSON(w, http.StatusOK, LocksResponse{Locks: views})
}

func (s *Server) handleCaptures(w http.ResponseWriter, r *http.Request) {
	limit := history.DefaultLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(parsed, MaxCaptureLimit)
	}
	if s.opts.History == nil {
		s.writeJSON(w, http.StatusOK, CapturesResponse{Captures: []history.Entry{}})
		return
	}
	entries, err := s.opts.History.Recent(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	s.writeJSON(w, http.StatusOK, CapturesResponse{Captures: entries})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}
