// Package debugsrv serves a local-only diagnostic HTTP surface: the
// bounded error history, connection statistics, and the YAML debug
// report, for inspection while the console runs.
package debugsrv

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/vedfolnir/console/internal/faults"
	"github.com/vedfolnir/console/internal/realtime"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// StatsSource supplies current connection statistics.
type StatsSource interface {
	Stats() realtime.Stats
}

// Server is the diagnostic HTTP server. It binds to a loopback address
// and is never exposed beyond the local machine.
type Server struct {
	addr    string
	history *faults.History
	stats   StatsSource
	logger  *slog.Logger
}

// New creates a debug server over the given history and stats source.
// stats may be nil when no realtime connection exists.
func New(addr string, history *faults.History, stats StatsSource, log *slog.Logger) *Server {
	return &Server{
		addr:    addr,
		history: history,
		stats:   stats,
		logger:  log,
	}
}

// Router builds the diagnostic route tree.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Route("/debug", func(r chi.Router) {
		r.Get("/errors", s.handleErrors)
		r.Get("/connection", s.handleConnection)
		r.Get("/report", s.handleReport)
	})
	return r
}

// Serve runs the server until the context ends, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("debug server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleErrors(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"count":   s.history.Len(),
		"records": s.history.Snapshot(),
	})
}

func (s *Server) handleConnection(w http.ResponseWriter, _ *http.Request) {
	if s.stats == nil {
		s.writeJSON(w, http.StatusOK, map[string]string{"state": "not_connected"})
		return
	}
	s.writeJSON(w, http.StatusOK, s.stats.Stats())
}

// handleReport streams the same YAML report the export command writes.
func (s *Server) handleReport(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	if err := faults.WriteReport(w, faults.BuildReport(s.history)); err != nil {
		s.logger.Error("failed to write debug report", "error", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode debug response", "error", err)
	}
}
