// Package httpapi is the thin service host exposing the Path Solver
// over HTTP (spec.md §9's Design Notes: Graph Store and Solver are
// "explicitly constructed values owned by the service host; inject
// them into request handlers"). Grounded on the teacher's serve.go,
// generalized from a bare http.ServeMux to httprouter for
// path-parameterized routes, and with per-request correlation IDs
// attached to every log line.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"github.com/ldobbelsteen/wikipath/internal/graph"
	"github.com/ldobbelsteen/wikipath/internal/solver"
)

// Server hosts the path-finding HTTP API over one Graph Store / Solver pair.
type Server struct {
	store  *graph.Store
	solve  *solver.Solver
	log    *slog.Logger
	router *httprouter.Router
}

// New builds a Server. Neither store nor solve is retained beyond what's
// needed to serve requests; there is no package-level state.
func New(store *graph.Store, solve *solver.Solver, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{store: store, solve: solve, log: log, router: httprouter.New()}
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/stats", s.handleStats)
	s.router.GET("/paths/:start/:target", s.handlePaths)
	return s
}

// ServeHTTP implements http.Handler, wrapping every request with a
// correlation ID and structured access log — the logging-before/after
// wrapper shape the pack's service repos use (taibuivan-yomira's
// request middleware), rather than the teacher's bare `log.Print`
// inline in each handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	start := time.Now()

	ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
	s.router.ServeHTTP(w, r.WithContext(ctx))

	s.log.Info("handled request",
		slog.String("request_id", requestID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Duration("duration", time.Since(start)),
	)
}

type requestIDKey struct{}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	pageCount, totalEdges, err := s.store.Stats(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "failed to read graph stats", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]int64{
		"page_count":           pageCount,
		"total_outgoing_edges": totalEdges,
	})
}

// handlePaths serves GET /paths/:start/:target, the HTTP equivalent of
// spec.md §6's ShortestPaths operation.
func (s *Server) handlePaths(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	start := ps.ByName("start")
	target := ps.ByName("target")

	resp, err := s.solve.ShortestPaths(r.Context(), start, target)
	if err != nil {
		s.writeSolverError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) writeSolverError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, solver.ErrStartPageNotFound), errors.Is(err, solver.ErrTargetPageNotFound):
		s.writeError(w, r, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, solver.ErrNoPath):
		s.writeError(w, r, http.StatusOK, err.Error(), nil) // no path is a valid, successful answer
	case errors.Is(err, context.Canceled):
		s.writeError(w, r, http.StatusRequestTimeout, "request timeout", nil)
	default:
		s.writeError(w, r, http.StatusInternalServerError, "internal server error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, message string, cause error) {
	if cause != nil {
		s.log.Error(message, slog.String("request_id", requestIDFrom(r.Context())), slog.Any("error", cause))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
