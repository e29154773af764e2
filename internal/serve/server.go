package serve

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/san-kum/heatmarch/internal/checkpoint"
	"github.com/san-kum/heatmarch/internal/logging"
)

// StoreOpener returns the store holding the checkpoints of a run. dir is
// the run directory, which always holds the manifest.
type StoreOpener func(m *checkpoint.Manifest, dir *checkpoint.FileStore) (checkpoint.Store, error)

// Server exposes a checkpoint catalog read-only over HTTP.
type Server struct {
	catalog  *checkpoint.Catalog
	gatherer prometheus.Gatherer
	open     StoreOpener
	logger   *slog.Logger
}

type Option func(*Server)

func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

func WithStoreOpener(fn StoreOpener) Option {
	return func(s *Server) { s.open = fn }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewHandler builds the router:
//
//	GET /runs
//	GET /runs/{id}
//	GET /runs/{id}/files/{name}
//	GET /metrics
//	GET /healthz
func NewHandler(catalog *checkpoint.Catalog, opts ...Option) http.Handler {
	s := &Server{
		catalog:  catalog,
		gatherer: prometheus.DefaultGatherer,
		open: func(_ *checkpoint.Manifest, dir *checkpoint.FileStore) (checkpoint.Store, error) {
			return dir, nil
		},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/runs", s.listRuns)
	r.Get("/runs/{id}", s.getRun)
	r.Get("/runs/{id}/files/{name}", s.getFile)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return r
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.catalog.List(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, s.logger, runs)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	_, m, err := s.catalog.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, s.logger, m)
}

func (s *Server) getFile(w http.ResponseWriter, r *http.Request) {
	id, name := chi.URLParam(r, "id"), chi.URLParam(r, "name")

	dir, m, err := s.catalog.Open(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	if name == checkpoint.ManifestName {
		writeJSON(w, s.logger, m)
		return
	}
	if _, _, err := checkpoint.ParseStep(name); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	store, err := s.open(m, dir)
	if err != nil {
		s.fail(w, err)
		return
	}
	data, err := store.Get(r.Context(), name)
	if err != nil {
		s.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("write response failed", "run", id, "file", name, "error", err)
	}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, checkpoint.ErrRunNotFound), errors.Is(err, checkpoint.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, checkpoint.ErrInvalidName):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		s.logger.Error("request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response failed", "error", err)
	}
}
