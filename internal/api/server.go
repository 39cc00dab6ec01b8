package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/local/pagesel/internal/config"
	"github.com/local/pagesel/internal/limiter"
	"github.com/local/pagesel/internal/metrics"
	"github.com/local/pagesel/internal/pdfdoc"
	"github.com/local/pagesel/internal/selection"
	"github.com/local/pagesel/internal/source"
	"github.com/local/pagesel/internal/specfile"
	"github.com/local/pagesel/internal/statuscheck"
	"github.com/local/pagesel/internal/store"
)

// Fetcher resolves a document reference to a local file.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (*source.Fetched, error)
}

// Document is an opened PDF.
type Document interface {
	selection.ContentProvider
	PageCount() int
	Close() error
}

// Dependencies wires the server to its collaborators. Cache and Slots may
// be nil.
type Dependencies struct {
	Source Fetcher
	Open   func(path string) (Document, error)
	Cache  store.Cache
	Specs  *specfile.Expander
	Slots  *limiter.Slots
	Health *statuscheck.Checker
}

// OpenPDF opens documents with pdfdoc using the given options.
func OpenPDF(opts pdfdoc.Options) func(string) (Document, error) {
	return func(path string) (Document, error) {
		doc, err := pdfdoc.Open(path, opts)
		if err != nil {
			return nil, err
		}
		return doc, nil
	}
}

// Server is the HTTP API server for pagesel.
type Server struct {
	router chi.Router
	deps   Dependencies
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Dependencies, cfg config.Config) *Server {
	if deps.Specs == nil {
		deps.Specs = specfile.New(cfg.Selection.SpecDir)
	}
	if deps.Health == nil {
		deps.Health = statuscheck.New(statuscheck.Options{Backend: cfg.Document.Backend})
	}
	s := &Server{deps: deps, cfg: cfg}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestID)
	r.Use(RequestLogger)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		if s.cfg.Server.RequestTimeout > 0 {
			r.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
		}
		r.Post("/select", s.handleSelect)
		r.Post("/classify", s.handleClassify)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sum := s.deps.Health.Summary(r.Context())
	if !sum.Healthy() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded", "checks": sum})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "checks": sum})
}
