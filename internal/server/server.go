// Package server exposes the ranking pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz           liveness
//	GET  /metrics           Prometheus metrics (when a registry is set)
//	GET  /v1/scenario       the scenario requests default to
//	POST /v1/centrality     centrality of a connectivity matrix
//	POST /v1/rank           rank a domain under a scenario
//	POST /v1/allocate       split seeded area over selected sites
//	GET  /v1/runs           stored runs, newest first
//	GET  /v1/runs/{id}      one run, from the cache or the store
//
// Errors are JSON objects {"code", "error"}. INVALID_DATA maps to 422,
// INVALID_CONFIG and malformed bodies to 400, missing runs to 404.
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/reefrank/pkg/pipeline"
	"github.com/matzehuels/reefrank/pkg/scenario"
	"github.com/matzehuels/reefrank/pkg/store"
)

// maxBodyBytes bounds request bodies. Domains with large replicate cubes
// are tens of megabytes.
const maxBodyBytes = 256 << 20

// Config configures a Server.
type Config struct {
	Addr   string
	Runner *pipeline.Runner
	Logger *log.Logger

	// Store persists runs from /v1/rank. Optional.
	Store store.Store

	// Gatherer backs /metrics. Optional.
	Gatherer prometheus.Gatherer

	// Scenario is the default scenario. Request scenarios are applied on
	// top of it.
	Scenario *scenario.Scenario

	// Workers bounds concurrent replicates per run.
	Workers int

	// RunTimeout bounds a single /v1/rank run. Zero means no limit.
	RunTimeout time.Duration
}

// Server is the HTTP API.
type Server struct {
	cfg      Config
	scenario atomic.Pointer[scenario.Scenario]
	handler  http.Handler
}

// New creates a server. A nil Runner gets an uncached one, a nil Scenario
// the default.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(nil, nil, cfg.Logger)
	}
	if cfg.Scenario == nil {
		cfg.Scenario = scenario.Default()
	}
	s := &Server{cfg: cfg}
	s.scenario.Store(cfg.Scenario)
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.cfg.Logger))

	r.Get("/healthz", s.health)
	if s.cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/scenario", s.getScenario)
		r.Post("/centrality", s.centrality)
		r.Post("/rank", s.rank)
		r.Post("/allocate", s.allocate)
		r.Get("/runs", s.listRuns)
		r.Get("/runs/{id}", s.getRun)
	})
	return r
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Scenario returns the current default scenario.
func (s *Server) Scenario() *scenario.Scenario { return s.scenario.Load() }

// SetScenario replaces the default scenario. Runs in flight keep the
// scenario they started with.
func (s *Server) SetScenario(sc *scenario.Scenario) { s.scenario.Store(sc) }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.cfg.Logger.Info("listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.cfg.Logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
