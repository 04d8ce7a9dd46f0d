// Package server assembles the HTTP surface: routing, middleware, and
// lifecycle for the lead enrichment API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	apperrors "github.com/leadpulse/leadpulse/internal/errors"
	"github.com/leadpulse/leadpulse/internal/server/handlers"
	"github.com/leadpulse/leadpulse/internal/server/middleware"
)

// Timeouts configures the http.Server deadlines.
type Timeouts struct {
	Read     time.Duration
	Write    time.Duration
	Idle     time.Duration
	Shutdown time.Duration
}

// DefaultTimeouts returns the standard server deadlines.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Read:     30 * time.Second,
		Write:    30 * time.Second,
		Idle:     120 * time.Second,
		Shutdown: 10 * time.Second,
	}
}

// Server is the HTTP server for the enrichment API.
type Server struct {
	host     string
	port     int
	timeouts Timeouts
	router   chi.Router
	httpSrv  *http.Server
}

// New creates a server with health and version endpoints registered.
// Lead endpoints are attached with MountAPI before Start.
func New(host string, port int) *Server {
	s := &Server{
		host:     host,
		port:     port,
		timeouts: DefaultTimeouts(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(middleware.CORS)
	r.Use(chimiddleware.StripSlashes)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		apperrors.WriteError(w, req, http.StatusNotFound,
			apperrors.CodeNotFound, "route not found: "+req.URL.Path, nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		apperrors.WriteError(w, req, http.StatusMethodNotAllowed,
			apperrors.CodeMethodNotAllowed, req.Method+" is not allowed on "+req.URL.Path, nil)
	})

	r.Get("/health", handlers.HealthHandler)
	r.Get("/health/live", handlers.LivenessHandler)
	r.Get("/health/ready", handlers.ReadinessHandler)
	r.Get("/health/startup", handlers.StartupHandler)
	r.Get("/version", handlers.VersionHandler)

	s.router = r
	return s
}

// MountAPI registers the lead endpoints.
func (s *Server) MountAPI(api *handlers.API) {
	s.router.Post("/create-job", api.CreateJob)
	s.router.Get("/job-status/{jobID}", api.JobStatus)
	s.router.Post("/match-leads", api.MatchLeads)
	s.router.Post("/match-leads-go", api.MatchLeadsGo)
}

// SetTimeouts overrides the default deadlines. Must be called before
// Start.
func (s *Server) SetTimeouts(t Timeouts) {
	s.timeouts = t
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Port returns the configured port.
func (s *Server) Port() int {
	return s.port
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.host, s.port)
}

// Start runs the server until it is shut down or fails.
func (s *Server) Start() error {
	s.httpSrv = &http.Server{
		Addr:         s.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.timeouts.Read,
		WriteTimeout: s.timeouts.Write,
		IdleTimeout:  s.timeouts.Idle,
	}

	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen on %s: %w", s.Addr(), err)
	}
	return nil
}

// Shutdown drains in-flight requests within the shutdown timeout.
// Running jobs are not awaited; their state survives in the job store
// only for the life of the process.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeouts.Shutdown)
	defer cancel()
	return s.httpSrv.Shutdown(ctx)
}
