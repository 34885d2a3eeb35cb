// Package httpapi exposes navigation trees over HTTP: a JSON API for
// trees and nodes, the form-encoded editor endpoint answered by the
// dispatcher, rendered navigation fragments, and a websocket change feed.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/arthur-debert/navtree/navtree"
	"github.com/arthur-debert/navtree/navtree/auth"
	"github.com/arthur-debert/navtree/navtree/dispatch"
)

// Config holds the transport settings
type Config struct {
	// CORSOrigins lists allowed browser origins; empty allows none
	CORSOrigins []string
	// Site is the default site navigation is rendered for
	Site string
}

// Server wires the HTTP routes to the navigation service
type Server struct {
	cfg        Config
	svc        *navtree.Service
	dispatcher *dispatch.Dispatcher
	authn      *auth.Authenticator
	authz      dispatch.Authorizer
	hub        *Hub
	logger     *slog.Logger
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the logger, slog.Default() otherwise
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithAuthorizer replaces the default permission checker
func WithAuthorizer(authz dispatch.Authorizer) Option {
	return func(s *Server) {
		s.authz = authz
	}
}

// NewServer builds a server. The hub receives the service's change events;
// its Run loop must be started by the caller.
func NewServer(cfg Config, svc *navtree.Service, authn *auth.Authenticator, hub *Hub, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		svc:    svc,
		authn:  authn,
		authz:  auth.PermissionChecker{},
		hub:    hub,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.dispatcher = dispatch.New(svc, s.authz, dispatch.WithLogger(s.logger))
	return s
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.healthz)
	r.Get("/ws/trees/{treeID}", s.serveWs)

	r.Route("/api/v1", func(r chi.Router) {
		// public, rendered for the viewer the optional token describes
		r.Group(func(r chi.Router) {
			r.Use(s.optionalAuth)
			r.Get("/trees/{treeID}/navigation", s.navigation)
			r.Get("/trees/{treeID}/breadcrumb/{nodeID}", s.breadcrumb)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/trees", s.listTrees)
			r.Post("/trees", s.createTree)
			r.Get("/trees/{treeID}/nodes", s.listNodes)
			r.Post("/trees/{treeID}/edit", s.edit)
		})
	})
	return r
}

// HTTPServer returns an http.Server for addr with sane timeouts
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
