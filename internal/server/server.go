package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cruciblehq/crucible/internal/caps"
	"github.com/cruciblehq/crucible/internal/config"
	"github.com/cruciblehq/crucible/internal/engine"
	"github.com/cruciblehq/crucible/internal/sandbox"
	"github.com/cruciblehq/crucible/internal/session"
	"github.com/cruciblehq/crucible/internal/storage"
)

// Server is the HTTP server for the Crucible console API.
type Server struct {
	cfg      *config.Config
	store    storage.Store
	registry *caps.Registry
	policy   sandbox.Policy
	engine   *engine.Engine
	sessions *session.Manager
	router   chi.Router
	http     *http.Server
}

// New creates a new Server. The policy and engine are fixed at startup;
// the allow-list is never mutated at runtime.
func New(cfg *config.Config, store storage.Store, registry *caps.Registry) *Server {
	s := &Server{
		cfg:      cfg,
		store:    store,
		registry: registry,
		policy:   cfg.Policy(),
		engine:   engine.New(registry),
		sessions: session.NewManager(),
		router:   chi.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(jsonContentType)

		// Sessions
		r.Get("/sessions", s.handleListSessions)
		r.Post("/sessions", s.handleCreateSession)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Delete("/sessions/{id}", s.handleDeleteSession)

		// Execution & history
		r.Post("/sessions/{id}/run", s.handleRun)
		r.Get("/sessions/{id}/history", s.handleHistory)
		r.Post("/sessions/{id}/reset", s.handleReset)

		// WebSocket (no JSON content-type)
		r.Get("/sessions/{id}/ws", s.handleWebSocket)

		// Capability surface
		r.Get("/capabilities", s.handleListCapabilities)
	})

	// SPA fallback
	r.Handle("/*", spaHandler())
}

// jsonContentType sets Content-Type to application/json for API routes.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Start begins listening on the given port.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.http = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	log.Printf("Crucible server starting on http://localhost%s", addr)
	return s.http.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down server...")
	s.sessions.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return s.http.Shutdown(shutdownCtx)
}
