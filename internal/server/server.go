// Package server is the HTTP layer: thin handlers that parse and validate
// requests, dispatch into the admin workflow, the store or the real-time
// gateway, and map workflow errors onto responses. No business rules live
// here.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"cadenza/internal/admin"
	"cadenza/internal/config"
	"cadenza/internal/identity"
	"cadenza/internal/realtime"
	"cadenza/internal/store"
)

// Server wires the HTTP routes over the application components.
type Server struct {
	config   *config.Config
	store    *store.Store
	workflow *admin.Workflow
	verifier *identity.Verifier
	gateway  *realtime.Gateway
	logger   *logrus.Logger

	httpServer *http.Server
}

// NewServer creates the HTTP layer over the given components.
func NewServer(cfg *config.Config, st *store.Store, workflow *admin.Workflow, verifier *identity.Verifier, gateway *realtime.Gateway, logger *logrus.Logger) *Server {
	return &Server{
		config:   cfg,
		store:    st,
		workflow: workflow,
		verifier: verifier,
		gateway:  gateway,
		logger:   logger,
	}
}

// Handler builds the full route table wrapped in the middleware chain.
// Exposed so the tunnel can serve the same handler over its own listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/callback", s.handleAuthCallback)

	mux.HandleFunc("GET /api/users", s.handleGetUsers)
	mux.HandleFunc("GET /api/users/messages/{id}", s.handleGetConversation)

	mux.HandleFunc("GET /api/songs", s.handleGetSongs)
	mux.HandleFunc("GET /api/songs/featured", s.handleGetFeaturedSongs)
	mux.HandleFunc("GET /api/songs/made-for-you", s.handleGetMadeForYouSongs)
	mux.HandleFunc("GET /api/songs/trending", s.handleGetTrendingSongs)

	mux.HandleFunc("GET /api/albums", s.handleGetAlbums)
	mux.HandleFunc("GET /api/albums/{id}", s.handleGetAlbum)

	mux.HandleFunc("POST /api/admin/songs", s.handleAdminCreateSong)
	mux.HandleFunc("DELETE /api/admin/songs/{id}", s.handleAdminDeleteSong)
	mux.HandleFunc("POST /api/admin/albums", s.handleAdminCreateAlbum)
	mux.HandleFunc("DELETE /api/admin/albums/{id}", s.handleAdminDeleteAlbum)
	mux.HandleFunc("GET /api/admin/check", s.handleAdminCheck)

	mux.HandleFunc("GET /api/stats", s.handleGetStats)

	mux.HandleFunc("GET /ws", s.gateway.HandleWS)
	mux.HandleFunc("GET /health", s.handleHealthCheck)

	var handler http.Handler = mux
	handler = s.corsMiddleware(handler)
	handler = s.requestLoggingMiddleware(handler)
	handler = s.panicRecoveryMiddleware(handler)
	return handler
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.config.GetAddress(),
		Handler:      s.Handler(),
		ReadTimeout:  time.Duration(s.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.config.Server.IdleTimeout) * time.Second,
	}

	s.logger.WithField("address", s.config.GetAddress()).Info("HTTP server starting")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
