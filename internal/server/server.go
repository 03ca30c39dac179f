// Package server provides the HTTP API for a Merkon store.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/merkon/internal/config"
	"github.com/hyperjump/merkon/internal/embedding"
	"github.com/hyperjump/merkon/pkg/merkon"
)

// Server is the HTTP server for the Merkon API.
type Server struct {
	store    *merkon.Store
	embedder embedding.Embedder
	config   *config.ServerConfig
	logger   *zap.Logger
	server   *http.Server
	started  time.Time
}

// NewServer creates a server for store. embedder may be nil; it is used to embed the
// text of records that arrive without an embedding.
func NewServer(store *merkon.Store, embedder embedding.Embedder, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		store:    store,
		embedder: embedder,
		config:   cfg,
		logger:   logger,
		started:  time.Now(),
	}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/collections", s.handleListCollections)
		r.Post("/collections", s.handleCreateCollection)
		r.Route("/collections/{name}", func(r chi.Router) {
			r.Delete("/", s.handleDeleteCollection)
			r.Put("/records", s.handleUpsertRecord)
			r.Post("/records:batchGet", s.handleBatchGet)
			r.Post("/records:batchDelete", s.handleBatchDelete)
			r.Get("/records/{key}", s.handleGetRecord)
			r.Delete("/records/{key}", s.handleDeleteRecord)
			r.Post("/search", s.handleSearch)
		})
	})
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.config.Addr()
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
