package main

import (
	"context"
	"time"

	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/config"
	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/documents"
	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/infrastructure"
	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/server"
	"github.com/AdnanAhmad1994/pdf-editor-saas/pkg/routes"
)

// Server coordinates the lifecycle of all subsystems.
type Server struct {
	infra     *infrastructure.Infrastructure
	documents documents.System
	http      server.System
}

// NewServer creates and initializes the service with all subsystems.
func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	docs := documents.New(infra.Records, infra.Storage, infra.PDF, infra.Locks, infra.Logger)

	router := routes.New(infra.Logger)
	registerRoutes(router, infra, docs.Handler(cfg.Storage.MaxUploadSizeBytes()))

	handler := buildMiddleware(infra.Logger).Apply(router.Build())

	infra.Logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"records", cfg.Records.Backend,
		"storage", cfg.Storage.Backend,
		"locks", cfg.Locks.Backend,
	)

	return &Server{
		infra:     infra,
		documents: docs,
		http:      server.New(&cfg.Server, handler, infra.Logger),
	}, nil
}

// Start begins all subsystems, then finishes any deletes interrupted by a
// previous run once storage is ready.
func (s *Server) Start() error {
	s.infra.Logger.Info("starting service")

	if err := s.infra.Start(); err != nil {
		return err
	}

	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	go func() {
		s.infra.Lifecycle.WaitForStartup()
		s.infra.Logger.Info("all subsystems ready")

		ctx, cancel := context.WithTimeout(s.infra.Lifecycle.Context(), time.Minute)
		defer cancel()

		if _, err := s.documents.Purge(ctx); err != nil {
			s.infra.Logger.Error("startup purge incomplete", "error", err)
		}
	}()

	return nil
}

// Shutdown gracefully stops all subsystems within the timeout.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown")
	return s.infra.Lifecycle.Shutdown(timeout)
}
