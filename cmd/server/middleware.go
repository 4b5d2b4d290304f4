package main

import (
	"log/slog"

	"github.com/AdnanAhmad1994/pdf-editor-saas/pkg/middleware"
)

// buildMiddleware creates the middleware stack: slash normalization, then request logging.
func buildMiddleware(logger *slog.Logger) middleware.System {
	sys := middleware.New()
	sys.Use(middleware.TrimSlash())
	sys.Use(middleware.Logger(logger))
	return sys
}
