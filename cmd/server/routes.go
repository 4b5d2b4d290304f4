package main

import (
	"net/http"

	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/documents"
	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/infrastructure"
	"github.com/AdnanAhmad1994/pdf-editor-saas/internal/lifecycle"
	"github.com/AdnanAhmad1994/pdf-editor-saas/pkg/routes"
)

// registerRoutes configures all HTTP routes for the service.
func registerRoutes(r *routes.Router, infra *infrastructure.Infrastructure, docs *documents.Handler) {
	r.Mount(routes.Group{
		Prefix:      "/api",
		Description: "Document management API",
		Children:    []routes.Group{docs.Routes()},
	})

	r.Handle(routes.Route{
		Method:  "GET",
		Pattern: "/healthz",
		Handler: handleHealthCheck,
	})

	r.Handle(routes.Route{
		Method:  "GET",
		Pattern: "/readyz",
		Handler: func(w http.ResponseWriter, r *http.Request) {
			handleReadinessCheck(w, infra.Lifecycle)
		},
	})
}

// handleHealthCheck responds with OK status for health monitoring.
func handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func handleReadinessCheck(w http.ResponseWriter, ready lifecycle.ReadinessChecker) {
	if !ready.Ready() {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("NOT READY"))
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("READY"))
}
