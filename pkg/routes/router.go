package routes

import (
	"log/slog"
	"net/http"
)

// Router collects routes and groups and compiles them into a ServeMux.
// It is not safe for concurrent registration.
type Router struct {
	routes []Route
	logger *slog.Logger
}

// New creates an empty Router.
func New(logger *slog.Logger) *Router {
	return &Router{logger: logger.With("system", "routes")}
}

// Handle registers a single route at its own pattern.
func (r *Router) Handle(route Route) {
	r.routes = append(r.routes, route)
}

// Mount registers every route in group and its children.
func (r *Router) Mount(group Group) {
	r.routes = append(r.routes, group.Flatten("")...)
	if group.Description != "" {
		r.logger.Debug("group mounted", "prefix", group.Prefix, "description", group.Description)
	}
}

// Patterns lists the ServeMux pattern of every registered route in
// registration order.
func (r *Router) Patterns() []string {
	patterns := make([]string, len(r.routes))
	for i, route := range r.routes {
		patterns[i] = route.muxPattern()
	}
	return patterns
}

// Build returns a ServeMux serving every registered route.
func (r *Router) Build() http.Handler {
	mux := http.NewServeMux()
	for _, route := range r.routes {
		mux.HandleFunc(route.muxPattern(), route.Handler)
	}

	r.logger.Debug("routes built", "count", len(r.routes))
	return mux
}
