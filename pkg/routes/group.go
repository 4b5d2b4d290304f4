// Package routes declares HTTP routes and compiles them into a ServeMux.
package routes

import "net/http"

// Route binds a method and pattern to a handler.
// Patterns use net/http ServeMux wildcard syntax.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}

// muxPattern is the "METHOD /path" form ServeMux registers.
func (r Route) muxPattern() string {
	return r.Method + " " + r.Pattern
}

// Group nests routes under a shared prefix. Children inherit the prefix of
// every enclosing group.
type Group struct {
	Prefix      string
	Description string
	Routes      []Route
	Children    []Group
}

// Flatten returns the routes of g and its descendants with each pattern
// prefixed by parent and every enclosing group prefix.
func (g Group) Flatten(parent string) []Route {
	prefix := parent + g.Prefix

	flat := make([]Route, 0, len(g.Routes))
	for _, r := range g.Routes {
		r.Pattern = prefix + r.Pattern
		flat = append(flat, r)
	}
	for _, child := range g.Children {
		flat = append(flat, child.Flatten(prefix)...)
	}
	return flat
}
