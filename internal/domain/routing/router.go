// Package routing maps broker topics to client-facing destinations.
package routing

import "strings"

// Route binds a broker topic prefix to a logical destination.
type Route struct {
	Prefix      string
	Destination string
}

// FallbackDestination receives every topic no route matches.
const FallbackDestination = "/topic/events"

// DefaultRoutes is the production routing table. Order matters: the table
// is scanned top to bottom and the first matching prefix wins, so more
// specific prefixes must be declared before broader ones.
var DefaultRoutes = []Route{
	{Prefix: "stadium/crowd/", Destination: "/topic/crowd"},
	{Prefix: "stadium/emergency/", Destination: "/topic/emergency"},
	{Prefix: "stadium/maintenance/", Destination: "/topic/maintenance"},
}

// Router resolves topics against an ordered prefix table.
type Router struct {
	routes   []Route
	fallback string
}

func NewRouter(routes []Route, fallback string) *Router {
	return &Router{routes: routes, fallback: fallback}
}

func NewDefaultRouter() *Router {
	return NewRouter(DefaultRoutes, FallbackDestination)
}

// Destination is a total function: every topic resolves to exactly one
// destination, unmatched topics to the fallback.
func (r *Router) Destination(topic string) string {
	for _, route := range r.routes {
		if strings.HasPrefix(topic, route.Prefix) {
			return route.Destination
		}
	}
	return r.fallback
}
