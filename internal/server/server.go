// package server contains middleware & handlers for the Vorplay development API
package server

import (
	"net/http"

	"github.com/charmbracelet/log"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers that own a set of routes.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the method patterns this handler serves, e.g. "GET /api/users/me"
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// New builds a [BasicRouter] with recovery and request logging installed, then registers handlers.
func New(logger *log.Logger, handlers ...Handler) *BasicRouter {
	r := NewBasicRouter()
	r.Use(Recover(logger), RequestLogger(logger))
	for _, h := range handlers {
		r.Handler(h)
	}
	return r
}
