package app

import (
	"net/http"
)

// Middleware wraps the handler serving application requests.
type Middleware func(next http.Handler) http.Handler

// Option configures the environment run by Run().
type Option func(o *opts)

type opts struct {
	configPath  string
	middlewares []Middleware
}

// WithConfigPath sets the configuration file read at startup. A missing file
// is not an error.
func WithConfigPath(path string) Option {
	return func(o *opts) {
		o.configPath = path
	}
}

// WithMiddleware configures the app's HTTP server to use the provided middleware.
//
// Middleware is evaluated in addition order, and configured middleware is executed
// after the app's default middleware.
func WithMiddleware(m Middleware) Option {
	return func(o *opts) {
		o.middlewares = append(o.middlewares, m)
	}
}

func chain(h http.Handler, middlewares []Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
