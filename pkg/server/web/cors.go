package web

import (
	"net/http"
	"strings"
)

var (
	defaultCORSOrigins = []string{"*"}
	defaultCORSMethods = []string{http.MethodGet, http.MethodPost}
	defaultCORSHeaders = []string{"content-type"}
)

type corsPolicy struct {
	origins   map[string]struct{}
	anyOrigin bool
	methods   string
	headers   string
}

func newCORSPolicy(origins, methods, headers []string) *corsPolicy {
	if len(origins) == 0 {
		origins = defaultCORSOrigins
	}
	if len(methods) == 0 {
		methods = defaultCORSMethods
	}
	if len(headers) == 0 {
		headers = defaultCORSHeaders
	}

	p := &corsPolicy{
		origins: make(map[string]struct{}),
		methods: strings.Join(methods, ", "),
		headers: strings.Join(headers, ", "),
	}
	for _, origin := range origins {
		if origin == "*" {
			p.anyOrigin = true
			continue
		}
		p.origins[strings.TrimSuffix(origin, "/")] = struct{}{}
	}
	return p
}

func (p *corsPolicy) allowedOrigin(origin string) (string, bool) {
	if len(origin) == 0 {
		return "", false
	}
	if p.anyOrigin {
		return "*", true
	}
	if _, ok := p.origins[origin]; ok {
		return origin, true
	}
	return "", false
}

// wrap applies the policy to a handler. Preflight requests are answered
// directly and never reach the handler.
func (p *corsPolicy) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowed, ok := p.allowedOrigin(origin)
		if ok {
			w.Header().Set("Access-Control-Allow-Origin", allowed)
			if allowed != "*" {
				w.Header().Add("Vary", "Origin")
			}
		}

		if r.Method == http.MethodOptions && len(r.Header.Get("Access-Control-Request-Method")) > 0 {
			if !ok {
				w.WriteHeader(http.StatusForbidden)
				return
			}

			w.Header().Set("Access-Control-Allow-Methods", p.methods)
			w.Header().Set("Access-Control-Allow-Headers", p.headers)
			w.Header().Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next(w, r)
	}
}
