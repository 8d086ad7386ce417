package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

const (
	MetricsPath = "/metrics"
	HealthPath  = "/healthz"
)

// routePattern returns the matched chi route, or a fixed placeholder so
// unmatched paths do not explode label cardinality.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return "<unknown>"
	}
	if p := rctx.RoutePattern(); p != "" {
		return p
	}
	return "<unknown>"
}
