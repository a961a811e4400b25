package middleware

import (
	"net/http"
	"time"

	"github.com/angelmondragon/solecart-backend/pkg/metrics"
	"github.com/go-chi/chi/v5"
)

// Metrics records per-route request counts and latency. The route label is the
// chi pattern so path parameters such as emails never become label values.
func Metrics(m *metrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()

			next.ServeHTTP(rec, r)

			route := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}
			m.Observe(route, r.Method, rec.statusCode(), time.Since(start))
		})
	}
}
