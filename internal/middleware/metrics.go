package middleware

import (
	"net/http"
	"time"

	"github.com/wireframe/service/internal/metrics"
)

// Metrics returns a middleware that records HTTP metrics.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			m.HTTPRequestsInFlight.Inc()
			defer m.HTTPRequestsInFlight.Dec()

			ww := &wrappedWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(ww, r)

			// Route pattern, not the raw path, to bound label cardinality.
			m.RecordHTTPRequest(r.Method, routePattern(r), ww.statusCode, time.Since(start))
		})
	}
}
