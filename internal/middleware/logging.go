package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"vagvanner/backend/internal/observability"
)

// RequestLog logs each request and records it in the HTTP metrics. Paths
// are reported as route patterns to keep label cardinality bounded.
func RequestLog(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			path := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				path = rc.RoutePattern()
			}
			elapsed := time.Since(start)
			code := strconv.Itoa(status)
			observability.HTTPRequestsTotal.WithLabelValues(r.Method, path, code).Inc()
			observability.HTTPRequestDuration.WithLabelValues(r.Method, path, code).Observe(elapsed.Seconds())

			entry := log.WithFields(logrus.Fields{
				"method":    r.Method,
				"path":      path,
				"status":    status,
				"bytes":     ww.BytesWritten(),
				"duration":  elapsed.String(),
				"requestId": chimw.GetReqID(r.Context()),
			})
			switch {
			case status >= 500:
				entry.Error("request failed")
			case status >= 400:
				entry.Info("request rejected")
			default:
				entry.Debug("request served")
			}
		})
	}
}
