package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// RequestRecorder receives one observation per request.
type RequestRecorder interface {
	RecordRequest(method, route string, status int, d time.Duration)
}

// Metrics reports every request to rec, labelled by the matched chi route
// pattern so path parameters do not explode label cardinality.
func Metrics(rec RequestRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrap(w)

			next.ServeHTTP(wrapped, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					route = p
				}
			}
			rec.RecordRequest(r.Method, route, wrapped.statusCode, time.Since(start))
		})
	}
}
