package middleware

import (
	"net/http"

	"github.com/mugiliam/unitycatalogsrv/internal/httpx"
	"github.com/mugiliam/unitycatalogsrv/internal/metrics"
	"golang.org/x/time/rate"
)

// RateLimit rejects requests beyond limit per second, with bursts of burst, as
// ResourceExhausted. A zero limit disables limiting.
func RateLimit(limit float64, burst int, m *metrics.Metrics) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst <= 0 {
		burst = int(limit)
		if burst < 1 {
			burst = 1
		}
	}
	limiter := rate.NewLimiter(rate.Limit(limit), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				m.RateLimited()
				w.Header().Set("Retry-After", "1")
				httpx.SendError(r.Context(), w, httpx.ErrTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
