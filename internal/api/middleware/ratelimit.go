package middleware

import (
	"math"
	"net/http"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/dnalab/design-evolution/internal/api/shared"
)

// RateLimit rejects requests with 429 once the shared token bucket is empty.
// One bucket covers all clients: it bounds how many pipelines, and so how
// many upstream model calls, can start per second.
func RateLimit(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reservation := limiter.Reserve()
			if !reservation.OK() {
				shared.RespondWithErrorAndLog(w, r, http.StatusTooManyRequests,
					"Too many requests", errRateLimited)
				return
			}

			if delay := reservation.Delay(); delay > 0 {
				reservation.Cancel()
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
				shared.RespondWithErrorAndLog(w, r, http.StatusTooManyRequests,
					"Too many requests", errRateLimited)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// NewLimiter builds the submission limiter. A non-positive rate disables
// limiting.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}
