package middleware

import (
	"net/http"
	"time"

	pkghttp "github.com/dohyunkim-dev/marketgate/pkg/http"
	"github.com/go-chi/httprate"
)

// AuthRateLimit limits requests per client IP on the credential-accepting
// endpoints. This is a blunt per-source throttle in front of the per-account
// failure counter; the two protect against different attack shapes.
func AuthRateLimit(requestsPerMinute int) func(next http.Handler) http.Handler {
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyByRealIP(),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			pkghttp.WriteTooManyRequests(w, "Too many requests, try again later")
		}),
	)
}
