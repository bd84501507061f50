package middleware

import "net/http"

// SecurityHeadersConfig holds security headers configuration
type SecurityHeadersConfig struct {
	Env string
}

// SecurityHeaders adds the standard browser hardening headers to every
// response. Production gets a strict CSP and HSTS; development stays lenient
// enough for local tooling.
func SecurityHeaders(config SecurityHeadersConfig) func(http.Handler) http.Handler {
	prod := config.Env == "production"

	csp := "default-src 'self' http: https: ws:; " +
		"script-src 'self' 'unsafe-inline' 'unsafe-eval' http: https:; " +
		"style-src 'self' 'unsafe-inline' http: https:; " +
		"frame-ancestors 'self'; base-uri 'self'; form-action 'self'"
	if prod {
		csp = "default-src 'self'; script-src 'self'; " +
			"style-src 'self' 'unsafe-inline'; img-src 'self' data: https:; " +
			"connect-src 'self'; frame-ancestors 'none'; base-uri 'self'; form-action 'self'"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Content-Security-Policy", csp)
			h.Set("Permissions-Policy", "camera=(), geolocation=(), microphone=(), payment=()")
			h.Set("Cross-Origin-Opener-Policy", "same-origin")

			if prod && (r.Header.Get("X-Forwarded-Proto") == "https" || r.URL.Scheme == "https") {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}
