package middleware

import (
	"net/http"
	"strings"
)

// SecurityHeadersMiddleware adds HTTP security headers to all responses.
type SecurityHeadersMiddleware struct {
	isSecure bool // Whether to enable HTTPS-specific headers (true in production)
	csp      string
}

// NewSecurityHeadersMiddleware creates a new security headers middleware.
// Set isSecure to true in production to enable HSTS.
func NewSecurityHeadersMiddleware(isSecure bool) *SecurityHeadersMiddleware {
	return &SecurityHeadersMiddleware{
		isSecure: isSecure,
		csp:      buildCSP(),
	}
}

// Handler returns middleware that sets security headers on all responses.
func (m *SecurityHeadersMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Cross-Origin-Opener-Policy", "same-origin")

		// max-age=31536000 = 1 year
		if m.isSecure {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		h.Set("Content-Security-Policy", m.csp)

		// The mockup form picks a photo from the camera roll, it never opens the camera.
		h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")

		next.ServeHTTP(w, r)
	})
}

// buildCSP constructs the Content-Security-Policy header value.
func buildCSP() string {
	directives := []string{
		"default-src 'self'",
		// htmx from unpkg, everything else from /static
		"script-src 'self' https://unpkg.com",
		"style-src 'self' 'unsafe-inline'",
		// blob: previews the room photo before upload, https: covers presigned R2 URLs
		"img-src 'self' data: blob: https:",
		"font-src 'self'",
		"connect-src 'self'",
		"frame-ancestors 'none'",
		"base-uri 'self'",
		// Checkout answers with a redirect to WhatsApp
		"form-action 'self' https://wa.me https://api.whatsapp.com",
	}
	return strings.Join(directives, "; ")
}
