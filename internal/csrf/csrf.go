// Package csrf provides CSRF protection using the double-submit cookie pattern.
//
// A random token is set in a cookie and repeated in every form (hidden field)
// or htmx request (X-CSRF-Token header). Unsafe requests are rejected unless
// both copies are present and equal. A cross-site page can make the browser
// send the cookie but cannot read it, so it cannot supply the second copy.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

// =============================================================================
// Configuration Constants
// =============================================================================

const (
	// CookieName is the name of the CSRF token cookie.
	CookieName = "csrf_token"

	// FormFieldName is the name of the CSRF token form field.
	FormFieldName = "csrf_token"

	// HeaderName carries the token on htmx requests.
	HeaderName = "X-CSRF-Token"

	// TokenLength is the number of random bytes for the token (32 bytes = 256 bits).
	TokenLength = 32

	// CookieMaxAge is the lifetime of the CSRF cookie (12 hours), long enough
	// to outlast an admin session token.
	CookieMaxAge = 12 * 60 * 60
)

// =============================================================================
// Token Generation
// =============================================================================

// GenerateToken generates a cryptographically secure random token.
//
// The token is 32 bytes of random data, base64 URL-encoded without padding.
func GenerateToken() (string, error) {
	b := make([]byte, TokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("csrf: generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// =============================================================================
// Token Validation
// =============================================================================

// ValidateToken compares the cookie token with the submitted token in
// constant time.
func ValidateToken(cookieToken, submitted string) bool {
	if cookieToken == "" || submitted == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookieToken), []byte(submitted)) == 1
}

// ValidateRequest reports whether the request carries a matching token in
// its cookie and in either the X-CSRF-Token header or the csrf_token form
// field. The header is checked first so multipart bodies are only parsed
// when needed.
func ValidateRequest(r *http.Request) bool {
	cookieToken := TokenFromRequest(r)
	if cookieToken == "" {
		return false
	}

	if header := r.Header.Get(HeaderName); header != "" {
		return ValidateToken(cookieToken, header)
	}

	return ValidateToken(cookieToken, r.FormValue(FormFieldName))
}

// =============================================================================
// Cookie Management
// =============================================================================

// SetCookie sets the CSRF token cookie on the response.
//
// The cookie is not HttpOnly so the page script can copy it into htmx
// headers. SameSite is Strict.
func SetCookie(w http.ResponseWriter, token string, isSecure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   CookieMaxAge,
		HttpOnly: false,
		Secure:   isSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

// TokenFromRequest retrieves the CSRF token from the request cookie.
// Returns empty string if cookie doesn't exist.
func TokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// EnsureToken returns the request's CSRF token, issuing a new cookie when
// there is none. Handlers call it when rendering a form.
func EnsureToken(w http.ResponseWriter, r *http.Request, isSecure bool) (string, error) {
	if existing := TokenFromRequest(r); existing != "" {
		return existing, nil
	}

	token, err := GenerateToken()
	if err != nil {
		return "", err
	}
	SetCookie(w, token, isSecure)
	return token, nil
}

// =============================================================================
// Middleware
// =============================================================================

// Middleware rejects unsafe requests in scope that fail ValidateRequest.
type Middleware struct {
	inScope func(path string) bool
	logger  *slog.Logger
}

// NewMiddleware creates a CSRF middleware. inScope selects the paths that
// are checked; a nil inScope checks every path.
func NewMiddleware(inScope func(path string) bool, logger *slog.Logger) *Middleware {
	return &Middleware{
		inScope: inScope,
		logger:  logger,
	}
}

// Handler returns middleware that validates the token on POST, PUT, PATCH
// and DELETE requests.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isSafeMethod(r.Method) || (m.inScope != nil && !m.inScope(r.URL.Path)) {
			next.ServeHTTP(w, r)
			return
		}

		if !ValidateRequest(r) {
			m.logger.Warn("csrf token mismatch",
				"method", r.Method,
				"path", r.URL.Path,
			)
			if r.Header.Get("HX-Request") == "true" {
				w.Header().Set("HX-Reswap", "none")
			}
			http.Error(w, "Invalid or missing CSRF token. Reload the page and try again.", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func isSafeMethod(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
