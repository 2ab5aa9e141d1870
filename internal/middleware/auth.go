// Package middleware contains HTTP middleware for the Drapery storefront.
//
// Middleware functions follow the standard Go pattern of wrapping http.Handler.
// They are designed to be composed using a middleware stack approach.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/DukeRupert/drapery/internal/auth"
	"github.com/DukeRupert/drapery/internal/metrics"
	"github.com/DukeRupert/drapery/internal/session"
)

// =============================================================================
// Configuration Constants
// =============================================================================

const (
	// AdminPrefix is the path namespace the guard protects.
	AdminPrefix = "/admin"

	// AdminLoginPath is exempt from the guard so the login page can render.
	AdminLoginPath = "/admin/login"
)

// =============================================================================
// Decision
// =============================================================================

// Decision is the outcome of an access check.
type Decision int

const (
	// Allow lets the request through.
	Allow Decision = iota
	// Redirect sends the browser to AdminLoginPath.
	Redirect
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "redirect"
}

// SessionVerifier verifies a session token. *session.Codec satisfies it.
type SessionVerifier interface {
	Verify(token string) (*session.Claims, error)
}

// =============================================================================
// AdminGuard
// =============================================================================

// AdminGuard restricts /admin and everything under it to requests carrying a
// valid admin session cookie.
//
// The token is verified on every request. Nothing is cached and no session
// state is kept on the server.
type AdminGuard struct {
	verifier SessionVerifier
	logger   *slog.Logger
}

// NewAdminGuard creates a new AdminGuard.
func NewAdminGuard(verifier SessionVerifier, logger *slog.Logger) *AdminGuard {
	return &AdminGuard{
		verifier: verifier,
		logger:   logger,
	}
}

// IsProtected reports whether path is /admin or under /admin/, excluding the
// login page.
func IsProtected(path string) bool {
	if path == AdminLoginPath {
		return false
	}
	return path == AdminPrefix || strings.HasPrefix(path, AdminPrefix+"/")
}

// Authorize decides whether a request for path carrying cookieValue may
// proceed. An empty cookieValue means no cookie was sent.
func (g *AdminGuard) Authorize(path, cookieValue string) Decision {
	decision, _ := g.authorize(path, cookieValue)
	return decision
}

// authorize also returns the verified claims when the path is protected and
// access is allowed.
func (g *AdminGuard) authorize(path, cookieValue string) (Decision, *session.Claims) {
	if !IsProtected(path) {
		return Allow, nil
	}
	if cookieValue == "" {
		return Redirect, nil
	}

	claims, err := g.verifier.Verify(cookieValue)
	if err != nil {
		return Redirect, nil
	}
	if !claims.IsAdmin {
		return Redirect, nil
	}

	return Allow, claims
}

// Handler returns middleware that applies Authorize to every request.
//
// Denied requests get a 302 to AdminLoginPath. Allowed requests on protected
// paths carry the verified claims in their context, see auth.GetClaims.
func (g *AdminGuard) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsProtected(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		decision, claims := g.authorize(r.URL.Path, session.TokenFromRequest(r))
		metrics.GuardDecision(decision.String())

		if decision == Redirect {
			g.logger.Debug("admin access denied", "path", r.URL.Path)
			http.Redirect(w, r, AdminLoginPath, http.StatusFound)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.SetClaims(r.Context(), claims)))
	})
}

// =============================================================================
// Request Helpers
// =============================================================================

// isAPIRequest determines if the request expects a JSON response.
//
// Checks:
// 1. HX-Request header is NOT present (htmx wants HTML)
// 2. Accept header contains application/json
// 3. Content-Type is application/json
func isAPIRequest(r *http.Request) bool {
	// htmx requests want HTML fragments
	if r.Header.Get("HX-Request") == "true" {
		return false
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}

	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

// =============================================================================
// Middleware Stack Helpers
// =============================================================================

// Stack composes multiple middleware functions into a single middleware.
//
// Middleware is applied in the order provided, meaning the first middleware
// in the slice is the outermost (runs first on request, last on response).
//
// Example:
//
//	stack := Stack(securityMw.Handler, loggingMw.Handler, guard.Handler)
//	server.Handler = stack(mux)
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// Ensure middleware functions have correct signature
var _ func(http.Handler) http.Handler = (&AdminGuard{}).Handler
