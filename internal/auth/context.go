// Package auth provides authentication context helpers.
//
// This package is designed to be imported by both middleware and handler
// packages without causing import cycles.
package auth

import (
	"context"
	"net/http"

	"github.com/DukeRupert/drapery/internal/session"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// claimsContextKey is the key used to store verified session claims in context.
	claimsContextKey contextKey = "session_claims"
)

// GetClaims retrieves the verified session claims from the context.
//
// Returns nil if the request did not pass through the admin guard.
//
// Usage:
//
//	claims := auth.GetClaims(r.Context())
//	if claims == nil || !claims.IsAdmin {
//	    // Handle unauthenticated request
//	}
func GetClaims(ctx context.Context) *session.Claims {
	claims, ok := ctx.Value(claimsContextKey).(*session.Claims)
	if !ok {
		return nil
	}
	return claims
}

// GetClaimsFromRequest is a convenience wrapper around GetClaims.
func GetClaimsFromRequest(r *http.Request) *session.Claims {
	return GetClaims(r.Context())
}

// IsAdmin reports whether the context carries admin claims.
func IsAdmin(ctx context.Context) bool {
	claims := GetClaims(ctx)
	return claims != nil && claims.IsAdmin
}

// SetClaims stores verified claims in the context.
//
// This is called by the admin guard after verifying the session cookie.
func SetClaims(ctx context.Context, claims *session.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey, claims)
}
