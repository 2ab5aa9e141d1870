// Package session issues and verifies the signed admin session token and
// holds the cookie constants shared by the handler and middleware packages.
package session

import "time"

const (
	// CookieName is the name of the cookie that stores the session token.
	CookieName = "session"

	// CookiePath ensures the cookie is sent with all requests.
	CookiePath = "/"

	// CookieMaxAge sets the cookie expiration (7 days = 604800 seconds).
	// The token inside expires well before the cookie does; see TokenLifetime.
	CookieMaxAge = 7 * 24 * 60 * 60

	// TokenLifetime is how long an issued token verifies for.
	TokenLifetime = 2 * time.Hour

	// Issuer and Audience are stamped into every token and required on verify.
	Issuer   = "drapery"
	Audience = "drapery-admin"

	// DevelopmentSecret is used when SESSION_SECRET is unset.
	DevelopmentSecret = "drapery-development-session-secret-change-me"
)
