package session

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidSession is returned by Verify for every token that must not be
// trusted: malformed, wrongly signed, signed with another algorithm,
// issued for another issuer or audience, or expired.
var ErrInvalidSession = errors.New("session: invalid session")

// Claims is the payload carried by a session token.
type Claims struct {
	IsAdmin bool `json:"isAdmin"`
	jwt.RegisteredClaims
}

// Codec signs and verifies session tokens with HMAC-SHA256.
//
// A Codec is immutable after construction and safe for concurrent use.
type Codec struct {
	key      []byte
	lifetime time.Duration
	now      func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithClock overrides the time source used for iat/exp and for validation.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) {
		c.now = now
	}
}

// WithLifetime overrides TokenLifetime.
func WithLifetime(d time.Duration) Option {
	return func(c *Codec) {
		if d > 0 {
			c.lifetime = d
		}
	}
}

// NewCodec creates a Codec for the given secret.
//
// An empty secret falls back to DevelopmentSecret. Outside development that
// fallback is logged as a warning, since anyone who knows the default can
// mint admin sessions.
func NewCodec(secret string, env string, logger *slog.Logger, opts ...Option) *Codec {
	if secret == "" {
		secret = DevelopmentSecret
		if env != "development" && logger != nil {
			logger.Warn("SESSION_SECRET is not set, using the development secret",
				"env", env,
			)
		}
	}

	c := &Codec{
		key:      []byte(secret),
		lifetime: TokenLifetime,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Issue signs claims into a compact token. Issuer, audience, iat and exp are
// always set by the codec; any registered claims on the input are ignored.
func (c *Codec) Issue(claims Claims) (string, error) {
	now := c.now()

	out := Claims{
		IsAdmin: claims.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.lifetime)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, out).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("session: sign token: %w", err)
	}
	return token, nil
}

// Verify checks the token signature and registered claims and returns the
// payload. All failures collapse to ErrInvalidSession.
func (c *Codec) Verify(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)

	claims := &Claims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return c.key, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidSession
	}

	return claims, nil
}
