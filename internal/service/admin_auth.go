// Package service contains the business logic layer.
//
// This file implements the admin session issuer. There is a single admin
// role guarded by one shared password from the environment; a successful
// login yields a signed session token and nothing is stored server-side.
package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"

	"github.com/DukeRupert/drapery/internal/domain"
	"github.com/DukeRupert/drapery/internal/metrics"
	"github.com/DukeRupert/drapery/internal/session"
	"golang.org/x/crypto/bcrypt"
)

// =============================================================================
// Errors and Outcome
// =============================================================================

var (
	// ErrAdminNotConfigured is the outcome when ADMIN_PASSWORD is empty.
	// Login is refused for every input.
	ErrAdminNotConfigured error = domain.Misconfigured("admin_auth.login", "admin password is not configured")

	// ErrInvalidCredential is the outcome when the submitted password does
	// not match.
	ErrInvalidCredential = errors.New("invalid admin credential")
)

// LoginFailedReason is shown to the user for every failed login. Missing
// configuration and a wrong password are only told apart in logs.
const LoginFailedReason = "Invalid password. Please try again."

// LoginOutcome is the result of a login attempt.
//
// On success Token holds the signed session and Err is nil. On failure
// Token is empty, Reason is LoginFailedReason and Err is one of
// ErrAdminNotConfigured, ErrInvalidCredential, or an internal error if
// signing failed.
type LoginOutcome struct {
	Token  string
	Reason string
	Err    error
}

// OK reports whether the login succeeded.
func (o LoginOutcome) OK() bool {
	return o.Err == nil && o.Token != ""
}

// TokenIssuer signs session claims. *session.Codec satisfies it.
type TokenIssuer interface {
	Issue(claims session.Claims) (string, error)
}

// =============================================================================
// Interface Definition
// =============================================================================

// AdminAuthService validates the admin password and issues sessions.
type AdminAuthService interface {
	// Login compares submitted with the configured password.
	// A wrong password is a failed outcome, not an error return.
	Login(ctx context.Context, submitted string) LoginOutcome
}

// =============================================================================
// Implementation
// =============================================================================

type adminAuthService struct {
	password string
	hashed   bool
	issuer   TokenIssuer
	logger   *slog.Logger
}

// NewAdminAuthService creates an AdminAuthService for the configured
// password. An empty password makes every login fail closed. A value in
// bcrypt format ("$2a$", "$2b$" or "$2y$") is treated as a hash of the
// password rather than the password itself.
func NewAdminAuthService(password string, issuer TokenIssuer, logger *slog.Logger) AdminAuthService {
	return &adminAuthService{
		password: password,
		hashed:   isBcryptHash(password),
		issuer:   issuer,
		logger:   logger,
	}
}

func isBcryptHash(s string) bool {
	if len(s) != 60 {
		return false
	}
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// matches reports whether submitted is the configured password.
func (s *adminAuthService) matches(submitted string) bool {
	if s.hashed {
		// bcrypt ignores bytes past 72, and no stored hash can cover more
		if len(submitted) > 72 {
			return false
		}
		return bcrypt.CompareHashAndPassword([]byte(s.password), []byte(submitted)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(s.password)) == 1
}

// Login implements AdminAuthService.
func (s *adminAuthService) Login(ctx context.Context, submitted string) LoginOutcome {
	const op = "admin_auth.login"

	if s.password == "" {
		s.logger.Error("admin login refused, ADMIN_PASSWORD is not set")
		metrics.LoginAttempt("not_configured")
		return failedLogin(ErrAdminNotConfigured)
	}

	if !s.matches(submitted) {
		s.logger.Info("admin login failed", "reason", "invalid_credential")
		metrics.LoginAttempt("invalid_credential")
		return failedLogin(ErrInvalidCredential)
	}

	token, err := s.issuer.Issue(session.Claims{IsAdmin: true})
	if err != nil {
		s.logger.Error("failed to issue admin session", "error", err)
		metrics.LoginAttempt("error")
		return failedLogin(domain.Internal(err, op, "failed to issue session"))
	}

	s.logger.Info("admin logged in")
	metrics.LoginAttempt("success")

	return LoginOutcome{Token: token}
}

func failedLogin(err error) LoginOutcome {
	return LoginOutcome{Reason: LoginFailedReason, Err: err}
}
