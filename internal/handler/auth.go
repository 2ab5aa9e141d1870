// Package handler contains HTTP handlers for the Drapery storefront.
//
// This file implements the admin login. There is one shared admin
// password and no user accounts; a successful login stores a signed
// session token in the session cookie and nothing on the server.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/DukeRupert/drapery/internal/csrf"
	"github.com/DukeRupert/drapery/internal/service"
	"github.com/DukeRupert/drapery/internal/session"
)

// AdminHomePath is where a successful login lands.
const AdminHomePath = "/admin/dashboard"

// =============================================================================
// Handler Configuration
// =============================================================================

// TemplateRenderer is the interface for rendering HTML templates.
// This interface allows for mocking in tests.
type TemplateRenderer interface {
	RenderHTTP(w http.ResponseWriter, name string, data interface{})
	RenderHTTPStatus(w http.ResponseWriter, status int, name string, data interface{})
}

// AuthHandler handles the admin login.
//
// Routes handled:
// - GET  /admin/login -> ShowLogin
// - POST /admin/login -> Login
type AuthHandler struct {
	auth     service.AdminAuthService
	renderer TemplateRenderer
	logger   *slog.Logger
	isSecure bool
}

// NewAuthHandler creates a new AuthHandler with the required dependencies.
//
// Set isSecure in production so the session and CSRF cookies are only sent
// over HTTPS.
func NewAuthHandler(
	auth service.AdminAuthService,
	renderer TemplateRenderer,
	logger *slog.Logger,
	isSecure bool,
) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		renderer: renderer,
		logger:   logger,
		isSecure: isSecure,
	}
}

// RegisterRoutes registers the login routes on the provided ServeMux.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /admin/login", h.ShowLogin)
	mux.HandleFunc("POST /admin/login", h.Login)
}

// =============================================================================
// GET /admin/login - Show Login Form
// =============================================================================

// ShowLogin renders the login form. The access guard lets this path
// through without a session.
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	h.renderLogin(w, r, http.StatusOK, "")
}

// =============================================================================
// POST /admin/login - Process Login
// =============================================================================

// Login checks the submitted password.
//
// Success: sets the session cookie and redirects (303) to the dashboard.
// Failure: re-renders the form with the generic reason and sets no cookie.
// The submitted password is never logged.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.logger.Info("failed to parse login form", "error", err)
		h.renderLogin(w, r, http.StatusBadRequest, service.LoginFailedReason)
		return
	}

	outcome := h.auth.Login(r.Context(), r.PostFormValue("password"))
	if !outcome.OK() {
		h.renderLogin(w, r, http.StatusOK, outcome.Reason)
		return
	}

	session.SetCookie(w, outcome.Token, h.isSecure)
	http.Redirect(w, r, AdminHomePath, http.StatusSeeOther)
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, reason string) {
	token, err := csrf.EnsureToken(w, r, h.isSecure)
	if err != nil {
		InternalErrorResponse(w, r, h.logger, err)
		return
	}

	h.renderer.RenderHTTPStatus(w, status, "admin/login", LoginPageData{
		Page: Page{
			CurrentPath: r.URL.Path,
			CSRFToken:   token,
		},
		Error: reason,
	})
}
