package middleware

import (
	"crypto/subtle"
	"net/http"
)

// MetricsAuthMiddleware protects /metrics with HTTP basic authentication.
type MetricsAuthMiddleware struct {
	username  string
	password  string
	enabled   bool
	allowOpen bool
}

// NewMetricsAuthMiddleware creates a new metrics auth middleware.
//
// With no credentials configured the endpoint is served openly when
// allowOpen is true (development) and answers 404 otherwise.
func NewMetricsAuthMiddleware(username, password string, allowOpen bool) *MetricsAuthMiddleware {
	return &MetricsAuthMiddleware{
		username:  username,
		password:  password,
		enabled:   username != "" || password != "",
		allowOpen: allowOpen,
	}
}

// Handler returns middleware that requires basic authentication.
func (m *MetricsAuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.enabled {
			if m.allowOpen {
				next.ServeHTTP(w, r)
			} else {
				http.NotFound(w, r)
			}
			return
		}

		user, pass, ok := r.BasicAuth()
		if !ok {
			m.unauthorized(w)
			return
		}

		// Compare both before branching so timing does not reveal which one failed
		userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(m.username)) == 1
		passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(m.password)) == 1

		if !userMatch || !passMatch {
			m.unauthorized(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// unauthorized sends a 401 response with WWW-Authenticate header.
func (m *MetricsAuthMiddleware) unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="drapery metrics"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}
