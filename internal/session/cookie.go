package session

import "net/http"

// SetCookie writes the session cookie.
//
// Cookie Settings:
// - HttpOnly: true - Prevents JavaScript access
// - Secure: configurable - Set true in production (HTTPS only)
// - SameSite: Lax - Allows normal top-level navigation
// - Path: / - Cookie sent with all requests
// - MaxAge: 7 days
func SetCookie(w http.ResponseWriter, token string, isSecure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     CookiePath,
		MaxAge:   CookieMaxAge,
		HttpOnly: true,
		Secure:   isSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest returns the session cookie value, or "" if absent.
func TokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
