package session

import (
	"bytes"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestCodec_RoundTrip(t *testing.T) {
	codec := NewCodec("test-secret", "test", nil)

	for _, isAdmin := range []bool{true, false} {
		token, err := codec.Issue(Claims{IsAdmin: isAdmin})
		if err != nil {
			t.Fatalf("Issue() error = %v", err)
		}
		if strings.Count(token, ".") != 2 {
			t.Fatalf("Issue() = %q, want compact JWS", token)
		}

		claims, err := codec.Verify(token)
		if err != nil {
			t.Fatalf("Verify() error = %v", err)
		}
		if claims.IsAdmin != isAdmin {
			t.Errorf("IsAdmin = %v, want %v", claims.IsAdmin, isAdmin)
		}
		if claims.Issuer != Issuer {
			t.Errorf("Issuer = %q, want %q", claims.Issuer, Issuer)
		}
	}
}

func TestCodec_SetsLifetime(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	codec := NewCodec("test-secret", "test", nil, WithClock(fixedClock(now)))

	token, err := codec.Issue(Claims{IsAdmin: true})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	claims, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	if got := claims.IssuedAt.Time; !got.Equal(now) {
		t.Errorf("iat = %v, want %v", got, now)
	}
	if got := claims.ExpiresAt.Time; !got.Equal(now.Add(2 * time.Hour)) {
		t.Errorf("exp = %v, want %v", got, now.Add(2*time.Hour))
	}
}

func TestCodec_WithLifetime(t *testing.T) {
	issuedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	now := issuedAt
	clock := WithClock(func() time.Time { return now })

	codec := NewCodec("test-secret", "test", nil, clock, WithLifetime(15*time.Minute))
	token, err := codec.Issue(Claims{IsAdmin: true})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if got := claims.ExpiresAt.Time; !got.Equal(issuedAt.Add(15 * time.Minute)) {
		t.Errorf("exp = %v, want %v", got, issuedAt.Add(15*time.Minute))
	}

	now = issuedAt.Add(16 * time.Minute)
	if _, err := codec.Verify(token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Verify() after short lifetime error = %v, want ErrInvalidSession", err)
	}

	// Non-positive lifetimes keep the default.
	now = issuedAt
	fallback := NewCodec("test-secret", "test", nil, clock, WithLifetime(0))
	token, err = fallback.Issue(Claims{IsAdmin: true})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	claims, err = fallback.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if got := claims.ExpiresAt.Time; !got.Equal(issuedAt.Add(TokenLifetime)) {
		t.Errorf("exp = %v, want default %v", got, issuedAt.Add(TokenLifetime))
	}
}

func TestCodec_DifferentSecretFails(t *testing.T) {
	issuer := NewCodec("secret-one", "test", nil)
	verifier := NewCodec("secret-two", "test", nil)

	token, err := issuer.Issue(Claims{IsAdmin: true})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, err := verifier.Verify(token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Verify() error = %v, want ErrInvalidSession", err)
	}
}

func TestCodec_ExpiredTokenFails(t *testing.T) {
	issuedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	now := issuedAt

	codec := NewCodec("test-secret", "test", nil, WithClock(func() time.Time { return now }))
	token, err := codec.Issue(Claims{IsAdmin: true})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	now = issuedAt.Add(TokenLifetime - time.Minute)
	if _, err := codec.Verify(token); err != nil {
		t.Fatalf("Verify() before expiry error = %v", err)
	}

	now = issuedAt.Add(TokenLifetime + time.Second)
	if _, err := codec.Verify(token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Verify() after expiry error = %v, want ErrInvalidSession", err)
	}
}

func TestCodec_RejectsUntrustedTokens(t *testing.T) {
	codec := NewCodec("test-secret", "test", nil)
	valid, err := codec.Issue(Claims{IsAdmin: true})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	signed := func(method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
		t.Helper()
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		if err != nil {
			t.Fatalf("SignedString() error = %v", err)
		}
		return s
	}
	registered := func(iss, aud string) jwt.RegisteredClaims {
		return jwt.RegisteredClaims{
			Issuer:    iss,
			Audience:  jwt.ClaimStrings{aud},
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}
	}

	parts := strings.Split(valid, ".")
	forgedPayload := base64.RawURLEncoding.EncodeToString([]byte(`{"isAdmin":true,"iss":"drapery","aud":["drapery-admin"],"exp":4102444800}`))

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"truncated", parts[0] + "." + parts[1]},
		{"tampered payload", parts[0] + "." + forgedPayload + "." + parts[2]},
		{"wrong issuer", signed(jwt.SigningMethodHS256, []byte("test-secret"), &Claims{IsAdmin: true, RegisteredClaims: registered("someone-else", Audience)})},
		{"wrong audience", signed(jwt.SigningMethodHS256, []byte("test-secret"), &Claims{IsAdmin: true, RegisteredClaims: registered(Issuer, "public")})},
		{"other hmac algorithm", signed(jwt.SigningMethodHS512, []byte("test-secret"), &Claims{IsAdmin: true, RegisteredClaims: registered(Issuer, Audience)})},
		{"unsigned", signed(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, &Claims{IsAdmin: true, RegisteredClaims: registered(Issuer, Audience)})},
		{"no expiry", signed(jwt.SigningMethodHS256, []byte("test-secret"), &Claims{IsAdmin: true, RegisteredClaims: jwt.RegisteredClaims{Issuer: Issuer, Audience: jwt.ClaimStrings{Audience}}})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := codec.Verify(tt.token)
			if !errors.Is(err, ErrInvalidSession) {
				t.Errorf("Verify() error = %v, want ErrInvalidSession", err)
			}
			if claims != nil {
				t.Errorf("Verify() claims = %+v, want nil", claims)
			}
		})
	}
}

func TestCodec_IgnoresCallerRegisteredClaims(t *testing.T) {
	codec := NewCodec("test-secret", "test", nil)

	token, err := codec.Issue(Claims{
		IsAdmin: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "attacker",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(365 * 24 * time.Hour)),
		},
	})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	claims, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.Issuer != Issuer {
		t.Errorf("Issuer = %q, want %q", claims.Issuer, Issuer)
	}
	if claims.ExpiresAt.Time.After(time.Now().Add(TokenLifetime + time.Minute)) {
		t.Errorf("ExpiresAt = %v, want within TokenLifetime", claims.ExpiresAt.Time)
	}
}

func TestNewCodec_DevelopmentFallback(t *testing.T) {
	tests := []struct {
		name     string
		env      string
		wantWarn bool
	}{
		{"development is silent", "development", false},
		{"production warns", "production", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			codec := NewCodec("", tt.env, logger)

			if got := strings.Contains(buf.String(), "SESSION_SECRET"); got != tt.wantWarn {
				t.Errorf("warning logged = %v, want %v (log: %q)", got, tt.wantWarn, buf.String())
			}

			token, err := codec.Issue(Claims{IsAdmin: true})
			if err != nil {
				t.Fatalf("Issue() error = %v", err)
			}
			other := NewCodec(DevelopmentSecret, "development", nil)
			if _, err := other.Verify(token); err != nil {
				t.Errorf("token not signed with development secret: %v", err)
			}
		})
	}
}

func TestSetCookie(t *testing.T) {
	tests := []struct {
		name       string
		isSecure   bool
		wantSecure bool
	}{
		{"development", false, false},
		{"production", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			SetCookie(rec, "tok", tt.isSecure)

			cookies := rec.Result().Cookies()
			if len(cookies) != 1 {
				t.Fatalf("got %d cookies, want 1", len(cookies))
			}
			c := cookies[0]
			if c.Name != "session" || c.Value != "tok" {
				t.Errorf("cookie = %s=%s, want session=tok", c.Name, c.Value)
			}
			if !c.HttpOnly {
				t.Error("cookie should be HttpOnly")
			}
			if c.Secure != tt.wantSecure {
				t.Errorf("Secure = %v, want %v", c.Secure, tt.wantSecure)
			}
			if c.Path != "/" {
				t.Errorf("Path = %q, want /", c.Path)
			}
			if c.MaxAge != 604800 {
				t.Errorf("MaxAge = %d, want 604800", c.MaxAge)
			}
			if c.SameSite != http.SameSiteLaxMode {
				t.Errorf("SameSite = %v, want Lax", c.SameSite)
			}
		})
	}
}

func TestTokenFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	if got := TokenFromRequest(req); got != "" {
		t.Errorf("TokenFromRequest() = %q, want empty", got)
	}

	req.AddCookie(&http.Cookie{Name: CookieName, Value: "abc"})
	if got := TokenFromRequest(req); got != "abc" {
		t.Errorf("TokenFromRequest() = %q, want abc", got)
	}
}
