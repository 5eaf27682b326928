package auth

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/mmynk/groupdo/internal/models"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "groupdo_session"

// Sessions issues and clears session cookies backed by a JWTManager.
type Sessions struct {
	jwt    *JWTManager
	secure bool
}

// NewSessions creates a cookie session helper. secure marks cookies HTTPS-only.
func NewSessions(jwtManager *JWTManager, secure bool) *Sessions {
	return &Sessions{jwt: jwtManager, secure: secure}
}

// Tokens exposes the underlying token manager.
func (s *Sessions) Tokens() *JWTManager {
	return s.jwt
}

// Login signs a token for the user and sets it as the session cookie.
func (s *Sessions) Login(w http.ResponseWriter, user *models.User) error {
	token, err := s.jwt.Generate(user)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.jwt.Duration().Seconds()),
	})
	return nil
}

// Logout clears the session cookie. Calling it without a session is harmless.
func (s *Sessions) Logout(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// FromRequest validates the session cookie of r.
func (s *Sessions) FromRequest(r *http.Request) (*Claims, error) {
	return s.FromHeader(r.Header)
}

// FromHeader validates a bearer token or, failing that, the session cookie
// found in h. Connect handlers only see headers, not the *http.Request.
func (s *Sessions) FromHeader(h http.Header) (*Claims, error) {
	if authz := h.Get("Authorization"); authz != "" {
		parts := strings.SplitN(authz, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return nil, ErrInvalidToken
		}
		return s.jwt.Validate(parts[1])
	}

	c, err := (&http.Request{Header: h}).Cookie(SessionCookieName)
	if err != nil {
		return nil, ErrMissingToken
	}
	return s.jwt.Validate(c.Value)
}

// SafeRedirect returns next if it is a local absolute path, else fallback.
// It keeps the post-login redirect from sending users to another site.
func SafeRedirect(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return next
}
