package api

import (
	"net/http"
	"time"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "token"

// CookieConfig controls session cookie attributes.
type CookieConfig struct {
	// Secure marks the cookie HTTPS-only. Enabled in production.
	Secure bool

	// MaxAge is the cookie lifetime; it matches the token lifetime.
	MaxAge time.Duration
}

// DefaultSessionMaxAge is one week, the lifetime of a session token.
const DefaultSessionMaxAge = 7 * 24 * time.Hour

func (c CookieConfig) maxAge() time.Duration {
	if c.MaxAge <= 0 {
		return DefaultSessionMaxAge
	}
	return c.MaxAge
}

// setSessionCookie writes the session token cookie.
func setSessionCookie(w http.ResponseWriter, cfg CookieConfig, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cfg.maxAge() / time.Second),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearSessionCookie expires the session cookie in the browser.
func clearSessionCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}
