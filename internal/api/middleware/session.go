package middleware

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/channelpass/platform/internal/core/domain"
	"github.com/channelpass/platform/internal/core/ports"
)

const sessionContextKey = "session"

// CookieCodec signs and parses the session cookie. Only the opaque session id
// travels client-side; role, scope and expiry live in the server-side store,
// so a revoked session dies on the next request even with a valid cookie.
type CookieCodec struct {
	Name   string
	Secret []byte
	Secure bool
}

func NewCookieCodec(name, secret string, secure bool) *CookieCodec {
	if name == "" {
		name = "cp_session"
	}
	return &CookieCodec{Name: name, Secret: []byte(secret), Secure: secure}
}

// Issue builds the Set-Cookie value for a freshly resolved session.
func (cc *CookieCodec) Issue(sid string, expiresAt time.Time) (*http.Cookie, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sid": sid,
		"exp": expiresAt.Unix(),
	})
	signed, err := token.SignedString(cc.Secret)
	if err != nil {
		return nil, fmt.Errorf("sign session cookie: %w", err)
	}

	return &http.Cookie{
		Name:     cc.Name,
		Value:    signed,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteLaxMode,
	}, nil
}

// Clear builds the expired cookie sent on logout.
func (cc *CookieCodec) Clear() *http.Cookie {
	return &http.Cookie{
		Name:     cc.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// SessionID extracts and verifies the session id from the request cookie.
func (cc *CookieCodec) SessionID(c echo.Context) (string, error) {
	cookie, err := c.Cookie(cc.Name)
	if err != nil || cookie.Value == "" {
		return "", domain.ErrNoSession
	}

	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(cookie.Value, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return cc.Secret, nil
	})
	if err != nil || !tkn.Valid {
		return "", domain.ErrNoSession
	}

	sid, _ := claims["sid"].(string)
	if sid == "" {
		return "", domain.ErrNoSession
	}
	return sid, nil
}

// Session resolves the caller's session from the cookie and injects it into
// the request context. It never rejects the request itself: routes that
// require a session gate it with Guard, routes that merely prefer one
// (GET /auth/session) read what is here.
func Session(cc *CookieCodec, store ports.SessionStore) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sid, err := cc.SessionID(c)
			if err != nil {
				return next(c)
			}

			session, err := store.Find(c.Request().Context(), sid)
			if err != nil {
				return next(c)
			}

			c.Set(sessionContextKey, session)
			return next(c)
		}
	}
}

// SessionFrom returns the session the Session middleware resolved, or nil.
func SessionFrom(c echo.Context) *domain.Session {
	session, _ := c.Get(sessionContextKey).(*domain.Session)
	return session
}

// WantsJSON reports whether the caller is an XHR/API client rather than a
// navigating browser. Browsers get redirects, API callers get JSON envelopes.
func WantsJSON(c echo.Context) bool {
	if c.Request().Header.Get("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	accept := c.Request().Header.Get(echo.HeaderAccept)
	return strings.Contains(accept, echo.MIMEApplicationJSON) &&
		!strings.Contains(accept, echo.MIMETextHTML)
}
