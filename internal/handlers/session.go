package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
)

const sessionCookieName = "__Secure-Token"

const sessionMaxAge = 365 * 24 * time.Hour

// Session signs and verifies the cookie wrapping the account's bearer
// secret. The secret itself stays the credential; the signature only stops
// cookie tampering.
type Session struct {
	signingSecret []byte
}

func NewSession(signingSecret string) *Session {
	return &Session{signingSecret: []byte(signingSecret)}
}

// Issue wraps the bearer secret in a signed token.
func (s *Session) Issue(bearerSecret string) (string, error) {
	claims := jwt.MapClaims{
		"token": bearerSecret,
		"exp":   time.Now().Add(sessionMaxAge).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingSecret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}

// Parse verifies the cookie value and returns the wrapped bearer secret.
func (s *Session) Parse(value string) (string, error) {
	parsed, err := jwt.Parse(value, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.signingSecret, nil
	})
	if err != nil {
		return "", fmt.Errorf("parsing session token: %w", err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return "", fmt.Errorf("invalid session token")
	}

	secret, ok := claims["token"].(string)
	if !ok || secret == "" {
		return "", fmt.Errorf("session token missing bearer secret")
	}
	return secret, nil
}

// setSessionCookie attaches the signed session cookie to the response.
func (s *Session) setSessionCookie(c echo.Context, bearerSecret string) error {
	signed, err := s.Issue(bearerSecret)
	if err != nil {
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
