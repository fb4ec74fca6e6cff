package auth

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CookieConfig describes how the session credential is stored on the client.
type CookieConfig struct {
	Name       string
	LegacyName string
	Secure     bool
}

// Sessions binds a SessionManager to the cookie credential store.
type Sessions struct {
	manager *SessionManager
	cookie  CookieConfig
}

// NewSessions wires cookie handling around the manager.
func NewSessions(manager *SessionManager, cookie CookieConfig) *Sessions {
	if cookie.Name == "" {
		cookie.Name = "session"
	}
	return &Sessions{manager: manager, cookie: cookie}
}

// Manager exposes the underlying credential signer.
func (s *Sessions) Manager() *SessionManager {
	return s.manager
}

// ResolveRequest reads the credential from the session cookie, falling back to a bearer
// header. It never mutates the response.
func (s *Sessions) ResolveRequest(c *fiber.Ctx) (domain.Identity, bool) {
	return s.manager.Resolve(credentialFromRequest(c, s.cookie.Name))
}

// SetSessionCookie issues a credential and stores it on the response.
func (s *Sessions) SetSessionCookie(c *fiber.Ctx, userID string, role domain.Role) (time.Time, error) {
	token, expiresAt, err := s.manager.Issue(userID, role)
	if err != nil {
		return time.Time{}, err
	}
	c.Cookie(&fiber.Cookie{
		Name:     s.cookie.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.manager.TTL().Seconds()),
		Expires:  expiresAt,
		HTTPOnly: true,
		Secure:   s.cookie.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return expiresAt, nil
}

// ClearSessionCookie overwrites the credential with an expired value. Safe to call
// without an existing session.
func (s *Sessions) ClearSessionCookie(c *fiber.Ctx) {
	names := []string{s.cookie.Name}
	if s.cookie.LegacyName != "" && s.cookie.LegacyName != s.cookie.Name {
		names = append(names, s.cookie.LegacyName)
	}
	for _, name := range names {
		c.Cookie(&fiber.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
			HTTPOnly: true,
			Secure:   s.cookie.Secure,
			SameSite: fiber.CookieSameSiteLaxMode,
		})
	}
}

func credentialFromRequest(c *fiber.Ctx, cookieName string) string {
	if token := c.Cookies(cookieName); token != "" {
		return token
	}
	parts := strings.SplitN(c.Get(fiber.HeaderAuthorization), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
