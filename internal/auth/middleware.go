package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

const (
	principalKey = "auth_principal"
	identityKey  = "auth_identity"
)

// Principal represents the authenticated caller resolved against the live directory.
type Principal struct {
	Identity domain.Identity
	User     *domain.User
}

// Actor converts the principal to the service-level caller.
func (p *Principal) Actor() domain.Actor {
	return domain.ActorFromUser(p.User)
}

// StaleRole reports whether the token carries a role the directory no longer holds.
func (p *Principal) StaleRole() bool {
	return p.Identity.Role != p.User.Role
}

// AuthMiddleware validates session credentials and loads principals.
type AuthMiddleware struct {
	sessions *Sessions
	users    repository.UserRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(sessions *Sessions, users repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions, users: users}
}

// Handle enforces an approved directory record for API routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	return m.handle(c, false)
}

// HandleAllowPending authenticates without requiring approval.
func (m *AuthMiddleware) HandleAllowPending(c *fiber.Ctx) error {
	return m.handle(c, true)
}

func (m *AuthMiddleware) handle(c *fiber.Ctx, allowPending bool) error {
	identity, ok := m.sessions.ResolveRequest(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	user, err := m.users.GetByID(c.UserContext(), identity.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("user", map[string]any{"id": identity.UserID})
		}
		return apperrors.MapError(err)
	}
	if !allowPending && !user.Approved() {
		return apperrors.NewPending("account awaiting administrator approval")
	}

	c.Locals(identityKey, identity)
	c.Locals(principalKey, &Principal{Identity: identity, User: user})
	return c.Next()
}

// PageGate applies the route table before page content is served. Failures are
// always redirects.
func PageGate(sessions *Sessions) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identity, _ := sessions.ResolveRequest(c)
		decision := Authorize(c.Path(), identity.Role)
		if !decision.Allowed {
			return c.Redirect(decision.Target, fiber.StatusTemporaryRedirect)
		}
		c.Locals(identityKey, identity)
		return c.Next()
	}
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok && principal.User != nil
}

// IdentityFromContext returns the token identity stored by the gate or API middleware.
func IdentityFromContext(c *fiber.Ctx) (domain.Identity, bool) {
	identity, ok := c.Locals(identityKey).(domain.Identity)
	return identity, ok && identity.UserID != ""
}
