package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// MetaHandler serves route decisions and shared enumerations.
type MetaHandler struct {
	sessions *auth.Sessions
}

// NewMetaHandler constructs handler.
func NewMetaHandler(sessions *auth.Sessions) *MetaHandler {
	return &MetaHandler{sessions: sessions}
}

// Authorize handles GET /api/authorize?route=. The decision uses the token role, like
// the page gate.
func (h *MetaHandler) Authorize(c *fiber.Ctx) error {
	route := c.Query("route")
	if route == "" {
		return apperrors.NewValidationError("route required", map[string]any{"route": "required"})
	}
	identity, _ := h.sessions.ResolveRequest(c)
	decision := auth.Authorize(route, identity.Role)
	if decision.Allowed {
		return c.JSON(fiber.Map{"decision": "allow"})
	}
	return c.JSON(fiber.Map{"decision": "redirect", "target": decision.Target})
}

// Enums handles GET /api/meta/enums.
func (h *MetaHandler) Enums(c *fiber.Ctx) error {
	roles := make([]dto.RoleOption, 0, len(domain.Roles))
	for _, r := range domain.Roles {
		roles = append(roles, dto.RoleOption{Code: r, Label: r.Label()})
	}
	return respondData(c, dto.EnumsResponse{
		Roles:            roles,
		UserStatuses:     []domain.UserStatus{domain.UserStatusPending, domain.UserStatusApproved},
		Departments:      domain.Departments,
		TicketStatuses:   domain.TicketStatuses,
		TicketPriorities: domain.TicketPriorities,
		CommentTypes:     []domain.CommentType{domain.CommentTypeComment, domain.CommentTypeSystem},
		AlertTypes:       []domain.AlertType{domain.AlertTypeCritical, domain.AlertTypeWarning, domain.AlertTypeInfo},
		ProtectedRoutes:  auth.ProtectedRoutes(),
	})
}
