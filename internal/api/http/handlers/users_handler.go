package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// UsersHandler exposes directory administration.
type UsersHandler struct {
	directory *service.DirectoryService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(directory *service.DirectoryService) *UsersHandler {
	return &UsersHandler{directory: directory}
}

// List handles GET /api/users?role=&status=.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	users, err := h.directory.ListStaff(c.UserContext(), actor, service.StaffFilter{
		Role:   c.Query("role"),
		Status: c.Query("status"),
	})
	if err != nil {
		return err
	}
	return respondData(c, dto.NewUserList(users))
}

// Agents handles GET /api/users/agents.
func (h *UsersHandler) Agents(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	users, err := h.directory.ListAgents(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return respondData(c, dto.NewUserList(users))
}

// Stats handles GET /api/users/stats.
func (h *UsersHandler) Stats(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	stats, err := h.directory.Stats(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return respondData(c, stats)
}

// SetRole handles PATCH /api/users/:id/role.
func (h *UsersHandler) SetRole(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.SetRoleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.directory.SetRole(c.UserContext(), actor, c.Params("id"), req.Role)
	if err != nil {
		return err
	}
	return respondMutation(c, http.StatusOK, dto.NewUserResponse(user),
		user.DisplayName()+" is now "+user.Role.Label()+".", nil)
}

// Approve handles POST /api/users/approve-user.
func (h *UsersHandler) Approve(c *fiber.Ctx) error {
	return h.setStatus(c, domain.UserStatusApproved)
}

// Reject handles POST /api/reject-user.
func (h *UsersHandler) Reject(c *fiber.Ctx) error {
	return h.setStatus(c, domain.UserStatusPending)
}

func (h *UsersHandler) setStatus(c *fiber.Ctx, status domain.UserStatus) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.UserStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		if strings.TrimSpace(req.Email) == "" {
			return apperrors.NewValidationError("userId or email required", nil)
		}
		target, err := h.directory.FindByEmail(c.UserContext(), actor, req.Email)
		if err != nil {
			return err
		}
		userID = target.ID
	}

	user, err := h.directory.SetStatus(c.UserContext(), actor, userID, status)
	if err != nil {
		return err
	}
	message := user.DisplayName() + " has been approved."
	if status == domain.UserStatusPending {
		message = user.DisplayName() + " has been rejected."
	}
	return respondMutation(c, http.StatusOK, dto.NewUserResponse(user), message,
		fiber.Map{"success": true, "name": user.DisplayName()})
}
