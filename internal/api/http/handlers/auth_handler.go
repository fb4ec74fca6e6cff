package handlers

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// HeaderLoginExchangeKey carries the shared secret of a trusted login front end.
const HeaderLoginExchangeKey = "X-Login-Exchange-Key"

// AuthHandler exposes session and built-in identity endpoints.
type AuthHandler struct {
	identity    *service.IdentityService
	sessions    *auth.Sessions
	exchangeKey string
}

// NewAuthHandler constructs handler. An empty exchangeKey disables the header check.
func NewAuthHandler(identity *service.IdentityService, sessions *auth.Sessions, exchangeKey string) *AuthHandler {
	return &AuthHandler{identity: identity, sessions: sessions, exchangeKey: exchangeKey}
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.UID) == "" || strings.TrimSpace(req.Role) == "" {
		return apperrors.NewValidationError("Missing user data", nil)
	}
	if h.exchangeKey != "" && subtle.ConstantTimeCompare([]byte(c.Get(HeaderLoginExchangeKey)), []byte(h.exchangeKey)) != 1 {
		return apperrors.NewUnauthorized("login exchange key mismatch")
	}

	result, err := h.identity.Login(c.UserContext(), req.UID, req.Role)
	if err != nil {
		return err
	}
	return h.startSession(c, result)
}

// SignIn handles POST /api/auth/sign-in.
func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var req dto.SignInRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}
	result, err := h.identity.SignIn(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return h.startSession(c, result)
}

func (h *AuthHandler) startSession(c *fiber.Ctx, result *service.LoginResult) error {
	expiresAt, err := h.sessions.SetSessionCookie(c, result.User.ID, result.User.Role)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.JSON(dto.SessionResponse{
		Success:   true,
		Message:   "Session set successfully",
		Redirect:  result.Redirect,
		ExpiresAt: expiresAt,
		User:      dto.NewUserResponse(result.User),
	})
}

// Logout handles POST /api/auth/logout. Safe without a session.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.sessions.ClearSessionCookie(c)
	return c.JSON(fiber.Map{"success": true, "type": ToastSuccess, "message": "Logged out"})
}

// SignUp handles POST /api/auth/signup.
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req dto.SignUpRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.identity.SignUp(c.UserContext(), service.SignUpInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		Department: req.Department,
		Role:       req.Role,
	})
	if err != nil {
		return err
	}
	return respondMutation(c, http.StatusCreated, dto.NewUserResponse(user),
		"Account created. An administrator must approve it before you can log in.", nil)
}

// ForgotPassword handles POST /api/auth/password/forgot.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.PasswordForgotRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Email) == "" {
		return apperrors.NewValidationError("email required", nil)
	}
	if err := h.identity.RequestPasswordReset(c.UserContext(), req.Email); err != nil {
		return err
	}
	return respondMutation(c, http.StatusAccepted, nil,
		"If that address is registered, a reset link is on its way.", nil)
}

// ResetPassword handles POST /api/auth/password/reset.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.PasswordResetRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Token == "" {
		return apperrors.NewValidationError("token required", nil)
	}
	if err := h.identity.ConfirmPasswordReset(c.UserContext(), req.Token, req.NewPassword); err != nil {
		return err
	}
	return respondMutation(c, http.StatusOK, nil, "Password updated. You can now log in.", nil)
}

// Me handles GET /api/auth/me. Pending users may call it.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("Unauthorized")
	}
	return c.JSON(fiber.Map{"user": dto.NewUserResponse(principal.User)})
}
