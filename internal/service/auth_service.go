package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// Landing pages chosen after a successful login.
const (
	AdminLanding   = "/admin"
	DefaultLanding = "/dashboard"
	PendingLanding = "/pending"
)

var signupRoles = map[domain.Role]bool{
	domain.RoleDoctor: true,
	domain.RoleNurse:  true,
	domain.RoleIT:     true,
	domain.RoleStaff:  true,
}

// IdentityService coordinates registration, login and password resets.
type IdentityService struct {
	users      repository.UserRepository
	resets     repository.PasswordResetRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	bcryptCost int
	resetTTL   time.Duration
	now        func() time.Time
}

// IdentityDependencies encapsulates repo requirements for the identity service.
type IdentityDependencies struct {
	UserRepo          repository.UserRepository
	PasswordResetRepo repository.PasswordResetRepository
	Dispatcher        events.Dispatcher
	Logger            *zap.Logger
}

// SignUpInput is the self-registration payload.
type SignUpInput struct {
	Name       string
	Email      string
	Password   string
	Department string
	Role       string
}

// LoginResult is an authenticated directory user and where to send them.
type LoginResult struct {
	User     *domain.User
	Redirect string
}

// NewIdentityService builds the service.
func NewIdentityService(cfg config.AuthConfig, deps IdentityDependencies) *IdentityService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := cfg.PasswordResetTTL()
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &IdentityService{
		users:      deps.UserRepo,
		resets:     deps.PasswordResetRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		bcryptCost: cfg.BcryptCost,
		resetTTL:   ttl,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Login exchanges an externally verified uid for a session subject. The role the client
// claims is advisory; the directory role is what gets embedded.
func (s *IdentityService) Login(ctx context.Context, uid string, claimedRole string) (*LoginResult, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, apperrors.NewValidationError("uid is required", map[string]any{"uid": "required"})
	}
	user, err := s.users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", map[string]any{"uid": uid})
		}
		return nil, apperrors.MapError(err)
	}
	if claimed, ok := domain.ParseRole(claimedRole); ok && claimed != user.Role {
		s.logger.Info("login role differs from directory", zap.String("user_id", user.ID),
			zap.String("claimed", string(claimed)), zap.String("directory", string(user.Role)))
	}
	return s.loginResult(user)
}

// SignIn verifies email and password against the built-in identity store.
func (s *IdentityService) SignIn(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	return s.loginResult(user)
}

func (s *IdentityService) loginResult(user *domain.User) (*LoginResult, error) {
	if !user.Approved() {
		return nil, apperrors.NewPending("your account is awaiting admin approval")
	}
	redirect := DefaultLanding
	if user.Role == domain.RoleAdmin {
		redirect = AdminLanding
	}
	return &LoginResult{User: user, Redirect: redirect}, nil
}

// SignUp registers a pending account. Admin cannot be self-selected.
func (s *IdentityService) SignUp(ctx context.Context, input SignUpInput) (*domain.User, error) {
	role, ok := domain.ParseRole(input.Role)
	if !ok || !signupRoles[role] {
		role = ""
	}
	return s.register(ctx, input, role, domain.UserStatusPending)
}

// BootstrapAdmin creates an approved admin account. Used by operator tooling to seed
// the first administrator.
func (s *IdentityService) BootstrapAdmin(ctx context.Context, input SignUpInput) (*domain.User, error) {
	return s.register(ctx, input, domain.RoleAdmin, domain.UserStatusApproved)
}

// register validates and stores a directory record. An empty role fails validation.
func (s *IdentityService) register(ctx context.Context, input SignUpInput, role domain.Role, status domain.UserStatus) (*domain.User, error) {
	details := map[string]any{}
	name := strings.TrimSpace(input.Name)
	email := domain.NormalizeEmail(input.Email)
	if name == "" {
		details["name"] = "required"
	}
	if !strings.Contains(email, "@") {
		details["email"] = "invalid email"
	}
	if err := auth.ValidatePassword(input.Password); err != nil {
		details["password"] = err.Error()
	}
	department, ok := domain.ParseDepartment(input.Department)
	if !ok {
		details["department"] = "unknown department"
	}
	if role == "" {
		details["role"] = "must be one of doctor, nurse, it, staff"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid signup", details)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	now := s.now()
	user := &domain.User{
		Name:         name,
		Email:        email,
		Department:   department,
		Role:         role,
		Status:       status,
		PasswordHash: hash,
		CreatedAt:    now,
		LastUpdated:  now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
		}
		return nil, apperrors.MapError(err)
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(role)), zap.String("status", string(status)))
	return user, nil
}

// Me returns the caller's directory record.
func (s *IdentityService) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", map[string]any{"uid": userID})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// RequestPasswordReset issues a reset token and hands it to the mailer. Unknown emails
// succeed silently so the endpoint cannot be used to probe the directory.
func (s *IdentityService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return apperrors.MapError(err)
	}

	token := &domain.PasswordResetToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: s.now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return apperrors.MapError(err)
	}

	if s.dispatcher != nil {
		event := events.New(events.EventPasswordResetRequested, events.Actor{ID: user.ID, Role: user.Role}, s.now(), events.PasswordResetPayload{
			Name:      user.DisplayName(),
			Email:     user.Email,
			Token:     token.Token,
			ExpiresAt: token.ExpiresAt,
		})
		event.UserID = user.ID
		_ = s.dispatcher.Publish(context.WithoutCancel(ctx), event)
	}
	return nil
}

// ConfirmPasswordReset validates the reset token and updates password.
func (s *IdentityService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	if err := auth.ValidatePassword(newPassword); err != nil {
		return apperrors.NewValidationError(err.Error(), map[string]any{"password": err.Error()})
	}
	invalid := apperrors.NewValidationError("reset link is invalid or expired", map[string]any{"token": "invalid"})

	token, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalid
		}
		return apperrors.MapError(err)
	}
	now := s.now()
	if token.UsedAt != nil || now.After(token.ExpiresAt) {
		return invalid
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalid
		}
		return apperrors.MapError(err)
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	if err := s.resets.MarkUsed(ctx, token.ID, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalid
		}
		return apperrors.MapError(err)
	}
	user.PasswordHash = hash
	user.LastUpdated = now
	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.MapError(err)
	}
	s.logger.Info("password reset completed", zap.String("user_id", user.ID))
	return nil
}

// PurgeResetTokens removes expired and consumed reset tokens.
func (s *IdentityService) PurgeResetTokens(ctx context.Context) (int64, error) {
	return s.resets.PurgeExpired(ctx, s.now())
}
