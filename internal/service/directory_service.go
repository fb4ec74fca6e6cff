package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// AssignmentReleaser clears the ticket assignments a user holds.
type AssignmentReleaser interface {
	ReleaseAssignments(ctx context.Context, actor domain.Actor, userID string) (int, error)
}

// DirectoryService manages user roles and approval.
type DirectoryService struct {
	users       repository.UserRepository
	assignments AssignmentReleaser
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	now         func() time.Time
}

// NewDirectoryService constructs the service. Users who stop being valid assignees
// have their unresolved tickets released through assignments.
func NewDirectoryService(users repository.UserRepository, assignments AssignmentReleaser, dispatcher events.Dispatcher, logger *zap.Logger) *DirectoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirectoryService{
		users:       users,
		assignments: assignments,
		dispatcher:  dispatcher,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// StaffFilter narrows the admin user listing.
type StaffFilter struct {
	Role   string
	Status string
}

// ListStaff returns directory records for administration.
func (s *DirectoryService) ListStaff(ctx context.Context, actor domain.Actor, filter StaffFilter) ([]domain.User, error) {
	if err := s.requireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	var repoFilter repository.UserFilter
	if filter.Role != "" {
		role, ok := domain.ParseRole(filter.Role)
		if !ok {
			return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": filter.Role})
		}
		repoFilter.Roles = []domain.Role{role}
	}
	if filter.Status != "" {
		status := domain.UserStatus(strings.ToLower(filter.Status))
		if !status.Valid() {
			return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": filter.Status})
		}
		repoFilter.Status = &status
	}
	users, err := s.users.List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// ListAgents returns the approved users tickets can be assigned to.
func (s *DirectoryService) ListAgents(ctx context.Context, actor domain.Actor) ([]domain.User, error) {
	if !actor.Role.IsAgent() {
		return nil, apperrors.NewForbidden("only agents may list agents")
	}
	approved := domain.UserStatusApproved
	users, err := s.users.List(ctx, repository.UserFilter{
		Roles:  []domain.Role{domain.RoleIT, domain.RoleAdmin},
		Status: &approved,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// Stats returns directory counters.
func (s *DirectoryService) Stats(ctx context.Context, actor domain.Actor) (repository.UserStats, error) {
	if err := s.requireAdmin(ctx, actor); err != nil {
		return repository.UserStats{}, err
	}
	stats, err := s.users.Stats(ctx)
	if err != nil {
		return repository.UserStats{}, apperrors.MapError(err)
	}
	return stats, nil
}

// SetRole changes a user's role. Admins cannot demote themselves.
func (s *DirectoryService) SetRole(ctx context.Context, actor domain.Actor, id, role string) (*domain.User, error) {
	if err := s.requireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	parsed, ok := domain.ParseRole(role)
	if !ok {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": role})
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.ID == actor.ID && parsed != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("admins cannot demote themselves")
	}
	if user.Role != parsed {
		user.Role = parsed
		if err := s.save(ctx, user); err != nil {
			return nil, err
		}
		s.logger.Info("user role changed", zap.String("user_id", user.ID), zap.String("role", string(parsed)), zap.String("by", actor.ID))
	}
	if err := s.releaseIfIneligible(ctx, actor, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetStatus applies an approval state and emits the matching event.
func (s *DirectoryService) SetStatus(ctx context.Context, actor domain.Actor, id string, status domain.UserStatus) (*domain.User, error) {
	if err := s.requireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": status})
	}
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.ID == actor.ID && status != domain.UserStatusApproved {
		return nil, apperrors.NewForbidden("admins cannot revoke their own access")
	}
	if user.Status != status {
		user.Status = status
		if err := s.save(ctx, user); err != nil {
			return nil, err
		}
		s.logger.Info("user status changed", zap.String("user_id", user.ID), zap.String("status", string(status)), zap.String("by", actor.ID))
	}
	if err := s.releaseIfIneligible(ctx, actor, user); err != nil {
		return nil, err
	}

	eventType := events.EventUserApproved
	if status == domain.UserStatusPending {
		eventType = events.EventUserRejected
	}
	s.publishEvent(ctx, eventType, actor, user)
	return user, nil
}

// Approve marks a user approved.
func (s *DirectoryService) Approve(ctx context.Context, actor domain.Actor, id string) (*domain.User, error) {
	return s.SetStatus(ctx, actor, id, domain.UserStatusApproved)
}

// Reject revokes approval by moving the user back to pending.
func (s *DirectoryService) Reject(ctx context.Context, actor domain.Actor, id string) (*domain.User, error) {
	return s.SetStatus(ctx, actor, id, domain.UserStatusPending)
}

// FindByEmail resolves the target of approval requests that carry an address.
func (s *DirectoryService) FindByEmail(ctx context.Context, actor domain.Actor, email string) (*domain.User, error) {
	if err := s.requireAdmin(ctx, actor); err != nil {
		return nil, err
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", map[string]any{"email": email})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// requireAdmin checks the live directory record rather than the session claim.
func (s *DirectoryService) requireAdmin(ctx context.Context, actor domain.Actor) error {
	if actor.ID == "" {
		return apperrors.NewUnauthorized("authentication required")
	}
	live, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewForbidden("caller is not in the directory")
		}
		return apperrors.MapError(err)
	}
	if live.Role != domain.RoleAdmin || !live.Approved() {
		return apperrors.NewForbidden("admin access required")
	}
	return nil
}

// releaseIfIneligible runs after the directory write, so new assignments to the user are
// already refused. A failed release leaves the change saved; repeating the call finishes it.
func (s *DirectoryService) releaseIfIneligible(ctx context.Context, actor domain.Actor, user *domain.User) error {
	if s.assignments == nil || ValidAssignee(user) {
		return nil
	}
	if _, err := s.assignments.ReleaseAssignments(ctx, actor, user.ID); err != nil {
		s.logger.Error("failed to release assignments", zap.String("user_id", user.ID), zap.Error(err))
		return err
	}
	return nil
}

func (s *DirectoryService) load(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

func (s *DirectoryService) save(ctx context.Context, user *domain.User) error {
	user.LastUpdated = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("user", map[string]any{"id": user.ID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

func (s *DirectoryService) publishEvent(ctx context.Context, eventType events.EventType, actor domain.Actor, user *domain.User) {
	if s.dispatcher == nil {
		return
	}
	event := events.New(eventType, events.ActorOf(actor), s.now(), events.UserStatusPayload{
		Name:  user.DisplayName(),
		Email: user.Email,
	})
	event.UserID = user.ID
	_ = s.dispatcher.Publish(context.WithoutCancel(ctx), event)
}
