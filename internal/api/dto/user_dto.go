package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// LoginRequest exchanges an identity-provider uid for a session.
type LoginRequest struct {
	UID  string `json:"uid"`
	Role string `json:"role"`
}

// SignUpRequest payload for self registration.
type SignUpRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Department string `json:"department"`
	Role       string `json:"role"`
}

// SignInRequest payload for password login.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordForgotRequest payload for initiating reset.
type PasswordForgotRequest struct {
	Email string `json:"email"`
}

// PasswordResetRequest payload for confirming reset.
type PasswordResetRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// SessionResponse describes a freshly issued session.
type SessionResponse struct {
	Success   bool         `json:"success"`
	Message   string       `json:"message"`
	Redirect  string       `json:"redirect"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

// SetRoleRequest payload.
type SetRoleRequest struct {
	Role string `json:"role"`
}

// UserStatusRequest identifies the approval target by id or email.
type UserStatusRequest struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// UserResponse is the wire shape of a directory record. Role stays the raw code;
// RoleLabel and Name are display formatted.
type UserResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	Department  domain.Department `json:"department"`
	Role        domain.Role       `json:"role"`
	RoleLabel   string            `json:"roleLabel"`
	Status      domain.UserStatus `json:"status"`
	CreatedAt   time.Time         `json:"createdAt"`
	LastUpdated time.Time         `json:"lastUpdated"`
}

// NewUserResponse maps a directory record.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Name:        u.DisplayName(),
		Email:       u.Email,
		Department:  u.Department,
		Role:        u.Role,
		RoleLabel:   u.Role.Label(),
		Status:      u.Status,
		CreatedAt:   u.CreatedAt,
		LastUpdated: u.LastUpdated,
	}
}

// NewUserList maps a slice.
func NewUserList(users []domain.User) []UserResponse {
	items := make([]UserResponse, 0, len(users))
	for i := range users {
		items = append(items, NewUserResponse(&users[i]))
	}
	return items
}

// EnumsResponse publishes every shared enumeration.
type EnumsResponse struct {
	Roles            []RoleOption            `json:"roles"`
	UserStatuses     []domain.UserStatus     `json:"userStatuses"`
	Departments      []domain.DepartmentInfo `json:"departments"`
	TicketStatuses   []domain.TicketStatus   `json:"ticketStatuses"`
	TicketPriorities []domain.TicketPriority `json:"ticketPriorities"`
	CommentTypes     []domain.CommentType    `json:"commentTypes"`
	AlertTypes       []domain.AlertType      `json:"alertTypes"`
	ProtectedRoutes  []string                `json:"protectedRoutes"`
}

// RoleOption pairs a role code with its label.
type RoleOption struct {
	Code  domain.Role `json:"code"`
	Label string      `json:"label"`
}
