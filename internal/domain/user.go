package domain

import (
	"strings"
	"time"
	"unicode"
)

// Role enumerates directory roles. Values are lowercase and shared with clients verbatim.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleIT     Role = "it"
	RoleDoctor Role = "doctor"
	RoleNurse  Role = "nurse"
	RoleStaff  Role = "staff"
)

// Roles lists every role in display order.
var Roles = []Role{RoleAdmin, RoleIT, RoleDoctor, RoleNurse, RoleStaff}

var roleLabels = map[Role]string{
	RoleAdmin:  "Admin",
	RoleIT:     "IT Support",
	RoleDoctor: "Doctor",
	RoleNurse:  "Nurse",
	RoleStaff:  "Staff",
}

// ParseRole normalises a role string. Display labels such as "IT Support" are accepted.
func ParseRole(val string) (Role, bool) {
	norm := strings.ToLower(strings.TrimSpace(val))
	if norm == "it support" {
		return RoleIT, true
	}
	role := Role(norm)
	return role, role.Valid()
}

// Valid reports whether the role is one of the fixed roles.
func (r Role) Valid() bool {
	_, ok := roleLabels[r]
	return ok
}

// Label returns the human readable role name.
func (r Role) Label() string {
	return roleLabels[r]
}

// IsAgent reports whether users with this role can be assigned tickets.
func (r Role) IsAgent() bool {
	return r == RoleIT || r == RoleAdmin
}

// UserStatus represents directory approval state.
type UserStatus string

const (
	UserStatusPending  UserStatus = "pending"
	UserStatusApproved UserStatus = "approved"
)

// Valid reports whether the status is known.
func (s UserStatus) Valid() bool {
	return s == UserStatusPending || s == UserStatusApproved
}

// User is a directory record.
type User struct {
	ID           string
	Name         string
	Email        string
	Department   Department
	Role         Role
	Status       UserStatus
	PasswordHash string
	CreatedAt    time.Time
	LastUpdated  time.Time
}

// Approved reports whether the user passed admin approval.
func (u *User) Approved() bool {
	return u != nil && u.Status == UserStatusApproved
}

// DisplayName title-cases each word of the stored name.
func (u *User) DisplayName() string {
	words := strings.Fields(u.Name)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// NormalizeEmail lowercases and trims an address for comparison and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
