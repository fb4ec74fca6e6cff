package domain

import "time"

// Identity is the minimal claim set carried by a session credential.
type Identity struct {
	UserID string
	Role   Role
}

// Actor is the caller of a service operation, resolved against the live directory.
type Actor struct {
	ID    string
	Name  string
	Email string
	Role  Role
}

// ActorFromUser builds an actor from a directory record.
func ActorFromUser(u *User) Actor {
	return Actor{ID: u.ID, Name: u.DisplayName(), Email: u.Email, Role: u.Role}
}

// PasswordResetToken is a single-use credential for resetting a password.
type PasswordResetToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}
