package types

import (
	"time"

	"github.com/google/uuid"
)

// Valid role tags.
const (
	RoleAdmin     = "admin"
	RoleSuperUser = "super-user"
	RoleUser      = "user"
)

// User represents an account in the system.
// It contains identity, roles, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID uuid.UUID `json:"id" db:"id"`

	// Email is the user's login. It is stored lower-cased and is unique.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the bcrypt digest of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password"`

	// FullName is the user's display name.
	FullName string `json:"fullName" db:"full_name"`

	// IsActive reports whether the account may authenticate.
	IsActive bool `json:"isActive" db:"is_active"`

	// Roles holds the role tags granted to the user (e.g., "admin", "user").
	Roles []string `json:"roles" db:"roles"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"-" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"-" db:"updated_at"`
}

// UserView is the public projection of a User. It has no password field.
type UserView struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"fullName"`
	IsActive bool      `json:"isActive"`
	Roles    []string  `json:"roles"`
}

// NewUserView builds the public projection of user.
func NewUserView(user User) UserView {
	roles := make([]string, len(user.Roles))
	copy(roles, user.Roles)
	return UserView{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		IsActive: user.IsActive,
		Roles:    roles,
	}
}

// Session pairs a user projection with a freshly signed token.
type Session struct {
	User  UserView `json:"user"`
	Token string   `json:"token"`
}
