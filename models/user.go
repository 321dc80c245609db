package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered principal. PasswordHash is never serialized
// outward and never logged; only the auth package reads or writes it.
type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Name         string     `json:"name" db:"name"`
	FullName     string     `json:"fullname" db:"fullname"`
	Username     string     `json:"username" db:"username"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	RoleID       *uuid.UUID `json:"role_id,omitempty" db:"role_id"` // Null when no role assigned
	IsActive     bool       `json:"is_active" db:"is_active"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// NewUser creates a new User instance. The password hash is set separately by
// the caller via the password hasher.
func NewUser(name, fullName, username, email string) *User {
	now := time.Now()
	return &User{
		ID:        uuid.New(),
		Name:      name,
		FullName:  fullName,
		Username:  username,
		Email:     email,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasRole returns true if the user has a role assigned
func (u *User) HasRole() bool {
	return u.RoleID != nil
}
