package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/altostack/account-service/permissions"
)

// Role represents a named bundle of permissions. Access is stored as a JSON
// string array; order is irrelevant. An empty access set grants nothing,
// which is distinct from a user having no role at all (that falls back to the
// catalog defaults).
type Role struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Access      string    `json:"access" db:"access"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Role model
func (Role) TableName() string {
	return "roles"
}

// NewRole creates a new Role instance with the given permission strings
func NewRole(name, description string, access []string) (*Role, error) {
	now := time.Now()
	role := &Role{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := role.SetAccess(access); err != nil {
		return nil, err
	}
	return role, nil
}

// SetAccess serializes the permission strings into the Access field
func (r *Role) SetAccess(access []string) error {
	if access == nil {
		access = []string{}
	}
	data, err := json.Marshal(access)
	if err != nil {
		return fmt.Errorf("failed to serialize role access: %w", err)
	}
	r.Access = string(data)
	return nil
}

// HasAccess reports whether an access list was ever configured for the role.
// A role with no configured access is treated like no role at all, while an
// explicitly empty list grants nothing.
func (r *Role) HasAccess() bool {
	return r.Access != ""
}

// Permissions parses the serialized Access field into permission strings.
// An empty or absent Access yields an empty set.
func (r *Role) Permissions() ([]string, error) {
	if r.Access == "" {
		return []string{}, nil
	}
	var perms []string
	if err := json.Unmarshal([]byte(r.Access), &perms); err != nil {
		return nil, fmt.Errorf("malformed role access %q: %w", r.Access, err)
	}
	return perms, nil
}

// InvalidPermissions returns the entries in Access that are not part of the
// permission catalog. A nil return means the role validates; a role with
// unknown entries must be rejected before persistence.
func (r *Role) InvalidPermissions(catalog *permissions.Catalog) ([]string, error) {
	perms, err := r.Permissions()
	if err != nil {
		return nil, err
	}
	var invalid []string
	for _, p := range perms {
		if !catalog.IsValid(p) {
			invalid = append(invalid, p)
		}
	}
	return invalid, nil
}
