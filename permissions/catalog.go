// Package permissions holds the static permission catalog the service is
// authorized to grant. The catalog ships embedded in the binary and is loaded
// once at startup; changing it requires a rebuild and restart.
package permissions

import (
	"encoding/json"
	"fmt"

	_ "embed"
)

//go:embed permissions.json
var catalogJSON []byte

// Catalog is the versioned enumeration of known permission strings plus the
// default set applied to principals without an assigned role. Read-only after
// Load; safe for unsynchronized concurrent reads.
type Catalog struct {
	version  int
	known    map[string]struct{}
	defaults []string
}

type catalogFile struct {
	Version           int      `json:"version"`
	Permissions       []string `json:"permissions"`
	DefaultPermission []string `json:"default_permission"`
}

// Load parses the embedded catalog resource. Called once during startup;
// failure is fatal to the process.
func Load() (*Catalog, error) {
	return load(catalogJSON)
}

func load(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse permission catalog: %w", err)
	}

	if len(file.Permissions) == 0 {
		return nil, fmt.Errorf("permission catalog is empty")
	}
	if len(file.DefaultPermission) == 0 {
		return nil, fmt.Errorf("permission catalog default set is empty")
	}

	known := make(map[string]struct{}, len(file.Permissions))
	for _, p := range file.Permissions {
		known[p] = struct{}{}
	}

	// Every default must be a catalogued permission
	for _, p := range file.DefaultPermission {
		if _, ok := known[p]; !ok {
			return nil, fmt.Errorf("default permission %q is not in the catalog", p)
		}
	}

	return &Catalog{
		version:  file.Version,
		known:    known,
		defaults: file.DefaultPermission,
	}, nil
}

// Version returns the catalog version.
func (c *Catalog) Version() int {
	return c.version
}

// IsValid reports whether a permission string is part of the catalog.
func (c *Catalog) IsValid(permission string) bool {
	_, ok := c.known[permission]
	return ok
}

// DefaultPermissions returns a copy of the default permission set used when a
// principal has no role assigned. Never empty.
func (c *Catalog) DefaultPermissions() []string {
	defaults := make([]string, len(c.defaults))
	copy(defaults, c.defaults)
	return defaults
}
