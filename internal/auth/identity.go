// Package auth describes the authenticated caller of a request.
package auth

// Permissions granted to API keys. Admin implies every other permission.
const (
	PermissionRead  = "read"
	PermissionWrite = "write"
	PermissionAdmin = "admin"
)

// DefaultPermissions is what a key gets when none are requested.
var DefaultPermissions = []string{PermissionRead}

// Identity is the caller resolved from a validated API key.
type Identity struct {
	APIKeyID    string         `json:"api_key_id"`
	Name        string         `json:"name"`
	Permissions []string       `json:"permissions"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// HasPermission reports whether the identity holds p, directly or via admin.
// A nil identity holds nothing.
func (id *Identity) HasPermission(p string) bool {
	if id == nil {
		return false
	}
	for _, have := range id.Permissions {
		if have == p || have == PermissionAdmin {
			return true
		}
	}
	return false
}

// IsAdmin is HasPermission(PermissionAdmin).
func (id *Identity) IsAdmin() bool {
	return id.HasPermission(PermissionAdmin)
}

// Owns reports whether the identity created a resource recorded as createdBy,
// or is an admin.
func (id *Identity) Owns(createdBy string) bool {
	if id == nil {
		return false
	}
	return id.APIKeyID == createdBy || id.IsAdmin()
}
