package auth

import "valetpark.org/internal/host"

// Permission scopes carried in access tokens. The mapping from role to
// scopes is fixed; it is not user-editable.
const (
	ScopeRead  = "read"
	ScopeWrite = "write"
	ScopeAdmin = "admin"
)

// ScopesFor derives the scope set for a role. Every role reads; managing
// roles write; only the master holds admin.
func ScopesFor(role host.Role) []string {
	scopes := []string{ScopeRead}
	if role.CanManageUsers() {
		scopes = append(scopes, ScopeWrite)
	}
	if role == host.RoleMaster {
		scopes = append(scopes, ScopeAdmin)
	}
	return scopes
}

// Satisfies reports whether the granted scopes meet required. Scopes are
// tiered: admin covers write and read, write covers read.
func Satisfies(granted []string, required string) bool {
	for _, s := range granted {
		switch required {
		case ScopeAdmin:
			if s == ScopeAdmin {
				return true
			}
		case ScopeWrite:
			if s == ScopeWrite || s == ScopeAdmin {
				return true
			}
		case ScopeRead:
			if s == ScopeRead || s == ScopeWrite || s == ScopeAdmin {
				return true
			}
		}
	}
	return false
}
