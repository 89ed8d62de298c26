package auth

import (
	"context"
	"strings"

	"valetpark.org/internal/host"
)

// Identity is the authenticated caller attached to a request context by
// the access filter.
type Identity struct {
	Username string
	Role     host.Role
	HostID   string
	Scopes   []string
}

type ctxKey string

const identityKey ctxKey = "auth_identity"

// ContextWithIdentity stores the caller identity in the context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext extracts the authenticated identity from context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	v, ok := ctx.Value(identityKey).(Identity)
	if !ok || strings.TrimSpace(v.Username) == "" {
		return Identity{}, false
	}
	return v, true
}

// UsernameFromContext returns the authenticated username, if any. Used by
// the audit log.
func UsernameFromContext(ctx context.Context) (string, bool) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return "", false
	}
	return id.Username, true
}
