// Package auth establishes who the caller is (Resolver) and what they may
// do (policy functions). Both operate on the Identity resolved for the
// current request, never on raw token claims.
package auth

import "github.com/labstack/echo/v4"

// Identity is the trusted (user, tenant, role) triple for one request. It
// is built from the authoritative store, not from token claims, and is
// immutable for the request's duration.
type Identity struct {
	UserID     uint
	Email      string
	Role       string
	TenantID   uint
	TenantSlug string
	TenantName string
	Plan       string
}

// IsAdmin reports whether the identity holds the admin role in its tenant.
func (id *Identity) IsAdmin() bool { return id.Role == "admin" }

const identityKey = "identity"

// WithIdentity stores the resolved identity in the Echo context.
func WithIdentity(c echo.Context, id *Identity) {
	c.Set(identityKey, id)
}

// FromContext retrieves the identity set by the auth middleware. The second
// return is false on unauthenticated routes.
func FromContext(c echo.Context) (*Identity, bool) {
	id, ok := c.Get(identityKey).(*Identity)
	return id, ok
}
