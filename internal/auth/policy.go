package auth

import (
	"notes-service/internal/apperr"
	"notes-service/internal/model"
)

// Pure authorization decisions, consulted before the store is touched for
// any mutating or disclosing operation. Cross-tenant and non-owner access
// to notes is reported as NotFound by the callers so that foreign callers
// cannot probe for a note's existence; tenant upgrade violations are
// Forbidden because the caller already knows the slug.

// CanReadNote permits any member of the note's tenant.
func CanReadNote(id *Identity, note *model.Note) bool {
	return id.TenantID == note.TenantID
}

// CanMutateNote permits only the note's creator, within the same tenant.
func CanMutateNote(id *Identity, note *model.Note) bool {
	return id.TenantID == note.TenantID && id.UserID == note.UserID
}

// CheckUpgradeTenant gates the subscription upgrade path: admin role and a
// slug matching the caller's own tenant.
func CheckUpgradeTenant(id *Identity, slug string) error {
	if !id.IsAdmin() {
		return apperr.New(apperr.Forbidden, "admin access required")
	}
	if id.TenantSlug != slug {
		return apperr.New(apperr.Forbidden, "unauthorized tenant access")
	}
	return nil
}
