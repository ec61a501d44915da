package auth

import (
	"context"
	"errors"

	"notes-service/internal/apperr"
	"notes-service/internal/model"
	"notes-service/pkg/jwtutil"

	"gorm.io/gorm"
)

// Resolver maps validated token claims to a live identity. Tokens outlive
// role edits and account deletions, so the user and tenant are re-fetched
// from the store on every request instead of trusting the embedded claims.
type Resolver struct {
	db *gorm.DB
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// Resolve looks up the user by the claims' (user_id, tenant_id) pair. A
// deleted user, a deleted tenant, or a tenant reassignment since issuance
// all resolve to NotFound.
func (r *Resolver) Resolve(ctx context.Context, claims *jwtutil.Claims) (*Identity, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("Tenant").
		Where("id = ? AND tenant_id = ?", claims.UserID, claims.TenantID).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.NotFound, "user not found")
		}
		return nil, apperr.Wrap(apperr.Transient, "failed to resolve identity", err)
	}

	if user.Tenant.ID == 0 {
		return nil, apperr.New(apperr.NotFound, "user not found")
	}

	return &Identity{
		UserID:     user.ID,
		Email:      user.Email,
		Role:       user.Role,
		TenantID:   user.TenantID,
		TenantSlug: user.Tenant.Slug,
		TenantName: user.Tenant.Name,
		Plan:       user.Tenant.SubscriptionPlan,
	}, nil
}
