// Package quota enforces the subscription tier limits: free tenants are
// capped at FreeNoteLimit notes, pro tenants are unlimited.
package quota

import (
	"context"
	"errors"

	"notes-service/internal/apperr"
	"notes-service/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FreeNoteLimit is the maximum number of notes a free-plan tenant may hold.
const FreeNoteLimit = 3

// QuotaExceededMessage is surfaced to the client on a rejected create.
const QuotaExceededMessage = "Free plan limited to 3 notes. Upgrade to Pro for unlimited notes."

// Enforcer decides, per tenant, whether a write is admitted under the
// tenant's plan, and owns the free -> pro upgrade path.
type Enforcer struct {
	db *gorm.DB
}

func NewEnforcer(db *gorm.DB) *Enforcer {
	return &Enforcer{db: db}
}

// AdmitCreate checks the tenant's plan and note count. It must run inside
// the same transaction as the subsequent insert: it locks the tenant row
// first, so concurrent creates for one tenant serialize on that lock and
// the count can never race past the limit. SQLite has no row-level locks;
// there the database write lock provides the same serialization, and the
// locking clause is skipped because it is not valid SQLite syntax.
func (e *Enforcer) AdmitCreate(tx *gorm.DB, tenantID uint) error {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var tenant model.Tenant
	if err := q.First(&tenant, tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.New(apperr.NotFound, "tenant not found")
		}
		return apperr.Wrap(apperr.Transient, "failed to load tenant", err)
	}

	if tenant.SubscriptionPlan == model.PlanPro {
		return nil
	}

	var count int64
	if err := tx.Model(&model.Note{}).Where("tenant_id = ?", tenantID).Count(&count).Error; err != nil {
		return apperr.Wrap(apperr.Transient, "failed to count notes", err)
	}
	if count >= FreeNoteLimit {
		return apperr.New(apperr.QuotaExceeded, QuotaExceededMessage)
	}

	return nil
}

// Upgrade transitions the tenant to the pro plan. The update is keyed by
// both slug and id so a slug/id mismatch after resolution changes nothing.
// Upgrading an already-pro tenant succeeds and leaves it pro.
func (e *Enforcer) Upgrade(ctx context.Context, tenantID uint, slug string) (*model.Tenant, error) {
	res := e.db.WithContext(ctx).
		Model(&model.Tenant{}).
		Where("slug = ? AND id = ?", slug, tenantID).
		Update("subscription_plan", model.PlanPro)
	if res.Error != nil {
		return nil, apperr.Wrap(apperr.Transient, "failed to upgrade tenant", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.New(apperr.NotFound, "tenant not found")
	}

	var tenant model.Tenant
	if err := e.db.WithContext(ctx).First(&tenant, tenantID).Error; err != nil {
		return nil, apperr.Wrap(apperr.Transient, "failed to load tenant", err)
	}
	return &tenant, nil
}
