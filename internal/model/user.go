package model

import "time"

// Roles a user can hold within their tenant.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// User represents a registered account. Every user belongs to exactly one
// tenant; email uniqueness is global, not per tenant.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	TenantID     uint      `json:"tenant_id" gorm:"index;not null"`
	Email        string    `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"type:varchar(255);not null"`
	Role         string    `json:"role" gorm:"type:varchar(50);not null"`
	CreatedAt    time.Time `json:"created_at"`

	Tenant Tenant `json:"-" gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE"`
}
