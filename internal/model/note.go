package model

import "time"

// Note is the tenant-scoped payload of the service. TenantID and UserID are
// stamped from the resolved identity at creation and never change; TenantID
// always equals the creating user's tenant.
type Note struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TenantID  uint      `json:"tenant_id" gorm:"index;not null"`
	UserID    uint      `json:"user_id" gorm:"index;not null"`
	Title     string    `json:"title" gorm:"type:varchar(255);not null"`
	Content   string    `json:"content" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// AuthorEmail is populated by the store's list/get joins, never written.
	AuthorEmail string `json:"author_email,omitempty" gorm:"->;-:migration"`

	Tenant Tenant `json:"-" gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE"`
	User   User   `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
