package model

import "time"

// Subscription plans. Free tenants are capped to a fixed number of notes,
// pro tenants are unlimited. The only supported transition is free -> pro.
const (
	PlanFree = "free"
	PlanPro  = "pro"
)

// Tenant represents an isolated customer organization. The slug is the
// public identifier used in URLs and is immutable after provisioning.
type Tenant struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	Name             string    `json:"name" gorm:"type:varchar(255);not null"`
	Slug             string    `json:"slug" gorm:"type:varchar(100);uniqueIndex;not null"`
	SubscriptionPlan string    `json:"subscription_plan" gorm:"type:varchar(50);not null;default:'free'"`
	CreatedAt        time.Time `json:"created_at"`
}
