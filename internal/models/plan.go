package models

import (
	"time"

	"limify/internal/quota"
)

// PlanStatus mirrors the billing provider's subscription status.
type PlanStatus string

const (
	PlanStatusActive   PlanStatus = "active"
	PlanStatusTrialing PlanStatus = "trialing"
	PlanStatusPastDue  PlanStatus = "past_due"
	PlanStatusCanceled PlanStatus = "canceled"
)

// UserPlan holds a user's subscription tier and quotas. A nil Max* column means unlimited.
type UserPlan struct {
	Base
	UserID               string     `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Tier                 quota.Tier `gorm:"not null;default:'free'" json:"tier"`
	Status               PlanStatus `gorm:"not null;default:'active'" json:"status"`
	MaxBudgets           *int       `json:"max_budgets"`
	MaxUsers             *int       `json:"max_users"`
	MaxClients           *int       `json:"max_clients"`
	MaxEdits             *int       `json:"max_edits"`
	StripeCustomerID     string     `json:"-"`
	StripeSubscriptionID string     `json:"-"`
	CurrentPeriodEnd     *time.Time `json:"current_period_end,omitempty"`
}

// Limits converts the nullable quota columns into explicit quotas. A plan that is not
// active or trialing falls back to the free tier.
func (p *UserPlan) Limits() quota.Limits {
	if p.Status != PlanStatusActive && p.Status != PlanStatusTrialing {
		return quota.DefaultLimits(quota.TierFree)
	}
	return quota.Limits{
		quota.ResourceBudgets: quota.FromNullable(p.MaxBudgets),
		quota.ResourceUsers:   quota.FromNullable(p.MaxUsers),
		quota.ResourceClients: quota.FromNullable(p.MaxClients),
		quota.ResourceEdits:   quota.FromNullable(p.MaxEdits),
	}
}
