package models

import "github.com/shopspring/decimal"

// Expense is a running cost of the user's practice. Fixed expenses recur at Frequency;
// punctual ones are one-offs.
type Expense struct {
	Base
	UserID     string          `gorm:"type:uuid;not null;index" json:"user_id"`
	CategoryID *string         `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Name       string          `gorm:"not null" json:"name"`
	Value      decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"value"`
	Frequency  string          `gorm:"not null;default:'Mensal'" json:"frequency"`
	IsFixed    bool            `gorm:"not null" json:"is_fixed"`
	Archived   bool            `gorm:"not null;default:false" json:"archived"`
	Lifecycle  LifecycleState  `gorm:"not null;default:'active';index" json:"lifecycle"`
	Notes      string          `json:"notes,omitempty"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// CountsTowardsRecurring reports whether the expense is part of the monthly running cost.
func (e *Expense) CountsTowardsRecurring() bool {
	return e.Lifecycle == LifecycleActive && !e.Archived
}
