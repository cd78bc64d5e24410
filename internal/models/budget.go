package models

import (
	"github.com/shopspring/decimal"

	"limify/internal/pricing"
)

// BudgetType selects the pricing model of a budget.
type BudgetType string

const (
	BudgetTypeM2       BudgetType = "m2"
	BudgetTypeComplete BudgetType = "complete"
	BudgetTypeRender   BudgetType = "render"
	BudgetTypeModeling BudgetType = "modeling"
)

// IsItemBased reports whether budgets of this type are priced from a flat item list.
func (t BudgetType) IsItemBased() bool {
	return t == BudgetTypeM2 || t == BudgetTypeRender || t == BudgetTypeModeling
}

// Valid reports whether t is a known budget type.
func (t BudgetType) Valid() bool {
	return t.IsItemBased() || t == BudgetTypeComplete
}

// ValueType controls whether items carry their own price or share one budget-level price.
type ValueType string

const (
	ValueTypeSingle     ValueType = "unico"
	ValueTypeIndividual ValueType = "individual"
)

// BudgetStatus is the commercial status of a budget.
type BudgetStatus string

const (
	BudgetStatusDraft    BudgetStatus = "draft"
	BudgetStatusSent     BudgetStatus = "sent"
	BudgetStatusApproved BudgetStatus = "approved"
	BudgetStatusRejected BudgetStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s BudgetStatus) Valid() bool {
	switch s {
	case BudgetStatusDraft, BudgetStatusSent, BudgetStatusApproved, BudgetStatusRejected:
		return true
	}
	return false
}

// Budget is the root aggregate of a priced proposal. Total always equals the composition of
// its children after additionals and discount; services recompute it on every write.
type Budget struct {
	Base
	UserID       string               `gorm:"type:uuid;not null;index" json:"user_id"`
	ClientID     *string              `gorm:"type:uuid;index" json:"client_id,omitempty"`
	Name         string               `gorm:"not null" json:"name"`
	Description  string               `json:"description,omitempty"`
	Type         BudgetType           `gorm:"column:budget_type;not null;index" json:"budget_type"`
	ValueType    ValueType            `gorm:"not null;default:'individual'" json:"value_type"`
	UnitPrice    decimal.NullDecimal  `gorm:"type:numeric(14,2)" json:"unit_price" swaggertype:"number"`
	Subtotal     decimal.Decimal      `gorm:"type:numeric(20,6);not null;default:0" json:"subtotal"`
	Total        decimal.Decimal      `gorm:"type:numeric(14,2);not null;default:0" json:"total"`
	Discount     decimal.Decimal      `gorm:"type:numeric(14,2);not null;default:0" json:"discount"`
	DiscountType pricing.DiscountType `json:"discount_type,omitempty"`
	Status       BudgetStatus         `gorm:"not null;default:'draft';index" json:"status"`
	Lifecycle    LifecycleState       `gorm:"not null;default:'active';index" json:"lifecycle"`
	EditCount    int                  `gorm:"not null;default:0" json:"edit_count"`

	Client      *Client            `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Items       []BudgetItem       `gorm:"foreignKey:BudgetID" json:"items,omitempty"`
	Phases      []BudgetPhase      `gorm:"foreignKey:BudgetID" json:"phases,omitempty"`
	Additionals *BudgetAdditionals `gorm:"foreignKey:BudgetID" json:"additionals,omitempty"`
	References  []BudgetReference  `gorm:"foreignKey:BudgetID" json:"references,omitempty"`
}

// PricingUnitPrice returns the shared unit price for single-price budgets, nil otherwise.
func (b *Budget) PricingUnitPrice() *decimal.Decimal {
	if b.ValueType != ValueTypeSingle || !b.UnitPrice.Valid {
		return nil
	}
	p := b.UnitPrice.Decimal
	return &p
}

// BudgetItem is a priced line of an m2, render or modeling budget.
type BudgetItem struct {
	Base
	BudgetID        string          `gorm:"type:uuid;not null;index" json:"budget_id"`
	Position        int             `gorm:"not null;default:0" json:"position"`
	Description     string          `json:"description"`
	PricePerUnit    decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"price_per_unit"`
	Quantity        decimal.Decimal `gorm:"type:numeric(14,4);not null" json:"quantity"`
	Total           decimal.Decimal `gorm:"type:numeric(20,6);not null" json:"total"`
	DevelopmentDays *int            `json:"development_days,omitempty"`
	ImageCount      *int            `json:"image_count,omitempty"`
	Complexity      string          `json:"complexity,omitempty"`
}

// PricingItem converts the row into its pricing input.
func (i BudgetItem) PricingItem() pricing.Item {
	return pricing.Item{PricePerUnit: i.PricePerUnit, Quantity: i.Quantity}
}

// BudgetPhase is the top level of a complete budget's work breakdown.
type BudgetPhase struct {
	Base
	BudgetID    string          `gorm:"type:uuid;not null;index" json:"budget_id"`
	Position    int             `gorm:"not null;default:0" json:"position"`
	Name        string          `gorm:"not null" json:"name"`
	Description string          `json:"description,omitempty"`
	BaseValue   decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"base_value"`
	Total       decimal.Decimal `gorm:"type:numeric(16,4);not null;default:0" json:"total"`

	Segments []BudgetSegment `gorm:"foreignKey:PhaseID" json:"segments,omitempty"`
	// Activities holds only the unsegmented activities of the phase.
	Activities []BudgetActivity `gorm:"foreignKey:PhaseID" json:"activities,omitempty"`
}

// BudgetSegment groups activities inside a phase.
type BudgetSegment struct {
	Base
	BudgetID string          `gorm:"type:uuid;not null;index" json:"budget_id"`
	PhaseID  string          `gorm:"type:uuid;not null;index" json:"phase_id"`
	Position int             `gorm:"not null;default:0" json:"position"`
	Name     string          `gorm:"not null" json:"name"`
	Total    decimal.Decimal `gorm:"type:numeric(16,4);not null;default:0" json:"total"`

	Activities []BudgetActivity `gorm:"foreignKey:SegmentID" json:"activities,omitempty"`
}

// BudgetActivity is a unit of work. It always belongs to a phase and optionally to one
// segment of that phase.
type BudgetActivity struct {
	Base
	BudgetID    string          `gorm:"type:uuid;not null;index" json:"budget_id"`
	PhaseID     string          `gorm:"type:uuid;not null;index" json:"phase_id"`
	SegmentID   *string         `gorm:"type:uuid;index" json:"segment_id,omitempty"`
	Position    int             `gorm:"not null;default:0" json:"position"`
	Name        string          `gorm:"not null" json:"name"`
	Time        decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"time"`
	CostPerHour decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"cost_per_hour"`
	TotalCost   decimal.Decimal `gorm:"type:numeric(16,4);not null" json:"total_cost"`
	Complexity  string          `json:"complexity,omitempty"`
}

// PricingActivity converts the row into its pricing input.
func (a BudgetActivity) PricingActivity() pricing.Activity {
	return pricing.Activity{ID: a.ID, SegmentID: a.SegmentID, Time: a.Time, CostPerHour: a.CostPerHour}
}

// BudgetAdditionals holds the surcharge inputs of a complete budget.
type BudgetAdditionals struct {
	Base
	BudgetID              string          `gorm:"type:uuid;not null;uniqueIndex" json:"budget_id"`
	WetAreaQuantity       decimal.Decimal `gorm:"type:numeric(14,4);not null;default:0" json:"wet_area_quantity"`
	DryAreaQuantity       decimal.Decimal `gorm:"type:numeric(14,4);not null;default:0" json:"dry_area_quantity"`
	WetAreaPercentage     decimal.Decimal `gorm:"type:numeric(7,4);not null;default:0" json:"wet_area_percentage"`
	DryAreaPercentage     decimal.Decimal `gorm:"type:numeric(7,4);not null;default:0" json:"dry_area_percentage"`
	DeliveryTimeDays      int             `gorm:"not null;default:0" json:"delivery_time_days"`
	DeliveryDailyRate     decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"delivery_daily_rate"`
	DisableDeliveryCharge bool            `gorm:"not null;default:false" json:"disable_delivery_charge"`
}

// PricingAdditionals converts the row into its pricing input. A nil receiver yields nil so
// budgets without additionals pass through.
func (a *BudgetAdditionals) PricingAdditionals() *pricing.Additionals {
	if a == nil {
		return nil
	}
	return &pricing.Additionals{
		WetAreaQuantity:       a.WetAreaQuantity,
		DryAreaQuantity:       a.DryAreaQuantity,
		WetAreaPercentage:     a.WetAreaPercentage,
		DryAreaPercentage:     a.DryAreaPercentage,
		DeliveryTimeDays:      a.DeliveryTimeDays,
		DeliveryDailyRate:     a.DeliveryDailyRate,
		DisableDeliveryCharge: a.DisableDeliveryCharge,
	}
}

// BudgetReference is a portfolio project name shown on the public proposal.
type BudgetReference struct {
	Base
	BudgetID    string `gorm:"type:uuid;not null;index" json:"budget_id"`
	Position    int    `gorm:"not null;default:0" json:"position"`
	ProjectName string `gorm:"not null" json:"project_name"`
}

// PricingPhases converts a loaded phase tree into composer input.
func (b *Budget) PricingPhases() []pricing.Phase {
	phases := make([]pricing.Phase, 0, len(b.Phases))
	for _, p := range b.Phases {
		phase := pricing.Phase{ID: p.ID, BaseValue: p.BaseValue}
		for _, a := range p.Activities {
			if a.SegmentID == nil {
				phase.Activities = append(phase.Activities, a.PricingActivity())
			}
		}
		for _, s := range p.Segments {
			seg := pricing.Segment{ID: s.ID}
			for _, a := range s.Activities {
				seg.Activities = append(seg.Activities, a.PricingActivity())
			}
			phase.Segments = append(phase.Segments, seg)
		}
		phases = append(phases, phase)
	}
	return phases
}
