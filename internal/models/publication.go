package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"limify/internal/uuid"
)

// SectionKind names one of the typed sections of a published proposal.
type SectionKind string

const (
	SectionDeliverables SectionKind = "deliverables"
	SectionPhases       SectionKind = "phases"
	SectionInvestment   SectionKind = "investment"
	SectionAbout        SectionKind = "about"
	SectionTeam         SectionKind = "team"
)

// DefaultSectionOrder is used when a publish request does not choose an order.
var DefaultSectionOrder = []string{
	string(SectionDeliverables), string(SectionPhases), string(SectionInvestment),
	string(SectionAbout), string(SectionTeam),
}

// ValidSectionKind reports whether s names a known section.
func ValidSectionKind(s string) bool {
	switch SectionKind(s) {
	case SectionDeliverables, SectionPhases, SectionInvestment, SectionAbout, SectionTeam:
		return true
	}
	return false
}

var (
	// ErrInvalidSection is returned when a section payload is malformed.
	ErrInvalidSection = errors.New("invalid publication section")
	// ErrPublicationImmutable is returned on any attempt to update a stored publication.
	ErrPublicationImmutable = errors.New("publications are immutable")
)

// Deliverable is one entry of the deliverables section.
type Deliverable struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type DeliverablesSection struct {
	Enabled bool          `json:"enabled"`
	Items   []Deliverable `json:"items"`
}

func (s DeliverablesSection) Validate() error {
	for i, d := range s.Items {
		if strings.TrimSpace(d.Title) == "" {
			return fmt.Errorf("%w: deliverables[%d] requires a title", ErrInvalidSection, i)
		}
	}
	return nil
}

// PhaseSummary is the frozen view of one phase.
type PhaseSummary struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Duration    string          `json:"duration,omitempty"`
	Total       decimal.Decimal `json:"total"`
}

type PhasesSection struct {
	Enabled   bool           `json:"enabled"`
	ShowTotal bool           `json:"show_total"`
	Phases    []PhaseSummary `json:"phases"`
}

func (s PhasesSection) Validate() error {
	for i, p := range s.Phases {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("%w: phases[%d] requires a name", ErrInvalidSection, i)
		}
		if p.Total.IsNegative() {
			return fmt.Errorf("%w: phases[%d] total cannot be negative", ErrInvalidSection, i)
		}
	}
	return nil
}

// InvestmentSection presents the price. Figures are copied from the budget at publish time.
type InvestmentSection struct {
	Enabled       bool            `json:"enabled"`
	ShowBreakdown bool            `json:"show_breakdown"`
	PaymentTerms  string          `json:"payment_terms,omitempty"`
	Installments  int             `json:"installments,omitempty"`
	ValidityDays  int             `json:"validity_days,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
}

func (s InvestmentSection) Validate() error {
	if s.Installments < 0 {
		return fmt.Errorf("%w: installments cannot be negative", ErrInvalidSection)
	}
	if s.ValidityDays < 0 {
		return fmt.Errorf("%w: validity_days cannot be negative", ErrInvalidSection)
	}
	return nil
}

type AboutSection struct {
	Enabled    bool     `json:"enabled"`
	Title      string   `json:"title,omitempty"`
	Body       string   `json:"body,omitempty"`
	ImageURL   string   `json:"image_url,omitempty"`
	References []string `json:"references,omitempty"`
}

func (s AboutSection) Validate() error {
	if s.Enabled && strings.TrimSpace(s.Title) == "" && strings.TrimSpace(s.Body) == "" {
		return fmt.Errorf("%w: about requires a title or body when enabled", ErrInvalidSection)
	}
	return nil
}

// TeamCard is a person shown in the team section.
type TeamCard struct {
	Name     string `json:"name"`
	Role     string `json:"role,omitempty"`
	PhotoURL string `json:"photo_url,omitempty"`
}

type TeamSection struct {
	Enabled bool       `json:"enabled"`
	Members []TeamCard `json:"members"`
}

func (s TeamSection) Validate() error {
	for i, m := range s.Members {
		if strings.TrimSpace(m.Name) == "" {
			return fmt.Errorf("%w: team[%d] requires a name", ErrInvalidSection, i)
		}
	}
	return nil
}

// PublicationSections groups the five typed sections of a proposal.
type PublicationSections struct {
	Deliverables DeliverablesSection `json:"deliverables"`
	Phases       PhasesSection       `json:"phases"`
	Investment   InvestmentSection   `json:"investment"`
	About        AboutSection        `json:"about"`
	Team         TeamSection         `json:"team"`
}

// Validate checks every section and the requested order.
func (s PublicationSections) Validate(order []string) error {
	seen := make(map[string]bool, len(order))
	for _, kind := range order {
		if !ValidSectionKind(kind) {
			return fmt.Errorf("%w: unknown section %q", ErrInvalidSection, kind)
		}
		if seen[kind] {
			return fmt.Errorf("%w: section %q listed twice", ErrInvalidSection, kind)
		}
		seen[kind] = true
	}
	for _, v := range []interface{ Validate() error }{s.Deliverables, s.Phases, s.Investment, s.About, s.Team} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// BudgetPublication is an immutable snapshot of a budget as shown to its client.
// Publishing again inserts the next version; rows are never updated.
type BudgetPublication struct {
	ID           string                                  `gorm:"type:uuid;primaryKey" json:"id"`
	BudgetID     string                                  `gorm:"type:uuid;not null;uniqueIndex:idx_publication_version" json:"budget_id"`
	UserID       string                                  `gorm:"type:uuid;not null;index" json:"user_id"`
	Version      int                                     `gorm:"not null;uniqueIndex:idx_publication_version" json:"version"`
	Title        string                                  `gorm:"not null" json:"title"`
	Subtitle     string                                  `json:"subtitle,omitempty"`
	HeaderImage  string                                  `json:"header_image,omitempty"`
	BudgetName   string                                  `gorm:"not null" json:"budget_name"`
	ClientName   string                                  `json:"client_name,omitempty"`
	Total        decimal.Decimal                         `gorm:"type:numeric(14,2);not null" json:"total"`
	SectionOrder datatypes.JSONSlice[string]             `json:"section_order" swaggertype:"array,string"`
	Deliverables datatypes.JSONType[DeliverablesSection] `json:"deliverables" swaggertype:"object"`
	Phases       datatypes.JSONType[PhasesSection]       `json:"phases" swaggertype:"object"`
	Investment   datatypes.JSONType[InvestmentSection]   `json:"investment" swaggertype:"object"`
	About        datatypes.JSONType[AboutSection]        `json:"about" swaggertype:"object"`
	Team         datatypes.JSONType[TeamSection]         `json:"team" swaggertype:"object"`
	PublishedAt  time.Time                               `gorm:"not null" json:"published_at"`
}

// BeforeCreate hook generates a UUIDv7 for new records
func (p *BudgetPublication) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New()
	}
	if p.PublishedAt.IsZero() {
		p.PublishedAt = time.Now().UTC()
	}
	return nil
}

// BeforeUpdate rejects every update.
func (p *BudgetPublication) BeforeUpdate(tx *gorm.DB) error {
	return ErrPublicationImmutable
}

// SetSections stores the typed sections on the row.
func (p *BudgetPublication) SetSections(s PublicationSections) {
	p.Deliverables = datatypes.NewJSONType(s.Deliverables)
	p.Phases = datatypes.NewJSONType(s.Phases)
	p.Investment = datatypes.NewJSONType(s.Investment)
	p.About = datatypes.NewJSONType(s.About)
	p.Team = datatypes.NewJSONType(s.Team)
}

// Sections returns the typed sections stored on the row.
func (p *BudgetPublication) Sections() PublicationSections {
	return PublicationSections{
		Deliverables: p.Deliverables.Data(),
		Phases:       p.Phases.Data(),
		Investment:   p.Investment.Data(),
		About:        p.About.Data(),
		Team:         p.Team.Data(),
	}
}
