package models

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"limify/internal/quota"
)

func intPtr(n int) *int { return &n }

func TestUserPlanLimits(t *testing.T) {
	t.Run("null columns are unlimited", func(t *testing.T) {
		plan := UserPlan{Tier: quota.TierBusiness, Status: PlanStatusActive, MaxClients: intPtr(10)}
		limits := plan.Limits()
		if !limits.HasQuota(quota.ResourceBudgets, 999) {
			t.Error("expected unlimited budgets")
		}
		if limits.HasQuota(quota.ResourceClients, 10) {
			t.Error("expected client quota of 10 to be exhausted")
		}
	})

	t.Run("canceled plan falls back to free", func(t *testing.T) {
		plan := UserPlan{Tier: quota.TierBusiness, Status: PlanStatusCanceled}
		if n, ok := plan.Limits().For(quota.ResourceBudgets).Limit(); !ok || n != 5 {
			t.Errorf("expected free budget limit 5, got %d", n)
		}
	})
}

func TestPricingPhasesSkipsSegmentedActivities(t *testing.T) {
	seg := "seg-1"
	b := Budget{Phases: []BudgetPhase{{
		Base:      Base{ID: "phase-1"},
		BaseValue: decimal.NewFromInt(1000),
		Segments: []BudgetSegment{{
			Base: Base{ID: seg},
			Activities: []BudgetActivity{
				{SegmentID: &seg, Time: decimal.NewFromInt(10), CostPerHour: decimal.NewFromInt(50)},
			},
		}},
		Activities: []BudgetActivity{
			{Time: decimal.NewFromInt(4), CostPerHour: decimal.NewFromInt(75)},
			{SegmentID: &seg, Time: decimal.NewFromInt(10), CostPerHour: decimal.NewFromInt(50)},
		},
	}}}

	phases := b.PricingPhases()
	if len(phases[0].Activities) != 1 {
		t.Fatalf("expected 1 unsegmented activity, got %d", len(phases[0].Activities))
	}
	if len(phases[0].Segments[0].Activities) != 1 {
		t.Fatalf("expected 1 segmented activity, got %d", len(phases[0].Segments[0].Activities))
	}
}

func TestPublicationSectionsValidate(t *testing.T) {
	valid := PublicationSections{
		Deliverables: DeliverablesSection{Enabled: true, Items: []Deliverable{{Title: "Planta baixa"}}},
		About:        AboutSection{Enabled: true, Title: "Sobre"},
	}
	if err := valid.Validate(DefaultSectionOrder); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name     string
		sections PublicationSections
		order    []string
	}{
		{"unknown section", PublicationSections{}, []string{"gallery"}},
		{"duplicate section", PublicationSections{}, []string{"team", "team"}},
		{"untitled deliverable", PublicationSections{Deliverables: DeliverablesSection{Items: []Deliverable{{}}}}, nil},
		{"negative installments", PublicationSections{Investment: InvestmentSection{Installments: -1}}, nil},
		{"empty about", PublicationSections{About: AboutSection{Enabled: true}}, nil},
		{"nameless team member", PublicationSections{Team: TeamSection{Members: []TeamCard{{Role: "Arquiteta"}}}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.sections.Validate(tt.order); !errors.Is(err, ErrInvalidSection) {
				t.Errorf("expected ErrInvalidSection, got %v", err)
			}
		})
	}
}

func TestPublicationRoundTripSections(t *testing.T) {
	var p BudgetPublication
	p.SetSections(PublicationSections{Team: TeamSection{Enabled: true, Members: []TeamCard{{Name: "Ana"}}}})
	if got := p.Sections().Team.Members[0].Name; got != "Ana" {
		t.Errorf("expected Ana, got %q", got)
	}
	if err := p.BeforeUpdate(nil); !errors.Is(err, ErrPublicationImmutable) {
		t.Errorf("expected ErrPublicationImmutable, got %v", err)
	}
}
