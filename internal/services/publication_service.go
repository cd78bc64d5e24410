package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "limify/internal/errors"
	"limify/internal/models"
	"limify/internal/pricing"
)

// publicationService freezes budgets into versioned snapshots for their clients.
type publicationService struct {
	db *gorm.DB
}

// NewPublicationService creates a new PublicationServicer.
func NewPublicationService(db *gorm.DB) PublicationServicer {
	return &publicationService{db: db}
}

// breakdownOf reprices a loaded budget from its stored children.
func breakdownOf(b *models.Budget) pricing.Breakdown {
	if b.Type.IsItemBased() {
		items := make([]pricing.Item, len(b.Items))
		for i, it := range b.Items {
			items[i] = it.PricingItem()
		}
		_, breakdown := pricing.QuoteItems(items, b.PricingUnitPrice(), b.Discount, b.DiscountType)
		return breakdown
	}
	_, breakdown := pricing.QuotePhases(b.PricingPhases(), b.Additionals.PricingAdditionals(), b.Discount, b.DiscountType)
	return breakdown
}

// phaseSummaries freezes the budget's phases. Supplied summaries are matched by position and
// may rename, describe or date a phase; totals always come from the stored phases.
func phaseSummaries(phases []models.BudgetPhase, supplied []models.PhaseSummary) ([]models.PhaseSummary, error) {
	if len(supplied) > len(phases) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput,
			fmt.Sprintf("sections.phases lists %d phases but the budget has %d", len(supplied), len(phases)))
	}

	out := make([]models.PhaseSummary, len(phases))
	for i, p := range phases {
		out[i] = models.PhaseSummary{Name: p.Name, Description: p.Description, Total: pricing.Round2(p.Total)}
		if i >= len(supplied) {
			continue
		}
		out[i].Name = supplied[i].Name
		out[i].Duration = supplied[i].Duration
		if supplied[i].Description != "" {
			out[i].Description = supplied[i].Description
		}
	}
	return out, nil
}

// Publish stores the next version of the budget's public snapshot.
func (s *publicationService) Publish(userID, budgetID string, input PublishInput) (*models.BudgetPublication, error) {
	budget, err := loadBudget(s.db, userID, budgetID)
	if err != nil {
		return nil, err
	}
	if budget.Lifecycle != models.LifecycleActive {
		return nil, apperrors.WithMessage(apperrors.ErrBudgetNotEditable, "Trashed budgets cannot be published")
	}

	order := input.SectionOrder
	if len(order) == 0 {
		order = models.DefaultSectionOrder
	}
	sections := input.Sections
	if err := sections.Validate(order); err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}

	breakdown := breakdownOf(budget)
	sections.Investment.Subtotal = breakdown.Subtotal
	sections.Investment.Discount = breakdown.DiscountAmount
	sections.Investment.Total = breakdown.Total

	phases, err := phaseSummaries(budget.Phases, sections.Phases.Phases)
	if err != nil {
		return nil, err
	}
	sections.Phases.Phases = phases
	if len(sections.About.References) == 0 {
		for _, r := range budget.References {
			sections.About.References = append(sections.About.References, r.ProjectName)
		}
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = budget.Name
	}
	clientName := ""
	if budget.Client != nil {
		clientName = budget.Client.Name
	}

	publication := &models.BudgetPublication{
		BudgetID:     budget.ID,
		UserID:       userID,
		Title:        title,
		Subtitle:     input.Subtitle,
		HeaderImage:  input.HeaderImage,
		BudgetName:   budget.Name,
		ClientName:   clientName,
		Total:        budget.Total,
		SectionOrder: append([]string(nil), order...),
	}
	publication.SetSections(sections)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// serializes concurrent publishes of the same budget
		var locked models.Budget
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", budget.ID).
			First(&locked).Error; err != nil {
			return err
		}

		var latest int
		if err := tx.Model(&models.BudgetPublication{}).
			Where("budget_id = ?", budget.ID).
			Select("COALESCE(MAX(version), 0)").
			Scan(&latest).Error; err != nil {
			return err
		}
		publication.Version = latest + 1
		return tx.Create(publication).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return publication, nil
}

// GetPublications lists every version of a budget's snapshot, newest first.
func (s *publicationService) GetPublications(userID, budgetID string) ([]models.BudgetPublication, error) {
	var count int64
	if err := s.db.Model(&models.Budget{}).Where("id = ? AND user_id = ?", budgetID, userID).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return nil, apperrors.ErrBudgetNotFound
	}

	publications := []models.BudgetPublication{}
	if err := s.db.Where("budget_id = ?", budgetID).Order("version DESC").Find(&publications).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return publications, nil
}

// GetPublicBudget returns the latest snapshot of an active budget. It never reads the live
// budget tree.
func (s *publicationService) GetPublicBudget(budgetID string) (*models.BudgetPublication, error) {
	var budget models.Budget
	if err := s.db.Select("id", "lifecycle").Where("id = ?", budgetID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPublicationNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if budget.Lifecycle != models.LifecycleActive {
		return nil, apperrors.ErrPublicationNotFound
	}

	var publication models.BudgetPublication
	if err := s.db.Where("budget_id = ?", budgetID).Order("version DESC").First(&publication).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPublicationNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &publication, nil
}
