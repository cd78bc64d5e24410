package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "limify/internal/errors"
	"limify/internal/models"
	"limify/internal/pagination"
	"limify/internal/quota"
	"limify/internal/uuid"
)

var budgetSortColumns = map[string]string{
	"name":       "name",
	"total":      "total",
	"status":     "status",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// budgetService handles budget-related business logic. Every write recomputes the totals
// and stores the budget with all of its children in a single transaction.
type budgetService struct {
	db    *gorm.DB
	plans PlanServicer
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB, plans PlanServicer) BudgetServicer {
	return &budgetService{db: db, plans: plans}
}

// Quote prices input without storing anything.
func (s *budgetService) Quote(input BudgetInput) (*Quote, error) {
	draft, err := buildDraft(input)
	if err != nil {
		return nil, err
	}
	return &draft.quote, nil
}

// checkClient ensures clientID, when given, belongs to the user.
func (s *budgetService) checkClient(userID string, clientID *string) error {
	if clientID == nil {
		return nil
	}
	var count int64
	if err := s.db.Model(&models.Client{}).Where("id = ? AND user_id = ?", *clientID, userID).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrClientNotFound
	}
	return nil
}

// CreateBudget prices and stores a new draft budget, subject to the budgets quota.
func (s *budgetService) CreateBudget(userID string, input BudgetInput) (*models.Budget, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budget name is required")
	}
	if err := s.checkClient(userID, input.ClientID); err != nil {
		return nil, err
	}

	var count int64
	if err := s.db.Model(&models.Budget{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.plans.CheckQuota(userID, quota.ResourceBudgets, count); err != nil {
		return nil, err
	}

	draft, err := buildDraft(input)
	if err != nil {
		return nil, err
	}

	budget := draft.budget
	budget.ID = uuid.New()
	budget.UserID = userID
	budget.Status = models.BudgetStatusDraft
	budget.Lifecycle = models.LifecycleActive
	draft.attach(budget.ID)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&budget).Error; err != nil {
			return err
		}
		return draft.insertChildren(tx)
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.GetBudgetByID(userID, budget.ID)
}

// GetUserBudgets lists budgets without their children. Without a state filter only active
// budgets are returned.
func (s *budgetService) GetUserBudgets(userID string, filter BudgetFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error) {
	state := models.LifecycleActive
	if filter.State != nil {
		state = *filter.State
	}

	query := s.db.Model(&models.Budget{}).Where("user_id = ? AND lifecycle = ?", userID, state)
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Type != nil {
		query = query.Where("budget_type = ?", *filter.Type)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	result, err := pagination.Find[models.Budget](query, page,
		page.OrderBy(budgetSortColumns, "updated_at DESC"), "Client")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// loadBudget reads a budget of the user with its full tree.
func loadBudget(db *gorm.DB, userID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	err := db.
		Preload("Client").
		Preload("Items", byPosition).
		Preload("Phases", byPosition).
		Preload("Phases.Segments", byPosition).
		Preload("Phases.Segments.Activities", byPosition).
		Preload("Phases.Activities", func(db *gorm.DB) *gorm.DB {
			return db.Where("segment_id IS NULL").Order("position ASC")
		}).
		Preload("Additionals").
		Preload("References", byPosition).
		Where("id = ? AND user_id = ?", budgetID, userID).
		First(&budget).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// GetBudgetByID returns a budget of the user, in any lifecycle state, with its full tree.
func (s *budgetService) GetBudgetByID(userID, budgetID string) (*models.Budget, error) {
	return loadBudget(s.db, userID, budgetID)
}

// findBudget loads only the budget row.
func (s *budgetService) findBudget(userID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// UpdateBudget replaces the content of an active budget and counts one edit against the
// plan's edits quota.
func (s *budgetService) UpdateBudget(userID, budgetID string, input BudgetInput) (*models.Budget, error) {
	budget, err := s.findBudget(userID, budgetID)
	if err != nil {
		return nil, err
	}
	if budget.Lifecycle != models.LifecycleActive {
		return nil, apperrors.ErrBudgetNotEditable
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budget name is required")
	}
	if err := s.checkClient(userID, input.ClientID); err != nil {
		return nil, err
	}
	if err := s.plans.CheckQuota(userID, quota.ResourceEdits, int64(budget.EditCount)); err != nil {
		return nil, err
	}

	draft, err := buildDraft(input)
	if err != nil {
		return nil, err
	}
	draft.applyTo(budget)
	budget.EditCount++
	draft.attach(budget.ID)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := deleteChildren(tx, budget.ID); err != nil {
			return err
		}
		if err := draft.insertChildren(tx); err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Save(budget).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.GetBudgetByID(userID, budget.ID)
}

// UpdateStatus changes the commercial status of an active budget.
func (s *budgetService) UpdateStatus(userID, budgetID string, status models.BudgetStatus) (*models.Budget, error) {
	if !status.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown budget status")
	}

	budget, err := s.findBudget(userID, budgetID)
	if err != nil {
		return nil, err
	}
	if budget.Lifecycle != models.LifecycleActive {
		return nil, apperrors.ErrBudgetNotEditable
	}

	if err := s.db.Model(budget).Update("status", status).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budget, nil
}

// TransitionBudget applies a lifecycle event. Purge removes the budget, its children and its
// publications for good.
func (s *budgetService) TransitionBudget(userID, budgetID string, event models.LifecycleEvent) (*models.Budget, error) {
	budget, err := s.findBudget(userID, budgetID)
	if err != nil {
		return nil, err
	}

	next, err := budget.Lifecycle.Next(event)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidStateTransition, err.Error())
	}

	if next == models.LifecycleDeleted {
		err = s.db.Transaction(func(tx *gorm.DB) error {
			if err := deleteChildren(tx, budget.ID); err != nil {
				return err
			}
			if err := tx.Where("budget_id = ?", budget.ID).Delete(&models.BudgetPublication{}).Error; err != nil {
				return err
			}
			return tx.Unscoped().Delete(budget).Error
		})
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		budget.Lifecycle = next
		return budget, nil
	}

	if err := s.db.Model(budget).Update("lifecycle", next).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budget, nil
}
