package services

import (
	"errors"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "limify/internal/errors"
	"limify/internal/models"
	"limify/internal/pagination"
	"limify/internal/pricing"
)

const uncategorizedLabel = "Sem categoria"

var expenseSortColumns = map[string]string{
	"name":       "name",
	"value":      "value",
	"created_at": "created_at",
}

// expenseService handles expense-related business logic.
type expenseService struct {
	db *gorm.DB
}

// NewExpenseService creates a new ExpenseServicer.
func NewExpenseService(db *gorm.DB) ExpenseServicer {
	return &expenseService{db: db}
}

// validate checks input and returns the canonical frequency label.
func (s *expenseService) validate(userID string, input ExpenseInput) (pricing.Frequency, error) {
	if strings.TrimSpace(input.Name) == "" {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "expense name is required")
	}
	if input.Value.IsNegative() {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "expense value must not be negative")
	}
	if input.Frequency != "" && !pricing.IsKnownFrequency(input.Frequency) {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown expense frequency")
	}

	if input.CategoryID != nil {
		var category models.Category
		err := s.db.Scopes(visibleTo(userID)).Where("id = ?", *input.CategoryID).First(&category).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return "", apperrors.ErrCategoryNotFound
			}
			return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return pricing.ParseFrequency(input.Frequency), nil
}

// CreateExpense creates an active expense.
func (s *expenseService) CreateExpense(userID string, input ExpenseInput) (*models.Expense, error) {
	frequency, err := s.validate(userID, input)
	if err != nil {
		return nil, err
	}

	expense := &models.Expense{
		UserID:     userID,
		CategoryID: input.CategoryID,
		Name:       strings.TrimSpace(input.Name),
		Value:      pricing.Round2(input.Value),
		Frequency:  string(frequency),
		IsFixed:    input.IsFixed,
		Lifecycle:  models.LifecycleActive,
		Notes:      input.Notes,
	}
	if err := s.db.Create(expense).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return expense, nil
}

// GetUserExpenses lists expenses. Without a state filter only active expenses are returned.
func (s *expenseService) GetUserExpenses(userID string, filter ExpenseFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Expense], error) {
	state := models.LifecycleActive
	if filter.State != nil {
		state = *filter.State
	}

	query := s.db.Model(&models.Expense{}).Where("user_id = ? AND lifecycle = ?", userID, state)
	if filter.Archived != nil {
		query = query.Where("archived = ?", *filter.Archived)
	}
	if filter.IsFixed != nil {
		query = query.Where("is_fixed = ?", *filter.IsFixed)
	}

	result, err := pagination.Find[models.Expense](query, page,
		page.OrderBy(expenseSortColumns, "created_at DESC"), "Category")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// GetExpenseByID retrieves an expense of the user in any lifecycle state.
func (s *expenseService) GetExpenseByID(userID, expenseID string) (*models.Expense, error) {
	var expense models.Expense
	if err := s.db.Preload("Category").Where("id = ? AND user_id = ?", expenseID, userID).First(&expense).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &expense, nil
}

// UpdateExpense replaces the editable fields of an expense.
func (s *expenseService) UpdateExpense(userID, expenseID string, input ExpenseInput) (*models.Expense, error) {
	expense, err := s.GetExpenseByID(userID, expenseID)
	if err != nil {
		return nil, err
	}
	frequency, err := s.validate(userID, input)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"name":        strings.TrimSpace(input.Name),
		"category_id": input.CategoryID,
		"value":       pricing.Round2(input.Value),
		"frequency":   string(frequency),
		"is_fixed":    input.IsFixed,
		"notes":       input.Notes,
	}
	if err := s.db.Model(expense).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetExpenseByID(userID, expenseID)
}

// TransitionExpense applies a lifecycle event. Purge removes the row for good.
func (s *expenseService) TransitionExpense(userID, expenseID string, event models.LifecycleEvent) (*models.Expense, error) {
	expense, err := s.GetExpenseByID(userID, expenseID)
	if err != nil {
		return nil, err
	}

	next, err := expense.Lifecycle.Next(event)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidStateTransition, err.Error())
	}

	if next == models.LifecycleDeleted {
		if err := s.db.Unscoped().Delete(expense).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		expense.Lifecycle = next
		return expense, nil
	}

	if err := s.db.Model(expense).Update("lifecycle", next).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return expense, nil
}

// SetArchived archives or unarchives an active expense.
func (s *expenseService) SetArchived(userID, expenseID string, archived bool) (*models.Expense, error) {
	expense, err := s.GetExpenseByID(userID, expenseID)
	if err != nil {
		return nil, err
	}
	if expense.Lifecycle != models.LifecycleActive {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidStateTransition, "only active expenses can be archived")
	}

	if err := s.db.Model(expense).Update("archived", archived).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return expense, nil
}

// GetSummary totals the recurring cost of the user's active, non-archived expenses.
func (s *expenseService) GetSummary(userID string) (*ExpenseSummary, error) {
	var expenses []models.Expense
	if err := s.db.Preload("Category").
		Where("user_id = ? AND lifecycle = ? AND archived = ?", userID, models.LifecycleActive, false).
		Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	monthly, annual := decimal.Zero, decimal.Zero
	fixed, punctual := decimal.Zero, decimal.Zero
	byCategory := make(map[string]*CategoryCost)

	for i := range expenses {
		e := &expenses[i]
		if !e.CountsTowardsRecurring() {
			continue
		}

		m := pricing.ToMonthly(e.Value, e.Frequency)
		monthly = monthly.Add(m)
		annual = annual.Add(pricing.ToAnnual(e.Value, e.Frequency))
		if e.IsFixed {
			fixed = fixed.Add(m)
		} else {
			punctual = punctual.Add(m)
		}

		key, name := "", uncategorizedLabel
		if e.Category != nil {
			key, name = e.Category.ID, e.Category.Name
		}
		cost, ok := byCategory[key]
		if !ok {
			cost = &CategoryCost{CategoryID: e.CategoryID, Name: name, Monthly: decimal.Zero}
			byCategory[key] = cost
		}
		cost.Monthly = cost.Monthly.Add(m)
	}

	summary := &ExpenseSummary{
		Monthly:         pricing.Round2(monthly),
		Annual:          pricing.Round2(annual),
		FixedMonthly:    pricing.Round2(fixed),
		PunctualMonthly: pricing.Round2(punctual),
		Count:           len(expenses),
		ByCategory:      make([]CategoryCost, 0, len(byCategory)),
	}
	for _, cost := range byCategory {
		cost.Monthly = pricing.Round2(cost.Monthly)
		summary.ByCategory = append(summary.ByCategory, *cost)
	}
	sort.Slice(summary.ByCategory, func(i, j int) bool {
		a, b := summary.ByCategory[i], summary.ByCategory[j]
		if !a.Monthly.Equal(b.Monthly) {
			return a.Monthly.GreaterThan(b.Monthly)
		}
		return a.Name < b.Name
	})
	return summary, nil
}
