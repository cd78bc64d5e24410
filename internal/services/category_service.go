package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "limify/internal/errors"
	"limify/internal/models"
	"limify/internal/pagination"
)

const defaultCategoryColor = "#6B7280"

// categoryService handles category-related business logic. Users see their own categories
// plus the global ones, which nobody may change.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// visibleTo scopes a query to the categories userID can read.
func visibleTo(userID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ? OR user_id IS NULL", userID)
	}
}

// CreateCategory creates a new category
func (s *categoryService) CreateCategory(userID, name, color string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if color == "" {
		color = defaultCategoryColor
	}

	// Names are unique across what the user can see, global categories included
	var count int64
	if err := s.db.Model(&models.Category{}).
		Scopes(visibleTo(userID)).
		Where("LOWER(name) = ?", strings.ToLower(name)).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category with this name already exists")
	}

	category := &models.Category{
		UserID: &userID,
		Name:   name,
		Color:  color,
	}
	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// GetCategories returns the user's categories and the global ones, globals first.
func (s *categoryService) GetCategories(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	query := s.db.Model(&models.Category{}).Scopes(visibleTo(userID))
	result, err := pagination.Find[models.Category](query, page, "user_id IS NOT NULL, name ASC")
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// GetCategoryByID retrieves a category the user can read.
func (s *categoryService) GetCategoryByID(userID, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := s.db.Scopes(visibleTo(userID)).Where("id = ?", categoryID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// ownedCategory loads a category for mutation. Global categories are readable but immutable.
func (s *categoryService) ownedCategory(userID, categoryID string) (*models.Category, error) {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return nil, err
	}
	if category.IsGlobal() {
		return nil, apperrors.ErrCategoryImmutable
	}
	return category, nil
}

// UpdateCategory renames or recolors a category. Empty arguments leave the field unchanged.
func (s *categoryService) UpdateCategory(userID, categoryID, name, color string) (*models.Category, error) {
	category, err := s.ownedCategory(userID, categoryID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name = strings.TrimSpace(name); name != "" && name != category.Name {
		var count int64
		if err := s.db.Model(&models.Category{}).
			Scopes(visibleTo(userID)).
			Where("LOWER(name) = ? AND id <> ?", strings.ToLower(name), categoryID).
			Count(&count).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if count > 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category with this name already exists")
		}
		updates["name"] = name
	}
	if color != "" {
		updates["color"] = color
	}

	if len(updates) > 0 {
		if err := s.db.Model(category).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return category, nil
}

// DeleteCategory soft-deletes a category no expense refers to.
func (s *categoryService) DeleteCategory(userID, categoryID string) error {
	category, err := s.ownedCategory(userID, categoryID)
	if err != nil {
		return err
	}

	var inUse int64
	if err := s.db.Model(&models.Expense{}).Where("category_id = ?", categoryID).Count(&inUse).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if inUse > 0 {
		return apperrors.ErrCategoryInUse
	}

	if err := s.db.Delete(category).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
