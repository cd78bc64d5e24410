package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "limify/internal/errors"
	"limify/internal/models"
	"limify/internal/pagination"
	"limify/internal/quota"
)

var clientSortColumns = map[string]string{
	"name":       "name",
	"company":    "company",
	"created_at": "created_at",
}

// clientService handles client-related business logic.
type clientService struct {
	db    *gorm.DB
	plans PlanServicer
}

// NewClientService creates a new ClientServicer.
func NewClientService(db *gorm.DB, plans PlanServicer) ClientServicer {
	return &clientService{db: db, plans: plans}
}

func (in ClientInput) normalized() ClientInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.State = strings.ToUpper(strings.TrimSpace(in.State))
	return in
}

// CreateClient creates a client, subject to the plan's client quota.
func (s *clientService) CreateClient(userID string, input ClientInput) (*models.Client, error) {
	input = input.normalized()
	if input.Name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "client name is required")
	}

	var count int64
	if err := s.db.Model(&models.Client{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.plans.CheckQuota(userID, quota.ResourceClients, count); err != nil {
		return nil, err
	}

	client := &models.Client{UserID: userID}
	applyClientInput(client, input)
	if err := s.db.Create(client).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return client, nil
}

func applyClientInput(c *models.Client, in ClientInput) {
	c.Name = in.Name
	c.Company = in.Company
	c.Email = in.Email
	c.Phone = in.Phone
	c.Document = in.Document
	c.Address = in.Address
	c.City = in.City
	c.State = in.State
	c.Notes = in.Notes
}

// GetUserClients lists the user's clients, optionally filtered by a name, company or email search.
func (s *clientService) GetUserClients(userID, search string, page pagination.PageRequest) (*pagination.PageResponse[models.Client], error) {
	query := s.db.Model(&models.Client{}).Where("user_id = ?", userID)
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(company) LIKE ? OR LOWER(email) LIKE ?", like, like, like)
	}

	result, err := pagination.Find[models.Client](query, page, page.OrderBy(clientSortColumns, "name ASC"))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return result, nil
}

// GetClientByID retrieves a client owned by the user.
func (s *clientService) GetClientByID(userID, clientID string) (*models.Client, error) {
	var client models.Client
	if err := s.db.Where("id = ? AND user_id = ?", clientID, userID).First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrClientNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &client, nil
}

// UpdateClient replaces the editable fields of a client.
func (s *clientService) UpdateClient(userID, clientID string, input ClientInput) (*models.Client, error) {
	input = input.normalized()
	if input.Name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "client name is required")
	}

	client, err := s.GetClientByID(userID, clientID)
	if err != nil {
		return nil, err
	}

	applyClientInput(client, input)
	if err := s.db.Save(client).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return client, nil
}

// DeleteClient soft-deletes a client. Budgets keep their reference.
func (s *clientService) DeleteClient(userID, clientID string) error {
	client, err := s.GetClientByID(userID, clientID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(client).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}
