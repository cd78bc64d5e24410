package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "limify/internal/errors"
	"limify/internal/models"
	"limify/internal/pagination"
	"limify/internal/pricing"
	"limify/internal/services"
)

var lifecycleAuditActions = map[models.LifecycleEvent]string{
	models.EventTrash:   services.AuditTrash,
	models.EventRestore: services.AuditRestore,
	models.EventPurge:   services.AuditPurge,
}

// parseStateFilter reads the optional "state" query parameter.
func parseStateFilter(c *gin.Context) (*models.LifecycleState, error) {
	raw := c.Query("state")
	if raw == "" {
		return nil, nil
	}
	state := models.LifecycleState(raw)
	if !models.ValidLifecycleState(state) || state == models.LifecycleDeleted {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "state must be 'active' or 'trashed'")
	}
	return &state, nil
}

// ExpenseHandler handles expense-related requests.
type ExpenseHandler struct {
	expenseService services.ExpenseServicer
	auditService   services.AuditServicer
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(expenseService services.ExpenseServicer, auditService services.AuditServicer) *ExpenseHandler {
	return &ExpenseHandler{expenseService: expenseService, auditService: auditService}
}

// ExpenseRequest is the payload for creating or replacing an expense. Value also accepts
// reais as typed, e.g. "R$ 1.200,00".
type ExpenseRequest struct {
	Name       string         `json:"name" binding:"required,max=200"`
	CategoryID *string        `json:"category_id" binding:"omitempty,uuid"`
	Value      pricing.Amount `json:"value" binding:"dec_gte0,dec_scale=2" swaggertype:"string" example:"R$ 1.200,00"`
	Frequency  string         `json:"frequency" binding:"omitempty,frequency" example:"Mensal"`
	IsFixed    bool           `json:"is_fixed"`
	Notes      string         `json:"notes" binding:"max=2000"`
}

func (r ExpenseRequest) input() services.ExpenseInput {
	return services.ExpenseInput{
		Name:       r.Name,
		CategoryID: r.CategoryID,
		Value:      r.Value.Decimal,
		Frequency:  r.Frequency,
		IsFixed:    r.IsFixed,
		Notes:      r.Notes,
	}
}

// CreateExpense handles the creation of a new expense
// @Summary     Create an expense
// @Description Record a running cost. Frequency is one of Diário, Semanal, Mensal, Anual or Único and defaults to Mensal.
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ExpenseRequest true "Expense details"
// @Success     201 {object} map[string]models.Expense "Expense created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /expenses [post]
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	expense, err := h.expenseService.CreateExpense(userID, req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditCreate, "expense", expense.ID, c.ClientIP(),
		map[string]interface{}{"name": expense.Name, "value": expense.Value.String(), "frequency": expense.Frequency})

	c.JSON(http.StatusCreated, gin.H{"expense": expense})
}

// GetUserExpenses lists the user's expenses
// @Summary     List expenses
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       state     query string false "active (default) or trashed"
// @Param       archived  query bool   false "Filter by archived flag"
// @Param       is_fixed  query bool   false "Filter fixed or punctual expenses"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Param       sort      query string false "Sort key: name, value, created_at (prefix - for descending)"
// @Success     200 {object} pagination.PageResponse[models.Expense] "Paginated expenses"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /expenses [get]
func (h *ExpenseHandler) GetUserExpenses(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var filter services.ExpenseFilter
	if filter.State, err = parseStateFilter(c); err != nil {
		respondWithError(c, err)
		return
	}
	if filter.Archived, err = parseOptionalBool(c, "archived"); err != nil {
		respondWithError(c, err)
		return
	}
	if filter.IsFixed, err = parseOptionalBool(c, "is_fixed"); err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.expenseService.GetUserExpenses(userID, filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetSummary returns the recurring cost of the user's expenses
// @Summary     Expense summary
// @Description Monthly and annual cost of active, non-archived expenses, split by fixed and punctual and grouped by category
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.ExpenseSummary "Summary"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /expenses/summary [get]
func (h *ExpenseHandler) GetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.expenseService.GetSummary(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetExpenseByID returns one expense
// @Summary     Get expense by ID
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} map[string]models.Expense "Expense details"
// @Failure     400 {object} ErrorResponse "Invalid expense ID"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Router      /expenses/{id} [get]
func (h *ExpenseHandler) GetExpenseByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.GetExpenseByID(userID, expenseID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// UpdateExpense replaces an expense's fields
// @Summary     Update expense
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string         true "Expense ID"
// @Param       request body ExpenseRequest true "Expense details"
// @Success     200 {object} map[string]models.Expense "Updated expense"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Router      /expenses/{id} [put]
func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	expense, err := h.expenseService.UpdateExpense(userID, expenseID, req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditUpdate, "expense", expenseID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

func (h *ExpenseHandler) transition(c *gin.Context, event models.LifecycleEvent) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.TransitionExpense(userID, expenseID, event)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, lifecycleAuditActions[event], "expense", expenseID, c.ClientIP(),
		map[string]interface{}{"lifecycle": expense.Lifecycle})

	if event == models.EventPurge {
		c.JSON(http.StatusOK, gin.H{"message": "Expense permanently deleted"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// TrashExpense moves an expense to the trash
// @Summary     Trash expense
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} map[string]models.Expense "Trashed expense"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     409 {object} ErrorResponse "Expense already trashed"
// @Router      /expenses/{id}/trash [post]
func (h *ExpenseHandler) TrashExpense(c *gin.Context) {
	h.transition(c, models.EventTrash)
}

// RestoreExpense brings a trashed expense back
// @Summary     Restore expense
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} map[string]models.Expense "Restored expense"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     409 {object} ErrorResponse "Expense is not trashed"
// @Router      /expenses/{id}/restore [post]
func (h *ExpenseHandler) RestoreExpense(c *gin.Context) {
	h.transition(c, models.EventRestore)
}

// PurgeExpense permanently deletes a trashed expense
// @Summary     Purge expense
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} map[string]string "Expense deleted"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     409 {object} ErrorResponse "Expense is not trashed"
// @Router      /expenses/{id} [delete]
func (h *ExpenseHandler) PurgeExpense(c *gin.Context) {
	h.transition(c, models.EventPurge)
}

func (h *ExpenseHandler) setArchived(c *gin.Context, archived bool) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.SetArchived(userID, expenseID, archived)
	if err != nil {
		respondWithError(c, err)
		return
	}

	action := services.AuditArchive
	if !archived {
		action = services.AuditUnarchive
	}
	h.auditService.Log(userID, action, "expense", expenseID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// ArchiveExpense hides an expense from the recurring cost without trashing it
// @Summary     Archive expense
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} map[string]models.Expense "Archived expense"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     409 {object} ErrorResponse "Expense is trashed"
// @Router      /expenses/{id}/archive [post]
func (h *ExpenseHandler) ArchiveExpense(c *gin.Context) {
	h.setArchived(c, true)
}

// UnarchiveExpense counts an archived expense again
// @Summary     Unarchive expense
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} map[string]models.Expense "Expense"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Failure     409 {object} ErrorResponse "Expense is trashed"
// @Router      /expenses/{id}/unarchive [post]
func (h *ExpenseHandler) UnarchiveExpense(c *gin.Context) {
	h.setArchived(c, false)
}
