package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "limify/internal/errors"
	"limify/internal/events"
	"limify/internal/models"
	"limify/internal/pagination"
	"limify/internal/pricing"
	"limify/internal/services"
)

// BudgetHandler handles budget-related requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	auditService  services.AuditServicer
	publisher     events.Publisher
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, auditService services.AuditServicer, publisher events.Publisher) *BudgetHandler {
	return &BudgetHandler{budgetService: budgetService, auditService: auditService, publisher: publisher}
}

// ItemRequest is one line of an m2, render or modeling budget.
type ItemRequest struct {
	Description     string          `json:"description" binding:"max=500"`
	PricePerUnit    decimal.Decimal `json:"price_per_unit" swaggertype:"string" example:"150.00"`
	Quantity        decimal.Decimal `json:"quantity" swaggertype:"string" example:"25"`
	DevelopmentDays *int            `json:"development_days" binding:"omitempty,min=0"`
	ImageCount      *int            `json:"image_count" binding:"omitempty,min=0"`
	Complexity      string          `json:"complexity" binding:"max=50"`
}

// ActivityRequest is one activity of a complete budget. segment_key attributes a
// phase-level activity to a segment of the same phase.
type ActivityRequest struct {
	Name        string           `json:"name" binding:"required,max=200"`
	Time        decimal.Decimal  `json:"time" swaggertype:"string" example:"10"`
	CostPerHour decimal.Decimal  `json:"cost_per_hour" swaggertype:"string" example:"50.00"`
	TotalCost   *decimal.Decimal `json:"total_cost" swaggertype:"string"`
	Complexity  string           `json:"complexity" binding:"max=50"`
	SegmentKey  *string          `json:"segment_key" binding:"omitempty,max=100"`
}

// SegmentRequest is one segment of a phase. Key is a client-chosen reference that
// activities use to point at the segment.
type SegmentRequest struct {
	Key        string            `json:"key" binding:"required,max=100"`
	Name       string            `json:"name" binding:"required,max=200"`
	Activities []ActivityRequest `json:"activities" binding:"dive"`
}

// PhaseRequest is one phase of a complete budget.
type PhaseRequest struct {
	Name        string            `json:"name" binding:"required,max=200"`
	Description string            `json:"description" binding:"max=2000"`
	BaseValue   decimal.Decimal   `json:"base_value" swaggertype:"string" example:"1000.00"`
	Segments    []SegmentRequest  `json:"segments" binding:"dive"`
	Activities  []ActivityRequest `json:"activities" binding:"dive"`
}

// AdditionalsRequest configures area and delivery surcharges of a complete budget.
type AdditionalsRequest struct {
	WetAreaQuantity       decimal.Decimal `json:"wet_area_quantity" swaggertype:"string"`
	DryAreaQuantity       decimal.Decimal `json:"dry_area_quantity" swaggertype:"string"`
	WetAreaPercentage     decimal.Decimal `json:"wet_area_percentage" swaggertype:"string"`
	DryAreaPercentage     decimal.Decimal `json:"dry_area_percentage" swaggertype:"string"`
	DeliveryTimeDays      int             `json:"delivery_time_days" binding:"min=0"`
	DeliveryDailyRate     decimal.Decimal `json:"delivery_daily_rate" swaggertype:"string"`
	DisableDeliveryCharge bool            `json:"disable_delivery_charge"`
}

// BudgetRequest is the full editable content of a budget. Totals are never accepted;
// they are always computed from the content.
type BudgetRequest struct {
	ClientID     *string              `json:"client_id" binding:"omitempty,uuid"`
	Name         string               `json:"name" binding:"max=200"`
	Description  string               `json:"description" binding:"max=5000"`
	BudgetType   models.BudgetType    `json:"budget_type" binding:"required,budget_type"`
	ValueType    models.ValueType     `json:"value_type" binding:"omitempty,value_type"`
	UnitPrice    *decimal.Decimal     `json:"unit_price" swaggertype:"string"`
	Discount     decimal.Decimal      `json:"discount" swaggertype:"string"`
	DiscountType pricing.DiscountType `json:"discount_type" binding:"omitempty,discount_type"`
	Items        []ItemRequest        `json:"items" binding:"dive"`
	Phases       []PhaseRequest       `json:"phases" binding:"dive"`
	Additionals  *AdditionalsRequest  `json:"additionals"`
	References   []string             `json:"references" binding:"max=50,dive,max=500"`
}

func (r ActivityRequest) input() services.ActivityInput {
	return services.ActivityInput{
		Name:        r.Name,
		Time:        r.Time,
		CostPerHour: r.CostPerHour,
		TotalCost:   r.TotalCost,
		Complexity:  r.Complexity,
		SegmentKey:  r.SegmentKey,
	}
}

func activityInputs(reqs []ActivityRequest) []services.ActivityInput {
	out := make([]services.ActivityInput, len(reqs))
	for i, a := range reqs {
		out[i] = a.input()
	}
	return out
}

func (r BudgetRequest) input() services.BudgetInput {
	in := services.BudgetInput{
		ClientID:     r.ClientID,
		Name:         r.Name,
		Description:  r.Description,
		Type:         r.BudgetType,
		ValueType:    r.ValueType,
		UnitPrice:    r.UnitPrice,
		Discount:     r.Discount,
		DiscountType: r.DiscountType,
		References:   r.References,
	}

	for _, item := range r.Items {
		in.Items = append(in.Items, services.ItemInput{
			Description:     item.Description,
			PricePerUnit:    item.PricePerUnit,
			Quantity:        item.Quantity,
			DevelopmentDays: item.DevelopmentDays,
			ImageCount:      item.ImageCount,
			Complexity:      item.Complexity,
		})
	}

	for _, phase := range r.Phases {
		p := services.PhaseInput{
			Name:        phase.Name,
			Description: phase.Description,
			BaseValue:   phase.BaseValue,
			Activities:  activityInputs(phase.Activities),
		}
		for _, seg := range phase.Segments {
			p.Segments = append(p.Segments, services.SegmentInput{
				Key:        seg.Key,
				Name:       seg.Name,
				Activities: activityInputs(seg.Activities),
			})
		}
		in.Phases = append(in.Phases, p)
	}

	if a := r.Additionals; a != nil {
		in.Additionals = &pricing.Additionals{
			WetAreaQuantity:       a.WetAreaQuantity,
			DryAreaQuantity:       a.DryAreaQuantity,
			WetAreaPercentage:     a.WetAreaPercentage,
			DryAreaPercentage:     a.DryAreaPercentage,
			DeliveryTimeDays:      a.DeliveryTimeDays,
			DeliveryDailyRate:     a.DeliveryDailyRate,
			DisableDeliveryCharge: a.DisableDeliveryCharge,
		}
	}
	return in
}

// UpdateStatusRequest changes the commercial status of a budget.
type UpdateStatusRequest struct {
	Status models.BudgetStatus `json:"status" binding:"required,budget_status"`
}

// QuoteBudget prices a budget without storing it
// @Summary     Quote a budget
// @Description Compute item, phase and budget totals for the given content. Nothing is stored and no quota is used.
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body BudgetRequest true "Budget content"
// @Success     200 {object} map[string]services.Quote "Computed quote"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     422 {object} ErrorResponse "Activity total mismatch"
// @Router      /budgets/quote [post]
func (h *BudgetHandler) QuoteBudget(c *gin.Context) {
	if _, err := getUserID(c); err != nil {
		respondWithError(c, err)
		return
	}

	var req BudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	quote, err := h.budgetService.Quote(req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"quote": quote})
}

// CreateBudget handles the creation of a new budget
// @Summary     Create a budget
// @Description Store a budget with all its items or phases in one transaction. Limited by the plan's budgets quota.
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body BudgetRequest true "Budget content"
// @Success     201 {object} map[string]models.Budget "Budget created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     402 {object} ErrorResponse "Quota exceeded"
// @Failure     404 {object} ErrorResponse "Client not found"
// @Failure     422 {object} ErrorResponse "Activity total mismatch"
// @Router      /budgets [post]
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req BudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	budget, err := h.budgetService.CreateBudget(userID, req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditCreate, "budget", budget.ID, c.ClientIP(),
		map[string]interface{}{"name": budget.Name, "budget_type": budget.Type, "total": budget.Total.String()})

	c.JSON(http.StatusCreated, gin.H{"budget": budget})
}

// GetUserBudgets lists the user's budgets
// @Summary     List budgets
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       state       query string false "active (default) or trashed"
// @Param       status      query string false "draft, sent, approved or rejected"
// @Param       budget_type query string false "m2, complete, render or modeling"
// @Param       search      query string false "Case-insensitive name search"
// @Param       page        query int    false "Page number (default 1)"
// @Param       page_size   query int    false "Items per page (default 20, max 100)"
// @Param       sort        query string false "Sort key: name, total, status, created_at, updated_at (prefix - for descending)"
// @Success     200 {object} pagination.PageResponse[models.Budget] "Paginated budgets"
// @Failure     400 {object} ErrorResponse "Invalid filter"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /budgets [get]
func (h *BudgetHandler) GetUserBudgets(c *gin.Context) {
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

	filter := services.BudgetFilter{Search: c.Query("search")}
	if filter.State, err = parseStateFilter(c); err != nil {
		respondWithError(c, err)
		return
	}
	if s := c.Query("status"); s != "" {
		status := models.BudgetStatus(s)
		if !status.Valid() {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown status"))
			return
		}
		filter.Status = &status
	}
	if t := c.Query("budget_type"); t != "" {
		budgetType := models.BudgetType(t)
		if !budgetType.Valid() {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown budget_type"))
			return
		}
		filter.Type = &budgetType
	}

	result, err := h.budgetService.GetUserBudgets(userID, filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetBudgetByID returns a budget with all its children
// @Summary     Get budget by ID
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} map[string]models.Budget "Budget with items, phases, additionals and references"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id} [get]
func (h *BudgetHandler) GetBudgetByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.GetBudgetByID(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// UpdateBudget replaces a budget's content
// @Summary     Update budget
// @Description Replace the content of an active budget and recompute its totals. Limited by the plan's edits quota.
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string        true "Budget ID"
// @Param       request body BudgetRequest true "Budget content"
// @Success     200 {object} map[string]models.Budget "Updated budget"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     402 {object} ErrorResponse "Quota exceeded"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     409 {object} ErrorResponse "Budget is trashed"
// @Failure     422 {object} ErrorResponse "Activity total mismatch"
// @Router      /budgets/{id} [put]
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req BudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	budget, err := h.budgetService.UpdateBudget(userID, budgetID, req.input())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditUpdate, "budget", budgetID, c.ClientIP(),
		map[string]interface{}{"total": budget.Total.String(), "edit_count": budget.EditCount})

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// UpdateStatus changes the commercial status of a budget
// @Summary     Update budget status
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string              true "Budget ID"
// @Param       request body UpdateStatusRequest true "New status"
// @Success     200 {object} map[string]models.Budget "Updated budget"
// @Failure     400 {object} ErrorResponse "Invalid status"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     409 {object} ErrorResponse "Budget is trashed"
// @Router      /budgets/{id}/status [patch]
func (h *BudgetHandler) UpdateStatus(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	budget, err := h.budgetService.UpdateStatus(userID, budgetID, req.Status)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditStatusChange, "budget", budgetID, c.ClientIP(),
		map[string]interface{}{"status": budget.Status})
	events.PublishAsync(c.Request.Context(), h.publisher, events.New(events.BudgetStatusChanged, userID, budgetID,
		map[string]interface{}{"status": budget.Status, "total": budget.Total.String()}))

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

func (h *BudgetHandler) transition(c *gin.Context, event models.LifecycleEvent) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	budgetID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	budget, err := h.budgetService.TransitionBudget(userID, budgetID, event)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, lifecycleAuditActions[event], "budget", budgetID, c.ClientIP(),
		map[string]interface{}{"lifecycle": budget.Lifecycle})

	if event == models.EventPurge {
		c.JSON(http.StatusOK, gin.H{"message": "Budget permanently deleted"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// TrashBudget moves a budget to the trash
// @Summary     Trash budget
// @Description Trashed budgets are read-only and their public page stops resolving
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} map[string]models.Budget "Trashed budget"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     409 {object} ErrorResponse "Budget already trashed"
// @Router      /budgets/{id}/trash [post]
func (h *BudgetHandler) TrashBudget(c *gin.Context) {
	h.transition(c, models.EventTrash)
}

// RestoreBudget brings a trashed budget back
// @Summary     Restore budget
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} map[string]models.Budget "Restored budget"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     409 {object} ErrorResponse "Budget is not trashed"
// @Router      /budgets/{id}/restore [post]
func (h *BudgetHandler) RestoreBudget(c *gin.Context) {
	h.transition(c, models.EventRestore)
}

// PurgeBudget permanently deletes a trashed budget, its children and its publications
// @Summary     Purge budget
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} map[string]string "Budget deleted"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Failure     409 {object} ErrorResponse "Budget is not trashed"
// @Router      /budgets/{id} [delete]
func (h *BudgetHandler) PurgeBudget(c *gin.Context) {
	h.transition(c, models.EventPurge)
}
