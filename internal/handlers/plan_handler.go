package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "limify/internal/errors"
	"limify/internal/models"
	"limify/internal/quota"
	"limify/internal/services"
)

// PlanHandler exposes the caller's plan and lets the billing system change plans.
type PlanHandler struct {
	planService  services.PlanServicer
	auditService services.AuditServicer
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(planService services.PlanServicer, auditService services.AuditServicer) *PlanHandler {
	return &PlanHandler{planService: planService, auditService: auditService}
}

// ApplyPlanRequest is sent by the billing system after a subscription change. Omitting
// quotas applies the tier defaults; a quota set to null is unlimited.
type ApplyPlanRequest struct {
	UserID               string                  `json:"user_id" binding:"required,uuid"`
	Tier                 quota.Tier              `json:"tier" binding:"required,plan_tier" example:"expert"`
	Status               models.PlanStatus       `json:"status" binding:"omitempty,oneof=active trialing past_due canceled"`
	Quotas               map[quota.Resource]*int `json:"quotas" swaggertype:"object"`
	StripeCustomerID     string                  `json:"stripe_customer_id" binding:"max=255"`
	StripeSubscriptionID string                  `json:"stripe_subscription_id" binding:"max=255"`
}

// GetPlan returns the caller's plan, limits and usage
// @Summary     Current plan
// @Description Plan tier with resolved quotas (null means unlimited) and current usage per resource
// @Tags        plan
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.PlanSummary "Plan summary"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /plan [get]
func (h *PlanHandler) GetPlan(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.planService.GetSummary(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ApplyPlan upserts a user's plan
// @Summary     Apply plan
// @Description Called by the billing system. Authenticated with the X-API-Key header.
// @Tags        billing
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body ApplyPlanRequest true "Plan"
// @Success     200 {object} map[string]models.UserPlan "Stored plan"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /billing/plans [post]
func (h *PlanHandler) ApplyPlan(c *gin.Context) {
	var req ApplyPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	plan, err := h.planService.ApplyPlan(services.PlanInput{
		UserID:               req.UserID,
		Tier:                 req.Tier,
		Status:               req.Status,
		Quotas:               req.Quotas,
		StripeCustomerID:     req.StripeCustomerID,
		StripeSubscriptionID: req.StripeSubscriptionID,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(req.UserID, services.AuditPlanChange, "plan", plan.ID, c.ClientIP(),
		map[string]interface{}{"tier": plan.Tier, "status": plan.Status})

	c.JSON(http.StatusOK, gin.H{"plan": plan})
}
