package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "limify/internal/errors"
	"limify/internal/models"
	"limify/internal/quota"
)

// planService resolves a user's plan and enforces its quotas.
type planService struct {
	db *gorm.DB
}

// NewPlanService creates a new PlanServicer.
func NewPlanService(db *gorm.DB) PlanServicer {
	return &planService{db: db}
}

// freePlan is what users without a plan row are on. It is never stored.
func freePlan(userID string) *models.UserPlan {
	limits := quota.DefaultLimits(quota.TierFree)
	return &models.UserPlan{
		UserID:     userID,
		Tier:       quota.TierFree,
		Status:     models.PlanStatusActive,
		MaxBudgets: limits.For(quota.ResourceBudgets).Nullable(),
		MaxUsers:   limits.For(quota.ResourceUsers).Nullable(),
		MaxClients: limits.For(quota.ResourceClients).Nullable(),
		MaxEdits:   limits.For(quota.ResourceEdits).Nullable(),
	}
}

// GetPlan returns the user's plan, or the free plan when none is stored.
func (s *planService) GetPlan(userID string) (*models.UserPlan, error) {
	var plan models.UserPlan
	if err := s.db.Where("user_id = ?", userID).First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return freePlan(userID), nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &plan, nil
}

// GetLimits returns the user's quotas.
func (s *planService) GetLimits(userID string) (quota.Limits, error) {
	plan, err := s.GetPlan(userID)
	if err != nil {
		return nil, err
	}
	return plan.Limits(), nil
}

// GetUsage counts the user's budgets, clients and team seats. Seats include unexpired pending invites.
func (s *planService) GetUsage(userID string) (PlanUsage, error) {
	usage := PlanUsage{}

	var budgets, clients int64
	if err := s.db.Model(&models.Budget{}).Where("user_id = ?", userID).Count(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := s.db.Model(&models.Client{}).Where("user_id = ?", userID).Count(&clients).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	seats, err := countSeats(s.db, userID, time.Now())
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	usage[quota.ResourceBudgets] = budgets
	usage[quota.ResourceClients] = clients
	usage[quota.ResourceUsers] = seats
	return usage, nil
}

// countSeats counts the members and the invites still pending at now of the team owned by
// ownerID. An owner without a team occupies one seat.
func countSeats(db *gorm.DB, ownerID string, now time.Time) (int64, error) {
	var team models.Team
	if err := db.Where("owner_id = ?", ownerID).First(&team).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 1, nil
		}
		return 0, err
	}

	var members, invites int64
	if err := db.Model(&models.TeamMember{}).Where("team_id = ?", team.ID).Count(&members).Error; err != nil {
		return 0, err
	}
	if err := db.Model(&models.TeamInvite{}).
		Where("team_id = ? AND status = ? AND expires_at > ?", team.ID, models.InviteStatusPending, now).
		Count(&invites).Error; err != nil {
		return 0, err
	}
	return members + invites, nil
}

// GetSummary returns the plan with resolved limits, usage and what is left of each quota.
func (s *planService) GetSummary(userID string) (*PlanSummary, error) {
	plan, err := s.GetPlan(userID)
	if err != nil {
		return nil, err
	}
	usage, err := s.GetUsage(userID)
	if err != nil {
		return nil, err
	}
	limits := plan.Limits()
	remaining := make(map[quota.Resource]*int64, len(limits))
	for resource, q := range limits {
		remaining[resource] = q.Remaining(usage[resource])
	}
	return &PlanSummary{Plan: plan, Limits: limits, Usage: usage, Remaining: remaining}, nil
}

// HasQuota reports whether the user may add one more of resource given currentUsage.
func (s *planService) HasQuota(userID string, resource quota.Resource, currentUsage int64) (bool, error) {
	limits, err := s.GetLimits(userID)
	if err != nil {
		return false, err
	}
	return limits.HasQuota(resource, currentUsage), nil
}

// CheckQuota is HasQuota returning QUOTA_EXCEEDED when the quota is used up.
func (s *planService) CheckQuota(userID string, resource quota.Resource, currentUsage int64) error {
	ok, err := s.HasQuota(userID, resource, currentUsage)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.WithMessage(apperrors.ErrQuotaExceeded,
			fmt.Sprintf("Plan limit reached for %s, upgrade to continue", resource))
	}
	return nil
}

// ApplyPlan upserts the user's plan from the billing collaborator.
func (s *planService) ApplyPlan(input PlanInput) (*models.UserPlan, error) {
	if input.UserID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "user_id is required")
	}
	if !quota.ValidTier(input.Tier) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown plan tier")
	}
	status := input.Status
	if status == "" {
		status = models.PlanStatusActive
	}

	var user models.User
	if err := s.db.Where("id = ?", input.UserID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	limits := quota.DefaultLimits(input.Tier)
	for resource, n := range input.Quotas {
		if _, known := limits[resource]; !known {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("unknown quota resource %q", resource))
		}
		limits[resource] = quota.FromNullable(n)
	}

	plan := models.UserPlan{
		UserID:               input.UserID,
		Tier:                 input.Tier,
		Status:               status,
		MaxBudgets:           limits.For(quota.ResourceBudgets).Nullable(),
		MaxUsers:             limits.For(quota.ResourceUsers).Nullable(),
		MaxClients:           limits.For(quota.ResourceClients).Nullable(),
		MaxEdits:             limits.For(quota.ResourceEdits).Nullable(),
		StripeCustomerID:     input.StripeCustomerID,
		StripeSubscriptionID: input.StripeSubscriptionID,
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"tier", "status", "max_budgets", "max_users", "max_clients", "max_edits",
			"stripe_customer_id", "stripe_subscription_id", "updated_at",
		}),
	}).Create(&plan).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.GetPlan(input.UserID)
}
