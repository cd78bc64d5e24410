package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"limify/internal/models"
	"limify/internal/pricing"
	"limify/internal/quota"
	"limify/internal/uuid"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email and password "password123".
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		Name:     "Test User",
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestClient creates a client owned by userID.
func CreateTestClient(t *testing.T, db *gorm.DB, userID string) *models.Client {
	t.Helper()

	client := &models.Client{
		UserID: userID,
		Name:   fmt.Sprintf("Test Client %d", nextID()),
		Email:  "cliente@example.com",
	}
	if err := db.Create(client).Error; err != nil {
		t.Fatalf("failed to create test client: %v", err)
	}
	return client
}

// CreateTestCategory creates a category. A nil userID creates a global category.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID *string) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID: userID,
		Name:   fmt.Sprintf("Test Category %d", nextID()),
		Color:  "#3B82F6",
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestExpense creates an active fixed expense charged at frequency.
func CreateTestExpense(t *testing.T, db *gorm.DB, userID string, value string, frequency pricing.Frequency) *models.Expense {
	t.Helper()

	expense := &models.Expense{
		UserID:    userID,
		Name:      fmt.Sprintf("Test Expense %d", nextID()),
		Value:     decimal.RequireFromString(value),
		Frequency: string(frequency),
		IsFixed:   true,
		Lifecycle: models.LifecycleActive,
	}
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}
	return expense
}

// CreateTestBudget creates an m2 draft budget with a single item of 100 × 10.
// Children are written directly so services are not involved.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID string) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID:    userID,
		Name:      fmt.Sprintf("Test Budget %d", nextID()),
		Type:      models.BudgetTypeM2,
		ValueType: models.ValueTypeIndividual,
		Subtotal:  decimal.NewFromInt(1000),
		Total:     decimal.NewFromInt(1000),
		Discount:  decimal.Zero,
		Status:    models.BudgetStatusDraft,
		Lifecycle: models.LifecycleActive,
		Items: []models.BudgetItem{{
			Description:  "Sala",
			PricePerUnit: decimal.NewFromInt(100),
			Quantity:     decimal.NewFromInt(10),
			Total:        decimal.NewFromInt(1000),
		}},
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestPlan stores a plan for userID with the tier's default quotas.
func CreateTestPlan(t *testing.T, db *gorm.DB, userID string, tier quota.Tier) *models.UserPlan {
	t.Helper()

	limits := quota.DefaultLimits(tier)
	plan := &models.UserPlan{
		UserID:     userID,
		Tier:       tier,
		Status:     models.PlanStatusActive,
		MaxBudgets: limits.For(quota.ResourceBudgets).Nullable(),
		MaxUsers:   limits.For(quota.ResourceUsers).Nullable(),
		MaxClients: limits.For(quota.ResourceClients).Nullable(),
		MaxEdits:   limits.For(quota.ResourceEdits).Nullable(),
	}
	if err := db.Create(plan).Error; err != nil {
		t.Fatalf("failed to create test plan: %v", err)
	}
	return plan
}

// CreateTestInvite creates a pending invite to email on teamID, valid for a week.
func CreateTestInvite(t *testing.T, db *gorm.DB, teamID, invitedBy, email string) *models.TeamInvite {
	t.Helper()

	invite := &models.TeamInvite{
		TeamID:    teamID,
		Email:     email,
		Role:      models.TeamRoleMember,
		Token:     uuid.NewToken(),
		Status:    models.InviteStatusPending,
		InvitedBy: invitedBy,
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}
	if err := db.Create(invite).Error; err != nil {
		t.Fatalf("failed to create test invite: %v", err)
	}
	return invite
}
