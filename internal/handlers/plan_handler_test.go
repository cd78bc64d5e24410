package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "limify/internal/errors"
	"limify/internal/middleware"
	"limify/internal/models"
	"limify/internal/quota"
	"limify/internal/services"
)

// --- mock plan service ---

type mockPlanService struct {
	getSummaryFn func(userID string) (*services.PlanSummary, error)
	applyPlanFn  func(input services.PlanInput) (*models.UserPlan, error)
}

var _ services.PlanServicer = (*mockPlanService)(nil)

func (m *mockPlanService) GetPlan(userID string) (*models.UserPlan, error) {
	return &models.UserPlan{UserID: userID, Tier: quota.TierFree}, nil
}

func (m *mockPlanService) GetLimits(string) (quota.Limits, error) {
	return quota.DefaultLimits(quota.TierFree), nil
}

func (m *mockPlanService) GetUsage(string) (services.PlanUsage, error) {
	return services.PlanUsage{}, nil
}

func (m *mockPlanService) GetSummary(userID string) (*services.PlanSummary, error) {
	if m.getSummaryFn != nil {
		return m.getSummaryFn(userID)
	}
	return &services.PlanSummary{}, nil
}

func (m *mockPlanService) HasQuota(string, quota.Resource, int64) (bool, error) {
	return true, nil
}

func (m *mockPlanService) CheckQuota(string, quota.Resource, int64) error {
	return nil
}

func (m *mockPlanService) ApplyPlan(input services.PlanInput) (*models.UserPlan, error) {
	if m.applyPlanFn != nil {
		return m.applyPlanFn(input)
	}
	return &models.UserPlan{UserID: input.UserID, Tier: input.Tier, Status: input.Status}, nil
}

const testBillingKey = "billing-test-key"

func setupPlanRouter(handler *PlanHandler) *gin.Engine {
	r := gin.New()
	r.GET("/plan", injectUserID(testUserID), handler.GetPlan)
	r.POST("/billing/plans", middleware.APIKeyMiddleware(testBillingKey), handler.ApplyPlan)
	return r
}

// --- tests ---

func TestPlanHandler_GetPlan(t *testing.T) {
	svc := &mockPlanService{
		getSummaryFn: func(userID string) (*services.PlanSummary, error) {
			return &services.PlanSummary{
				Plan:   &models.UserPlan{UserID: userID, Tier: quota.TierFree},
				Limits: quota.Limits{quota.ResourceBudgets: quota.Limited(5), quota.ResourceEdits: quota.Unlimited()},
				Usage:  services.PlanUsage{quota.ResourceBudgets: 2},
			}, nil
		},
	}
	r := setupPlanRouter(NewPlanHandler(svc, &mockAuditService{}))

	rec := doRequest(r, "GET", "/plan", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	limits := result["limits"].(map[string]interface{})
	if limits[string(quota.ResourceBudgets)].(float64) != 5 {
		t.Errorf("expected budgets limit 5, got %v", limits[string(quota.ResourceBudgets)])
	}
	if limits[string(quota.ResourceEdits)] != nil {
		t.Errorf("expected unlimited edits as null, got %v", limits[string(quota.ResourceEdits)])
	}
	usage := result["usage"].(map[string]interface{})
	if usage[string(quota.ResourceBudgets)].(float64) != 2 {
		t.Errorf("expected usage 2, got %v", usage[string(quota.ResourceBudgets)])
	}
}

func TestPlanHandler_ApplyPlan(t *testing.T) {
	doBilling := func(r *gin.Engine, key, body string) int {
		req := newJSONRequest("POST", "/billing/plans", body)
		if key != "" {
			req.Header.Set("X-API-Key", key)
		}
		return serve(r, req).Code
	}

	t.Run("applies plan with explicit quotas", func(t *testing.T) {
		var got services.PlanInput
		audit := &mockAuditService{}
		svc := &mockPlanService{
			applyPlanFn: func(input services.PlanInput) (*models.UserPlan, error) {
				got = input
				return &models.UserPlan{UserID: input.UserID, Tier: input.Tier}, nil
			},
		}
		r := setupPlanRouter(NewPlanHandler(svc, audit))

		code := doBilling(r, testBillingKey,
			`{"user_id":"`+testUserID+`","tier":"expert","quotas":{"orçamentos":null,"clientes":50}}`)

		if code != http.StatusOK {
			t.Fatalf("expected 200, got %d", code)
		}
		if got.Tier != quota.TierExpert {
			t.Errorf("expected expert tier, got %s", got.Tier)
		}
		if n, ok := got.Quotas[quota.ResourceBudgets]; !ok || n != nil {
			t.Errorf("expected explicit unlimited budgets, got %v (present=%v)", n, ok)
		}
		if n := got.Quotas[quota.ResourceClients]; n == nil || *n != 50 {
			t.Errorf("expected 50 clients, got %v", n)
		}
		if got := audit.actions(); len(got) != 1 || got[0] != services.AuditPlanChange {
			t.Errorf("expected PLAN_CHANGE audit, got %v", got)
		}
	})

	t.Run("requires the API key", func(t *testing.T) {
		r := setupPlanRouter(NewPlanHandler(&mockPlanService{}, &mockAuditService{}))

		if code := doBilling(r, "", `{"user_id":"`+testUserID+`","tier":"basic"}`); code != http.StatusUnauthorized {
			t.Errorf("missing key: expected 401, got %d", code)
		}
		if code := doBilling(r, "wrong", `{"user_id":"`+testUserID+`","tier":"basic"}`); code != http.StatusUnauthorized {
			t.Errorf("wrong key: expected 401, got %d", code)
		}
	})

	t.Run("rejects unknown tiers and statuses", func(t *testing.T) {
		r := setupPlanRouter(NewPlanHandler(&mockPlanService{}, &mockAuditService{}))

		if code := doBilling(r, testBillingKey, `{"user_id":"`+testUserID+`","tier":"platinum"}`); code != http.StatusBadRequest {
			t.Errorf("tier: expected 400, got %d", code)
		}
		if code := doBilling(r, testBillingKey, `{"user_id":"`+testUserID+`","tier":"basic","status":"paused"}`); code != http.StatusBadRequest {
			t.Errorf("status: expected 400, got %d", code)
		}
	})

	t.Run("returns 404 for unknown users", func(t *testing.T) {
		svc := &mockPlanService{
			applyPlanFn: func(services.PlanInput) (*models.UserPlan, error) { return nil, apperrors.ErrUserNotFound },
		}
		r := setupPlanRouter(NewPlanHandler(svc, &mockAuditService{}))

		if code := doBilling(r, testBillingKey, `{"user_id":"`+testUserID+`","tier":"basic"}`); code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", code)
		}
	})
}
