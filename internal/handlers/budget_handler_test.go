package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "limify/internal/errors"
	"limify/internal/events"
	"limify/internal/models"
	"limify/internal/pagination"
	"limify/internal/pricing"
	"limify/internal/services"
)

const testBudgetID = "0190a8f1-5b2c-7d3e-8f41-0000000000b1"

// --- mock budget service ---

type mockBudgetService struct {
	quoteFn            func(input services.BudgetInput) (*services.Quote, error)
	createBudgetFn     func(userID string, input services.BudgetInput) (*models.Budget, error)
	getUserBudgetsFn   func(userID string, filter services.BudgetFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error)
	getBudgetByIDFn    func(userID, budgetID string) (*models.Budget, error)
	updateBudgetFn     func(userID, budgetID string, input services.BudgetInput) (*models.Budget, error)
	updateStatusFn     func(userID, budgetID string, status models.BudgetStatus) (*models.Budget, error)
	transitionBudgetFn func(userID, budgetID string, event models.LifecycleEvent) (*models.Budget, error)
}

var _ services.BudgetServicer = (*mockBudgetService)(nil)

func (m *mockBudgetService) Quote(input services.BudgetInput) (*services.Quote, error) {
	if m.quoteFn != nil {
		return m.quoteFn(input)
	}
	return &services.Quote{}, nil
}

func (m *mockBudgetService) CreateBudget(userID string, input services.BudgetInput) (*models.Budget, error) {
	if m.createBudgetFn != nil {
		return m.createBudgetFn(userID, input)
	}
	return &models.Budget{Base: models.Base{ID: testBudgetID}, Name: input.Name, Type: input.Type}, nil
}

func (m *mockBudgetService) GetUserBudgets(userID string, filter services.BudgetFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Budget], error) {
	if m.getUserBudgetsFn != nil {
		return m.getUserBudgetsFn(userID, filter, page)
	}
	resp := pagination.NewPageResponse([]models.Budget{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockBudgetService) GetBudgetByID(userID, budgetID string) (*models.Budget, error) {
	if m.getBudgetByIDFn != nil {
		return m.getBudgetByIDFn(userID, budgetID)
	}
	return &models.Budget{Base: models.Base{ID: budgetID}}, nil
}

func (m *mockBudgetService) UpdateBudget(userID, budgetID string, input services.BudgetInput) (*models.Budget, error) {
	if m.updateBudgetFn != nil {
		return m.updateBudgetFn(userID, budgetID, input)
	}
	return &models.Budget{Base: models.Base{ID: budgetID}, Name: input.Name, EditCount: 1}, nil
}

func (m *mockBudgetService) UpdateStatus(userID, budgetID string, status models.BudgetStatus) (*models.Budget, error) {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(userID, budgetID, status)
	}
	return &models.Budget{Base: models.Base{ID: budgetID}, Status: status}, nil
}

func (m *mockBudgetService) TransitionBudget(userID, budgetID string, event models.LifecycleEvent) (*models.Budget, error) {
	if m.transitionBudgetFn != nil {
		return m.transitionBudgetFn(userID, budgetID, event)
	}
	next, _ := models.LifecycleActive.Next(event)
	return &models.Budget{Base: models.Base{ID: budgetID}, Lifecycle: next}, nil
}

func setupBudgetRouter(handler *BudgetHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/budgets/quote", handler.QuoteBudget)
	auth.POST("/budgets", handler.CreateBudget)
	auth.GET("/budgets", handler.GetUserBudgets)
	auth.GET("/budgets/:id", handler.GetBudgetByID)
	auth.PUT("/budgets/:id", handler.UpdateBudget)
	auth.DELETE("/budgets/:id", handler.PurgeBudget)
	auth.PATCH("/budgets/:id/status", handler.UpdateStatus)
	auth.POST("/budgets/:id/trash", handler.TrashBudget)
	auth.POST("/budgets/:id/restore", handler.RestoreBudget)
	return r
}

// waitForEvents polls the recorder until n events arrived or a second passed.
func waitForEvents(t *testing.T, r *events.Recorder, n int) []events.Event {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for len(r.Events()) < n && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	got := r.Events()
	if len(got) != n {
		t.Fatalf("expected %d events, got %d", n, len(got))
	}
	return got
}

const completeBudgetBody = `{
	"name": "Casa Jardins",
	"budget_type": "complete",
	"discount": "10",
	"discount_type": "percentual",
	"phases": [{
		"name": "Anteprojeto",
		"base_value": "1000",
		"segments": [{"key": "layout", "name": "Layout", "activities": [
			{"name": "Planta", "time": 10, "cost_per_hour": "50"}
		]}],
		"activities": [
			{"name": "Reunião", "time": "4", "cost_per_hour": 75, "total_cost": "300"},
			{"name": "Revisão", "time": 2, "cost_per_hour": 50, "segment_key": "layout"}
		]
	}],
	"additionals": {"wet_area_quantity": 40, "dry_area_quantity": 60, "wet_area_percentage": 10, "delivery_time_days": 3, "delivery_daily_rate": "20"},
	"references": ["https://example.com/ref"]
}`

// --- tests ---

func TestBudgetHandler_QuoteBudget(t *testing.T) {
	t.Run("maps nested content into the service input", func(t *testing.T) {
		var got services.BudgetInput
		svc := &mockBudgetService{
			quoteFn: func(input services.BudgetInput) (*services.Quote, error) {
				got = input
				return &services.Quote{Breakdown: pricing.Breakdown{Total: decimal.RequireFromString("1800")}}, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockAuditService{}, &events.Recorder{}))

		rec := doRequest(r, "POST", "/budgets/quote", completeBudgetBody)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.Type != models.BudgetTypeComplete || got.DiscountType != pricing.DiscountPercentual {
			t.Errorf("unexpected type fields: %s %s", got.Type, got.DiscountType)
		}
		if len(got.Phases) != 1 {
			t.Fatalf("expected 1 phase, got %d", len(got.Phases))
		}
		phase := got.Phases[0]
		if !phase.BaseValue.Equal(decimal.NewFromInt(1000)) {
			t.Errorf("expected base value 1000, got %s", phase.BaseValue)
		}
		if len(phase.Segments) != 1 || phase.Segments[0].Key != "layout" || len(phase.Segments[0].Activities) != 1 {
			t.Errorf("unexpected segments: %+v", phase.Segments)
		}
		if len(phase.Activities) != 2 {
			t.Fatalf("expected 2 phase activities, got %d", len(phase.Activities))
		}
		if phase.Activities[0].TotalCost == nil || !phase.Activities[0].TotalCost.Equal(decimal.NewFromInt(300)) {
			t.Errorf("expected supplied total 300, got %v", phase.Activities[0].TotalCost)
		}
		if phase.Activities[1].SegmentKey == nil || *phase.Activities[1].SegmentKey != "layout" {
			t.Errorf("expected segment_key layout, got %v", phase.Activities[1].SegmentKey)
		}
		if got.Additionals == nil || got.Additionals.DeliveryTimeDays != 3 ||
			!got.Additionals.WetAreaQuantity.Equal(decimal.NewFromInt(40)) {
			t.Errorf("unexpected additionals: %+v", got.Additionals)
		}
		if len(got.References) != 1 {
			t.Errorf("expected 1 reference, got %d", len(got.References))
		}
		quote := parseJSON(t, rec)["quote"].(map[string]interface{})
		if quote["breakdown"].(map[string]interface{})["total"] != "1800" {
			t.Errorf("unexpected quote body: %v", quote)
		}
	})

	t.Run("returns 422 on activity total mismatch", func(t *testing.T) {
		svc := &mockBudgetService{
			quoteFn: func(services.BudgetInput) (*services.Quote, error) {
				return nil, apperrors.ErrActivityTotalMismatch
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockAuditService{}, &events.Recorder{}))

		rec := doRequest(r, "POST", "/budgets/quote", completeBudgetBody)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("expected 422, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ACTIVITY_TOTAL_MISMATCH")
	})

	t.Run("rejects malformed payloads", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockAuditService{}, &events.Recorder{}))

		for name, body := range map[string]string{
			"missing type":      `{"name":"X"}`,
			"unknown type":      `{"name":"X","budget_type":"hourly"}`,
			"bad value type":    `{"budget_type":"m2","value_type":"mixed"}`,
			"bad discount type": `{"budget_type":"m2","discount_type":"bonus"}`,
			"unnamed phase":     `{"budget_type":"complete","phases":[{"base_value":1}]}`,
			"keyless segment":   `{"budget_type":"complete","phases":[{"name":"P","segments":[{"name":"S"}]}]}`,
			"bad decimal":       `{"budget_type":"m2","discount":"ten"}`,
		} {
			rec := doRequest(r, "POST", "/budgets/quote", body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("%s: expected 400, got %d", name, rec.Code)
			}
		}
	})
}

func TestBudgetHandler_CreateBudget(t *testing.T) {
	t.Run("returns 201 and audits", func(t *testing.T) {
		audit := &mockAuditService{}
		svc := &mockBudgetService{
			createBudgetFn: func(userID string, input services.BudgetInput) (*models.Budget, error) {
				if userID != testUserID {
					t.Errorf("expected user %s, got %s", testUserID, userID)
				}
				return &models.Budget{
					Base:  models.Base{ID: testBudgetID},
					Name:  input.Name,
					Type:  input.Type,
					Total: decimal.RequireFromString("6075.00"),
				}, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, audit, &events.Recorder{}))

		rec := doRequest(r, "POST", "/budgets",
			`{"name":"Apto 12","budget_type":"m2","items":[{"description":"Sala","price_per_unit":"150","quantity":25}]}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		budget := parseJSON(t, rec)["budget"].(map[string]interface{})
		if budget["total"] != "6075" {
			t.Errorf("expected total 6075, got %v", budget["total"])
		}
		if got := audit.actions(); len(got) != 1 || got[0] != services.AuditCreate {
			t.Errorf("expected CREATE audit, got %v", got)
		}
	})

	t.Run("returns 402 when quota exceeded", func(t *testing.T) {
		svc := &mockBudgetService{
			createBudgetFn: func(string, services.BudgetInput) (*models.Budget, error) {
				return nil, apperrors.ErrQuotaExceeded
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockAuditService{}, &events.Recorder{}))

		rec := doRequest(r, "POST", "/budgets", `{"name":"X","budget_type":"render","items":[{"price_per_unit":1,"quantity":1}]}`)

		if rec.Code != http.StatusPaymentRequired {
			t.Fatalf("expected 402, got %d", rec.Code)
		}
	})
}

func TestBudgetHandler_GetUserBudgets(t *testing.T) {
	t.Run("parses filters", func(t *testing.T) {
		var got services.BudgetFilter
		svc := &mockBudgetService{
			getUserBudgetsFn: func(_ string, filter services.BudgetFilter, _ pagination.PageRequest) (*pagination.PageResponse[models.Budget], error) {
				got = filter
				resp := pagination.NewPageResponse([]models.Budget{}, 1, 20, 0)
				return &resp, nil
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockAuditService{}, &events.Recorder{}))

		rec := doRequest(r, "GET", "/budgets?status=sent&budget_type=complete&state=trashed&search=casa", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.Status == nil || *got.Status != models.BudgetStatusSent {
			t.Errorf("expected status sent, got %v", got.Status)
		}
		if got.Type == nil || *got.Type != models.BudgetTypeComplete {
			t.Errorf("expected type complete, got %v", got.Type)
		}
		if got.State == nil || *got.State != models.LifecycleTrashed {
			t.Errorf("expected trashed, got %v", got.State)
		}
		if got.Search != "casa" {
			t.Errorf("expected search casa, got %q", got.Search)
		}
	})

	t.Run("rejects unknown filters", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockAuditService{}, &events.Recorder{}))

		for _, q := range []string{"status=won", "budget_type=hourly", "state=deleted"} {
			if rec := doRequest(r, "GET", "/budgets?"+q, ""); rec.Code != http.StatusBadRequest {
				t.Errorf("%s: expected 400, got %d", q, rec.Code)
			}
		}
	})
}

func TestBudgetHandler_GetBudgetByID(t *testing.T) {
	svc := &mockBudgetService{
		getBudgetByIDFn: func(_, _ string) (*models.Budget, error) {
			return nil, apperrors.ErrBudgetNotFound
		},
	}
	r := setupBudgetRouter(NewBudgetHandler(svc, &mockAuditService{}, &events.Recorder{}))

	rec := doRequest(r, "GET", "/budgets/"+testBudgetID, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	assertErrorCode(t, parseJSON(t, rec), "BUDGET_NOT_FOUND")

	rec = doRequest(r, "GET", "/budgets/not-a-uuid", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on malformed id, got %d", rec.Code)
	}
}

func TestBudgetHandler_UpdateBudget(t *testing.T) {
	t.Run("returns 200", func(t *testing.T) {
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockAuditService{}, &events.Recorder{}))

		rec := doRequest(r, "PUT", "/budgets/"+testBudgetID,
			`{"name":"Apto 12","budget_type":"m2","items":[{"price_per_unit":"150","quantity":30}]}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("returns 409 when trashed", func(t *testing.T) {
		svc := &mockBudgetService{
			updateBudgetFn: func(_, _ string, _ services.BudgetInput) (*models.Budget, error) {
				return nil, apperrors.ErrBudgetNotEditable
			},
		}
		r := setupBudgetRouter(NewBudgetHandler(svc, &mockAuditService{}, &events.Recorder{}))

		rec := doRequest(r, "PUT", "/budgets/"+testBudgetID, `{"name":"X","budget_type":"m2"}`)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "BUDGET_NOT_EDITABLE")
	})
}

func TestBudgetHandler_UpdateStatus(t *testing.T) {
	t.Run("publishes a status event", func(t *testing.T) {
		recorder := &events.Recorder{}
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockAuditService{}, recorder))

		rec := doRequest(r, "PATCH", "/budgets/"+testBudgetID+"/status", `{"status":"approved"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		got := waitForEvents(t, recorder, 1)
		if got[0].Type != events.BudgetStatusChanged || got[0].ResourceID != testBudgetID {
			t.Errorf("unexpected event %+v", got[0])
		}
		if got[0].Data["status"] != models.BudgetStatusApproved {
			t.Errorf("expected approved in event data, got %v", got[0].Data["status"])
		}
	})

	t.Run("returns 400 on unknown status", func(t *testing.T) {
		recorder := &events.Recorder{}
		r := setupBudgetRouter(NewBudgetHandler(&mockBudgetService{}, &mockAuditService{}, recorder))

		rec := doRequest(r, "PATCH", "/budgets/"+testBudgetID+"/status", `{"status":"won"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		if len(recorder.Events()) != 0 {
			t.Error("no event expected on failure")
		}
	})
}

func TestBudgetHandler_Lifecycle(t *testing.T) {
	tests := []struct {
		name      string
		method    string
		path      string
		wantEvent models.LifecycleEvent
	}{
		{"trash", "POST", "/budgets/" + testBudgetID + "/trash", models.EventTrash},
		{"restore", "POST", "/budgets/" + testBudgetID + "/restore", models.EventRestore},
		{"purge", "DELETE", "/budgets/" + testBudgetID, models.EventPurge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotEvent models.LifecycleEvent
			svc := &mockBudgetService{
				transitionBudgetFn: func(_, id string, event models.LifecycleEvent) (*models.Budget, error) {
					gotEvent = event
					return &models.Budget{Base: models.Base{ID: id}}, nil
				},
			}
			r := setupBudgetRouter(NewBudgetHandler(svc, &mockAuditService{}, &events.Recorder{}))

			rec := doRequest(r, tt.method, tt.path, "")

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			if gotEvent != tt.wantEvent {
				t.Errorf("expected %s, got %s", tt.wantEvent, gotEvent)
			}
		})
	}
}
