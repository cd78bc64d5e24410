package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "limify/internal/errors"
	"limify/internal/models"
	"limify/internal/pagination"
	"limify/internal/services"
)

const testClientID = "0190a8f1-5b2c-7d3e-8f41-0000000000c1"

// --- mock client service ---

type mockClientService struct {
	createClientFn   func(userID string, input services.ClientInput) (*models.Client, error)
	getUserClientsFn func(userID, search string, page pagination.PageRequest) (*pagination.PageResponse[models.Client], error)
	getClientByIDFn  func(userID, clientID string) (*models.Client, error)
	updateClientFn   func(userID, clientID string, input services.ClientInput) (*models.Client, error)
	deleteClientFn   func(userID, clientID string) error
}

var _ services.ClientServicer = (*mockClientService)(nil)

func (m *mockClientService) CreateClient(userID string, input services.ClientInput) (*models.Client, error) {
	if m.createClientFn != nil {
		return m.createClientFn(userID, input)
	}
	return &models.Client{Base: models.Base{ID: testClientID}, Name: input.Name}, nil
}

func (m *mockClientService) GetUserClients(userID, search string, page pagination.PageRequest) (*pagination.PageResponse[models.Client], error) {
	if m.getUserClientsFn != nil {
		return m.getUserClientsFn(userID, search, page)
	}
	resp := pagination.NewPageResponse([]models.Client{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockClientService) GetClientByID(userID, clientID string) (*models.Client, error) {
	if m.getClientByIDFn != nil {
		return m.getClientByIDFn(userID, clientID)
	}
	return &models.Client{Base: models.Base{ID: clientID}}, nil
}

func (m *mockClientService) UpdateClient(userID, clientID string, input services.ClientInput) (*models.Client, error) {
	if m.updateClientFn != nil {
		return m.updateClientFn(userID, clientID, input)
	}
	return &models.Client{Base: models.Base{ID: clientID}, Name: input.Name}, nil
}

func (m *mockClientService) DeleteClient(userID, clientID string) error {
	if m.deleteClientFn != nil {
		return m.deleteClientFn(userID, clientID)
	}
	return nil
}

func setupClientRouter(handler *ClientHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/clients", handler.CreateClient)
	auth.GET("/clients", handler.GetUserClients)
	auth.GET("/clients/:id", handler.GetClientByID)
	auth.PUT("/clients/:id", handler.UpdateClient)
	auth.DELETE("/clients/:id", handler.DeleteClient)
	return r
}

// --- tests ---

func TestClientHandler_CreateClient(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		var got services.ClientInput
		audit := &mockAuditService{}
		svc := &mockClientService{
			createClientFn: func(userID string, input services.ClientInput) (*models.Client, error) {
				if userID != testUserID {
					t.Errorf("expected user %s, got %s", testUserID, userID)
				}
				got = input
				return &models.Client{Base: models.Base{ID: testClientID}, Name: input.Name}, nil
			},
		}
		r := setupClientRouter(NewClientHandler(svc, audit))

		rec := doRequest(r, "POST", "/clients",
			`{"name":"Construtora Alfa","email":"obra@alfa.com.br","state":"SP"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.Name != "Construtora Alfa" || got.State != "SP" {
			t.Errorf("unexpected input passed to service: %+v", got)
		}
		client := parseJSON(t, rec)["client"].(map[string]interface{})
		if client["id"] != testClientID {
			t.Errorf("expected id %s, got %v", testClientID, client["id"])
		}
		if len(audit.actions()) != 1 {
			t.Errorf("expected one audit entry, got %d", len(audit.actions()))
		}
	})

	t.Run("returns 400 on missing name", func(t *testing.T) {
		r := setupClientRouter(NewClientHandler(&mockClientService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/clients", `{"company":"Alfa"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on invalid email", func(t *testing.T) {
		r := setupClientRouter(NewClientHandler(&mockClientService{}, &mockAuditService{}))

		rec := doRequest(r, "POST", "/clients", `{"name":"Alfa","email":"not-an-email"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 402 when quota exceeded", func(t *testing.T) {
		svc := &mockClientService{
			createClientFn: func(_ string, _ services.ClientInput) (*models.Client, error) {
				return nil, apperrors.ErrQuotaExceeded
			},
		}
		r := setupClientRouter(NewClientHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "POST", "/clients", `{"name":"Alfa"}`)

		if rec.Code != http.StatusPaymentRequired {
			t.Fatalf("expected 402, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "QUOTA_EXCEEDED")
	})

	t.Run("returns 401 without auth", func(t *testing.T) {
		handler := NewClientHandler(&mockClientService{}, &mockAuditService{})
		r := gin.New()
		r.POST("/clients", handler.CreateClient)

		rec := doRequest(r, "POST", "/clients", `{"name":"Alfa"}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestClientHandler_GetUserClients(t *testing.T) {
	t.Run("passes search and pagination to service", func(t *testing.T) {
		var gotSearch string
		var gotPage pagination.PageRequest
		svc := &mockClientService{
			getUserClientsFn: func(_, search string, page pagination.PageRequest) (*pagination.PageResponse[models.Client], error) {
				gotSearch, gotPage = search, page
				resp := pagination.NewPageResponse([]models.Client{{Name: "Alfa"}}, 2, 5, 6)
				return &resp, nil
			},
		}
		r := setupClientRouter(NewClientHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/clients?search=alfa&page=2&page_size=5&sort=-name", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotSearch != "alfa" {
			t.Errorf("expected search alfa, got %q", gotSearch)
		}
		if gotPage.Page != 2 || gotPage.PageSize != 5 || gotPage.Sort != "-name" {
			t.Errorf("unexpected page request: %+v", gotPage)
		}
		if parseJSON(t, rec)["total_pages"].(float64) != 2 {
			t.Error("expected total_pages=2")
		}
	})

	t.Run("returns 400 on page_size over limit", func(t *testing.T) {
		r := setupClientRouter(NewClientHandler(&mockClientService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/clients?page_size=500", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestClientHandler_GetClientByID(t *testing.T) {
	t.Run("returns 200 on success", func(t *testing.T) {
		r := setupClientRouter(NewClientHandler(&mockClientService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/clients/"+testClientID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on malformed id", func(t *testing.T) {
		r := setupClientRouter(NewClientHandler(&mockClientService{}, &mockAuditService{}))

		rec := doRequest(r, "GET", "/clients/42", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 404 when not found", func(t *testing.T) {
		svc := &mockClientService{
			getClientByIDFn: func(_, _ string) (*models.Client, error) {
				return nil, apperrors.ErrClientNotFound
			},
		}
		r := setupClientRouter(NewClientHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "GET", "/clients/"+testClientID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "CLIENT_NOT_FOUND")
	})
}

func TestClientHandler_UpdateAndDelete(t *testing.T) {
	t.Run("update returns 200", func(t *testing.T) {
		r := setupClientRouter(NewClientHandler(&mockClientService{}, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/clients/"+testClientID, `{"name":"Alfa Engenharia"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		client := parseJSON(t, rec)["client"].(map[string]interface{})
		if client["name"] != "Alfa Engenharia" {
			t.Errorf("expected renamed client, got %v", client["name"])
		}
	})

	t.Run("delete returns 200 and audits", func(t *testing.T) {
		audit := &mockAuditService{}
		r := setupClientRouter(NewClientHandler(&mockClientService{}, audit))

		rec := doRequest(r, "DELETE", "/clients/"+testClientID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got := audit.actions(); len(got) != 1 || got[0] != services.AuditDelete {
			t.Errorf("expected DELETE audit, got %v", got)
		}
	})
}
