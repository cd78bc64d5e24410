package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "limify/internal/errors"
	"limify/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func parseBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse response body: %v", err)
	}
	return result
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	errObj, ok := parseBody(t, rec)["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in body: %s", rec.Body.String())
	}
	code, _ := errObj["code"].(string)
	return code
}

func TestAPIKeyMiddleware(t *testing.T) {
	tests := []struct {
		name          string
		configuredKey string
		requestKey    string
		wantStatus    int
		wantErrorCode string
	}{
		{"valid_api_key", "billing-key", "billing-key", http.StatusOK, ""},
		{"invalid_api_key", "billing-key", "wrong", http.StatusUnauthorized, "INVALID_API_KEY"},
		{"missing_api_key", "billing-key", "", http.StatusUnauthorized, "INVALID_API_KEY"},
		{"not_configured", "", "anything", http.StatusServiceUnavailable, "BILLING_NOT_CONFIGURED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(APIKeyMiddleware(tt.configuredKey))
			r.POST("/test", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

			req := httptest.NewRequest(http.MethodPost, "/test", http.NoBody)
			if tt.requestKey != "" {
				req.Header.Set("X-API-Key", tt.requestKey)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantErrorCode != "" && errorCode(t, rec) != tt.wantErrorCode {
				t.Errorf("expected error code %s", tt.wantErrorCode)
			}
		})
	}
}

func setupAuthRouter(issuer *TokenIssuer) *gin.Engine {
	r := gin.New()
	r.Use(AuthMiddleware(issuer))
	r.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("userID")})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	user := &models.User{Base: models.Base{ID: "0192a000-0000-7000-8000-000000000001"}, Email: "ana@example.com"}

	access, err := issuer.GenerateAccessToken(user)
	if err != nil {
		t.Fatalf("generate access token: %v", err)
	}
	refresh, err := issuer.GenerateRefreshToken(user)
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}
	foreign, _ := NewTokenIssuer("other-secret", time.Hour).GenerateAccessToken(user)

	expiredIssuer := NewTokenIssuer("test-secret", time.Hour)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _ := expiredIssuer.GenerateAccessToken(user)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid access token", "Bearer " + access, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Token " + access, http.StatusUnauthorized},
		{"refresh token rejected", "Bearer " + refresh, http.StatusUnauthorized},
		{"foreign signature", "Bearer " + foreign, http.StatusUnauthorized},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized},
	}

	r := setupAuthRouter(issuer)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", http.NoBody)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantStatus == http.StatusOK {
				if got := parseBody(t, rec)["user_id"]; got != user.ID {
					t.Errorf("expected user id %s, got %v", user.ID, got)
				}
			}
		})
	}
}

func TestValidateRefreshToken(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	user := &models.User{Base: models.Base{ID: "0192a000-0000-7000-8000-000000000002"}, Email: "bia@example.com"}

	refresh, _ := issuer.GenerateRefreshToken(user)
	claims, err := issuer.ValidateRefreshToken(refresh)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("expected user id %s, got %s", user.ID, claims.UserID)
	}

	access, _ := issuer.GenerateAccessToken(user)
	if _, err := issuer.ValidateRefreshToken(access); err == nil {
		t.Error("expected access token to be rejected as refresh token")
	}
}

func TestHashToken(t *testing.T) {
	if HashToken("a") == HashToken("b") {
		t.Error("different tokens must hash differently")
	}
	if len(HashToken("a")) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(HashToken("a")))
	}
}

func TestErrorHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"app error", apperrors.ErrBudgetNotFound, http.StatusNotFound, "BUDGET_NOT_FOUND"},
		{"wrapped app error", apperrors.Wrap(apperrors.ErrInternalServer, errors.New("db down")), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(ErrorHandler())
			r.GET("/fail", func(c *gin.Context) { _ = c.Error(tt.err) })

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", http.NoBody))

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if code := errorCode(t, rec); code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, code)
			}
		})
	}
}

func TestRequestLoggingSetsRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestLogging())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", http.NoBody))
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected generated X-Request-ID")
	}

	inbound := "0192a000-0000-7000-8000-0000000000aa"
	req := httptest.NewRequest(http.MethodGet, "/ping", http.NoBody)
	req.Header.Set("X-Request-ID", inbound)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != inbound {
		t.Errorf("expected inbound request id to be reused, got %s", got)
	}
}
