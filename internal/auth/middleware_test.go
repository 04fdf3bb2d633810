package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"callpulse/internal/config"

	"github.com/gin-gonic/gin"
)

func authTestRouter(t *testing.T, serviceKey string) (*gin.Engine, *Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m, err := NewManager(config.AuthConfig{
		JWTSecret:       "secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		ServiceKey:      serviceKey,
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}

	r := gin.New()
	r.GET("/probe", RequireAuth(m), func(c *gin.Context) {
		method, _ := AuthMethod(c.Request.Context())
		uid, _ := UserID(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"method": string(method), "user_id": uid})
	})
	return r, m
}

func TestRequireAuth_RejectsMissingCredentials(t *testing.T) {
	r, _ := authTestRouter(t, "svc-key")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireAuth_AcceptsBearerToken(t *testing.T) {
	r, m := authTestRouter(t, "svc-key")

	pair, err := m.IssuePair(time.Now(), "u1", "u@example.com", "USER")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRequireAuth_FallsBackToServiceKey(t *testing.T) {
	r, _ := authTestRouter(t, "svc-key")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	req.Header.Set("X-API-Key", "svc-key")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 via service key, got %d", w.Code)
	}
}

func TestRequireAuth_RejectsWrongServiceKey(t *testing.T) {
	r, _ := authTestRouter(t, "svc-key")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("X-API-Key", "wrong")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestRequireAuth_NoServiceKeyConfigured(t *testing.T) {
	r, _ := authTestRouter(t, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	req.Header.Set("X-API-Key", "anything")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 when no service key configured, got %d", w.Code)
	}
}
