package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"callpulse/internal/agents"
	"callpulse/internal/analytics"
	"callpulse/internal/audit"
	"callpulse/internal/auth"
	"callpulse/internal/calls"
	"callpulse/internal/config"
	"callpulse/internal/provider"
	"callpulse/internal/rbac"
	syncsvc "callpulse/internal/sync"
	"callpulse/internal/users"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testServiceKey = "svc-test-key"

type fakeProvider struct {
	records []provider.CallRecord
	roster  []provider.AgentRecord
}

func (f *fakeProvider) FetchAll(ctx context.Context, window provider.TimeWindow) ([]provider.CallRecord, error) {
	return f.records, nil
}

func (f *fakeProvider) ListAgents(ctx context.Context) ([]provider.AgentRecord, error) {
	return f.roster, nil
}

type testEnv struct {
	router    *gin.Engine
	tokens    *auth.Manager
	userRepo  *users.MemoryRepo
	agentRepo *agents.MemoryRepo
	callRepo  *calls.MemoryRepo
	auditRepo *audit.MemoryRepo
	usersSvc  *users.Service
	source    *fakeProvider
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := auth.NewManager(config.AuthConfig{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 720 * time.Hour,
		ServiceKey:      testServiceKey,
	})
	require.NoError(t, err)

	env := &testEnv{
		tokens:    tokens,
		userRepo:  users.NewMemoryRepo(),
		agentRepo: agents.NewMemoryRepo(),
		callRepo:  calls.NewMemoryRepo(),
		auditRepo: audit.NewMemoryRepo(),
		source:    &fakeProvider{},
	}
	env.usersSvc = users.NewService(env.userRepo, tokens)

	log := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	h := &Handlers{
		Users:     env.usersSvc,
		Agents:    env.agentRepo,
		Calls:     env.callRepo,
		Sync:      syncsvc.NewService(env.source, env.agentRepo, env.callRepo, log),
		Analytics: analytics.NewService(env.callRepo, env.agentRepo, nil, 0),
		Audit:     audit.NewService(env.auditRepo, log),
		Log:       log,
	}

	env.router = gin.New()
	RegisterRoutes(env.router, h, tokens)
	return env
}

// registerUser creates an account through the public endpoint and
// returns its id and access token.
func (e *testEnv) registerUser(t *testing.T, email, role string) (string, string) {
	t.Helper()
	u, _, err := e.usersSvc.Register(context.Background(), email, "password123", "Test User")
	require.NoError(t, err)
	if role != rbac.RoleUser {
		_, err = e.userRepo.Update(context.Background(), u.ID, users.Update{Role: &role})
		require.NoError(t, err)
	}
	pair, err := e.tokens.IssuePair(time.Now(), u.ID, u.Email, role)
	require.NoError(t, err)
	return u.ID, pair.AccessToken
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealthzIsPublic(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProtectedRoutesRejectAnonymous(t *testing.T) {
	env := newTestEnv(t)
	for _, path := range []string{"/agents", "/calls", "/me", "/analytics/overview"} {
		w := env.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		body := decode(t, w)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, true, body["error"])
	}
}

func TestRegisterLoginMe(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"email": "ops@example.com", "password": "password123", "name": "Ops",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, "/auth/login", "", gin.H{
		"email": "ops@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	token := data["tokens"].(map[string]any)["accessToken"].(string)

	w = env.do(t, http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "ops@example.com", me["email"])
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	cases := []gin.H{
		{"email": "", "password": "password123", "name": "x"},
		{"email": "not-an-email", "password": "password123", "name": "x"},
		{"email": "a@b.com", "password": "short", "name": "x"},
		{"email": "a@b.com", "password": "password123", "name": ""},
	}
	for i, body := range cases {
		w := env.do(t, http.MethodPost, "/auth/register", "", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "case %d", i)
	}
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	env := newTestEnv(t)
	body := gin.H{"email": "dup@example.com", "password": "password123", "name": "Dup"}

	w := env.do(t, http.MethodPost, "/auth/register", "", body)
	require.Equal(t, http.StatusCreated, w.Code)
	w = env.do(t, http.MethodPost, "/auth/register", "", body)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.registerUser(t, "ops@example.com", rbac.RoleUser)

	w := env.do(t, http.MethodPost, "/auth/login", "", gin.H{
		"email": "ops@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshRotatesTokens(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/auth/register", "", gin.H{
		"email": "ops@example.com", "password": "password123", "name": "Ops",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	refresh := data["tokens"].(map[string]any)["refreshToken"].(string)

	w = env.do(t, http.MethodPost, "/auth/refresh", "", gin.H{"refreshToken": refresh})
	require.Equal(t, http.StatusOK, w.Code)
	fresh := decode(t, w)["data"].(map[string]any)
	assert.NotEmpty(t, fresh["accessToken"])

	w = env.do(t, http.MethodPost, "/auth/refresh", "", gin.H{"refreshToken": "garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestServiceKeyAuth(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/agents", nil)
	req.Header.Set("X-API-Key", testServiceKey)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// A service key carries no user identity: admin routes stay closed.
	req = httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("X-API-Key", testServiceKey)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAgentCRUD(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.registerUser(t, "ops@example.com", rbac.RoleUser)

	w := env.do(t, http.MethodPost, "/agents", token, gin.H{"agentId": "a1", "name": "Support Bot"})
	require.Equal(t, http.StatusCreated, w.Code)

	// Duplicate agentId is a conflict.
	w = env.do(t, http.MethodPost, "/agents", token, gin.H{"agentId": "a1", "name": "Other"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodGet, "/agents/a1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	a := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "Support Bot", a["name"])
	assert.Equal(t, "ACTIVE", a["status"])

	w = env.do(t, http.MethodPut, "/agents/a1", token, gin.H{"name": "Renamed"})
	require.Equal(t, http.StatusOK, w.Code)

	// DELETE deactivates, never removes.
	w = env.do(t, http.MethodDelete, "/agents/a1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/agents/a1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	a = decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "INACTIVE", a["status"])
	assert.Equal(t, "Renamed", a["name"])

	w = env.do(t, http.MethodGet, "/agents/nope", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListAgentsPagination(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.registerUser(t, "ops@example.com", rbac.RoleUser)

	for _, id := range []string{"a1", "a2", "a3"} {
		_, err := env.agentRepo.Upsert(context.Background(), id, "Agent "+id)
		require.NoError(t, err)
	}

	w := env.do(t, http.MethodGet, "/agents?limit=2&offset=0", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Len(t, data["agents"], 2)

	pg := data["pagination"].(map[string]any)
	assert.Equal(t, float64(3), pg["total"])
	assert.Equal(t, true, pg["hasMore"])

	w = env.do(t, http.MethodGet, "/agents?limit=2&offset=2", token, nil)
	data = decode(t, w)["data"].(map[string]any)
	pg = data["pagination"].(map[string]any)
	assert.Equal(t, false, pg["hasMore"])
}

func TestPaginationClamping(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.registerUser(t, "ops@example.com", rbac.RoleUser)

	w := env.do(t, http.MethodGet, "/calls?limit=500&offset=-5", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	pg := decode(t, w)["data"].(map[string]any)["pagination"].(map[string]any)
	assert.Equal(t, float64(100), pg["limit"])
	assert.Equal(t, float64(0), pg["offset"])
}

func TestCallHistory(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.registerUser(t, "ops@example.com", rbac.RoleUser)

	// Unknown agent: 404 with the exact message shape clients parse.
	w := env.do(t, http.MethodGet, "/call-history/ghost", token, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Agent with ID ghost not found", decode(t, w)["message"])

	// Known agent with zero calls: an empty page, not a 404.
	_, err := env.agentRepo.Upsert(context.Background(), "a1", "Support Bot")
	require.NoError(t, err)

	w = env.do(t, http.MethodGet, "/call-history/a1?limit=1&offset=0&sortBy=cost", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Len(t, data["calls"], 0)
	pg := data["pagination"].(map[string]any)
	assert.Equal(t, float64(0), pg["total"])
	assert.Equal(t, false, pg["hasMore"])
}

func TestListCallsRejectsBadQuery(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.registerUser(t, "ops@example.com", rbac.RoleUser)

	for _, q := range []string{"?sortBy=bogus", "?successful=maybe", "?from=abc"} {
		w := env.do(t, http.MethodGet, "/calls"+q, token, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestSearchCallsRequiresQuery(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.registerUser(t, "ops@example.com", rbac.RoleUser)

	w := env.do(t, http.MethodGet, "/search/calls", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	_, err := env.agentRepo.Upsert(context.Background(), "a1", "Support Bot")
	require.NoError(t, err)
	_, err = env.callRepo.Upsert(context.Background(), calls.Call{
		CallID: "c1", AgentID: "a1", Transcript: "Billing question about invoices",
	})
	require.NoError(t, err)

	w = env.do(t, http.MethodGet, "/search/calls?q=billing", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Len(t, data["calls"], 1)
}

func TestSyncCallsEmptyWindow(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.registerUser(t, "ops@example.com", rbac.RoleUser)

	w := env.do(t, http.MethodPost, "/sync-calls", token, gin.H{"days": 7})
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(0), body["callsSynced"])
	assert.Equal(t, float64(0), body["callsUpdated"])
	assert.Equal(t, float64(0), body["errors"])
}

func TestSyncCallsWritesRecords(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.registerUser(t, "ops@example.com", rbac.RoleUser)

	env.source.records = []provider.CallRecord{
		{CallID: "c1", AgentID: "a1", StartTimestamp: 1000, EndTimestamp: 4000},
	}
	env.source.roster = []provider.AgentRecord{{AgentID: "a1", Name: "Support Bot"}}

	w := env.do(t, http.MethodPost, "/sync-calls", token, gin.H{"days": 7})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["callsSynced"])

	w = env.do(t, http.MethodGet, "/calls/c1", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSyncCallsRejectsBadDays(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.registerUser(t, "ops@example.com", rbac.RoleUser)

	w := env.do(t, http.MethodPost, "/sync-calls", token, gin.H{"days": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyticsEndpoints(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.registerUser(t, "ops@example.com", rbac.RoleUser)

	_, err := env.agentRepo.Upsert(context.Background(), "a1", "Support Bot")
	require.NoError(t, err)
	_, err = env.callRepo.Upsert(context.Background(), calls.Call{
		CallID: "c1", AgentID: "a1", StartTimestamp: 1000, EndTimestamp: 3000,
		DurationMs: 2000, Cost: 0.5, Successful: true, Sentiment: "positive",
	})
	require.NoError(t, err)

	w := env.do(t, http.MethodGet, "/analytics/overview", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, float64(1), data["totalCalls"])
	assert.Equal(t, float64(1), data["activeAgents"])

	w = env.do(t, http.MethodGet, "/analytics/agents/a1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/analytics/agents/ghost", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/analytics/sentiment", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	sentiments := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, float64(1), sentiments["positive"])

	w = env.do(t, http.MethodGet, "/analytics/disconnection-reasons", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUserAdminRoutes(t *testing.T) {
	env := newTestEnv(t)
	adminID, adminToken := env.registerUser(t, "admin@example.com", rbac.RoleAdmin)
	userID, userToken := env.registerUser(t, "user@example.com", rbac.RoleUser)

	// Plain users cannot reach user management.
	w := env.do(t, http.MethodGet, "/users", userToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, "/users", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decode(t, w)["data"].(map[string]any)
	assert.Len(t, data["users"], 2)

	// Promote the plain user.
	w = env.do(t, http.MethodPut, "/users/"+userID, adminToken, gin.H{"role": "ADMIN"})
	require.Equal(t, http.StatusOK, w.Code)
	u := decode(t, w)["data"].(map[string]any)
	assert.Equal(t, "ADMIN", u["role"])

	// Self role change is rejected for everyone.
	w = env.do(t, http.MethodPut, "/users/"+adminID, adminToken, gin.H{"role": "SUPERADMIN"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Self delete is rejected too.
	w = env.do(t, http.MethodDelete, "/users/"+adminID, adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodDelete, "/users/"+userID, adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/users/"+userID, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMutationsLeaveAuditTrail(t *testing.T) {
	env := newTestEnv(t)
	adminID, adminToken := env.registerUser(t, "admin@example.com", rbac.RoleAdmin)
	userID, _ := env.registerUser(t, "user@example.com", rbac.RoleUser)

	_, err := env.agentRepo.Upsert(context.Background(), "a1", "Support Bot")
	require.NoError(t, err)

	w := env.do(t, http.MethodDelete, "/agents/a1", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodDelete, "/users/"+userID, adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodPost, "/sync-calls", adminToken, gin.H{"days": 7})
	require.Equal(t, http.StatusOK, w.Code)

	events := env.auditRepo.Events()
	require.Len(t, events, 3)
	assert.Equal(t, audit.EventAgentDeactivated, events[0].Type)
	assert.Equal(t, "a1", events[0].TargetID)
	assert.Equal(t, audit.EventUserDeleted, events[1].Type)
	assert.Equal(t, userID, events[1].TargetID)
	assert.Equal(t, audit.EventSyncTriggered, events[2].Type)
	for _, e := range events {
		assert.Equal(t, adminID, e.ActorUserID)
		assert.NotEmpty(t, e.ID)
	}
}
