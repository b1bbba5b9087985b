package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/GoPolymarket/sasgate/internal/config"
	"github.com/GoPolymarket/sasgate/internal/model"
	"github.com/GoPolymarket/sasgate/internal/pkg/apperrors"
	"github.com/GoPolymarket/sasgate/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(t *testing.T, cfg *config.Config) (*gin.Engine, *service.AuditService) {
	t.Helper()
	tm := service.NewTenantManager(cfg)
	audit, err := service.NewAuditService("", 100, nil)
	require.NoError(t, err)
	t.Cleanup(audit.Close)

	r := gin.New()
	r.Use(AuditMiddleware(audit), ErrorHandler())
	v1 := r.Group("/v1", AuthMiddleware(cfg.Auth.RequireAPIKey, tm), RateLimitMiddleware(tm))
	v1.GET("/ping", func(c *gin.Context) {
		AddAuditContext(c, "action", "ping")
		tenant, _ := TenantFrom(c)
		c.JSON(http.StatusOK, gin.H{"tenant": tenant.ID})
	})
	v1.GET("/fail", func(c *gin.Context) {
		_ = c.Error(apperrors.New(apperrors.ErrUpstream, "upstream request failed", nil))
	})
	v1.GET("/plain", func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
	})
	admin := r.Group("/v1/admin", AdminMiddleware(cfg.Auth.AdminKey))
	admin.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r, audit
}

func do(r http.Handler, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Code
}

var slowQPS = 0.001

func multiTenant() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{RequireAPIKey: true, AdminKey: "adm"},
		Tenants: []config.TenantConfig{
			{ID: "bi", APIKey: "sk-bi", RateLimit: config.RateLimitConfig{QPS: &slowQPS, Burst: 2}},
		},
	}
}

func TestAuthRequiresKey(t *testing.T) {
	r, _ := newRouter(t, multiTenant())

	rec := do(r, "/v1/ping", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "AUTH_FAILED", errorCode(t, rec))

	rec = do(r, "/v1/ping", map[string]string{HeaderGatewayKey: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(r, "/v1/ping", map[string]string{HeaderGatewayKey: "sk-bi"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"tenant":"bi"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
}

func TestAuthDefaultTenant(t *testing.T) {
	r, _ := newRouter(t, &config.Config{})
	rec := do(r, "/v1/ping", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"tenant":"default-tenant"}`, rec.Body.String())
}

func TestRateLimit(t *testing.T) {
	r, _ := newRouter(t, multiTenant())
	h := map[string]string{HeaderGatewayKey: "sk-bi"}

	assert.Equal(t, http.StatusOK, do(r, "/v1/ping", h).Code)
	assert.Equal(t, http.StatusOK, do(r, "/v1/ping", h).Code)
	rec := do(r, "/v1/ping", h)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", errorCode(t, rec))
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestErrorHandlerRendersAppError(t *testing.T) {
	r, _ := newRouter(t, &config.Config{})

	rec := do(r, "/v1/fail", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "UPSTREAM_ERROR", errorCode(t, rec))

	rec = do(r, "/v1/plain", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(t, rec))
}

func TestAdminMiddleware(t *testing.T) {
	r, _ := newRouter(t, multiTenant())
	assert.Equal(t, http.StatusUnauthorized, do(r, "/v1/admin/ping", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "/v1/admin/ping", map[string]string{HeaderAdminKey: "x"}).Code)
	assert.Equal(t, http.StatusNoContent, do(r, "/v1/admin/ping", map[string]string{HeaderAdminKey: "adm"}).Code)

	closed, _ := newRouter(t, &config.Config{})
	assert.Equal(t, http.StatusUnauthorized, do(closed, "/v1/admin/ping", map[string]string{HeaderAdminKey: ""}).Code)
}

func TestAuditRecordsRequest(t *testing.T) {
	r, audit := newRouter(t, multiTenant())
	reqID := "5f0c2b1e-8d4a-4c3e-9a61-0f2d7b9e1c44"
	do(r, "/v1/ping?date_start=2024-05-01&token=tok", map[string]string{HeaderGatewayKey: "sk-bi", HeaderRequestID: reqID})
	do(r, "/v1/ping", nil)

	var entries []*model.AuditLog
	require.Eventually(t, func() bool {
		entries, _ = audit.List(t.Context(), "", 10, nil, nil)
		return len(entries) == 2
	}, time.Second, 10*time.Millisecond)

	unauth := entries[0]
	assert.Equal(t, http.StatusUnauthorized, unauth.StatusCode)
	assert.Contains(t, unauth.ResponseBody, "AUTH_FAILED")

	entry := entries[1]
	assert.Equal(t, reqID, entry.ID)
	assert.Equal(t, "bi", entry.TenantID)
	assert.Equal(t, http.StatusOK, entry.StatusCode)
	assert.Equal(t, "ping", entry.Context["action"])
	assert.Empty(t, entry.ResponseBody)
	assert.Contains(t, entry.Query, "date_start=2024-05-01")
	assert.NotContains(t, entry.Query, "tok")
}

func TestRequestIDOnlyReusesUUIDs(t *testing.T) {
	assert.Equal(t, "5f0c2b1e-8d4a-4c3e-9a61-0f2d7b9e1c44", requestID("5F0C2B1E-8D4A-4C3E-9A61-0F2D7B9E1C44"))

	generated := requestID("not-a-uuid; drop table")
	assert.NotEqual(t, "not-a-uuid; drop table", generated)
	assert.Len(t, generated, 36)
	assert.Len(t, requestID(""), 36)
}
