package handler

import (
	"net/http"

	"github.com/GoPolymarket/sasgate/internal/middleware"
	"github.com/GoPolymarket/sasgate/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	RequireAPIKey bool
	AdminKey      string
	MetricsPath   string // empty disables /metrics
}

type Services struct {
	Reports *service.ReportService
	Quota   *service.QuotaGuard
	Tenants *service.TenantManager
	Audit   *service.AuditService
}

// NewRouter wires middleware and routes. Audit wraps the error handler so the
// recorded status matches what the caller received.
func NewRouter(cfg RouterConfig, svc Services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.AuditMiddleware(svc.Audit))
	r.Use(middleware.ErrorHandler())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "sasgate"})
	})
	if cfg.MetricsPath != "" {
		r.GET(cfg.MetricsPath, gin.WrapH(promhttp.Handler()))
	}

	reports := NewReportHandler(svc.Reports)
	audit := NewAuditHandler(svc.Audit)
	quota := NewQuotaHandler(svc.Quota)
	tenants := NewTenantHandler(svc.Tenants)

	v1 := r.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg.RequireAPIKey, svc.Tenants))
	v1.Use(middleware.RateLimitMiddleware(svc.Tenants))
	{
		v1.GET("/actions", reports.Actions)
		v1.GET("/reports/traffic", reports.Traffic)
		v1.GET("/reports/activity", reports.Activity)
		v1.GET("/reports/activity-summary", reports.ActivitySummary)
		v1.GET("/reports/merchant-data-feeds", reports.MerchantDataFeeds)
		v1.GET("/reports/invalid-links", reports.InvalidLinks)
		v1.GET("/reports/merchant-search", reports.MerchantSearch)
		v1.GET("/audit", audit.List)
		v1.GET("/quota", quota.Get)
	}

	admin := r.Group("/admin")
	admin.Use(middleware.AdminMiddleware(cfg.AdminKey))
	{
		admin.GET("/tenants", tenants.List)
		admin.GET("/audit", audit.ListAll)
	}

	return r
}
