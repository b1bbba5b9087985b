package middleware

import (
	"github.com/GoPolymarket/sasgate/internal/pkg/apperrors"
	"github.com/GoPolymarket/sasgate/internal/pkg/metrics"
	"github.com/GoPolymarket/sasgate/internal/service"
	"github.com/gin-gonic/gin"
)

// RateLimitMiddleware 必须在 AuthMiddleware 之后使用
func RateLimitMiddleware(tm *service.TenantManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, ok := TenantFrom(c)
		if !ok {
			_ = c.Error(apperrors.New(apperrors.ErrAuthFailed, "unauthorized", nil))
			c.Abort()
			return
		}

		limiter := tm.GetLimiterForTenant(tenant.ID)
		if limiter == nil {
			c.Next()
			return
		}

		if !limiter.Allow() {
			metrics.QuotaRejects.WithLabelValues("tenant_rate").Inc()
			c.Header("Retry-After", "1")
			_ = c.Error(apperrors.New(apperrors.ErrRateLimited, "rate limit exceeded", nil))
			c.Abort()
			return
		}

		c.Next()
	}
}
