package middleware

import (
	"github.com/GoPolymarket/sasgate/internal/model"
	"github.com/GoPolymarket/sasgate/internal/pkg/apperrors"
	"github.com/GoPolymarket/sasgate/internal/service"
	"github.com/gin-gonic/gin"
)

const (
	HeaderGatewayKey = "X-Gateway-Key"
	ContextTenantKey = "tenant"
)

func AuthMiddleware(requireAPIKey bool, tm *service.TenantManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader(HeaderGatewayKey)
		if apiKey == "" {
			if !requireAPIKey {
				if tenant := tm.DefaultTenant(); tenant != nil {
					c.Set(ContextTenantKey, tenant)
					c.Next()
					return
				}
			}
			_ = c.Error(apperrors.New(apperrors.ErrAuthFailed, "missing API key", nil))
			c.Abort()
			return
		}

		tenant, ok := tm.GetTenantByApiKey(apiKey)
		if !ok {
			_ = c.Error(apperrors.New(apperrors.ErrAuthFailed, "invalid API key", nil))
			c.Abort()
			return
		}

		// 将租户信息存入上下文
		c.Set(ContextTenantKey, tenant)
		c.Next()
	}
}

// TenantFrom returns the tenant set by AuthMiddleware.
func TenantFrom(c *gin.Context) (*model.Tenant, bool) {
	val, exists := c.Get(ContextTenantKey)
	if !exists {
		return nil, false
	}
	tenant, ok := val.(*model.Tenant)
	return tenant, ok && tenant != nil
}
