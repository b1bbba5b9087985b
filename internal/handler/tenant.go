package handler

import (
	"net/http"

	"github.com/GoPolymarket/sasgate/internal/model"
	"github.com/GoPolymarket/sasgate/internal/service"
	"github.com/gin-gonic/gin"
)

type TenantHandler struct {
	tm *service.TenantManager
}

func NewTenantHandler(tm *service.TenantManager) *TenantHandler {
	return &TenantHandler{tm: tm}
}

type tenantPublic struct {
	ID        string                `json:"id"`
	Name      string                `json:"name"`
	KeyHint   string                `json:"key_hint,omitempty"`
	RateLimit model.RateLimitConfig `json:"rate_limit"`
}

// List returns configured tenants without their keys.
func (h *TenantHandler) List(c *gin.Context) {
	tenants := h.tm.ListTenants()
	out := make([]tenantPublic, 0, len(tenants))
	for _, t := range tenants {
		out = append(out, tenantPublic{
			ID:        t.ID,
			Name:      t.Name,
			KeyHint:   keyHint(t.ApiKey),
			RateLimit: t.Rate,
		})
	}
	c.JSON(http.StatusOK, gin.H{"tenants": out})
}

func keyHint(key string) string {
	if len(key) <= 4 {
		return ""
	}
	return "..." + key[len(key)-4:]
}
