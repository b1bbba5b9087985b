package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/GoPolymarket/sasgate/internal/middleware"
	"github.com/GoPolymarket/sasgate/internal/pkg/apperrors"
	"github.com/GoPolymarket/sasgate/internal/service"
	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	svc *service.AuditService
}

func NewAuditHandler(svc *service.AuditService) *AuditHandler {
	return &AuditHandler{svc: svc}
}

// List returns the calling tenant's recent requests.
func (h *AuditHandler) List(c *gin.Context) {
	tenant, ok := middleware.TenantFrom(c)
	if !ok {
		_ = c.Error(apperrors.New(apperrors.ErrAuthFailed, "unauthorized: missing tenant context", nil))
		return
	}
	h.list(c, tenant.ID)
}

// ListAll is the operator view; ?tenant narrows it to one tenant.
func (h *AuditHandler) ListAll(c *gin.Context) {
	h.list(c, c.Query("tenant"))
}

func (h *AuditHandler) list(c *gin.Context, tenantID string) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			_ = c.Error(apperrors.NewInvalidRequest("invalid limit"))
			return
		}
		limit = parsed
	}
	var fromPtr *time.Time
	var toPtr *time.Time
	if raw := c.Query("from"); raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			_ = c.Error(apperrors.NewInvalidRequest("from: " + err.Error()))
			return
		}
		fromPtr = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			_ = c.Error(apperrors.NewInvalidRequest("to: " + err.Error()))
			return
		}
		toPtr = &t
	}

	records, err := h.svc.List(c.Request.Context(), tenantID, limit, fromPtr, toPtr)
	if err != nil {
		_ = c.Error(apperrors.New(apperrors.ErrInternal, "failed to list audit logs", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(records), "entries": records})
}

func parseTime(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	if unix, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid time format")
}
