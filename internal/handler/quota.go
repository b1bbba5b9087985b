package handler

import (
	"net/http"

	"github.com/GoPolymarket/sasgate/internal/service"
	"github.com/gin-gonic/gin"
)

type QuotaHandler struct {
	guard *service.QuotaGuard
}

func NewQuotaHandler(guard *service.QuotaGuard) *QuotaHandler {
	return &QuotaHandler{guard: guard}
}

func (h *QuotaHandler) Get(c *gin.Context) {
	usage, err := h.guard.Usage(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, usage)
}
