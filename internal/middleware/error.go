package middleware

import (
	"errors"
	"net/http"

	"github.com/GoPolymarket/sasgate/internal/pkg/apperrors"
	"github.com/GoPolymarket/sasgate/internal/pkg/logger"
	"github.com/gin-gonic/gin"
)

// ErrorHandler renders the last error attached with c.Error as an AppError
// body. Handlers that already wrote a response are left alone.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		appErr := asAppError(c.Errors.Last().Err)
		fields := []any{
			"method", c.Request.Method,
			"route", c.FullPath(),
			"code", appErr.Type,
			"request_id", c.GetString(ContextRequestIDKey),
		}
		if tenant, ok := TenantFrom(c); ok {
			fields = append(fields, "tenant_id", tenant.ID)
		}

		switch {
		case appErr.HTTPStatus == http.StatusBadGateway:
			// ShareASale rejected or garbled the report; cause carries the upstream text
			logger.LogError(c.Request.Context(), appErr, "upstream report failed", fields...)
		case appErr.HTTPStatus >= http.StatusInternalServerError:
			logger.LogError(c.Request.Context(), appErr, "request failed", fields...)
		default:
			logger.Warn(appErr.Message, fields...)
		}

		if c.Writer.Written() {
			return
		}
		c.JSON(appErr.HTTPStatus, appErr)
	}
}

func asAppError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperrors.New(apperrors.ErrInternal, "internal error", err)
}
