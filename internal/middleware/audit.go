package middleware

import (
	"bytes"
	"time"

	"github.com/GoPolymarket/sasgate/internal/model"
	"github.com/GoPolymarket/sasgate/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ContextAuditLog     = "audit_log"
	ContextRequestIDKey = "request_id"
	HeaderRequestID     = "X-Request-ID"

	// report bodies are large; only error bodies are kept, capped
	maxAuditBody = 2048
)

// cappedWriter 包装 ResponseWriter, 只保留响应体的前 maxAuditBody 字节
type cappedWriter struct {
	gin.ResponseWriter
	head *bytes.Buffer
}

func (w cappedWriter) Write(b []byte) (int, error) {
	if room := maxAuditBody - w.head.Len(); room > 0 {
		w.head.Write(b[:min(room, len(b))])
	}
	return w.ResponseWriter.Write(b)
}

func (w cappedWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// AuditMiddleware records one AuditLog per request. It must run outside
// ErrorHandler so the rendered error status and body are what gets recorded.
func AuditMiddleware(auditSvc *service.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqID := requestID(c.GetHeader(HeaderRequestID))
		c.Set(ContextRequestIDKey, reqID)
		c.Header(HeaderRequestID, reqID)

		entry := &model.AuditLog{
			ID:        reqID,
			Method:    c.Request.Method,
			Path:      c.Request.URL.Path,
			Query:     redactQuery(c.Request.URL.Query()),
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			CreatedAt: start.UTC(),
			Context:   make(map[string]interface{}),
		}
		c.Set(ContextAuditLog, entry)

		w := cappedWriter{ResponseWriter: c.Writer, head: &bytes.Buffer{}}
		c.Writer = w

		c.Next()

		if tenant, ok := TenantFrom(c); ok {
			entry.TenantID = tenant.ID
		}
		entry.StatusCode = c.Writer.Status()
		if entry.StatusCode >= 400 {
			entry.ResponseBody = redactAuditBody(w.head.Bytes())
		}
		entry.LatencyMs = time.Since(start).Milliseconds()

		auditSvc.Log(entry)
	}
}

// requestID reuses a caller supplied id only when it is a UUID.
func requestID(header string) string {
	if id, err := uuid.Parse(header); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

// AddAuditContext 允许 Handler 向审计日志添加业务上下文 (action, rows, error)
func AddAuditContext(c *gin.Context, key string, value interface{}) {
	if val, exists := c.Get(ContextAuditLog); exists {
		if entry, ok := val.(*model.AuditLog); ok {
			entry.Context[key] = value
		}
	}
}
