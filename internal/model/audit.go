package model

import (
	"time"
)

// AuditLog is one gateway request as recorded by the audit middleware.
type AuditLog struct {
	ID        string `json:"id" gorm:"primaryKey;size:36"`
	TenantID  string `json:"tenant_id" gorm:"size:128;index:idx_audit_logs_tenant_created,priority:1"`
	Method    string `json:"method" gorm:"size:16"`
	Path      string `json:"path"`
	Query     string `json:"query"` // redacted
	IP        string `json:"ip" gorm:"size:64"`
	UserAgent string `json:"user_agent"`

	StatusCode   int    `json:"status_code"`
	ResponseBody string `json:"response_body,omitempty"`
	LatencyMs    int64  `json:"latency_ms"`

	// action, row count, upstream error
	Context map[string]interface{} `json:"context" gorm:"serializer:json;type:jsonb"`

	// retention cleanup scans created_at alone
	CreatedAt time.Time `json:"created_at" gorm:"index;index:idx_audit_logs_tenant_created,priority:2"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// QuotaUsage reports upstream calls spent in one billing period.
type QuotaUsage struct {
	Period    string `json:"period"` // YYYY-MM
	Used      int64  `json:"used"`
	Limit     int64  `json:"limit"` // 0 means unlimited
	Remaining int64  `json:"remaining"`
}
