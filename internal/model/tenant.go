package model

// RateLimitConfig 定义租户的限流规则
type RateLimitConfig struct {
	QPS   float64 `json:"qps"`   // 每秒查询数
	Burst int     `json:"burst"` // 突发桶大小
}

// Tenant is an internal consumer of the reporting gateway.
type Tenant struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	ApiKey string          `json:"-"` // X-Gateway-Key issued to the tenant
	Rate   RateLimitConfig `json:"rate_limit"`
}
