package service

import (
	"sort"
	"sync"

	"github.com/GoPolymarket/sasgate/internal/config"
	"github.com/GoPolymarket/sasgate/internal/model"
	"golang.org/x/time/rate"
)

const (
	DefaultTenantID = "default-tenant"
	defaultQPS      = 10
	defaultBurst    = 20
)

// TenantManager 管理租户信息以及限流器
type TenantManager struct {
	mu            sync.RWMutex
	tenants       map[string]*model.Tenant // Key: Gateway ApiKey
	limiters      map[string]*rate.Limiter // Key: TenantID
	defaultTenant *model.Tenant
}

func NewTenantManager(cfg *config.Config) *TenantManager {
	tm := &TenantManager{
		tenants:  make(map[string]*model.Tenant),
		limiters: make(map[string]*rate.Limiter),
	}
	if cfg == nil {
		return tm
	}

	// 配置化租户 (优先)
	for _, tenantCfg := range cfg.Tenants {
		tm.RegisterTenant(&model.Tenant{
			ID:     tenantCfg.ID,
			Name:   tenantCfg.Name,
			ApiKey: tenantCfg.APIKey,
			Rate: model.RateLimitConfig{
				QPS:   chooseQPS(defaultQPS, tenantCfg.RateLimit.QPS),
				Burst: chooseInt(defaultBurst, tenantCfg.RateLimit.Burst),
			},
		})
	}
	if len(cfg.Tenants) > 0 {
		return tm
	}

	// 单租户模式
	defaultTenant := &model.Tenant{
		ID:     DefaultTenantID,
		Name:   "Default",
		ApiKey: cfg.Auth.APIKey,
		Rate:   model.RateLimitConfig{QPS: defaultQPS, Burst: defaultBurst},
	}
	tm.RegisterTenant(defaultTenant)
	tm.defaultTenant = defaultTenant
	return tm
}

func (tm *TenantManager) RegisterTenant(t *model.Tenant) {
	if t == nil {
		return
	}
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if t.ApiKey != "" {
		tm.tenants[t.ApiKey] = t
	}

	limit := rate.Limit(t.Rate.QPS)
	if limit == 0 {
		limit = rate.Inf
	}
	burst := t.Rate.Burst
	if burst == 0 {
		burst = 1
	}
	tm.limiters[t.ID] = rate.NewLimiter(limit, burst)
}

func (tm *TenantManager) GetTenantByApiKey(apiKey string) (*model.Tenant, bool) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	t, ok := tm.tenants[apiKey]
	return t, ok
}

func (tm *TenantManager) ListTenants() []*model.Tenant {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	results := make([]*model.Tenant, 0, len(tm.tenants))
	for _, tenant := range tm.tenants {
		results = append(results, tenant)
	}
	if tm.defaultTenant != nil && tm.defaultTenant.ApiKey == "" {
		results = append(results, tm.defaultTenant)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })
	return results
}

// DefaultTenant is nil when tenants are configured explicitly.
func (tm *TenantManager) DefaultTenant() *model.Tenant {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.defaultTenant
}

// GetLimiterForTenant 获取租户的限流器
func (tm *TenantManager) GetLimiterForTenant(tenantID string) *rate.Limiter {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.limiters[tenantID]
}

// chooseQPS keeps an explicit 0 so RegisterTenant treats it as unlimited.
func chooseQPS(base float64, override *float64) float64 {
	if override != nil {
		return *override
	}
	return base
}

func chooseInt(base, override int) int {
	if override > 0 {
		return override
	}
	return base
}
