package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/GoPolymarket/sasgate/internal/model"
)

// RedisAuditRepo keeps the most recent audit entries in capped lists: one
// across all tenants and one per tenant, so a tenant's page is not starved by
// a noisy neighbour.
type RedisAuditRepo struct {
	client  *RedisClient
	listMax int64
}

func NewRedisAuditRepo(client *RedisClient, listMax int64) *RedisAuditRepo {
	if listMax <= 0 {
		listMax = 10000
	}
	return &RedisAuditRepo{client: client, listMax: listMax}
}

func (r *RedisAuditRepo) listKey(tenantID string) string {
	if tenantID == "" {
		return r.client.key("audit_logs")
	}
	return r.client.key("audit_logs", tenantID)
}

func (r *RedisAuditRepo) Insert(ctx context.Context, entry *model.AuditLog) error {
	if entry == nil {
		return nil
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	keys := []string{r.listKey("")}
	if entry.TenantID != "" {
		keys = append(keys, r.listKey(entry.TenantID))
	}
	pipe := r.client.Client.Pipeline()
	for _, key := range keys {
		pipe.LPush(ctx, key, payload)
		pipe.LTrim(ctx, key, 0, r.listMax-1)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisAuditRepo) List(ctx context.Context, tenantID string, limit int, from, to *time.Time) ([]*model.AuditLog, error) {
	limit = clampLimit(limit)
	// time filters are applied after the read, so over-fetch
	fetch := min(max(int64(limit)*5, 100), r.listMax)
	items, err := r.client.Client.LRange(ctx, r.listKey(tenantID), 0, fetch-1).Result()
	if err != nil {
		return nil, err
	}
	raw := make([][]byte, len(items))
	for i, item := range items {
		raw[i] = []byte(item)
	}
	return filterAuditJSON(raw, tenantID, limit, from, to), nil
}

// filterAuditJSON decodes newest-first entries and applies the list filters.
// Undecodable entries are skipped.
func filterAuditJSON(items [][]byte, tenantID string, limit int, from, to *time.Time) []*model.AuditLog {
	results := make([]*model.AuditLog, 0, limit)
	for _, raw := range items {
		var entry model.AuditLog
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		if tenantID != "" && entry.TenantID != tenantID {
			continue
		}
		if from != nil && entry.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && entry.CreatedAt.After(*to) {
			continue
		}
		results = append(results, &entry)
		if len(results) >= limit {
			break
		}
	}
	return results
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 1000 {
		return 100
	}
	return limit
}
