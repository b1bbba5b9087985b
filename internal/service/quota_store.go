package service

import (
	"context"
	"sync"
)

// MemoryQuotaStore 在没有 Redis 时跟踪当月上游调用次数
type MemoryQuotaStore struct {
	mu   sync.Mutex
	used map[string]int64 // Key: YYYY-MM
}

func NewMemoryQuotaStore() *MemoryQuotaStore {
	return &MemoryQuotaStore{used: make(map[string]int64)}
}

func (s *MemoryQuotaStore) Reserve(ctx context.Context, period string, limit int64) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.used[period]
	if limit > 0 && n >= limit {
		return n, false, nil
	}
	n++
	s.used[period] = n
	return n, true, nil
}

func (s *MemoryQuotaStore) Usage(ctx context.Context, period string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.used[period], nil
}
