package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/GoPolymarket/sasgate/internal/config"
	"github.com/redis/go-redis/v9"
)

type RedisClient struct {
	Client *redis.Client
	prefix string
}

func NewRedisClient(cfg config.RedisConfig) (*RedisClient, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is empty")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisClient{Client: rdb, prefix: cfg.KeyPrefix}, nil
}

func (r *RedisClient) Close() error {
	return r.Client.Close()
}

func (r *RedisClient) key(parts ...string) string {
	k := r.prefix
	for _, p := range parts {
		if k == "" {
			k = p
			continue
		}
		k += ":" + p
	}
	return k
}

// quotaCmds is the part of *redis.Client the quota counter uses.
type quotaCmds interface {
	TxPipeline() redis.Pipeliner
	Decr(ctx context.Context, key string) *redis.IntCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

const quotaKeyTTL = 62 * 24 * time.Hour // 两个月足够覆盖跨月查询

// RedisQuotaRepo counts upstream calls per calendar month.
type RedisQuotaRepo struct {
	client *RedisClient
	cmds   quotaCmds
}

func NewRedisQuotaRepo(client *RedisClient) *RedisQuotaRepo {
	return &RedisQuotaRepo{client: client, cmds: client.Client}
}

// Reserve takes one call from the period's budget. When the budget is spent the
// increment is rolled back and ok is false.
func (r *RedisQuotaRepo) Reserve(ctx context.Context, period string, limit int64) (int64, bool, error) {
	key := r.client.key("quota", period)

	pipe := r.cmds.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, quotaKeyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, false, err
	}

	used := incr.Val()
	if limit > 0 && used > limit {
		if err := r.cmds.Decr(ctx, key).Err(); err != nil {
			return used, false, err
		}
		return used - 1, false, nil
	}
	return used, true, nil
}

func (r *RedisQuotaRepo) Usage(ctx context.Context, period string) (int64, error) {
	n, err := r.cmds.Get(ctx, r.client.key("quota", period)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}
