package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/solara-medspa/backend-go/internal/config"
	"github.com/solara-medspa/backend-go/internal/domain"
)

const (
	lastSyncKey           = "salesync:last"
	salesSummaryKeyPrefix = "sales:summary"
	scanBatchSize         = 100
	lastSyncTTL           = 24 * time.Hour
)

// SyncCache keeps the most recent sync summary and the cached sales
// rollups that a completed sync invalidates.
type SyncCache interface {
	GetLastSummary(ctx context.Context) (*domain.SyncSummary, bool, error)
	SetLastSummary(ctx context.Context, summary *domain.SyncSummary) error
	GetSalesSummary(ctx context.Context, from, to string) (*domain.SalesSummary, bool, error)
	SetSalesSummary(ctx context.Context, from, to string, summary *domain.SalesSummary) error
	InvalidateSales(ctx context.Context) error
}

type redisSyncCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopSyncCache struct{}

func NewSyncCache(cfg config.CacheConfig) (SyncCache, error) {
	if !cfg.Enabled {
		return &noopSyncCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisSyncCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopSyncCache() SyncCache {
	return &noopSyncCache{}
}

func (c *redisSyncCache) GetLastSummary(ctx context.Context) (*domain.SyncSummary, bool, error) {
	payload, err := c.client.Get(ctx, lastSyncKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var summary domain.SyncSummary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return nil, false, fmt.Errorf("decode sync summary cache: %w", err)
	}
	return &summary, true, nil
}

func (c *redisSyncCache) SetLastSummary(ctx context.Context, summary *domain.SyncSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode sync summary cache: %w", err)
	}

	if err := c.client.Set(ctx, lastSyncKey, payload, lastSyncTTL).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisSyncCache) GetSalesSummary(ctx context.Context, from, to string) (*domain.SalesSummary, bool, error) {
	payload, err := c.client.Get(ctx, buildSalesSummaryKey(from, to)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var summary domain.SalesSummary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return nil, false, fmt.Errorf("decode sales summary cache: %w", err)
	}
	return &summary, true, nil
}

func (c *redisSyncCache) SetSalesSummary(ctx context.Context, from, to string, summary *domain.SalesSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode sales summary cache: %w", err)
	}

	if err := c.client.Set(ctx, buildSalesSummaryKey(from, to), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisSyncCache) InvalidateSales(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, salesSummaryKeyPrefix, scanBatchSize)
}

func buildSalesSummaryKey(from, to string) string {
	return fmt.Sprintf("%s:%s:%s", salesSummaryKeyPrefix, from, to)
}

func (c *noopSyncCache) GetLastSummary(context.Context) (*domain.SyncSummary, bool, error) {
	return nil, false, nil
}

func (c *noopSyncCache) SetLastSummary(context.Context, *domain.SyncSummary) error { return nil }

func (c *noopSyncCache) GetSalesSummary(context.Context, string, string) (*domain.SalesSummary, bool, error) {
	return nil, false, nil
}

func (c *noopSyncCache) SetSalesSummary(context.Context, string, string, *domain.SalesSummary) error {
	return nil
}

func (c *noopSyncCache) InvalidateSales(context.Context) error { return nil }
