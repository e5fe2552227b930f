package compliance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"replicare/internal/platform/redis"
	"replicare/pkg/platform/sentinel"
)

const reportKeyPrefix = "replicare:report:latest:"

// RedisReportCache publishes the latest report per region for the dashboard
// collaborator. Best-effort; the report store stays authoritative.
type RedisReportCache struct {
	client *redis.Client
}

func NewRedisReportCache(client *redis.Client) *RedisReportCache {
	return &RedisReportCache{client: client}
}

func (c *RedisReportCache) SetLatest(ctx context.Context, r Report) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := c.client.Set(ctx, reportKeyPrefix+r.Region, payload, 0).Err(); err != nil {
		return fmt.Errorf("cache report: %w", err)
	}
	return nil
}

func (c *RedisReportCache) GetLatest(ctx context.Context, region string) (Report, error) {
	payload, err := c.client.Get(ctx, reportKeyPrefix+region).Bytes()
	if errors.Is(err, goredis.Nil) {
		return Report{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Report{}, fmt.Errorf("read cached report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(payload, &r); err != nil {
		return Report{}, fmt.Errorf("unmarshal cached report: %w", err)
	}
	return r, nil
}
