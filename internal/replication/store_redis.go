package replication

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"replicare/internal/platform/redis"
	"replicare/pkg/platform/sentinel"
)

const snapshotKeyPrefix = "replicare:replication:latest:"

// SnapshotCache publishes the latest snapshot per pair for the dashboard
// collaborator. Best-effort; the monitor's in-process state is authoritative.
type SnapshotCache interface {
	SetLatest(ctx context.Context, snap Snapshot) error
	GetLatest(ctx context.Context, pair RegionPair) (Snapshot, error)
}

// RedisSnapshotCache stores the latest snapshot JSON per pair.
type RedisSnapshotCache struct {
	client *redis.Client
}

func NewRedisSnapshotCache(client *redis.Client) *RedisSnapshotCache {
	return &RedisSnapshotCache{client: client}
}

func (c *RedisSnapshotCache) SetLatest(ctx context.Context, snap Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := c.client.Set(ctx, snapshotKeyPrefix+snap.Pair.String(), payload, 0).Err(); err != nil {
		return fmt.Errorf("cache snapshot: %w", err)
	}
	return nil
}

func (c *RedisSnapshotCache) GetLatest(ctx context.Context, pair RegionPair) (Snapshot, error) {
	payload, err := c.client.Get(ctx, snapshotKeyPrefix+pair.String()).Bytes()
	if errors.Is(err, goredis.Nil) {
		return Snapshot{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("read cached snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal cached snapshot: %w", err)
	}
	return snap, nil
}
