package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lineup/queue-engine/internal/constant"
	"lineup/queue-engine/internal/domain"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Deduper claims the single dispatch attempt allowed per (entry, reason).
// Claim reports false when the pair was already claimed.
type Deduper interface {
	Claim(ctx context.Context, entryID string, reason domain.Reason) (bool, error)
}

type MemoryDeduper struct {
	mu      sync.Mutex
	claimed map[string]struct{}
}

func NewMemoryDeduper() *MemoryDeduper {
	return &MemoryDeduper{claimed: make(map[string]struct{})}
}

func (m *MemoryDeduper) Claim(_ context.Context, entryID string, reason domain.Reason) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := dedupKey(entryID, reason)
	if _, ok := m.claimed[key]; ok {
		return false, nil
	}
	m.claimed[key] = struct{}{}
	return true, nil
}

// RedisDeduper shares claims between server instances. Keys expire after ttl.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	if ttl <= 0 {
		ttl = constant.RedisDedupTTL
	}
	return &RedisDeduper{client: client, ttl: ttl}
}

func (r *RedisDeduper) Claim(ctx context.Context, entryID string, reason domain.Reason) (bool, error) {
	ok, err := r.client.SetNX(ctx, constant.RedisDedupKeyPrefix+dedupKey(entryID, reason), time.Now().Unix(), r.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, "failed to claim notification")
	}
	return ok, nil
}

func dedupKey(entryID string, reason domain.Reason) string {
	return fmt.Sprintf("%s:%s", entryID, reason)
}
