package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// IDStore persists the backend cart ID of each visitor session.
// Get returns "" with a nil error when nothing is stored.
type IDStore interface {
	Get(ctx context.Context, session string) (string, error)
	Set(ctx context.Context, session, cartID string) error
	Delete(ctx context.Context, session string) error
}

// DefaultIDTTL matches the lifetime of an abandoned Storefront API cart.
const DefaultIDTTL = 30 * 24 * time.Hour

// RedisIDStore keeps cart IDs in Redis so they survive restarts and are
// shared between replicas.
type RedisIDStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisIDStore creates a Redis-backed IDStore. ttl <= 0 uses DefaultIDTTL.
func NewRedisIDStore(client *redis.Client, ttl time.Duration) *RedisIDStore {
	if ttl <= 0 {
		ttl = DefaultIDTTL
	}
	return &RedisIDStore{client: client, ttl: ttl}
}

func (r *RedisIDStore) Get(ctx context.Context, session string) (string, error) {
	id, err := r.client.Get(ctx, idKey(session)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return id, nil
}

// Set stores the ID and restarts its TTL.
func (r *RedisIDStore) Set(ctx context.Context, session, cartID string) error {
	if err := r.client.Set(ctx, idKey(session), cartID, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisIDStore) Delete(ctx context.Context, session string) error {
	if err := r.client.Del(ctx, idKey(session)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func idKey(session string) string {
	return fmt.Sprintf("storefront:cart:%s", session)
}

// MemoryIDStore is a process-local IDStore for single-instance deployments
// and tests.
type MemoryIDStore struct {
	mu  sync.RWMutex
	ids map[string]string
}

func NewMemoryIDStore() *MemoryIDStore {
	return &MemoryIDStore{ids: make(map[string]string)}
}

func (m *MemoryIDStore) Get(_ context.Context, session string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ids[session], nil
}

func (m *MemoryIDStore) Set(_ context.Context, session, cartID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids[session] = cartID
	return nil
}

func (m *MemoryIDStore) Delete(_ context.Context, session string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.ids, session)
	return nil
}

var (
	_ IDStore = (*RedisIDStore)(nil)
	_ IDStore = (*MemoryIDStore)(nil)
)
