// Package nonce remembers request nonces for a bounded time so a signed
// request can be accepted only once. Two stores are provided: an in-process
// one for single instance deployments and tests, and a Redis backed one for
// fleets that share the replay window.
package nonce

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Memory is an in-process nonce store.
type Memory struct {
	mu      sync.Mutex
	seen    map[string]time.Time
	now     func() time.Time
	lastGC  time.Time
	gcEvery time.Duration
}

// NewMemory constructs an empty in-process store.
func NewMemory() *Memory {
	return &Memory{
		seen:    make(map[string]time.Time),
		now:     time.Now,
		gcEvery: time.Minute,
	}
}

// Claim records key for ttl. It reports false when the key was already
// claimed and has not expired.
func (m *Memory) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.collect(now)

	if exp, exists := m.seen[key]; exists && now.Before(exp) {
		return false, nil
	}

	m.seen[key] = now.Add(ttl)

	return true, nil
}

// Len returns the number of live entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.seen)
}

func (m *Memory) collect(now time.Time) {
	if now.Sub(m.lastGC) < m.gcEvery {
		return
	}

	for k, exp := range m.seen {
		if !now.Before(exp) {
			delete(m.seen, k)
		}
	}
	m.lastGC = now
}

// =============================================================================

// Redis is a nonce store shared through Redis.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis constructs a store over an existing client. Keys are namespaced
// with prefix.
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{
		client: client,
		prefix: prefix,
	}
}

// Claim records key for ttl using SET NX. It reports false when the key
// already exists.
func (r *Redis) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.prefix+key, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx: %w", err)
	}

	return ok, nil
}

// Ping checks the connection to Redis.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}

	return nil
}
