// Package lockout throttles password guessing: repeated failures for one
// email lock logins out for a window. Redis-backed in production so all
// instances share state; in-memory otherwise.
package lockout

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// MaxFailures before an identifier locks.
	MaxFailures = 5
	// Window is both the failure-counting window and the lock duration.
	Window = 15 * time.Minute

	failureKeyPrefix = "lockout:email:"
)

type Store interface {
	RecordFailure(ctx context.Context, identifier string) error
	Clear(ctx context.Context, identifier string) error
	IsLocked(ctx context.Context, identifier string) (bool, error)
}

// RedisStore counts failures with INCR and a TTL set on first failure.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) RecordFailure(ctx context.Context, identifier string) error {
	key := failureKeyPrefix + normalize(identifier)
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if count == 1 {
		return s.client.Expire(ctx, key, Window).Err()
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, identifier string) error {
	return s.client.Del(ctx, failureKeyPrefix+normalize(identifier)).Err()
}

func (s *RedisStore) IsLocked(ctx context.Context, identifier string) (bool, error) {
	count, err := s.client.Get(ctx, failureKeyPrefix+normalize(identifier)).Int64()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return count >= MaxFailures, nil
}

// MemoryStore is the single-process fallback.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	count     int
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*entry)}
}

func (s *MemoryStore) RecordFailure(_ context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := normalize(identifier)
	e, ok := s.entries[key]
	if !ok || time.Now().After(e.expiresAt) {
		s.entries[key] = &entry{count: 1, expiresAt: time.Now().Add(Window)}
		return nil
	}
	e.count++
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, normalize(identifier))
	return nil
}

func (s *MemoryStore) IsLocked(_ context.Context, identifier string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[normalize(identifier)]
	if !ok || time.Now().After(e.expiresAt) {
		return false, nil
	}
	return e.count >= MaxFailures, nil
}

func normalize(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}
