// Package reset issues single-use password-reset tokens with a TTL.
package reset

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	dErrors "keepsafe/pkg/domain-errors"
)

// TTL is how long a reset token stays valid.
const TTL = 15 * time.Minute

const tokenKeyPrefix = "reset:token:"

// ErrInvalidToken covers unknown, expired, and already-consumed tokens; the
// caller cannot distinguish them, deliberately.
var ErrInvalidToken = dErrors.New(dErrors.CodeBadRequest, "invalid or expired reset token")

type Store interface {
	// Create issues a token mapping to userID.
	Create(ctx context.Context, userID string) (string, error)
	// Consume resolves and invalidates a token in one step.
	Consume(ctx context.Context, token string) (string, error)
}

// RedisStore keys tokens with a TTL; GETDEL makes consumption single-use
// without a second round trip.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Create(ctx context.Context, userID string) (string, error) {
	token := uuid.NewString()
	if err := s.client.Set(ctx, tokenKeyPrefix+token, userID, TTL).Err(); err != nil {
		return "", err
	}
	return token, nil
}

func (s *RedisStore) Consume(ctx context.Context, token string) (string, error) {
	userID, err := s.client.GetDel(ctx, tokenKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrInvalidToken
	}
	if err != nil {
		return "", err
	}
	return userID, nil
}

// MemoryStore is the single-process fallback.
type MemoryStore struct {
	mu     sync.Mutex
	tokens map[string]memoryToken
}

type memoryToken struct {
	userID    string
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[string]memoryToken)}
}

func (s *MemoryStore) Create(_ context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := uuid.NewString()
	s.tokens[token] = memoryToken{userID: userID, expiresAt: time.Now().Add(TTL)}
	return token, nil
}

func (s *MemoryStore) Consume(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.tokens[token]
	if !ok {
		return "", ErrInvalidToken
	}
	delete(s.tokens, token)
	if time.Now().After(entry.expiresAt) {
		return "", ErrInvalidToken
	}
	return entry.userID, nil
}
