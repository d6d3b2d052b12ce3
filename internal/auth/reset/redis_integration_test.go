//go:build integration

package reset_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"keepsafe/internal/auth/reset"
	"keepsafe/pkg/testutil/containers"
)

type RedisResetSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *reset.RedisStore
}

func TestRedisResetSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisResetSuite))
}

func (s *RedisResetSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = reset.NewRedisStore(s.redis.Client)
}

func (s *RedisResetSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisResetSuite) TestTokenIsSingleUse() {
	ctx := context.Background()

	token, err := s.store.Create(ctx, "user-1")
	s.Require().NoError(err)

	userID, err := s.store.Consume(ctx, token)
	s.Require().NoError(err)
	s.Equal("user-1", userID)

	_, err = s.store.Consume(ctx, token)
	s.ErrorIs(err, reset.ErrInvalidToken)
}

func (s *RedisResetSuite) TestTokenCarriesTTL() {
	ctx := context.Background()

	token, err := s.store.Create(ctx, "user-1")
	s.Require().NoError(err)

	ttl, err := s.redis.Client.TTL(ctx, "reset:token:"+token).Result()
	s.Require().NoError(err)
	s.Greater(ttl.Seconds(), 0.0)
	s.LessOrEqual(ttl, reset.TTL)
}
