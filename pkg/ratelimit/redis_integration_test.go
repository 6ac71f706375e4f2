//go:build integration

package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

type RedisStoreSuite struct {
	suite.Suite
	container *tcredis.RedisContainer
	client    *redis.Client
	limiter   *Limiter
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	s.Require().NoError(err)
	s.container = container

	addr, err := container.ConnectionString(ctx)
	s.Require().NoError(err)
	opts, err := redis.ParseURL(addr)
	s.Require().NoError(err)
	s.client = redis.NewClient(opts)
	s.Require().NoError(s.client.Ping(ctx).Err())
}

func (s *RedisStoreSuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Close()
	}
	if s.container != nil {
		if err := testcontainers.TerminateContainer(s.container); err != nil {
			s.T().Logf("failed to terminate container: %v", err)
		}
	}
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.client.FlushAll(context.Background()).Err())
	s.limiter = NewLimiter(NewRedisStore(s.client), map[string]Policy{
		"publish": {Limit: 2, Window: 500 * time.Millisecond},
	})
}

func (s *RedisStoreSuite) TestFixedWindow() {
	ctx := context.Background()

	for range 2 {
		d, err := s.limiter.Allow(ctx, "admin-1", "publish")
		s.Require().NoError(err)
		s.True(d.Allowed)
	}
	d, err := s.limiter.Allow(ctx, "admin-1", "publish")
	s.Require().NoError(err)
	s.False(d.Allowed)
	s.Positive(d.RetryAfter)

	time.Sleep(600 * time.Millisecond)

	d, err = s.limiter.Allow(ctx, "admin-1", "publish")
	s.Require().NoError(err)
	s.True(d.Allowed)
	s.Equal(int64(1), d.Count)
}

func (s *RedisStoreSuite) TestKeyHasTTL() {
	ctx := context.Background()
	_, err := s.limiter.Allow(ctx, "admin-1", "publish")
	s.Require().NoError(err)

	ttl, err := s.client.PTTL(ctx, Key("admin-1", "publish")).Result()
	s.Require().NoError(err)
	s.Positive(ttl)
}
