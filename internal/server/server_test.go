package server

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/deppfellow/routekit/internal/config"
	"github.com/deppfellow/routekit/internal/lib/ratelimit"
	"github.com/deppfellow/routekit/internal/logger"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Primary: config.Primary{Env: "test"},
		Server: config.ServerConfig{
			Port:         "0",
			ReadTimeout:  1,
			WriteTimeout: 1,
			IdleTimeout:  1,
		},
		RateLimit: &config.RateLimitConfig{
			ServiceName:     "test",
			PublicPoints:    2,
			PublicDuration:  time.Minute,
			PrivatePoints:   4,
			PrivateDuration: time.Minute,
		},
	}
}

func TestNew_InMemory(t *testing.T) {
	log := zerolog.Nop()

	s, err := New(testConfig(), &log)
	require.NoError(t, err)

	assert.Nil(t, s.Redis)
	assert.IsType(t, &ratelimit.MemoryLimiter{}, s.RateLimit.Public)
	assert.IsType(t, &ratelimit.MemoryLimiter{}, s.RateLimit.Private)
	assert.NotNil(t, s.Schemas)
	assert.NotNil(t, s.Routes)

	assert.NoError(t, s.Shutdown(context.Background()))
}

func TestNew_WithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	log := zerolog.Nop()

	s, err := New(testConfig(), &log, WithRedis(client))
	require.NoError(t, err)

	assert.Same(t, client, s.Redis)
	assert.IsType(t, &ratelimit.RedisLimiter{}, s.RateLimit.Public)

	res, err := s.RateLimit.Private.Consume(context.Background(), "token")
	require.NoError(t, err)
	assert.Equal(t, 4, res.Limit)
	assert.Equal(t, 3, res.Remaining)

	assert.NoError(t, s.Shutdown(context.Background()))
}

func TestNew_RequiresConfig(t *testing.T) {
	log := zerolog.Nop()

	_, err := New(nil, &log)
	assert.Error(t, err)
}

func TestNew_NilLoggerWithUnreachableRedis(t *testing.T) {
	cfg := testConfig()
	cfg.Redis.Address = "127.0.0.1:1"

	var s *Server
	var err error
	require.NotPanics(t, func() {
		s, err = New(cfg, nil, WithLoggerService(&logger.LoggerService{}))
	})
	require.NoError(t, err)

	require.NotNil(t, s.Logger)
	require.NotNil(t, s.Redis)
	assert.Nil(t, s.LoggerService.GetApplication())

	assert.NoError(t, s.Shutdown(context.Background()))
}

func TestStart_WithoutHTTPServer(t *testing.T) {
	log := zerolog.Nop()
	s, err := New(testConfig(), &log)
	require.NoError(t, err)

	assert.EqualError(t, s.Start(), "HTTP server not initialized")
}
