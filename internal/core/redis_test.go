// AngelaMos | 2026
// redis_test.go

package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/storefront/internal/config"
)

func TestNewRedisUnreachableStillReturnsClient(t *testing.T) {
	r, err := NewRedis(context.Background(), config.RedisConfig{URL: "redis://127.0.0.1:1/0", PoolSize: 1})
	require.ErrorIs(t, err, ErrRedisUnreachable)
	require.NotNil(t, r)
	t.Cleanup(func() { _ = r.Close() })

	assert.Error(t, r.Ping(context.Background()))
}

func TestNewRedisBadURL(t *testing.T) {
	r, err := NewRedis(context.Background(), config.RedisConfig{URL: "not a url"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRedisUnreachable)
	assert.Nil(t, r)
}
