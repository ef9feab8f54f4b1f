package cache

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/diamond/internal/ingest"
)

var _ ingest.PageCache = (*RedisCache)(nil)

func TestNewRedisCacheRejectsBadURL(t *testing.T) {
	_, err := NewRedisCache(context.Background(), "not-a-url")
	require.Error(t, err)
}

func TestNewRedisCacheUnreachable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRedisCache(ctx, "redis://127.0.0.1:1/0")
	assert.Error(t, err)
}

func TestKeysArePrefixed(t *testing.T) {
	rc := NewFromClient(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}))
	defer rc.Close()
	assert.Equal(t, DefaultPrefix, rc.prefix)
}
