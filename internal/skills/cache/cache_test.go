package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outreach/internal/config"
	"outreach/internal/skills/cache"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *cache.Redis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, cache.NewRedis(client, "outreach")
}

func TestRedisRoundTripWithPrefixAndTTL(t *testing.T) {
	mr, c := newRedis(t)
	ctx := context.Background()

	_, hit, err := c.Get(ctx, "skill:x:y")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "skill:x:y", []byte(`{"a":1}`), time.Minute))
	assert.True(t, mr.Exists("outreach:skill:x:y"))

	value, hit, err := c.Get(ctx, "skill:x:y")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.JSONEq(t, `{"a":1}`, string(value))

	mr.FastForward(2 * time.Minute)
	_, hit, err = c.Get(ctx, "skill:x:y")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestRedisErrorsWhenServerDown(t *testing.T) {
	mr, c := newRedis(t)
	mr.Close()

	_, _, err := c.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.Error(t, c.Set(context.Background(), "k", []byte("v"), time.Minute))
}

func TestKeyNormalizes(t *testing.T) {
	assert.Equal(t, "skill:lookup_business:plumbers|austin_tx", cache.Key("lookup_business", " Plumbers ", "Austin TX"))
}

func TestOpenWithoutURLIsNop(t *testing.T) {
	c, closeFn, err := cache.Open(config.Cache{})
	require.NoError(t, err)
	require.NoError(t, closeFn())
	_, ok := c.(cache.Nop)
	assert.True(t, ok)
}

func TestOpenRedisURL(t *testing.T) {
	mr := miniredis.RunT(t)
	c, closeFn, err := cache.Open(config.Cache{RedisURL: "redis://" + mr.Addr() + "/0", KeyPrefix: "p"})
	require.NoError(t, err)
	defer closeFn()

	require.NoError(t, c.Set(context.Background(), "k", []byte("v"), 0))
	assert.True(t, mr.Exists("p:k"))
}
