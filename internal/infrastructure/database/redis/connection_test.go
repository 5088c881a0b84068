package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHitCountsWithinWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	c := Wrap(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	defer c.Close()
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		n, err := c.Hit(ctx, "track_limit:10.0.0.1", time.Hour)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	ttl, err := c.TTL(ctx, "track_limit:10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, ttl)

	mr.FastForward(time.Hour + time.Second)
	n, err := c.Hit(ctx, "track_limit:10.0.0.1", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, c.Health(ctx))
}
