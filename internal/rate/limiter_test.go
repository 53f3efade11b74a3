package rate

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	rdb "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLimiter_FixedWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := rdb.NewClient(&rdb.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedisLimiter(client, "test:", 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := l.Allow(ctx, "1.2.3.4|/auth/login")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}
	res, err := l.Allow(ctx, "1.2.3.4|/auth/login")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, int64(0), res.Remaining)
	assert.Greater(t, res.RetryAfter, time.Duration(0))

	other, err := l.Allow(ctx, "5.6.7.8|/auth/login")
	require.NoError(t, err)
	assert.True(t, other.Allowed)
}

func TestMemoryLimiter_Burst(t *testing.T) {
	l := NewMemoryLimiter(3, time.Minute)
	now := time.Now()
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := l.Allow(ctx, "k")
		require.NoError(t, err)
		require.True(t, res.Allowed, "request %d", i)
	}
	res, _ := l.Allow(ctx, "k")
	assert.False(t, res.Allowed)
	assert.InDelta(t, (20 * time.Second).Seconds(), res.RetryAfter.Seconds(), 1)

	now = now.Add(21 * time.Second)
	res, _ = l.Allow(ctx, "k")
	assert.True(t, res.Allowed)
}
