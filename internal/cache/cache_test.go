package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rc, err := New(context.Background(), Config{Kind: "redis", Addr: mr.Addr(), Prefix: "t:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rc.Close() })

	return map[string]Client{
		"memory": NewMemory("t:", time.Minute),
		"redis":  rc,
	}
}

func TestClient_Contract(t *testing.T) {
	ctx := context.Background()
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := c.Get(ctx, "missing")
			assert.True(t, IsNotFound(err))

			require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
			v, err := c.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, "v", v)

			v, err = c.Take(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, "v", v)
			_, err = c.Take(ctx, "k")
			assert.ErrorIs(t, err, ErrNotFound, "take is single use")

			require.NoError(t, c.Set(ctx, "d", "x", 0))
			require.NoError(t, c.Delete(ctx, "d"))
			_, err = c.Get(ctx, "d")
			assert.ErrorIs(t, err, ErrNotFound)

			assert.NoError(t, c.Ping(ctx))
			assert.Equal(t, name, c.Driver())
		})
	}
}

func TestNew_UnknownKind(t *testing.T) {
	_, err := New(context.Background(), Config{Kind: "memcached"})
	assert.Error(t, err)
}

func TestRedis_Underlying(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := DialRedis(context.Background(), Config{Addr: mr.Addr()})
	require.NoError(t, err)
	_, ok := Underlying(c)
	assert.True(t, ok)
	_, ok = Underlying(NewMemory("", 0))
	assert.False(t, ok)
}
