package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellousers/internal/store"
)

func TestMerge_Unset(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "users", "u1", map[string]any{"status": "active", "nickname": "jd"}))

	require.NoError(t, s.Merge(ctx, "users", "u1", map[string]any{"nickname": store.Unset, "phone": "123"}))

	snap, err := s.Get(ctx, "users", "u1")
	require.NoError(t, err)
	require.NotNil(t, snap)
	_, ok := snap.Data["nickname"]
	assert.False(t, ok)
	assert.Equal(t, "123", snap.Data["phone"])
	assert.Equal(t, "active", snap.Data["status"])
}

func TestMerge_RejectsUnsafeFieldNames(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "users", "u1", map[string]any{"status": "active"}))

	for _, name := range []string{"profile.url", "$where", ""} {
		err := s.Merge(ctx, "users", "u1", map[string]any{name: "x", "status": "inactive"})
		assert.ErrorIs(t, err, store.ErrInvalidField, name)
	}

	snap, err := s.Get(ctx, "users", "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "active"}, snap.Data)
}

func TestMerge_NotFound(t *testing.T) {
	err := New().Merge(context.Background(), "users", "nope", map[string]any{"a": 1})
	assert.ErrorIs(t, err, store.ErrNotFound)
}
