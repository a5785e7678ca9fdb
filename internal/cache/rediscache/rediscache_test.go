package rediscache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestRedisCache_GetSetDelete(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr())

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	b, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), b)

	require.NoError(t, c.Delete(ctx, "k"))
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRateLimiter_Allow(t *testing.T) {
	mr := miniredis.RunT(t)
	rl := NewRateLimiter(mr.Addr())

	ctx := context.Background()
	ok, n, err := rl.Allow(ctx, "rl:test", 2, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(1), n)

	ok, n, _ = rl.Allow(ctx, "rl:test", 2, time.Minute)
	require.True(t, ok)
	require.Equal(t, int64(2), n)

	ok, n, _ = rl.Allow(ctx, "rl:test", 2, time.Minute)
	require.False(t, ok)
	require.Equal(t, int64(3), n)
}

func TestSyncState(t *testing.T) {
	mr := miniredis.RunT(t)
	st := NewSyncState(mr.Addr())
	ctx := context.Background()

	require.NoError(t, st.Register(ctx, "u1"))
	require.NoError(t, st.Register(ctx, "u1")) // идемпотентно
	require.NoError(t, st.Register(ctx, "u2"))

	users, err := st.Users(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"u1", "u2"}, users)

	seen, err := st.LastSeen(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, seen)

	require.NoError(t, st.SetLastSeen(ctx, "u1", map[string]string{"O1|I1": "fp1"}))
	require.NoError(t, st.SetLastSeen(ctx, "u1", map[string]string{"O1|I2": "fp2"}))

	seen, err = st.LastSeen(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"O1|I1": "fp1", "O1|I2": "fp2"}, seen)
}
