package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolbridge/pkg/config"
	pkgerrors "toolbridge/pkg/errors"
)

func TestMemoryStore_Set_Get_Delete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Set(ctx, "count:emails", int64(12), 0))

	var v int64
	require.NoError(t, s.Get(ctx, "count:emails", &v))
	assert.Equal(t, int64(12), v)

	require.NoError(t, s.Delete(ctx, "count:emails"))
	err := s.Get(ctx, "count:emails", &v)
	assert.True(t, errors.Is(err, ErrMiss))
	assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	assert.NoError(t, s.Delete(ctx, "count:emails"), "deleting a missing key is not an error")
}

func TestMemoryStore_Expiration(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "k", "v", 30*time.Second))
	ok, err := s.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(30 * time.Second)
	ok, _ = s.Exists(ctx, "k")
	assert.False(t, ok)
	var v string
	assert.ErrorIs(t, s.Get(ctx, "k", &v), ErrMiss)
	_, present := s.items["k"]
	assert.False(t, present, "expired entry is evicted on read")
}

func TestMemoryStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.Set(ctx, "k1", "v1", 0)
	require.NoError(t, s.Clear(ctx))
	var v string
	assert.ErrorIs(t, s.Get(ctx, "k1", &v), ErrMiss)
}

func TestMemoryStore_UnmarshalError(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_ = s.Set(ctx, "k", "text", 0)
	var n int
	err := s.Get(ctx, "k", &n)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrMiss))
}

func TestNewCache(t *testing.T) {
	ctx := context.Background()
	s, err := NewCache(ctx, config.CacheConfig{Type: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	_, err = NewCache(ctx, config.CacheConfig{Type: "memcached"})
	assert.Error(t, err)

	// 127.0.0.1:1 上没有 Redis，连接应立即失败
	_, err = NewCache(ctx, config.CacheConfig{Type: "redis", Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
