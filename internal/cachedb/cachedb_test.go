package cachedb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestCache(t *testing.T) *CacheDB {
	t.Helper()
	cache, err := New("")
	if err != nil {
		t.Fatalf("opening cache: %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

func TestGetSetRemove(t *testing.T) {
	assert := assert.New(t)
	cache := newTestCache(t)

	t.Run("Missing key", func(t *testing.T) {
		_, ok := cache.Get("user:nobody")
		assert.False(ok)
	})

	t.Run("Roundtrip", func(t *testing.T) {
		assert.Nil(cache.Set("user:someone", "value"))
		got, ok := cache.Get("user:someone")
		assert.True(ok)
		assert.Equal("value", got)
	})

	t.Run("Overwrite", func(t *testing.T) {
		assert.Nil(cache.Update("user:someone", "newer"))
		got, _ := cache.Get("user:someone")
		assert.Equal("newer", got)
	})

	t.Run("Remove", func(t *testing.T) {
		assert.Nil(cache.Remove("user:someone"))
		_, ok := cache.Get("user:someone")
		assert.False(ok)
	})
}

func TestRemovePrefix(t *testing.T) {
	assert := assert.New(t)
	cache := newTestCache(t)

	cache.Set("user-posts:alice:offset0", "a")
	cache.Set("user-posts:alice:offset50", "b")
	cache.Set("user-posts:alicia:offset0", "c")

	removed, err := cache.RemovePrefix("user-posts:alice:")
	assert.Nil(err)
	assert.Equal(2, removed)

	_, ok := cache.Get("user-posts:alice:offset0")
	assert.False(ok)

	// the longer username shares a string prefix but not a key prefix
	got, ok := cache.Get("user-posts:alicia:offset0")
	assert.True(ok)
	assert.Equal("c", got)
}

func TestCounters(t *testing.T) {
	assert := assert.New(t)
	cache := newTestCache(t)

	t.Run("Incr from empty", func(t *testing.T) {
		n, err := cache.Incr("social:post-favorites:p1")
		assert.Nil(err)
		assert.Equal(int64(1), n)

		n, err = cache.Incr("social:post-favorites:p1")
		assert.Nil(err)
		assert.Equal(int64(2), n)
	})

	t.Run("Decr", func(t *testing.T) {
		n, err := cache.Decr("social:post-favorites:p1")
		assert.Nil(err)
		assert.Equal(int64(1), n)
	})

	t.Run("Clamped at zero", func(t *testing.T) {
		cache.Decr("social:post-favorites:p1")
		n, err := cache.Decr("social:post-favorites:p1")
		assert.Nil(err)
		assert.Equal(int64(0), n)
	})
}
