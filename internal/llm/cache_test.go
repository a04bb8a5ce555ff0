// internal/llm/cache_test.go
package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCache_DisabledVariants(t *testing.T) {
	db, _ := redismock.NewClientMock()

	assert.Nil(t, NewCache(nil, time.Hour))
	assert.Nil(t, NewCache(db, 0))
	assert.Nil(t, NewCache(db, -time.Second))
}

func TestCacheKey_Shape(t *testing.T) {
	db, _ := redismock.NewClientMock()
	cache := NewCache(db, time.Hour)

	key := cache.Key("intent_parse", "v2", "找 A12 攤位", "gpt-4o-mini")

	sum := sha256.Sum256([]byte("找 A12 攤位"))
	want := fmt.Sprintf("intent_parse:v2:%s:gpt-4o-mini", hex.EncodeToString(sum[:]))
	assert.Equal(t, want, key)

	// Different input, different key.
	assert.NotEqual(t, key, cache.Key("intent_parse", "v2", "找 B07 攤位", "gpt-4o-mini"))
}

func TestCacheGet_HitAndMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewCache(db, time.Hour)

	mock.ExpectGet("k1").SetVal("cached response")
	val, ok := cache.Get(context.Background(), "k1")
	require.True(t, ok)
	assert.Equal(t, "cached response", val)

	mock.ExpectGet("k2").RedisNil()
	_, ok = cache.Get(context.Background(), "k2")
	assert.False(t, ok)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCacheGet_ErrorDegradesToMiss(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewCache(db, time.Hour)

	mock.ExpectGet("k1").SetErr(errors.New("connection refused"))

	_, ok := cache.Get(context.Background(), "k1")
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCachePut_UsesConfiguredTTL(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewCache(db, 30*time.Minute)

	mock.ExpectSet("k1", "v1", 30*time.Minute).SetVal("OK")
	cache.Put(context.Background(), "k1", "v1")

	// Write failures must not surface; the cache is best effort.
	mock.ExpectSet("k2", "v2", 30*time.Minute).SetErr(errors.New("readonly replica"))
	cache.Put(context.Background(), "k2", "v2")

	require.NoError(t, mock.ExpectationsWereMet())
}
