package idempotency

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/highgoal215/cryptowallet_service/internal/infrastructure/cache"
)

// stringRedis is an in-process cache.RedisClient covering the key/value calls
type stringRedis struct {
	mu     sync.Mutex
	values map[string][]byte
}

func (s *stringRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = data
	return nil
}

func (s *stringRedis) SetNX(_ context.Context, key string, value interface{}, _ time.Duration) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; ok {
		return false, nil
	}
	s.values[key] = data
	return true, nil
}

func (s *stringRedis) Get(_ context.Context, key string, dest interface{}) error {
	s.mu.Lock()
	data, ok := s.values[key]
	s.mu.Unlock()
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (s *stringRedis) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.values, k)
	}
	return nil
}

func (s *stringRedis) SAdd(context.Context, string, ...string) error      { return nil }
func (s *stringRedis) SRem(context.Context, string, ...string) error      { return nil }
func (s *stringRedis) SMembers(context.Context, string) ([]string, error) { return nil, nil }
func (s *stringRedis) Ping(context.Context) error                         { return nil }
func (s *stringRedis) Close() error                                       { return nil }

func TestRedisStore_ReserveThenPut(t *testing.T) {
	client := &stringRedis{values: map[string][]byte{}}
	store := NewRedisStore(client)
	ctx := context.Background()

	ok, err := store.Reserve(ctx, "u1:k", &Record{RequestHash: "h"}, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Reserve(ctx, "u1:k", &Record{RequestHash: "h"}, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	rec, err := store.Get(ctx, "u1:k")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.Pending())

	require.NoError(t, store.Put(ctx, "u1:k", &Record{RequestHash: "h", ResponseStatus: 201, ResponseBody: []byte(`{}`)}, time.Hour))
	rec, err = store.Get(ctx, "u1:k")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.False(t, rec.Pending())
	assert.Equal(t, 201, rec.ResponseStatus)

	require.NoError(t, store.Release(ctx, "u1:k"))
	rec, err = store.Get(ctx, "u1:k")
	require.NoError(t, err)
	assert.Nil(t, rec)
}
