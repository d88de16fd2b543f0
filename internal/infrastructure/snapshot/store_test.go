package snapshot

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/highgoal215/cryptowallet_service/internal/domain/entities"
	domainerrors "github.com/highgoal215/cryptowallet_service/internal/domain/errors"
	"github.com/highgoal215/cryptowallet_service/internal/infrastructure/cache"
	"github.com/highgoal215/cryptowallet_service/internal/infrastructure/config"
	"github.com/highgoal215/cryptowallet_service/internal/infrastructure/database"
)

// fakeRedis is an in-process stand-in for cache.RedisClient
type fakeRedis struct {
	mu     sync.Mutex
	values map[string][]byte
	sets   map[string]map[string]struct{}
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{values: map[string][]byte{}, sets: map[string]map[string]struct{}{}}
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = data
	return nil
}

func (f *fakeRedis) SetNX(_ context.Context, key string, value interface{}, _ time.Duration) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.values[key]; exists {
		return false, nil
	}
	f.values[key] = data
	return true, nil
}

func (f *fakeRedis) Get(_ context.Context, key string, dest interface{}) error {
	f.mu.Lock()
	data, ok := f.values[key]
	f.mu.Unlock()
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

func (f *fakeRedis) SAdd(_ context.Context, key string, members ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sets[key] == nil {
		f.sets[key] = map[string]struct{}{}
	}
	for _, m := range members {
		f.sets[key][m] = struct{}{}
	}
	return nil
}

func (f *fakeRedis) SRem(_ context.Context, key string, members ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range members {
		delete(f.sets[key], m)
	}
	return nil
}

func (f *fakeRedis) SMembers(_ context.Context, key string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sets[key]))
	for m := range f.sets[key] {
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeRedis) Ping(context.Context) error { return nil }
func (f *fakeRedis) Close() error               { return nil }

func sampleSnapshot(userID string, at time.Time) entities.WalletSnapshot {
	return entities.WalletSnapshot{
		UserID:    userID,
		WalletID:  uuid.New(),
		AssetType: entities.AssetBTC,
		Name:      "My BTC Wallet 1",
		Address:   "bc1" + uuid.NewString()[:8],
		Balance:   decimal.RequireFromString("1.5"),
		CreatedAt: at,
		UpdatedAt: at,
	}
}

// exerciseStore runs the contract every Store implementation must satisfy
func exerciseStore(t *testing.T, store Store) {
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	first := sampleSnapshot("user-a", base)
	second := sampleSnapshot("user-a", base.Add(time.Minute))
	other := sampleSnapshot("user-b", base)

	require.NoError(t, store.Save(ctx, first))
	require.NoError(t, store.Save(ctx, second))
	require.NoError(t, store.Save(ctx, other))

	got, err := store.Get(ctx, "user-a", first.WalletID)
	require.NoError(t, err)
	assert.Equal(t, first.Address, got.Address)
	assert.True(t, first.Balance.Equal(got.Balance))

	list, err := store.List(ctx, "user-a")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.WalletID, list[0].WalletID)
	assert.Equal(t, second.WalletID, list[1].WalletID)

	// same key replaces; a later update does not move the wallet
	first.Balance = decimal.RequireFromString("0.25")
	first.UpdatedAt = base.Add(time.Hour)
	require.NoError(t, store.Save(ctx, first))
	got, err = store.Get(ctx, "user-a", first.WalletID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.25").Equal(got.Balance))
	assert.True(t, base.Equal(got.CreatedAt))

	list, err = store.List(ctx, "user-a")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.WalletID, list[0].WalletID)
	assert.Equal(t, second.WalletID, list[1].WalletID)

	require.NoError(t, store.Delete(ctx, "user-a", second.WalletID))
	_, err = store.Get(ctx, "user-a", second.WalletID)
	assert.True(t, domainerrors.IsNotFound(err))

	err = store.Delete(ctx, "user-a", uuid.New())
	assert.True(t, domainerrors.IsNotFound(err))

	list, err = store.List(ctx, "user-b")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, other.WalletID, list[0].WalletID)

	list, err = store.List(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestRedisStore(t *testing.T) {
	exerciseStore(t, NewRedisStore(newFakeRedis(), 0))
}

func TestRedisStore_PrunesExpiredEntries(t *testing.T) {
	ctx := context.Background()
	client := newFakeRedis()
	store := NewRedisStore(client, time.Hour)

	snap := sampleSnapshot("user-a", time.Now())
	require.NoError(t, store.Save(ctx, snap))

	// simulate the value expiring while the index survives
	require.NoError(t, client.Del(ctx, snapshotKey("user-a", snap.WalletID)))

	list, err := store.List(ctx, "user-a")
	require.NoError(t, err)
	assert.Empty(t, list)

	members, err := client.SMembers(ctx, indexKey("user-a"))
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	require.NoError(t, database.RunMigrations(url, "file://../../../migrations"))
	db, err := database.NewConnection(config.DatabaseConfig{URL: url})
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = db.Exec(`DELETE FROM wallet_snapshots WHERE user_id IN ('user-a', 'user-b')`)
		db.Close()
	})

	exerciseStore(t, NewPostgresStore(db))
}
