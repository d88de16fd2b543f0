package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/highgoal215/cryptowallet_service/internal/domain/entities"
	domainerrors "github.com/highgoal215/cryptowallet_service/internal/domain/errors"
	"github.com/highgoal215/cryptowallet_service/internal/infrastructure/cache"
)

const (
	snapshotKeyPrefix = "wallet_snapshot"
	indexKeyPrefix    = "wallet_snapshots"
)

// RedisStore keeps each snapshot as a JSON value plus a per-user index set
type RedisStore struct {
	client cache.RedisClient
	ttl    time.Duration
}

// NewRedisStore creates a store on client. A zero ttl keeps snapshots forever.
func NewRedisStore(client cache.RedisClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func snapshotKey(userID string, walletID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:%s", snapshotKeyPrefix, userID, walletID)
}

func indexKey(userID string) string {
	return fmt.Sprintf("%s:%s", indexKeyPrefix, userID)
}

// Save implements Store
func (r *RedisStore) Save(ctx context.Context, snap entities.WalletSnapshot) error {
	if err := r.client.Set(ctx, snapshotKey(snap.UserID, snap.WalletID), snap, r.ttl); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if err := r.client.SAdd(ctx, indexKey(snap.UserID), snap.WalletID.String()); err != nil {
		return fmt.Errorf("index snapshot: %w", err)
	}
	return nil
}

// Get implements Store
func (r *RedisStore) Get(ctx context.Context, userID string, walletID uuid.UUID) (*entities.WalletSnapshot, error) {
	var snap entities.WalletSnapshot
	if err := r.client.Get(ctx, snapshotKey(userID, walletID), &snap); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, notFound(walletID)
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return &snap, nil
}

// List implements Store. Index entries whose value expired are pruned.
func (r *RedisStore) List(ctx context.Context, userID string) ([]entities.WalletSnapshot, error) {
	members, err := r.client.SMembers(ctx, indexKey(userID))
	if err != nil {
		return nil, fmt.Errorf("list snapshot index: %w", err)
	}

	out := make([]entities.WalletSnapshot, 0, len(members))
	var stale []string
	for _, m := range members {
		id, err := uuid.Parse(m)
		if err != nil {
			stale = append(stale, m)
			continue
		}
		snap, err := r.Get(ctx, userID, id)
		if err != nil {
			if domainerrors.IsNotFound(err) {
				stale = append(stale, m)
				continue
			}
			return nil, err
		}
		out = append(out, *snap)
	}

	if len(stale) > 0 {
		if err := r.client.SRem(ctx, indexKey(userID), stale...); err != nil {
			return nil, fmt.Errorf("prune snapshot index: %w", err)
		}
	}

	sortSnapshots(out)
	return out, nil
}

// Delete implements Store
func (r *RedisStore) Delete(ctx context.Context, userID string, walletID uuid.UUID) error {
	if _, err := r.Get(ctx, userID, walletID); err != nil {
		return err
	}
	if err := r.client.Del(ctx, snapshotKey(userID, walletID)); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return r.client.SRem(ctx, indexKey(userID), walletID.String())
}

// Close implements Store
func (r *RedisStore) Close() error {
	return r.client.Close()
}
