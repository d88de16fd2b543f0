// Package snapshot persists wallet snapshots keyed by user and wallet id.
package snapshot

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/highgoal215/cryptowallet_service/internal/domain/entities"
	domainerrors "github.com/highgoal215/cryptowallet_service/internal/domain/errors"
)

// Store is a keyed wallet snapshot store. Saving the same key twice replaces the entry.
type Store interface {
	Save(ctx context.Context, snap entities.WalletSnapshot) error
	Get(ctx context.Context, userID string, walletID uuid.UUID) (*entities.WalletSnapshot, error)
	List(ctx context.Context, userID string) ([]entities.WalletSnapshot, error)
	Delete(ctx context.Context, userID string, walletID uuid.UUID) error
	Close() error
}

func notFound(walletID uuid.UUID) error {
	return domainerrors.WalletNotFoundError(walletID.String())
}

// sortSnapshots orders by wallet creation time, then wallet id. Updates never move a wallet.
func sortSnapshots(snaps []entities.WalletSnapshot) {
	sort.SliceStable(snaps, func(i, j int) bool {
		if !snaps[i].CreatedAt.Equal(snaps[j].CreatedAt) {
			return snaps[i].CreatedAt.Before(snaps[j].CreatedAt)
		}
		return snaps[i].WalletID.String() < snaps[j].WalletID.String()
	})
}

// MemoryStore keeps snapshots in process memory
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]map[uuid.UUID]entities.WalletSnapshot
	order map[string][]uuid.UUID
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]map[uuid.UUID]entities.WalletSnapshot),
		order: make(map[string][]uuid.UUID),
	}
}

// Save implements Store
func (m *MemoryStore) Save(ctx context.Context, snap entities.WalletSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	wallets, ok := m.users[snap.UserID]
	if !ok {
		wallets = make(map[uuid.UUID]entities.WalletSnapshot)
		m.users[snap.UserID] = wallets
	}
	if _, exists := wallets[snap.WalletID]; !exists {
		m.order[snap.UserID] = append(m.order[snap.UserID], snap.WalletID)
	}
	wallets[snap.WalletID] = snap
	return nil
}

// Get implements Store
func (m *MemoryStore) Get(ctx context.Context, userID string, walletID uuid.UUID) (*entities.WalletSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.users[userID][walletID]
	if !ok {
		return nil, notFound(walletID)
	}
	return &snap, nil
}

// List returns the user's snapshots in creation order
func (m *MemoryStore) List(ctx context.Context, userID string) ([]entities.WalletSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]entities.WalletSnapshot, 0, len(m.order[userID]))
	for _, id := range m.order[userID] {
		out = append(out, m.users[userID][id])
	}
	sortSnapshots(out)
	return out, nil
}

// Delete implements Store
func (m *MemoryStore) Delete(ctx context.Context, userID string, walletID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[userID][walletID]; !ok {
		return notFound(walletID)
	}
	delete(m.users[userID], walletID)
	ids := m.order[userID]
	for i, id := range ids {
		if id == walletID {
			m.order[userID] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

// Close implements Store
func (m *MemoryStore) Close() error { return nil }
