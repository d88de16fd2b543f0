package entities

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSnapshotOf_KeepsCreationTime(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	w := Wallet{
		ID:        uuid.New(),
		AssetType: AssetETH,
		Name:      "Main",
		Address:   "0xabc",
		Balance:   decimal.RequireFromString("2"),
		CreatedAt: created,
	}

	snap := SnapshotOf("user-1", w, created.Add(time.Hour))
	assert.True(t, created.Equal(snap.CreatedAt))
	assert.True(t, created.Add(time.Hour).Equal(snap.UpdatedAt))

	back := snap.Wallet()
	assert.Equal(t, w.ID, back.ID)
	assert.True(t, created.Equal(back.CreatedAt))
	assert.True(t, back.USDValue.IsZero())
}

func TestSnapshotWallet_FallsBackToUpdateTime(t *testing.T) {
	updated := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	snap := WalletSnapshot{WalletID: uuid.New(), AssetType: AssetBTC, UpdatedAt: updated}
	assert.True(t, updated.Equal(snap.Wallet().CreatedAt))
}
