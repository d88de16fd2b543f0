package ledger

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/highgoal215/cryptowallet_service/internal/domain/entities"
	domainerrors "github.com/highgoal215/cryptowallet_service/internal/domain/errors"
)

func newTestStore() *WalletStore {
	return NewWalletStore(NewRandomAddressGenerator(7), newTickingClock().Now)
}

func TestWalletStore_CreateDefaults(t *testing.T) {
	store := newTestStore()

	first, err := store.Create(entities.AssetBTC, "", "", decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, "My BTC Wallet 1", first.Name)
	assert.True(t, strings.HasPrefix(first.Address, "bc1"))
	assert.False(t, first.Imported)
	assert.NotEqual(t, uuid.Nil, first.ID)

	second, err := store.Create(entities.AssetBTC, "  ", "", decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.Equal(t, "My BTC Wallet 2", second.Name)

	eth, err := store.Create(entities.AssetETH, "Trading", "", decimal.Zero)
	require.NoError(t, err)
	assert.Equal(t, "Trading", eth.Name)
	assert.True(t, strings.HasPrefix(eth.Address, "0x"))

	list := store.List()
	require.Len(t, list, 3)
	assert.Equal(t, []uuid.UUID{first.ID, second.ID, eth.ID}, []uuid.UUID{list[0].ID, list[1].ID, list[2].ID})
}

func TestWalletStore_CreateRejectsBadInput(t *testing.T) {
	store := newTestStore()

	_, err := store.Create("DOGE", "", "", decimal.Zero)
	assert.ErrorIs(t, err, domainerrors.ErrUnsupportedAsset)

	_, err = store.Create(entities.AssetBTC, "", "", decimal.NewFromInt(-1))
	assert.True(t, domainerrors.IsInvalidInput(err))
	assert.Zero(t, store.Len())
}

func TestWalletStore_Import(t *testing.T) {
	store := newTestStore()

	w, err := store.Import("  0xfeed  ", "Cold", entities.AssetETH, decimal.RequireFromString("3.5"))
	require.NoError(t, err)
	assert.Equal(t, "0xfeed", w.Address)
	assert.True(t, w.Imported)

	_, err = store.Import("0xfeed", "Again", entities.AssetETH, decimal.Zero)
	assert.ErrorIs(t, err, domainerrors.ErrDuplicateAddress)
	assert.True(t, domainerrors.IsConflict(err))

	_, err = store.Import("", "Empty", entities.AssetETH, decimal.Zero)
	assert.ErrorIs(t, err, domainerrors.ErrMissingAddress)

	assert.Equal(t, 1, store.Len())
}

func TestWalletStore_RevalueMatchesPrices(t *testing.T) {
	store := newTestStore()
	_, _ = store.Create(entities.AssetBTC, "", "", decimal.RequireFromString("0.5"))
	_, _ = store.Create(entities.AssetETH, "", "", decimal.RequireFromString("2"))
	_, _ = store.Create(entities.AssetUSDT, "", "", decimal.RequireFromString("100"))

	store.Revalue(testPrices)
	first := store.List()
	for _, w := range first {
		assert.True(t, w.Balance.Mul(testPrices.Price(w.AssetType)).Equal(w.USDValue), w.AssetType)
	}
	assert.True(t, decimal.NewFromInt(27500+6000+100).Equal(store.TotalUSD()))

	// revaluing again with the same table does not drift
	store.Revalue(testPrices)
	for i, w := range store.List() {
		assert.True(t, first[i].USDValue.Equal(w.USDValue))
	}
}

func TestWalletStore_RevalueWithoutQuote(t *testing.T) {
	store := newTestStore()
	_, _ = store.Create(entities.AssetTRX, "", "", decimal.NewFromInt(10))

	store.Revalue(entities.PriceTable{entities.AssetBTC: decimal.NewFromInt(1)})
	assert.True(t, store.List()[0].USDValue.IsZero())
}

func TestWalletStore_DebitCredit(t *testing.T) {
	store := newTestStore()
	w, _ := store.Create(entities.AssetBTC, "", "", decimal.NewFromInt(1))

	_, err := store.Debit(w.ID, decimal.NewFromInt(2))
	assert.True(t, domainerrors.IsInsufficientBalance(err))
	got, _ := store.ByID(w.ID)
	assert.True(t, decimal.NewFromInt(1).Equal(got.Balance))

	got, err = store.Debit(w.ID, decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.True(t, got.Balance.IsZero())

	got, err = store.Credit(w.ID, decimal.RequireFromString("0.25"))
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.25").Equal(got.Balance))

	_, err = store.Credit(uuid.New(), decimal.NewFromInt(1))
	assert.ErrorIs(t, err, domainerrors.ErrWalletNotFound)
}

func TestWalletStore_Lookups(t *testing.T) {
	store := newTestStore()
	a, _ := store.Create(entities.AssetBTC, "A", "bc1first", decimal.Zero)
	_, _ = store.Create(entities.AssetBTC, "B", "bc1second", decimal.Zero)

	got, ok := store.ByAsset(entities.AssetBTC)
	require.True(t, ok)
	assert.Equal(t, a.ID, got.ID)

	_, ok = store.ByAsset(entities.AssetETH)
	assert.False(t, ok)

	got, ok = store.ByAddress(" bc1second ")
	require.True(t, ok)
	assert.Equal(t, "B", got.Name)

	_, ok = store.ByAddress("")
	assert.False(t, ok)
}

func TestWalletStore_Restore(t *testing.T) {
	store := newTestStore()
	w := entities.Wallet{ID: uuid.New(), AssetType: entities.AssetETH, Name: "Saved", Address: "0xsaved", Balance: decimal.NewFromInt(2)}

	assert.True(t, store.Restore(w))
	assert.False(t, store.Restore(w))

	got, ok := store.ByID(w.ID)
	require.True(t, ok)
	assert.Equal(t, "Saved", got.Name)
}
