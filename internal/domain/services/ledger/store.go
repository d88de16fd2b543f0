package ledger

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/highgoal215/cryptowallet_service/internal/domain/entities"
	domainerrors "github.com/highgoal215/cryptowallet_service/internal/domain/errors"
)

// WalletStore holds the ordered wallets of one session.
// It is not safe for concurrent use; Session serializes access.
type WalletStore struct {
	wallets   []entities.Wallet
	addresses AddressGenerator
	clock     Clock
}

// NewWalletStore creates an empty store
func NewWalletStore(addresses AddressGenerator, clock Clock) *WalletStore {
	return &WalletStore{
		addresses: addresses,
		clock:     clock,
	}
}

// Create appends a new wallet. An empty name gets the default
// "My <ASSET> Wallet <n>" label and an empty address is generated.
func (s *WalletStore) Create(asset entities.AssetType, name, address string, balance decimal.Decimal) (entities.Wallet, error) {
	if !asset.IsValid() {
		return entities.Wallet{}, domainerrors.UnsupportedAssetError(string(asset))
	}
	if balance.IsNegative() {
		return entities.Wallet{}, domainerrors.ValidationError("balance", "Initial balance cannot be negative")
	}

	address = strings.TrimSpace(address)
	if address == "" {
		generated, err := s.addresses.Generate(asset)
		if err != nil {
			return entities.Wallet{}, fmt.Errorf("generate address: %w", err)
		}
		address = generated
	}

	return s.insert(asset, name, address, balance, false)
}

// Import appends a wallet for an existing address
func (s *WalletStore) Import(address, name string, asset entities.AssetType, balance decimal.Decimal) (entities.Wallet, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return entities.Wallet{}, domainerrors.MissingAddressError("address")
	}
	if !asset.IsValid() {
		return entities.Wallet{}, domainerrors.UnsupportedAssetError(string(asset))
	}
	if balance.IsNegative() {
		return entities.Wallet{}, domainerrors.ValidationError("balance", "Balance cannot be negative")
	}
	return s.insert(asset, name, address, balance, true)
}

// Restore re-adds a previously persisted wallet, keeping its id.
// It reports false when the address is already present.
func (s *WalletStore) Restore(w entities.Wallet) bool {
	if _, ok := s.indexByAddress(w.Address); ok {
		return false
	}
	s.wallets = append(s.wallets, w)
	return true
}

func (s *WalletStore) insert(asset entities.AssetType, name, address string, balance decimal.Decimal, imported bool) (entities.Wallet, error) {
	if _, exists := s.indexByAddress(address); exists {
		return entities.Wallet{}, domainerrors.DuplicateAddressError(address)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("My %s Wallet %d", asset, s.countAsset(asset)+1)
	}

	w := entities.Wallet{
		ID:        newID(),
		AssetType: asset,
		Name:      name,
		Address:   address,
		Balance:   balance,
		USDValue:  decimal.Zero,
		Imported:  imported,
		CreatedAt: s.clock(),
	}
	s.wallets = append(s.wallets, w)
	return w, nil
}

// Revalue recomputes every USD value from prices. Assets without a quote are valued at zero.
func (s *WalletStore) Revalue(prices entities.PriceTable) {
	for i := range s.wallets {
		s.wallets[i].USDValue = s.wallets[i].Balance.Mul(prices.Price(s.wallets[i].AssetType))
	}
}

// Credit adds amount to the wallet with the given id
func (s *WalletStore) Credit(id uuid.UUID, amount decimal.Decimal) (entities.Wallet, error) {
	i, ok := s.indexByID(id)
	if !ok {
		return entities.Wallet{}, domainerrors.WalletNotFoundError(id.String())
	}
	s.wallets[i].Balance = s.wallets[i].Balance.Add(amount)
	return s.wallets[i], nil
}

// Debit subtracts amount, refusing to take the balance below zero
func (s *WalletStore) Debit(id uuid.UUID, amount decimal.Decimal) (entities.Wallet, error) {
	i, ok := s.indexByID(id)
	if !ok {
		return entities.Wallet{}, domainerrors.WalletNotFoundError(id.String())
	}
	if s.wallets[i].Balance.LessThan(amount) {
		return entities.Wallet{}, domainerrors.InsufficientBalanceError(s.wallets[i].Balance, amount)
	}
	s.wallets[i].Balance = s.wallets[i].Balance.Sub(amount)
	return s.wallets[i], nil
}

// ByID returns the wallet with the given id
func (s *WalletStore) ByID(id uuid.UUID) (entities.Wallet, bool) {
	if i, ok := s.indexByID(id); ok {
		return s.wallets[i], true
	}
	return entities.Wallet{}, false
}

// ByAsset returns the first wallet holding asset, in insertion order
func (s *WalletStore) ByAsset(asset entities.AssetType) (entities.Wallet, bool) {
	for _, w := range s.wallets {
		if w.AssetType == asset {
			return w, true
		}
	}
	return entities.Wallet{}, false
}

// ByAddress returns the wallet with the given address
func (s *WalletStore) ByAddress(address string) (entities.Wallet, bool) {
	if i, ok := s.indexByAddress(strings.TrimSpace(address)); ok {
		return s.wallets[i], true
	}
	return entities.Wallet{}, false
}

// List returns a copy of all wallets in insertion order
func (s *WalletStore) List() []entities.Wallet {
	out := make([]entities.Wallet, len(s.wallets))
	copy(out, s.wallets)
	return out
}

// Len returns the number of wallets
func (s *WalletStore) Len() int {
	return len(s.wallets)
}

// TotalUSD sums the USD value of all wallets
func (s *WalletStore) TotalUSD() decimal.Decimal {
	total := decimal.Zero
	for _, w := range s.wallets {
		total = total.Add(w.USDValue)
	}
	return total
}

func (s *WalletStore) countAsset(asset entities.AssetType) int {
	n := 0
	for _, w := range s.wallets {
		if w.AssetType == asset {
			n++
		}
	}
	return n
}

func (s *WalletStore) indexByID(id uuid.UUID) (int, bool) {
	for i, w := range s.wallets {
		if w.ID == id {
			return i, true
		}
	}
	return -1, false
}

func (s *WalletStore) indexByAddress(address string) (int, bool) {
	if address == "" {
		return -1, false
	}
	for i, w := range s.wallets {
		if w.Address == address {
			return i, true
		}
	}
	return -1, false
}
