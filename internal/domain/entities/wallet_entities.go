package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssetType is the ticker of a supported crypto asset
type AssetType string

const (
	AssetBTC  AssetType = "BTC"
	AssetETH  AssetType = "ETH"
	AssetTRX  AssetType = "TRX"
	AssetUSDT AssetType = "USDT"
)

// SupportedAssets returns every asset the ledger can hold
func SupportedAssets() []AssetType {
	return []AssetType{AssetBTC, AssetETH, AssetTRX, AssetUSDT}
}

// IsValid checks if the asset is supported
func (a AssetType) IsValid() bool {
	for _, s := range SupportedAssets() {
		if a == s {
			return true
		}
	}
	return false
}

func (a AssetType) String() string {
	return string(a)
}

// ParseAssetType normalizes a ticker, accepting any case
func ParseAssetType(s string) (AssetType, error) {
	asset := AssetType(strings.ToUpper(strings.TrimSpace(s)))
	if !asset.IsValid() {
		return "", fmt.Errorf("unsupported asset type: %s", s)
	}
	return asset, nil
}

// Wallet is one address holding a single asset
type Wallet struct {
	ID        uuid.UUID       `json:"id"`
	AssetType AssetType       `json:"type"`
	Name      string          `json:"name"`
	Address   string          `json:"address"`
	Balance   decimal.Decimal `json:"balance"`
	USDValue  decimal.Decimal `json:"usdValue"`
	Imported  bool            `json:"imported"`
	CreatedAt time.Time       `json:"createdAt"`
}

// PriceTable maps each asset to its USD price
type PriceTable map[AssetType]decimal.Decimal

// Price returns the USD price of asset, or zero when it is not quoted
func (p PriceTable) Price(asset AssetType) decimal.Decimal {
	if price, ok := p[asset]; ok {
		return price
	}
	return decimal.Zero
}

// Has reports whether asset has a positive quote
func (p PriceTable) Has(asset AssetType) bool {
	price, ok := p[asset]
	return ok && price.IsPositive()
}

// Clone returns an independent copy
func (p PriceTable) Clone() PriceTable {
	out := make(PriceTable, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// WalletSnapshot is the persisted form of a wallet, keyed by owner and wallet id
type WalletSnapshot struct {
	UserID    string          `json:"userId" db:"user_id"`
	WalletID  uuid.UUID       `json:"walletId" db:"wallet_id"`
	AssetType AssetType       `json:"type" db:"asset_type"`
	Name      string          `json:"name" db:"name"`
	Address   string          `json:"address" db:"address"`
	Balance   decimal.Decimal `json:"balance" db:"balance"`
	Imported  bool            `json:"imported" db:"imported"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time       `json:"updatedAt" db:"updated_at"`
}

// SnapshotOf captures the persistent fields of w for userID
func SnapshotOf(userID string, w Wallet, at time.Time) WalletSnapshot {
	return WalletSnapshot{
		UserID:    userID,
		WalletID:  w.ID,
		AssetType: w.AssetType,
		Name:      w.Name,
		Address:   w.Address,
		Balance:   w.Balance,
		Imported:  w.Imported,
		CreatedAt: w.CreatedAt,
		UpdatedAt: at,
	}
}

// Wallet rebuilds a wallet from the snapshot. USD value is left for revaluation.
func (s WalletSnapshot) Wallet() Wallet {
	createdAt := s.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.UpdatedAt
	}
	return Wallet{
		ID:        s.WalletID,
		AssetType: s.AssetType,
		Name:      s.Name,
		Address:   s.Address,
		Balance:   s.Balance,
		USDValue:  decimal.Zero,
		Imported:  s.Imported,
		CreatedAt: createdAt,
	}
}
