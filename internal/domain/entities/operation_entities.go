package entities

import "github.com/shopspring/decimal"

// CreateWalletRequest represents a request to add a wallet to the session
type CreateWalletRequest struct {
	AssetType      string          `json:"type" validate:"required"`
	Name           string          `json:"name" validate:"max=64"`
	Address        string          `json:"address" validate:"max=128"`
	InitialBalance decimal.Decimal `json:"initialBalance"`
}

// ImportWalletRequest imports an existing address
type ImportWalletRequest struct {
	Address   string          `json:"address" validate:"required,max=128"`
	Name      string          `json:"name" validate:"max=64"`
	AssetType string          `json:"type" validate:"required"`
	Balance   decimal.Decimal `json:"balance"`
}

// ImportKeyRequest imports a wallet through the wallet backend
type ImportKeyRequest struct {
	PrivateKey string `json:"privateKey" validate:"required"`
	Name       string `json:"name" validate:"max=64"`
	AssetType  string `json:"type" validate:"required"`
}

// DepositRequest initiates a bank deposit
type DepositRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// WithdrawRequest sends funds to an external address
type WithdrawRequest struct {
	AssetType string          `json:"type" validate:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Address   string          `json:"address"`
}

// TransferRequest moves funds between two session wallets
type TransferRequest struct {
	FromAddress string          `json:"fromAddress"`
	ToAddress   string          `json:"toAddress"`
	Amount      decimal.Decimal `json:"amount"`
}

// SwapRequest converts one asset into another
type SwapRequest struct {
	FromAsset string          `json:"fromCurrency" validate:"required"`
	ToAsset   string          `json:"toCurrency" validate:"required"`
	Amount    decimal.Decimal `json:"amount"`
}

// BuyRequest credits a wallet with purchased crypto
type BuyRequest struct {
	AssetType string          `json:"type" validate:"required"`
	Amount    decimal.Decimal `json:"amount"`
}

// SettleTransactionRequest moves a pending transaction to a final status
type SettleTransactionRequest struct {
	Status string `json:"status" validate:"required,oneof=completed failed"`
}

// WalletsResponse lists the session wallets with their combined value
type WalletsResponse struct {
	Wallets         []Wallet        `json:"wallets"`
	TotalBalanceUSD decimal.Decimal `json:"totalBalanceUSD"`
	Pending         int             `json:"pending"`
}

// TransactionsResponse lists the session transaction log
type TransactionsResponse struct {
	Transactions []Transaction `json:"transactions"`
	Count        int           `json:"count"`
}

// RemoteWallet is a wallet as reported by the wallet backend
type RemoteWallet struct {
	Address   string
	Name      string
	AssetType AssetType
	Balance   decimal.Decimal
}
