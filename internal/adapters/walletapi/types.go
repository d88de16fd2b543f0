package walletapi

import "github.com/shopspring/decimal"

// CreateWalletRequest is the body of POST /walletcreate
type CreateWalletRequest struct {
	AddressType string `json:"addressType"`
	AccountName string `json:"accountName"`
}

// ImportWalletRequest is the body of POST /importwallet
type ImportWalletRequest struct {
	PrivateKey  string `json:"privateKey"`
	AccountName string `json:"accountName"`
	AddressType string `json:"addressType"`
}

// TransferRequest is the body of POST /transfer/{addressType}
type TransferRequest struct {
	FromAddress string `json:"fromAddress"`
	ToAddress   string `json:"toAddress"`
	Amount      string `json:"amount"`
}

// Wallet is a wallet as returned by the backend
type Wallet struct {
	Address     string          `json:"address"`
	AccountName string          `json:"accountName"`
	AddressType string          `json:"addressType"`
	Balance     decimal.Decimal `json:"balance"`
}

// WalletResponse is returned by create and import
type WalletResponse struct {
	Success *bool  `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
	Wallet
}

// ListWalletsResponse is returned by GET /wallets
type ListWalletsResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Wallets []Wallet `json:"wallets"`
}

// TransferResponse is returned by POST /transfer/{addressType}
type TransferResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	TxHash  string `json:"txHash,omitempty"`
}
