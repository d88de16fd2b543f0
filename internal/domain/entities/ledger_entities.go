package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionKind identifies the operation that produced a transaction
type TransactionKind string

const (
	TransactionKindDeposit    TransactionKind = "deposit"
	TransactionKindWithdrawal TransactionKind = "withdrawal"
	TransactionKindSwap       TransactionKind = "swap"
	TransactionKindBuy        TransactionKind = "buy"
	TransactionKindTransfer   TransactionKind = "transfer"
)

// TransactionStatus is the lifecycle state of a transaction
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// IsValid checks if the status is known
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusFailed
}

// CanTransitionTo reports whether moving to next is allowed.
// Only pending transactions move, and only to completed or failed.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	return s == TransactionStatusPending && next.IsTerminal()
}

// Transaction is an immutable record of a balance-affecting event.
// Only Status changes after the record is logged.
type Transaction struct {
	ID                 uuid.UUID         `json:"id"`
	Sequence           uint64            `json:"sequence"`
	Kind               TransactionKind   `json:"type"`
	Status             TransactionStatus `json:"status"`
	Amount             decimal.Decimal   `json:"amount"`
	AssetType          AssetType         `json:"cryptocurrency"`
	FromAsset          AssetType         `json:"fromCurrency,omitempty"`
	ToAsset            AssetType         `json:"toCurrency,omitempty"`
	ToAmount           *decimal.Decimal  `json:"toAmount,omitempty"`
	SourceAddress      string            `json:"fromAddress,omitempty"`
	DestinationAddress string            `json:"address,omitempty"`
	ReferenceCode      string            `json:"referenceCode,omitempty"`
	Timestamp          time.Time         `json:"timestamp"`
}

// BankDetails is the fixed deposit target generated once per session
type BankDetails struct {
	BankName      string `json:"bankName"`
	AccountNumber string `json:"accountNumber"`
	RoutingNumber string `json:"routingNumber"`
	ReferenceCode string `json:"referenceCode"`
}

// NotificationVariant selects how a notification is presented
type NotificationVariant string

const (
	NotificationDefault     NotificationVariant = "default"
	NotificationDestructive NotificationVariant = "destructive"
)

// Notification is the user-facing outcome of an operation
type Notification struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Variant     NotificationVariant `json:"variant"`
}

// Operation names a ledger operation
type Operation string

const (
	OperationDeposit      Operation = "deposit"
	OperationWithdraw     Operation = "withdraw"
	OperationTransfer     Operation = "transfer"
	OperationSwap         Operation = "swap"
	OperationBuy          Operation = "buy"
	OperationCreateWallet Operation = "create_wallet"
	OperationImportWallet Operation = "import_wallet"
	OperationImportKey    Operation = "import_wallet_key"
	OperationSyncWallets  Operation = "sync_wallets"
	OperationRefresh      Operation = "refresh"
	OperationSettle       Operation = "settle_transaction"
)

// OperationResult identifies the completion of one submitted operation
type OperationResult struct {
	RequestID    uuid.UUID     `json:"requestId"`
	Operation    Operation     `json:"operation"`
	Transaction  *Transaction  `json:"transaction,omitempty"`
	Wallet       *Wallet       `json:"wallet,omitempty"`
	Wallets      []Wallet      `json:"wallets,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
	CompletedAt  time.Time     `json:"completedAt"`
}
