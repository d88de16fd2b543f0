package errors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Ledger-specific errors
var (
	// Validation
	ErrInvalidAmount    = newSentinel("amount must be greater than zero", ErrInvalidInput)
	ErrMissingAddress   = newSentinel("address is required", ErrInvalidInput)
	ErrUnsupportedAsset = newSentinel("unsupported asset type", ErrInvalidInput)
	ErrAssetMismatch    = newSentinel("wallets hold different assets", ErrInvalidInput)
	ErrSameWallet       = newSentinel("source and destination are the same wallet", ErrInvalidInput)

	// Lookup
	ErrWalletNotFound      = newSentinel("wallet not found", ErrNotFound)
	ErrTransactionNotFound = newSentinel("transaction not found", ErrNotFound)
	ErrSessionNotFound     = newSentinel("session not found", ErrNotFound)

	// Balance and state
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidTransition   = newSentinel("invalid status transition", ErrConflict)

	// Session
	ErrSessionRequired = newSentinel("an active session is required", ErrUnauthorized)
	ErrSessionClosed   = errors.New("session is closed")

	// Remote collaborators
	ErrRemoteCall = newSentinel("remote call failed", ErrServiceUnavailable)
)

// InvalidAmountError reports a non-positive amount
func InvalidAmountError(amount decimal.Decimal) *DomainError {
	return &DomainError{
		Err:     ErrInvalidAmount,
		Code:    "INVALID_AMOUNT",
		Message: "Please enter a valid amount",
		Details: map[string]interface{}{
			"amount": amount.String(),
		},
	}
}

// MissingAddressError reports a required address that was left empty
func MissingAddressError(field string) *DomainError {
	return &DomainError{
		Err:     ErrMissingAddress,
		Code:    "MISSING_ADDRESS",
		Message: "Please enter a valid address",
		Details: map[string]interface{}{
			"field": field,
		},
	}
}

// UnsupportedAssetError reports an asset type outside the supported set
func UnsupportedAssetError(asset string) *DomainError {
	return &DomainError{
		Err:     ErrUnsupportedAsset,
		Code:    "UNSUPPORTED_ASSET",
		Message: fmt.Sprintf("asset type %q is not supported", asset),
		Details: map[string]interface{}{
			"asset_type": asset,
		},
	}
}

// AssetMismatchError reports a transfer between wallets of different assets
func AssetMismatchError(from, to string) *DomainError {
	return &DomainError{
		Err:     ErrAssetMismatch,
		Code:    "ASSET_MISMATCH",
		Message: "Source and destination wallets must hold the same asset",
		Details: map[string]interface{}{
			"from_asset": from,
			"to_asset":   to,
		},
	}
}

// SameWalletError reports a transfer whose source and destination coincide
func SameWalletError(address string) *DomainError {
	return &DomainError{
		Err:     ErrSameWallet,
		Code:    "SAME_WALLET",
		Message: "Source and destination addresses must differ",
		Details: map[string]interface{}{
			"address": address,
		},
	}
}

// WalletNotFoundError creates a wallet not found error. selector is the
// asset type, address or id that failed to resolve.
func WalletNotFoundError(selector string) *DomainError {
	return &DomainError{
		Err:     ErrWalletNotFound,
		Code:    "WALLET_NOT_FOUND",
		Message: "wallet not found",
		Details: map[string]interface{}{
			"selector": selector,
		},
	}
}

// TransactionNotFoundError creates a transaction not found error
func TransactionNotFoundError(id string) *DomainError {
	return &DomainError{
		Err:     ErrTransactionNotFound,
		Code:    "TRANSACTION_NOT_FOUND",
		Message: "transaction not found",
		Details: map[string]interface{}{
			"transaction_id": id,
		},
	}
}

// SessionNotFoundError creates a session not found error
func SessionNotFoundError(id string) *DomainError {
	return &DomainError{
		Err:     ErrSessionNotFound,
		Code:    "SESSION_NOT_FOUND",
		Message: "session not found",
		Details: map[string]interface{}{
			"session_id": id,
		},
	}
}

// InsufficientBalanceError creates an insufficient balance error
func InsufficientBalanceError(available, required decimal.Decimal) *DomainError {
	return &DomainError{
		Err:     ErrInsufficientBalance,
		Code:    "INSUFFICIENT_BALANCE",
		Message: "Insufficient balance",
		Details: map[string]interface{}{
			"available": available.String(),
			"required":  required.String(),
		},
	}
}

// InvalidTransitionError reports a disallowed transaction status change
func InvalidTransitionError(from, to string) *DomainError {
	return &DomainError{
		Err:     ErrInvalidTransition,
		Code:    "INVALID_STATUS_TRANSITION",
		Message: fmt.Sprintf("cannot move transaction from %s to %s", from, to),
		Details: map[string]interface{}{
			"from": from,
			"to":   to,
		},
	}
}

// SessionRequiredError is returned when an operation runs without a logged-in user
func SessionRequiredError() *DomainError {
	return &DomainError{
		Err:     ErrSessionRequired,
		Code:    "SESSION_REQUIRED",
		Message: "Please log in to continue",
	}
}

// RemoteCallError wraps a failure from the wallet backend or the price feed
func RemoteCallError(operation string, err error) *DomainError {
	de := &DomainError{
		Err:       ErrRemoteCall,
		Code:      "REMOTE_CALL_FAILED",
		Message:   fmt.Sprintf("%s failed", operation),
		Retryable: true,
		Details: map[string]interface{}{
			"operation": operation,
		},
	}
	if err != nil {
		de.Details["cause"] = err.Error()
	}
	return de
}

// IsInsufficientBalance checks if an error is an insufficient balance error
func IsInsufficientBalance(err error) bool {
	return errors.Is(err, ErrInsufficientBalance)
}

// IsSessionRequired checks if an error means no session was available
func IsSessionRequired(err error) bool {
	return errors.Is(err, ErrSessionRequired)
}

// IsRemoteCall checks if an error came from a remote collaborator
func IsRemoteCall(err error) bool {
	return errors.Is(err, ErrRemoteCall)
}

// ErrDuplicateAddress is returned when a wallet address is already tracked
var ErrDuplicateAddress = newSentinel("wallet address already exists", ErrConflict)

// DuplicateAddressError creates a duplicate address error
func DuplicateAddressError(address string) *DomainError {
	return &DomainError{
		Err:     ErrDuplicateAddress,
		Code:    "WALLET_ALREADY_EXISTS",
		Message: "A wallet with this address already exists",
		Details: map[string]interface{}{
			"address": address,
		},
	}
}
