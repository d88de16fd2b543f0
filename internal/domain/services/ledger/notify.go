package ledger

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"golang.org/x/text/message"

	"github.com/highgoal215/cryptowallet_service/internal/domain/entities"
	domainerrors "github.com/highgoal215/cryptowallet_service/internal/domain/errors"
	"github.com/highgoal215/cryptowallet_service/pkg/logger"
	"github.com/highgoal215/cryptowallet_service/pkg/security"
)

// Notification titles
const (
	TitleDepositInitiated     = "Deposit Initiated"
	TitleDepositFailed        = "Deposit Failed"
	TitleWithdrawalInitiated  = "Withdrawal Initiated"
	TitleWithdrawalFailed     = "Withdrawal Failed"
	TitleTransferCompleted    = "Transfer Completed"
	TitleUpdateFailed         = "Update Failed"
	TitleSwapCompleted        = "Swap Completed"
	TitleSwapFailed           = "Swap Failed"
	TitlePurchaseCompleted    = "Purchase Completed"
	TitlePurchaseFailed       = "Purchase Failed"
	TitleWalletCreated        = "Wallet Created"
	TitleWalletCreationFailed = "Wallet Creation Failed"
	TitleWalletImported       = "Wallet Imported"
	TitleWalletImportFailed   = "Wallet Import Failed"
	TitleWalletsSynced        = "Wallets Synced"
	TitleRefreshFailed        = "Refresh Failed"
	TitleTransactionUpdated   = "Transaction Updated"
)

var failureTitles = map[entities.Operation]string{
	entities.OperationDeposit:      TitleDepositFailed,
	entities.OperationWithdraw:     TitleWithdrawalFailed,
	entities.OperationTransfer:     TitleUpdateFailed,
	entities.OperationSwap:         TitleSwapFailed,
	entities.OperationBuy:          TitlePurchaseFailed,
	entities.OperationCreateWallet: TitleWalletCreationFailed,
	entities.OperationImportWallet: TitleWalletImportFailed,
	entities.OperationImportKey:    TitleWalletImportFailed,
	entities.OperationSyncWallets:  TitleRefreshFailed,
	entities.OperationRefresh:      TitleRefreshFailed,
	entities.OperationSettle:       TitleUpdateFailed,
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context, userID string, n entities.Notification)

// Notify implements Notifier
func (f NotifierFunc) Notify(ctx context.Context, userID string, n entities.Notification) {
	f(ctx, userID, n)
}

// LogNotifier writes notifications to the structured log
type LogNotifier struct {
	logger *logger.Logger
}

// NewLogNotifier creates a notifier backed by log
func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log}
}

// Notify implements Notifier
func (n *LogNotifier) Notify(_ context.Context, userID string, note entities.Notification) {
	description := security.MaskString(note.Description)
	if note.Variant == entities.NotificationDestructive {
		n.logger.Warn(note.Title, "user_id", userID, "description", description)
		return
	}
	n.logger.Info(note.Title, "user_id", userID, "description", description)
}

func success(title, description string) *entities.Notification {
	return &entities.Notification{
		Title:       title,
		Description: description,
		Variant:     entities.NotificationDefault,
	}
}

func failureNotification(op entities.Operation, err error) entities.Notification {
	title, ok := failureTitles[op]
	if !ok {
		title = TitleUpdateFailed
	}
	return entities.Notification{
		Title:       title,
		Description: describeError(err),
		Variant:     entities.NotificationDestructive,
	}
}

func describeError(err error) string {
	var de *domainerrors.DomainError
	switch {
	case errors.As(err, &de):
		return de.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return "The operation timed out. Please try again."
	case errors.Is(err, context.Canceled):
		return "The operation was cancelled."
	case errors.Is(err, domainerrors.ErrSessionClosed):
		return "Your session has ended. Please log in again."
	default:
		return "Something went wrong. Please try again."
	}
}

func formatUSD(p *message.Printer, amount decimal.Decimal) string {
	return p.Sprintf("$%.2f", amount.InexactFloat64())
}
