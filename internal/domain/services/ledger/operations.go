package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/highgoal215/cryptowallet_service/internal/domain/entities"
	domainerrors "github.com/highgoal215/cryptowallet_service/internal/domain/errors"
)

// swapPrecision is the number of decimals kept on a swap's credited amount
const swapPrecision = 8

// Handlers below run on the queue goroutine, the only writer of session
// state, so they read without locking and take the write lock to mutate.

// Deposit records a pending bank deposit in USDT tagged with the session
// reference code. No balance changes until the funds arrive.
func (s *Session) Deposit(ctx context.Context, amount decimal.Decimal) (*entities.OperationResult, error) {
	return s.execute(ctx, entities.OperationDeposit, func(ctx context.Context) (*entities.OperationResult, error) {
		if !amount.IsPositive() {
			return nil, domainerrors.InvalidAmountError(amount)
		}

		s.mu.Lock()
		tx := s.txlog.Record(entities.Transaction{
			Kind:          entities.TransactionKindDeposit,
			Status:        entities.TransactionStatusPending,
			Amount:        amount,
			AssetType:     entities.AssetUSDT,
			ReferenceCode: s.bank.ReferenceCode,
			Timestamp:     s.clock(),
		})
		s.wallets.Revalue(s.prices)
		s.mu.Unlock()

		return &entities.OperationResult{
			Transaction: &tx,
			Notification: success(TitleDepositInitiated, s.printer.Sprintf(
				"Your deposit of %s has been initiated. Include reference code %s with your bank transfer.",
				formatUSD(s.printer, amount), s.bank.ReferenceCode)),
		}, nil
	})
}

// Withdraw debits the first wallet of asset and logs a pending withdrawal to address
func (s *Session) Withdraw(ctx context.Context, asset entities.AssetType, amount decimal.Decimal, address string) (*entities.OperationResult, error) {
	return s.execute(ctx, entities.OperationWithdraw, func(ctx context.Context) (*entities.OperationResult, error) {
		if !amount.IsPositive() {
			return nil, domainerrors.InvalidAmountError(amount)
		}
		wallet, ok := s.wallets.ByAsset(asset)
		if !ok {
			return nil, domainerrors.WalletNotFoundError(string(asset))
		}
		if wallet.Balance.LessThan(amount) {
			return nil, domainerrors.InsufficientBalanceError(wallet.Balance, amount)
		}
		address = strings.TrimSpace(address)
		if address == "" {
			return nil, domainerrors.MissingAddressError("address")
		}

		s.mu.Lock()
		updated, err := s.wallets.Debit(wallet.ID, amount)
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		tx := s.txlog.Record(entities.Transaction{
			Kind:               entities.TransactionKindWithdrawal,
			Status:             entities.TransactionStatusPending,
			Amount:             amount,
			AssetType:          asset,
			SourceAddress:      wallet.Address,
			DestinationAddress: address,
			Timestamp:          s.clock(),
		})
		s.wallets.Revalue(s.prices)
		updated, _ = s.wallets.ByID(updated.ID)
		s.mu.Unlock()

		s.persist(ctx, updated)

		return &entities.OperationResult{
			Transaction: &tx,
			Wallet:      &updated,
			Notification: success(TitleWithdrawalInitiated,
				fmt.Sprintf("Withdrawal of %s %s to %s has been initiated.", amount.String(), asset, address)),
		}, nil
	})
}

// Transfer moves amount between two session wallets holding the same asset.
// When a wallet backend is configured it is told first; a remote failure
// aborts the transfer with nothing changed.
func (s *Session) Transfer(ctx context.Context, fromAddress, toAddress string, amount decimal.Decimal) (*entities.OperationResult, error) {
	return s.execute(ctx, entities.OperationTransfer, func(ctx context.Context) (*entities.OperationResult, error) {
		if !amount.IsPositive() {
			return nil, domainerrors.InvalidAmountError(amount)
		}
		fromAddress = strings.TrimSpace(fromAddress)
		toAddress = strings.TrimSpace(toAddress)
		if fromAddress == "" {
			return nil, domainerrors.MissingAddressError("fromAddress")
		}
		if toAddress == "" {
			return nil, domainerrors.MissingAddressError("toAddress")
		}
		if fromAddress == toAddress {
			return nil, domainerrors.SameWalletError(fromAddress)
		}

		from, ok := s.wallets.ByAddress(fromAddress)
		if !ok {
			return nil, domainerrors.WalletNotFoundError(fromAddress)
		}
		to, ok := s.wallets.ByAddress(toAddress)
		if !ok {
			return nil, domainerrors.WalletNotFoundError(toAddress)
		}
		if from.AssetType != to.AssetType {
			return nil, domainerrors.AssetMismatchError(string(from.AssetType), string(to.AssetType))
		}
		if from.Balance.LessThan(amount) {
			return nil, domainerrors.InsufficientBalanceError(from.Balance, amount)
		}

		if s.backend != nil {
			if err := s.backend.Transfer(ctx, from.AssetType, fromAddress, toAddress, amount); err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				return nil, domainerrors.RemoteCallError("transfer", err)
			}
		}

		s.mu.Lock()
		if _, err := s.wallets.Debit(from.ID, amount); err != nil {
			s.mu.Unlock()
			return nil, err
		}
		if _, err := s.wallets.Credit(to.ID, amount); err != nil {
			s.mu.Unlock()
			return nil, err
		}
		tx := s.txlog.Record(entities.Transaction{
			Kind:               entities.TransactionKindTransfer,
			Status:             entities.TransactionStatusCompleted,
			Amount:             amount,
			AssetType:          from.AssetType,
			SourceAddress:      fromAddress,
			DestinationAddress: toAddress,
			Timestamp:          s.clock(),
		})
		s.wallets.Revalue(s.prices)
		from, _ = s.wallets.ByID(from.ID)
		to, _ = s.wallets.ByID(to.ID)
		s.mu.Unlock()

		s.persist(ctx, from, to)

		return &entities.OperationResult{
			Transaction: &tx,
			Wallets:     []entities.Wallet{from, to},
			Notification: success(TitleTransferCompleted,
				fmt.Sprintf("Sent %s %s from %s to %s.", amount.String(), from.AssetType, fromAddress, toAddress)),
		}, nil
	})
}

// Swap converts amount of fromAsset into toAsset at the current feed prices
func (s *Session) Swap(ctx context.Context, fromAsset, toAsset entities.AssetType, amount decimal.Decimal) (*entities.OperationResult, error) {
	return s.execute(ctx, entities.OperationSwap, func(ctx context.Context) (*entities.OperationResult, error) {
		if !amount.IsPositive() {
			return nil, domainerrors.InvalidAmountError(amount)
		}
		if !fromAsset.IsValid() {
			return nil, domainerrors.UnsupportedAssetError(string(fromAsset))
		}
		if !toAsset.IsValid() {
			return nil, domainerrors.UnsupportedAssetError(string(toAsset))
		}
		if fromAsset == toAsset {
			return nil, domainerrors.ValidationError("toCurrency", "Cannot swap an asset into itself")
		}

		from, ok := s.wallets.ByAsset(fromAsset)
		if !ok {
			return nil, domainerrors.WalletNotFoundError(string(fromAsset))
		}
		to, ok := s.wallets.ByAsset(toAsset)
		if !ok {
			return nil, domainerrors.WalletNotFoundError(string(toAsset))
		}
		if from.Balance.LessThan(amount) {
			return nil, domainerrors.InsufficientBalanceError(from.Balance, amount)
		}

		prices, err := s.currentPrices(ctx)
		if err != nil {
			return nil, err
		}
		for _, asset := range []entities.AssetType{fromAsset, toAsset} {
			if !prices.Has(asset) {
				return nil, domainerrors.RemoteCallError("price lookup", fmt.Errorf("no quote for %s", asset))
			}
		}
		toAmount := amount.Mul(prices.Price(fromAsset)).Div(prices.Price(toAsset)).Round(swapPrecision)

		s.mu.Lock()
		if _, err := s.wallets.Debit(from.ID, amount); err != nil {
			s.mu.Unlock()
			return nil, err
		}
		if _, err := s.wallets.Credit(to.ID, toAmount); err != nil {
			s.mu.Unlock()
			return nil, err
		}
		tx := s.txlog.Record(entities.Transaction{
			Kind:      entities.TransactionKindSwap,
			Status:    entities.TransactionStatusCompleted,
			Amount:    amount,
			AssetType: fromAsset,
			FromAsset: fromAsset,
			ToAsset:   toAsset,
			ToAmount:  &toAmount,
			Timestamp: s.clock(),
		})
		s.prices = prices
		s.wallets.Revalue(s.prices)
		from, _ = s.wallets.ByID(from.ID)
		to, _ = s.wallets.ByID(to.ID)
		s.mu.Unlock()

		s.persist(ctx, from, to)

		return &entities.OperationResult{
			Transaction: &tx,
			Wallets:     []entities.Wallet{from, to},
			Notification: success(TitleSwapCompleted,
				fmt.Sprintf("Swapped %s %s for %s %s.", amount.String(), fromAsset, toAmount.String(), toAsset)),
		}, nil
	})
}

// Buy credits the first wallet of asset with purchased crypto
func (s *Session) Buy(ctx context.Context, asset entities.AssetType, amount decimal.Decimal) (*entities.OperationResult, error) {
	return s.execute(ctx, entities.OperationBuy, func(ctx context.Context) (*entities.OperationResult, error) {
		if !amount.IsPositive() {
			return nil, domainerrors.InvalidAmountError(amount)
		}
		wallet, ok := s.wallets.ByAsset(asset)
		if !ok {
			return nil, domainerrors.WalletNotFoundError(string(asset))
		}

		s.mu.Lock()
		if _, err := s.wallets.Credit(wallet.ID, amount); err != nil {
			s.mu.Unlock()
			return nil, err
		}
		tx := s.txlog.Record(entities.Transaction{
			Kind:               entities.TransactionKindBuy,
			Status:             entities.TransactionStatusCompleted,
			Amount:             amount,
			AssetType:          asset,
			DestinationAddress: wallet.Address,
			Timestamp:          s.clock(),
		})
		s.wallets.Revalue(s.prices)
		wallet, _ = s.wallets.ByID(wallet.ID)
		s.mu.Unlock()

		s.persist(ctx, wallet)

		return &entities.OperationResult{
			Transaction: &tx,
			Wallet:      &wallet,
			Notification: success(TitlePurchaseCompleted,
				fmt.Sprintf("You bought %s %s.", amount.String(), asset)),
		}, nil
	})
}

// CreateWallet adds a wallet. Without an explicit address the wallet backend
// provisions one when configured; otherwise a mock address is generated.
func (s *Session) CreateWallet(ctx context.Context, asset entities.AssetType, name, address string, initialBalance decimal.Decimal) (*entities.OperationResult, error) {
	return s.execute(ctx, entities.OperationCreateWallet, func(ctx context.Context) (*entities.OperationResult, error) {
		if !asset.IsValid() {
			return nil, domainerrors.UnsupportedAssetError(string(asset))
		}
		if initialBalance.IsNegative() {
			return nil, domainerrors.ValidationError("initialBalance", "Initial balance cannot be negative")
		}

		address = strings.TrimSpace(address)
		if address == "" && s.backend != nil {
			remote, err := s.backend.CreateWallet(ctx, asset, name)
			if err != nil {
				return nil, domainerrors.RemoteCallError("wallet creation", err)
			}
			address = remote.Address
			if initialBalance.IsZero() {
				initialBalance = remote.Balance
			}
		}

		s.mu.Lock()
		wallet, err := s.wallets.Create(asset, name, address, initialBalance)
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		s.wallets.Revalue(s.prices)
		wallet, _ = s.wallets.ByID(wallet.ID)
		s.mu.Unlock()

		s.persist(ctx, wallet)

		return &entities.OperationResult{
			Wallet: &wallet,
			Notification: success(TitleWalletCreated,
				fmt.Sprintf("%s has been created.", wallet.Name)),
		}, nil
	})
}

// ImportWallet adds an existing address to the session
func (s *Session) ImportWallet(ctx context.Context, address, name string, asset entities.AssetType, balance decimal.Decimal) (*entities.OperationResult, error) {
	return s.execute(ctx, entities.OperationImportWallet, func(ctx context.Context) (*entities.OperationResult, error) {
		return s.importWallet(ctx, address, name, asset, balance)
	})
}

// ImportWalletFromKey asks the wallet backend to derive a wallet from privateKey and imports it
func (s *Session) ImportWalletFromKey(ctx context.Context, privateKey, name string, asset entities.AssetType) (*entities.OperationResult, error) {
	return s.execute(ctx, entities.OperationImportKey, func(ctx context.Context) (*entities.OperationResult, error) {
		if strings.TrimSpace(privateKey) == "" {
			return nil, domainerrors.ValidationError("privateKey", "Private key is required")
		}
		if !asset.IsValid() {
			return nil, domainerrors.UnsupportedAssetError(string(asset))
		}
		if s.backend == nil {
			return nil, domainerrors.RemoteCallError("wallet import", fmt.Errorf("wallet backend is not configured"))
		}

		remote, err := s.backend.ImportWallet(ctx, privateKey, name, asset)
		if err != nil {
			return nil, domainerrors.RemoteCallError("wallet import", err)
		}
		if remote.Name != "" && name == "" {
			name = remote.Name
		}
		return s.importWallet(ctx, remote.Address, name, asset, remote.Balance)
	})
}

func (s *Session) importWallet(ctx context.Context, address, name string, asset entities.AssetType, balance decimal.Decimal) (*entities.OperationResult, error) {
	s.mu.Lock()
	wallet, err := s.wallets.Import(address, name, asset, balance)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.wallets.Revalue(s.prices)
	wallet, _ = s.wallets.ByID(wallet.ID)
	s.mu.Unlock()

	s.persist(ctx, wallet)

	return &entities.OperationResult{
		Wallet: &wallet,
		Notification: success(TitleWalletImported,
			fmt.Sprintf("%s has been imported.", wallet.Name)),
	}, nil
}

// SyncWallets appends every backend wallet whose address the session does not know yet
func (s *Session) SyncWallets(ctx context.Context) (*entities.OperationResult, error) {
	return s.execute(ctx, entities.OperationSyncWallets, func(ctx context.Context) (*entities.OperationResult, error) {
		if s.backend == nil {
			return nil, domainerrors.RemoteCallError("wallet sync", fmt.Errorf("wallet backend is not configured"))
		}
		remote, err := s.backend.ListWallets(ctx)
		if err != nil {
			return nil, domainerrors.RemoteCallError("wallet sync", err)
		}

		var added []entities.Wallet
		s.mu.Lock()
		for _, rw := range remote {
			if !rw.AssetType.IsValid() {
				s.logger.Warn("Skipping remote wallet with unsupported asset",
					"address", rw.Address,
					"asset", rw.AssetType)
				continue
			}
			if _, known := s.wallets.ByAddress(rw.Address); known {
				continue
			}
			w, err := s.wallets.Import(rw.Address, rw.Name, rw.AssetType, rw.Balance)
			if err != nil {
				s.logger.Warn("Skipping remote wallet", "address", rw.Address, "error", err)
				continue
			}
			added = append(added, w)
		}
		s.wallets.Revalue(s.prices)
		for i := range added {
			added[i], _ = s.wallets.ByID(added[i].ID)
		}
		s.mu.Unlock()

		s.persist(ctx, added...)

		return &entities.OperationResult{
			Wallets: added,
			Notification: success(TitleWalletsSynced,
				fmt.Sprintf("%d new wallet(s) added.", len(added))),
		}, nil
	})
}

// Refresh pulls fresh prices from the feed and revalues every wallet
func (s *Session) Refresh(ctx context.Context) (*entities.OperationResult, error) {
	return s.execute(ctx, entities.OperationRefresh, func(ctx context.Context) (*entities.OperationResult, error) {
		prices, err := s.currentPrices(ctx)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.prices = prices
		s.wallets.Revalue(s.prices)
		wallets := s.wallets.List()
		s.mu.Unlock()

		return &entities.OperationResult{Wallets: wallets}, nil
	})
}

// SettleTransaction moves a pending transaction to completed or failed
func (s *Session) SettleTransaction(ctx context.Context, id uuid.UUID, status entities.TransactionStatus) (*entities.OperationResult, error) {
	return s.execute(ctx, entities.OperationSettle, func(ctx context.Context) (*entities.OperationResult, error) {
		if !status.IsTerminal() {
			return nil, domainerrors.ValidationError("status", "Status must be completed or failed")
		}

		s.mu.Lock()
		tx, err := s.txlog.Transition(id, status)
		s.mu.Unlock()
		if err != nil {
			return nil, err
		}

		return &entities.OperationResult{
			Transaction: &tx,
			Notification: success(TitleTransactionUpdated,
				fmt.Sprintf("Transaction %s is now %s.", tx.ID, tx.Status)),
		}, nil
	})
}

func (s *Session) currentPrices(ctx context.Context) (entities.PriceTable, error) {
	if s.feed == nil {
		return s.prices.Clone(), nil
	}
	prices, err := s.feed.Prices(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, domainerrors.RemoteCallError("price lookup", err)
	}
	return prices, nil
}
