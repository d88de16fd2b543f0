// Package ledger implements the per-user wallet ledger: the wallet store, the
// transaction log and the operation handlers that mutate them.
//
// Every mutating operation of a Session runs on a single command queue, so
// operations apply strictly in submission order and a failing operation leaves
// no trace other than its failure notification.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/highgoal215/cryptowallet_service/internal/domain/entities"
	domainerrors "github.com/highgoal215/cryptowallet_service/internal/domain/errors"
	"github.com/highgoal215/cryptowallet_service/pkg/logger"
	"github.com/highgoal215/cryptowallet_service/pkg/metrics"
)

const persistTimeout = 5 * time.Second

// PriceSource supplies USD prices for every supported asset
type PriceSource interface {
	Prices(ctx context.Context) (entities.PriceTable, error)
}

// WalletBackend is the optional remote wallet service
type WalletBackend interface {
	CreateWallet(ctx context.Context, asset entities.AssetType, name string) (*entities.RemoteWallet, error)
	ImportWallet(ctx context.Context, privateKey, name string, asset entities.AssetType) (*entities.RemoteWallet, error)
	ListWallets(ctx context.Context) ([]entities.RemoteWallet, error)
	Transfer(ctx context.Context, asset entities.AssetType, fromAddress, toAddress string, amount decimal.Decimal) error
}

// SnapshotStore persists wallets between sessions of the same user
type SnapshotStore interface {
	Save(ctx context.Context, snapshot entities.WalletSnapshot) error
	List(ctx context.Context, userID string) ([]entities.WalletSnapshot, error)
}

// Notifier receives the user-facing outcome of every operation
type Notifier interface {
	Notify(ctx context.Context, userID string, n entities.Notification)
}

// Config tunes a session
type Config struct {
	SimulatedLatency time.Duration
	OperationTimeout time.Duration
	QueueSize        int
}

// Dependencies are the collaborators of a session. Backend and Snapshots may be nil.
type Dependencies struct {
	Prices    PriceSource
	Backend   WalletBackend
	Snapshots SnapshotStore
	Notifier  Notifier
	Addresses AddressGenerator
	Clock     Clock
	Logger    *logger.Logger
	Tracer    trace.Tracer
}

// Session owns the ledger state of one logged-in user
type Session struct {
	id   string
	user entities.Identity
	cfg  Config

	mu      sync.RWMutex
	wallets *WalletStore
	txlog   *TransactionLog
	bank    entities.BankDetails
	prices  entities.PriceTable

	queue *commandQueue

	feed      PriceSource
	backend   WalletBackend
	snapshots SnapshotStore
	notifier  Notifier
	clock     Clock
	logger    *logger.Logger
	tracer    trace.Tracer
	printer   *message.Printer
}

// NewSession creates the ledger of one user and starts its command queue.
// bank is fixed for the lifetime of the session; prices seed the initial valuation.
func NewSession(id string, user entities.Identity, bank entities.BankDetails, prices entities.PriceTable, cfg Config, deps Dependencies) *Session {
	if deps.Clock == nil {
		deps.Clock = SystemClock
	}
	if deps.Addresses == nil {
		deps.Addresses = NewRandomAddressGenerator(0)
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	if deps.Tracer == nil {
		deps.Tracer = otel.Tracer("ledger")
	}
	if deps.Notifier == nil {
		deps.Notifier = NewLogNotifier(deps.Logger)
	}
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = 10 * time.Second
	}
	if prices == nil {
		prices = entities.PriceTable{}
	}

	return &Session{
		id:        id,
		user:      user,
		cfg:       cfg,
		wallets:   NewWalletStore(deps.Addresses, deps.Clock),
		txlog:     NewTransactionLog(),
		bank:      bank,
		prices:    prices.Clone(),
		queue:     newCommandQueue(cfg.QueueSize),
		feed:      deps.Prices,
		backend:   deps.Backend,
		snapshots: deps.Snapshots,
		notifier:  deps.Notifier,
		clock:     deps.Clock,
		logger:    deps.Logger.With("session_id", id, "user_id", user.ID),
		tracer:    deps.Tracer,
		printer:   message.NewPrinter(language.English),
	}
}

// ID returns the session id
func (s *Session) ID() string { return s.id }

// User returns the identity that owns the session
func (s *Session) User() entities.Identity { return s.user }

// BankDetails returns the deposit target; it never changes during the session
func (s *Session) BankDetails() entities.BankDetails {
	return s.bank
}

// Wallets returns the wallets in insertion order
func (s *Session) Wallets() []entities.Wallet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wallets.List()
}

// Transactions returns the log, newest first
func (s *Session) Transactions() []entities.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.txlog.List()
}

// TotalBalanceUSD sums the USD value of every wallet
func (s *Session) TotalBalanceUSD() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wallets.TotalUSD()
}

// Prices returns the table used for the last revaluation
func (s *Session) Prices() entities.PriceTable {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prices.Clone()
}

// Pending reports operations queued or in flight
func (s *Session) Pending() int {
	return s.queue.Pending()
}

// Close stops the command queue. Queued operations fail with ErrSessionClosed.
func (s *Session) Close() {
	s.queue.close()
}

// Restore re-adds the user's persisted wallets. It runs before the session is
// handed out, so it bypasses the queue.
func (s *Session) Restore(ctx context.Context) (int, error) {
	if s.snapshots == nil {
		return 0, nil
	}
	snaps, err := s.snapshots.List(ctx, s.user.ID)
	if err != nil {
		return 0, fmt.Errorf("list wallet snapshots: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	restored := 0
	for _, snap := range snaps {
		if !snap.AssetType.IsValid() {
			s.logger.Warn("Skipping snapshot with unsupported asset", "wallet_id", snap.WalletID, "asset", snap.AssetType)
			continue
		}
		if s.wallets.Restore(snap.Wallet()) {
			restored++
		}
	}
	s.wallets.Revalue(s.prices)
	return restored, nil
}

// SeedHistory logs mock past activity, oldest first so the newest ends up at the head
func (s *Session) SeedHistory(history []entities.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range history {
		s.txlog.Record(tx)
	}
}

// execute runs one operation through the queue with its timeout, span and metrics
func (s *Session) execute(ctx context.Context, op entities.Operation, fn commandFunc) (*entities.OperationResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.OperationTimeout)
	defer cancel()

	ctx, span := s.tracer.Start(ctx, "ledger."+string(op),
		trace.WithAttributes(
			attribute.String("ledger.session_id", s.id),
			attribute.String("ledger.operation", string(op)),
		))
	defer span.End()

	start := time.Now()
	requestID, result, err := s.queue.submit(ctx, op, func(ctx context.Context) (*entities.OperationResult, error) {
		if err := s.simulateLatency(ctx); err != nil {
			return nil, err
		}
		return fn(ctx)
	})
	metrics.LedgerOperationDuration.WithLabelValues(string(op)).Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.String("ledger.request_id", requestID.String()))

	if err != nil {
		metrics.LedgerOperationsTotal.WithLabelValues(string(op), outcomeOf(err)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Warn("Ledger operation failed",
			"operation", op,
			"request_id", requestID,
			"error", err)
		s.notify(ctx, failureNotification(op, err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.LedgerOperationsTotal.WithLabelValues(string(op), "success").Inc()
	result.CompletedAt = s.clock()
	if result.Notification != nil {
		s.notify(ctx, *result.Notification)
	}
	s.logger.Info("Ledger operation completed",
		"operation", op,
		"request_id", requestID,
		"duration", time.Since(start))
	return result, nil
}

func (s *Session) simulateLatency(ctx context.Context) error {
	if s.cfg.SimulatedLatency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.cfg.SimulatedLatency)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) notify(ctx context.Context, n entities.Notification) {
	s.notifier.Notify(context.WithoutCancel(ctx), s.user.ID, n)
}

// persist writes the snapshots of touched wallets. Failures are logged and do
// not undo the operation.
func (s *Session) persist(ctx context.Context, wallets ...entities.Wallet) {
	if s.snapshots == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	now := s.clock()
	for _, w := range wallets {
		if err := s.snapshots.Save(ctx, entities.SnapshotOf(s.user.ID, w, now)); err != nil {
			s.logger.Warn("Failed to persist wallet snapshot",
				"wallet_id", w.ID,
				"error", err)
		}
	}
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case domainerrors.IsInvalidInput(err):
		return "invalid"
	case domainerrors.IsNotFound(err):
		return "not_found"
	case domainerrors.IsInsufficientBalance(err):
		return "insufficient_balance"
	case domainerrors.IsRemoteCall(err):
		return "remote_error"
	default:
		return "error"
	}
}
