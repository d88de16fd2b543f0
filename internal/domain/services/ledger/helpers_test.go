package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/highgoal215/cryptowallet_service/internal/domain/entities"
	"github.com/highgoal215/cryptowallet_service/internal/domain/services/pricing"
)

var testPrices = entities.PriceTable{
	entities.AssetBTC:  decimal.NewFromInt(55000),
	entities.AssetETH:  decimal.NewFromInt(3000),
	entities.AssetTRX:  decimal.NewFromInt(1),
	entities.AssetUSDT: decimal.NewFromInt(1),
}

var testBank = entities.BankDetails{
	BankName:      PartnerBankName,
	AccountNumber: "0123456789",
	RoutingNumber: PartnerRoutingNumber,
	ReferenceCode: "FLX-ABC123",
}

// tickingClock advances one second per reading so ordering is observable
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTickingClock() *tickingClock {
	return &tickingClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type recordingNotifier struct {
	mu    sync.Mutex
	notes []entities.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, _ string, n entities.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recordingNotifier) last() entities.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notes) == 0 {
		return entities.Notification{}
	}
	return r.notes[len(r.notes)-1]
}

// memorySnapshots is a SnapshotStore keyed by user and wallet
type memorySnapshots struct {
	mu    sync.Mutex
	saved []entities.WalletSnapshot
	err   error
}

func (m *memorySnapshots) Save(_ context.Context, snap entities.WalletSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	for i := range m.saved {
		if m.saved[i].UserID == snap.UserID && m.saved[i].WalletID == snap.WalletID {
			m.saved[i] = snap
			return nil
		}
	}
	m.saved = append(m.saved, snap)
	return nil
}

func (m *memorySnapshots) List(_ context.Context, userID string) ([]entities.WalletSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entities.WalletSnapshot
	for _, s := range m.saved {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

type MockWalletBackend struct {
	mock.Mock
}

func (m *MockWalletBackend) CreateWallet(ctx context.Context, asset entities.AssetType, name string) (*entities.RemoteWallet, error) {
	args := m.Called(ctx, asset, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RemoteWallet), args.Error(1)
}

func (m *MockWalletBackend) ImportWallet(ctx context.Context, privateKey, name string, asset entities.AssetType) (*entities.RemoteWallet, error) {
	args := m.Called(ctx, privateKey, name, asset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RemoteWallet), args.Error(1)
}

func (m *MockWalletBackend) ListWallets(ctx context.Context) ([]entities.RemoteWallet, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.RemoteWallet), args.Error(1)
}

func (m *MockWalletBackend) Transfer(ctx context.Context, asset entities.AssetType, fromAddress, toAddress string, amount decimal.Decimal) error {
	args := m.Called(ctx, asset, fromAddress, toAddress, amount)
	return args.Error(0)
}

type sessionFixture struct {
	session   *Session
	notifier  *recordingNotifier
	snapshots *memorySnapshots
}

type fixtureOption func(*Config, *Dependencies)

func withBackend(b WalletBackend) fixtureOption {
	return func(_ *Config, d *Dependencies) { d.Backend = b }
}

func withFeed(f PriceSource) fixtureOption {
	return func(_ *Config, d *Dependencies) { d.Prices = f }
}

func withConfig(fn func(*Config)) fixtureOption {
	return func(c *Config, _ *Dependencies) { fn(c) }
}

func newFixture(t *testing.T, opts ...fixtureOption) *sessionFixture {
	t.Helper()

	notifier := &recordingNotifier{}
	snaps := &memorySnapshots{}
	cfg := Config{OperationTimeout: 2 * time.Second, QueueSize: 16}
	deps := Dependencies{
		Prices:    pricing.NewStaticFeed(testPrices),
		Snapshots: snaps,
		Notifier:  notifier,
		Addresses: NewRandomAddressGenerator(42),
		Clock:     newTickingClock().Now,
	}
	for _, opt := range opts {
		opt(&cfg, &deps)
	}

	s := NewSession("session-1", entities.Identity{ID: "user-1", Email: "ada@example.com", Username: "ada"}, testBank, testPrices, cfg, deps)
	t.Cleanup(s.Close)
	return &sessionFixture{session: s, notifier: notifier, snapshots: snaps}
}

func (f *sessionFixture) createWallet(t *testing.T, asset entities.AssetType, balance string) entities.Wallet {
	t.Helper()
	res, err := f.session.CreateWallet(context.Background(), asset, "", "", decimal.RequireFromString(balance))
	require.NoError(t, err)
	require.NotNil(t, res.Wallet)
	return *res.Wallet
}

func (f *sessionFixture) wallet(t *testing.T, id uuid.UUID) entities.Wallet {
	t.Helper()
	for _, w := range f.session.Wallets() {
		if w.ID == id {
			return w
		}
	}
	t.Fatalf("wallet %s not found", id)
	return entities.Wallet{}
}

func (f *sessionFixture) createWalletAt(t *testing.T, asset entities.AssetType, address, balance string) entities.Wallet {
	t.Helper()
	res, err := f.session.CreateWallet(context.Background(), asset, "", address, decimal.RequireFromString(balance))
	require.NoError(t, err)
	return *res.Wallet
}
