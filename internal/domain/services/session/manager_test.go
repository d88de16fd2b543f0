package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/highgoal215/cryptowallet_service/internal/domain/entities"
	domainerrors "github.com/highgoal215/cryptowallet_service/internal/domain/errors"
	"github.com/highgoal215/cryptowallet_service/internal/domain/services/ledger"
	"github.com/highgoal215/cryptowallet_service/internal/domain/services/pricing"
	"github.com/highgoal215/cryptowallet_service/pkg/logger"
)

const testSecret = "test-secret-0123456789"

type fixedHistory struct {
	txs []entities.Transaction
}

func (f fixedHistory) Generate(time.Time) []entities.Transaction { return f.txs }

type failingFeed struct{}

func (failingFeed) Prices(context.Context) (entities.PriceTable, error) {
	return nil, errors.New("feed down")
}

func newTestManager(t *testing.T, cfg Config, deps Dependencies) *Manager {
	t.Helper()
	cfg.JWTSecret = testSecret
	cfg.JWTIssuer = "cryptowallet-test"
	if deps.Prices == nil {
		deps.Prices = pricing.NewStaticFeed(pricing.ReferencePrices())
	}
	m := NewManager(cfg, deps, logger.NewNop())
	t.Cleanup(func() { m.Shutdown(context.Background()) })
	return m
}

var ada = entities.Identity{ID: "user-ada", Email: "ada@example.com", Username: "ada"}

func TestManager_LoginAndAuthenticate(t *testing.T) {
	m := newTestManager(t, Config{}, Dependencies{})

	res, err := m.Login(context.Background(), ada)
	require.NoError(t, err)
	require.NotNil(t, res.Token)
	assert.NotEmpty(t, res.Token.Token)
	assert.True(t, res.Token.ExpiresAt.After(time.Now()))

	bank := res.Session.BankDetails()
	assert.Equal(t, ledger.PartnerBankName, bank.BankName)
	assert.Regexp(t, `^FLX-[0-9A-Z]{6}$`, bank.ReferenceCode)

	sess, claims, err := m.Authenticate(res.Token.Token)
	require.NoError(t, err)
	assert.Equal(t, res.Session.ID(), sess.ID())
	assert.Equal(t, ada.ID, claims.UserID)
	assert.Equal(t, ada.Email, claims.Email)

	assert.Len(t, m.Active(), 1)
}

func TestManager_LoginValidation(t *testing.T) {
	m := newTestManager(t, Config{}, Dependencies{})

	_, err := m.Login(context.Background(), entities.Identity{Email: "x@example.com"})
	assert.True(t, domainerrors.IsInvalidInput(err))

	_, err = m.Login(context.Background(), entities.Identity{ID: "u"})
	assert.True(t, domainerrors.IsInvalidInput(err))
}

func TestManager_LoginSurvivesFeedFailure(t *testing.T) {
	m := newTestManager(t, Config{}, Dependencies{Prices: failingFeed{}})

	res, err := m.Login(context.Background(), ada)
	require.NoError(t, err)
	assert.Empty(t, res.Session.Prices())
}

func TestManager_SessionsAreIsolated(t *testing.T) {
	m := newTestManager(t, Config{}, Dependencies{})
	ctx := context.Background()

	first, err := m.Login(ctx, ada)
	require.NoError(t, err)
	second, err := m.Login(ctx, entities.Identity{ID: "user-bob", Email: "bob@example.com"})
	require.NoError(t, err)

	_, err = first.Session.CreateWallet(ctx, entities.AssetBTC, "", "", decimal.NewFromInt(1))
	require.NoError(t, err)

	assert.Len(t, first.Session.Wallets(), 1)
	assert.Empty(t, second.Session.Wallets())
	assert.NotEqual(t, first.Session.BankDetails().ReferenceCode, second.Session.BankDetails().ReferenceCode)
}

func TestManager_Logout(t *testing.T) {
	m := newTestManager(t, Config{}, Dependencies{})
	ctx := context.Background()

	res, err := m.Login(ctx, ada)
	require.NoError(t, err)

	require.NoError(t, m.Logout(ctx, res.Session.ID()))

	_, err = m.Get(res.Session.ID())
	assert.True(t, domainerrors.IsSessionRequired(err))

	_, _, err = m.Authenticate(res.Token.Token)
	assert.True(t, domainerrors.IsUnauthorized(err))

	_, err = res.Session.Deposit(ctx, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, domainerrors.ErrSessionClosed)

	err = m.Logout(ctx, res.Session.ID())
	assert.True(t, domainerrors.IsNotFound(err))
}

func TestManager_AuthenticateRejectsForeignToken(t *testing.T) {
	m := newTestManager(t, Config{}, Dependencies{})

	_, _, err := m.Authenticate("not-a-jwt")
	assert.True(t, domainerrors.IsUnauthorized(err))

	other := NewManager(Config{JWTSecret: "another-secret-value"}, Dependencies{}, logger.NewNop())
	res, err := other.Login(context.Background(), ada)
	require.NoError(t, err)
	defer other.Shutdown(context.Background())

	_, _, err = m.Authenticate(res.Token.Token)
	assert.True(t, domainerrors.IsUnauthorized(err))
}

func TestManager_Register(t *testing.T) {
	m := newTestManager(t, Config{}, Dependencies{})

	res, err := m.Register(context.Background(), "new@example.com", " newbie ")
	require.NoError(t, err)
	user := res.Session.User()
	assert.Regexp(t, `^user-`, user.ID)
	assert.Equal(t, "newbie", user.Username)

	_, err = m.Register(context.Background(), "new@example.com", "")
	assert.True(t, domainerrors.IsInvalidInput(err))
}

func TestManager_SeedsHistory(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	history := fixedHistory{txs: []entities.Transaction{
		{Kind: entities.TransactionKindDeposit, Status: entities.TransactionStatusCompleted, Amount: decimal.NewFromInt(1), Timestamp: now.Add(-2 * time.Hour)},
		{Kind: entities.TransactionKindSwap, Status: entities.TransactionStatusPending, Amount: decimal.NewFromInt(2), Timestamp: now.Add(-time.Hour)},
	}}
	m := newTestManager(t, Config{SeedHistory: true}, Dependencies{
		History: history,
		Clock:   func() time.Time { return now },
	})

	res, err := m.Login(context.Background(), ada)
	require.NoError(t, err)

	txs := res.Session.Transactions()
	require.Len(t, txs, 2)
	assert.Equal(t, entities.TransactionKindSwap, txs[0].Kind)
}

type memorySnapshots struct {
	snaps []entities.WalletSnapshot
}

func (m *memorySnapshots) Save(_ context.Context, s entities.WalletSnapshot) error {
	for i := range m.snaps {
		if m.snaps[i].UserID == s.UserID && m.snaps[i].WalletID == s.WalletID {
			m.snaps[i] = s
			return nil
		}
	}
	m.snaps = append(m.snaps, s)
	return nil
}

func (m *memorySnapshots) List(_ context.Context, userID string) ([]entities.WalletSnapshot, error) {
	var out []entities.WalletSnapshot
	for _, s := range m.snaps {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func TestManager_RestoresWalletsAcrossLogins(t *testing.T) {
	snaps := &memorySnapshots{}
	m := newTestManager(t, Config{RestoreOnLogin: true}, Dependencies{Snapshots: snaps})
	ctx := context.Background()

	first, err := m.Login(ctx, ada)
	require.NoError(t, err)
	created, err := first.Session.CreateWallet(ctx, entities.AssetETH, "Keeper", "", decimal.NewFromInt(2))
	require.NoError(t, err)
	require.NoError(t, m.Logout(ctx, first.Session.ID()))

	second, err := m.Login(ctx, ada)
	require.NoError(t, err)
	wallets := second.Session.Wallets()
	require.Len(t, wallets, 1)
	assert.Equal(t, created.Wallet.ID, wallets[0].ID)
	assert.Equal(t, "Keeper", wallets[0].Name)
	assert.True(t, decimal.NewFromInt(6000).Equal(wallets[0].USDValue))
}

func TestManager_RefreshAll(t *testing.T) {
	m := newTestManager(t, Config{}, Dependencies{})
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, err := m.Login(ctx, entities.Identity{ID: id, Email: id + "@example.com"})
		require.NoError(t, err)
	}

	n, err := m.RefreshAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestManager_Shutdown(t *testing.T) {
	m := NewManager(Config{JWTSecret: testSecret}, Dependencies{}, logger.NewNop())
	res, err := m.Login(context.Background(), ada)
	require.NoError(t, err)

	m.Shutdown(context.Background())
	assert.Empty(t, m.Active())

	_, err = res.Session.Buy(context.Background(), entities.AssetBTC, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, domainerrors.ErrSessionClosed)
}
