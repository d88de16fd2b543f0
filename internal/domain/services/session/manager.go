// Package session creates and tracks the per-user ledger sessions.
// A session is built at login, handed out by id, and discarded at logout.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/highgoal215/cryptowallet_service/internal/domain/entities"
	domainerrors "github.com/highgoal215/cryptowallet_service/internal/domain/errors"
	"github.com/highgoal215/cryptowallet_service/internal/domain/services/ledger"
	"github.com/highgoal215/cryptowallet_service/pkg/auth"
	"github.com/highgoal215/cryptowallet_service/pkg/logger"
	"github.com/highgoal215/cryptowallet_service/pkg/metrics"
)

// HistoryGenerator produces seeded past activity, oldest first
type HistoryGenerator interface {
	Generate(now time.Time) []entities.Transaction
}

// Config controls session construction and token issuance
type Config struct {
	Ledger         ledger.Config
	SeedHistory    bool
	RestoreOnLogin bool
	JWTSecret      string
	JWTIssuer      string
	TokenTTL       time.Duration
}

// Dependencies shared by every session the manager creates
type Dependencies struct {
	Prices    ledger.PriceSource
	Backend   ledger.WalletBackend
	Snapshots ledger.SnapshotStore
	Notifier  ledger.Notifier
	Addresses ledger.AddressGenerator
	Bank      ledger.BankDetailGenerator
	History   HistoryGenerator
	Clock     ledger.Clock
	Tracer    trace.Tracer
}

// LoginResult is a fresh session with its bearer token
type LoginResult struct {
	Session *ledger.Session
	Token   *auth.SessionToken
}

// Manager owns all live sessions
type Manager struct {
	cfg    Config
	deps   Dependencies
	logger *logger.Logger

	mu       sync.RWMutex
	sessions map[string]*ledger.Session
}

// NewManager creates a session manager
func NewManager(cfg Config, deps Dependencies, log *logger.Logger) *Manager {
	if deps.Clock == nil {
		deps.Clock = ledger.SystemClock
	}
	if deps.Addresses == nil {
		deps.Addresses = ledger.NewRandomAddressGenerator(0)
	}
	if deps.Bank == nil {
		deps.Bank = ledger.NewRandomBankDetails(0)
	}
	if deps.History == nil {
		deps.History = ledger.NewHistorySeeder(0, deps.Addresses)
	}
	if deps.Notifier == nil {
		deps.Notifier = ledger.NewLogNotifier(log)
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	return &Manager{
		cfg:      cfg,
		deps:     deps,
		logger:   log,
		sessions: make(map[string]*ledger.Session),
	}
}

// Login builds a ledger session for an identity authenticated upstream
func (m *Manager) Login(ctx context.Context, identity entities.Identity) (*LoginResult, error) {
	identity.ID = strings.TrimSpace(identity.ID)
	identity.Email = strings.TrimSpace(identity.Email)
	if identity.ID == "" {
		return nil, domainerrors.ValidationError("id", "User id is required")
	}
	if identity.Email == "" {
		return nil, domainerrors.ValidationError("email", "Email is required")
	}

	prices := entities.PriceTable{}
	if m.deps.Prices != nil {
		p, err := m.deps.Prices.Prices(ctx)
		if err != nil {
			m.logger.Warn("Starting session without prices", "user_id", identity.ID, "error", err)
		} else {
			prices = p
		}
	}

	sessionID := uuid.NewString()
	sess := ledger.NewSession(sessionID, identity, m.deps.Bank.Generate(), prices, m.cfg.Ledger, ledger.Dependencies{
		Prices:    m.deps.Prices,
		Backend:   m.deps.Backend,
		Snapshots: m.deps.Snapshots,
		Notifier:  m.deps.Notifier,
		Addresses: m.deps.Addresses,
		Clock:     m.deps.Clock,
		Logger:    m.logger,
		Tracer:    m.deps.Tracer,
	})

	if m.cfg.RestoreOnLogin {
		restored, err := sess.Restore(ctx)
		if err != nil {
			m.logger.Warn("Failed to restore wallets", "user_id", identity.ID, "error", err)
		} else if restored > 0 {
			m.logger.Info("Restored wallets", "user_id", identity.ID, "count", restored)
		}
	}
	if m.cfg.SeedHistory {
		sess.SeedHistory(m.deps.History.Generate(m.deps.Clock()))
	}

	token, err := auth.GenerateSessionToken(sessionID, identity.ID, identity.Email, identity.Username,
		m.cfg.JWTSecret, m.cfg.JWTIssuer, m.cfg.TokenTTL)
	if err != nil {
		sess.Close()
		return nil, fmt.Errorf("issue session token: %w", err)
	}

	m.mu.Lock()
	m.sessions[sessionID] = sess
	m.mu.Unlock()
	metrics.ActiveSessions.Inc()

	m.logger.Info("Session started", "session_id", sessionID, "user_id", identity.ID)
	return &LoginResult{Session: sess, Token: token}, nil
}

// Register assigns a new user id and logs the user in
func (m *Manager) Register(ctx context.Context, email, username string) (*LoginResult, error) {
	if strings.TrimSpace(username) == "" {
		return nil, domainerrors.ValidationError("username", "Username is required")
	}
	return m.Login(ctx, entities.Identity{
		ID:       "user-" + uuid.NewString(),
		Email:    email,
		Username: strings.TrimSpace(username),
	})
}

// Logout stops the session and discards its state
func (m *Manager) Logout(_ context.Context, sessionID string) error {
	m.mu.Lock()
	sess, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	if !ok {
		return domainerrors.SessionNotFoundError(sessionID)
	}
	sess.Close()
	metrics.ActiveSessions.Dec()

	m.logger.Info("Session ended", "session_id", sessionID, "user_id", sess.User().ID)
	return nil
}

// Get returns the live session with the given id
func (m *Manager) Get(sessionID string) (*ledger.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[sessionID]
	if !ok {
		return nil, domainerrors.SessionRequiredError()
	}
	return sess, nil
}

// Authenticate resolves a bearer token to its live session
func (m *Manager) Authenticate(token string) (*ledger.Session, *auth.Claims, error) {
	claims, err := auth.ValidateToken(token, m.cfg.JWTSecret)
	if err != nil {
		return nil, nil, domainerrors.UnauthorizedError("Invalid or expired token")
	}
	sess, err := m.Get(claims.SessionID)
	if err != nil {
		return nil, nil, err
	}
	if sess.User().ID != claims.UserID {
		return nil, nil, domainerrors.UnauthorizedError("Token does not match session")
	}
	return sess, claims, nil
}

// Active returns every live session
func (m *Manager) Active() []*ledger.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*ledger.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// RefreshAll revalues every live session at fresh prices
func (m *Manager) RefreshAll(ctx context.Context) (int, error) {
	var (
		refreshed int
		errs      []error
	)
	for _, sess := range m.Active() {
		if _, err := sess.Refresh(ctx); err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", sess.ID(), err))
			continue
		}
		refreshed++
	}
	return refreshed, errors.Join(errs...)
}

// Shutdown closes every session
func (m *Manager) Shutdown(_ context.Context) {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*ledger.Session)
	m.mu.Unlock()

	for _, sess := range sessions {
		sess.Close()
		metrics.ActiveSessions.Dec()
	}
	m.logger.Info("All sessions closed", "count", len(sessions))
}
