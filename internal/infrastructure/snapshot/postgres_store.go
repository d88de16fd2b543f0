package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/highgoal215/cryptowallet_service/internal/domain/entities"
)

// PostgresStore keeps snapshots in the wallet_snapshots table
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a store on db. The schema comes from the migrations directory.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Save implements Store
func (p *PostgresStore) Save(ctx context.Context, snap entities.WalletSnapshot) error {
	query := `
		INSERT INTO wallet_snapshots (user_id, wallet_id, asset_type, name, address, balance, imported, created_at, updated_at)
		VALUES (:user_id, :wallet_id, :asset_type, :name, :address, :balance, :imported, :created_at, :updated_at)
		ON CONFLICT (user_id, wallet_id) DO UPDATE SET
			asset_type = EXCLUDED.asset_type,
			name       = EXCLUDED.name,
			address    = EXCLUDED.address,
			balance    = EXCLUDED.balance,
			imported   = EXCLUDED.imported,
			updated_at = EXCLUDED.updated_at`

	if _, err := p.db.NamedExecContext(ctx, query, snap); err != nil {
		return fmt.Errorf("failed to save wallet snapshot: %w", err)
	}
	return nil
}

// Get implements Store
func (p *PostgresStore) Get(ctx context.Context, userID string, walletID uuid.UUID) (*entities.WalletSnapshot, error) {
	query := `
		SELECT user_id, wallet_id, asset_type, name, address, balance, imported, created_at, updated_at
		FROM wallet_snapshots
		WHERE user_id = $1 AND wallet_id = $2`

	var snap entities.WalletSnapshot
	if err := p.db.GetContext(ctx, &snap, query, userID, walletID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(walletID)
		}
		return nil, fmt.Errorf("failed to get wallet snapshot: %w", err)
	}
	return &snap, nil
}

// List implements Store
func (p *PostgresStore) List(ctx context.Context, userID string) ([]entities.WalletSnapshot, error) {
	query := `
		SELECT user_id, wallet_id, asset_type, name, address, balance, imported, created_at, updated_at
		FROM wallet_snapshots
		WHERE user_id = $1
		ORDER BY created_at ASC, wallet_id ASC`

	var snaps []entities.WalletSnapshot
	if err := p.db.SelectContext(ctx, &snaps, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list wallet snapshots: %w", err)
	}
	return snaps, nil
}

// Delete implements Store
func (p *PostgresStore) Delete(ctx context.Context, userID string, walletID uuid.UUID) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM wallet_snapshots WHERE user_id = $1 AND wallet_id = $2`, userID, walletID)
	if err != nil {
		return fmt.Errorf("failed to delete wallet snapshot: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return notFound(walletID)
	}
	return nil
}

// Close implements Store
func (p *PostgresStore) Close() error {
	return p.db.Close()
}
