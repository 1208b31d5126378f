package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/butcapp/butcap/internal/model"
)

// GetBalances returns the single balance record, or nil when none exists
// yet (first-time setup).
func (s *SQLiteStorage) GetBalances(ctx context.Context) (*model.AccountBalances, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT cash, bank, savings, updated_at FROM balances WHERE id = 1`

	var b model.AccountBalances
	var updatedAt time.Time
	err := s.db.QueryRowContext(ctx, query).Scan(&b.Cash, &b.Bank, &b.Savings, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query balances: %w", err)
	}

	b.UpdatedAt = updatedAt.UTC()
	return &b, nil
}

// SaveBalances overwrites the single balance record, creating it if needed.
func (s *SQLiteStorage) SaveBalances(ctx context.Context, balances model.AccountBalances) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	return upsertBalances(ctx, s.db, balances)
}

func upsertBalances(ctx context.Context, db execer, balances model.AccountBalances) error {
	query := `
		INSERT INTO balances (id, cash, bank, savings, updated_at)
		VALUES (1, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
			cash = excluded.cash,
			bank = excluded.bank,
			savings = excluded.savings,
			updated_at = CURRENT_TIMESTAMP`

	if _, err := db.ExecContext(ctx, query, balances.Cash, balances.Bank, balances.Savings); err != nil {
		return fmt.Errorf("failed to save balances: %w", busyError(err))
	}
	return nil
}
