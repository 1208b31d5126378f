package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/butcapp/butcap/internal/common"
	"github.com/butcapp/butcap/internal/model"
	"github.com/butcapp/butcap/internal/service"
)

const transactionColumns = `id, type, amount, category, description, account,
	transfer_from, transfer_to, occurred_at, is_recurring, recurring_id`

// AddTransaction inserts a single transaction.
func (s *SQLiteStorage) AddTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}

	if err := insertTransaction(ctx, s.db, txn); err != nil {
		return err
	}

	slog.Debug("saved transaction", "id", txn.ID, "type", txn.Type, "amount", txn.Amount)
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertTransaction(ctx context.Context, db execer, txn *model.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if txn.IsRecurring {
		// Only the per-day recurring guard may swallow the insert; any
		// other constraint failure must surface as an error.
		query += `
		ON CONFLICT (recurring_id, date(occurred_at)) WHERE recurring_id IS NOT NULL DO NOTHING`
	}

	res, err := db.ExecContext(ctx, query,
		txn.ID, string(txn.Type), txn.Amount, txn.Category, txn.Description,
		nullString(string(txn.Account)),
		nullString(string(txn.TransferFrom)),
		nullString(string(txn.TransferTo)),
		txn.Date.UTC(), txn.IsRecurring, nullString(txn.RecurringID),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", busyError(err))
	}

	if txn.IsRecurring {
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check insert result: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("transaction %s on %s: %w", txn.ID, txn.Day(), common.ErrDuplicateEntry)
		}
	}
	return nil
}

// ListTransactions returns transactions matching the filter, newest first.
func (s *SQLiteStorage) ListTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if filter.Limit < 0 {
		return nil, ErrInvalidLimit
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions`
	var args []any
	switch {
	case filter.Day != "":
		query += ` WHERE date(occurred_at) = ?`
		args = append(args, filter.Day)
	case filter.Month != "":
		query += ` WHERE strftime('%Y-%m', occurred_at) = ?`
		args = append(args, filter.Month)
	}
	query += ` ORDER BY occurred_at DESC, created_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}

// DeleteTransaction removes a transaction permanently. Balances are not
// rolled back; the caller decides whether to compensate.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	return nil
}

// RecordTransaction persists a transaction and the balances after it in
// one database transaction, so the pair can never half-apply.
func (s *SQLiteStorage) RecordTransaction(ctx context.Context, txn *model.Transaction, balances model.AccountBalances) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", busyError(err))
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertTransaction(ctx, tx, txn); err != nil {
		return err
	}
	if err := upsertBalances(ctx, tx, balances); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", busyError(err))
	}
	return nil
}

// RecordRecurringTransaction is RecordTransaction for engine-materialized
// transactions. Returns common.ErrDuplicateEntry when the unique
// (recurring_id, day) index rejects the insert.
func (s *SQLiteStorage) RecordRecurringTransaction(ctx context.Context, txn *model.Transaction, balances model.AccountBalances) error {
	return s.RecordTransaction(ctx, txn, balances)
}

// rowScanner abstracts sql.Row and sql.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (model.Transaction, error) {
	var txn model.Transaction
	var txnType, account, transferFrom, transferTo, recurringID sql.NullString
	var description sql.NullString
	var occurredAt time.Time

	err := row.Scan(
		&txn.ID, &txnType, &txn.Amount, &txn.Category, &description,
		&account, &transferFrom, &transferTo, &occurredAt,
		&txn.IsRecurring, &recurringID,
	)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("failed to scan transaction: %w", err)
	}

	txn.Type = model.TransactionType(txnType.String)
	txn.Description = description.String
	txn.Account = model.Account(account.String)
	txn.TransferFrom = model.Account(transferFrom.String)
	txn.TransferTo = model.Account(transferTo.String)
	txn.RecurringID = recurringID.String
	txn.Date = occurredAt.UTC()
	return txn, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
