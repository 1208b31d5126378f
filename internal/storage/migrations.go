package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 2

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS balances (
					id INTEGER PRIMARY KEY CHECK (id = 1),
					cash REAL NOT NULL DEFAULT 0,
					bank REAL NOT NULL DEFAULT 0,
					savings REAL NOT NULL DEFAULT 0,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					type TEXT NOT NULL,
					amount REAL NOT NULL,
					category TEXT NOT NULL,
					description TEXT,
					account TEXT,
					transfer_from TEXT,
					transfer_to TEXT,
					occurred_at DATETIME NOT NULL,
					is_recurring INTEGER NOT NULL DEFAULT 0,
					recurring_id TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_transactions_occurred ON transactions(occurred_at)`,
				`CREATE INDEX idx_transactions_recurring ON transactions(recurring_id)`,

				`CREATE TABLE IF NOT EXISTS recurring_rules (
					id TEXT PRIMARY KEY,
					type TEXT NOT NULL,
					amount REAL NOT NULL,
					category TEXT NOT NULL,
					description TEXT,
					account TEXT NOT NULL,
					frequency TEXT NOT NULL,
					day_of_week INTEGER,
					day_of_month INTEGER,
					month_of_year INTEGER,
					start_date DATETIME NOT NULL,
					end_date DATETIME,
					is_active INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS notes (
					id TEXT PRIMARY KEY,
					content TEXT NOT NULL,
					note_date DATETIME NOT NULL,
					tags TEXT,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_notes_date ON notes(note_date)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Unique guard on (recurring_id, day)",
		Up: func(tx *sql.Tx) error {
			// One materialized transaction per rule per calendar day.
			// Turns the engine's check-then-act race into a detectable
			// duplicate insert instead of a silent double application.
			query := `CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_recurring_day
				ON transactions(recurring_id, date(occurred_at))
				WHERE recurring_id IS NOT NULL`
			if _, err := tx.Exec(query); err != nil {
				return fmt.Errorf("failed to create unique occurrence index: %w", err)
			}
			return nil
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	// Get current version
	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	// Apply migrations
	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		// Update version
		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	// Verify we're at the expected schema version
	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// SchemaVersion returns the current schema version of the database.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
