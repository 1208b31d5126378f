// Package testutil provides shared helpers for tests that need a real store.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/butcapp/butcap/internal/model"
	"github.com/butcapp/butcap/internal/storage"
)

// SetupTestDB creates a migrated in-memory SQLite store and registers
// cleanup with the test.
func SetupTestDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

// Date builds a UTC midnight timestamp, the form occurrence dates take.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// MonthlyRule returns an active monthly expense rule starting on the
// given date, suitable as a baseline for engine tests.
func MonthlyRule(id string, amount float64, start time.Time) model.RecurringRule {
	return model.RecurringRule{
		ID:        id,
		Type:      model.TypeExpense,
		Amount:    amount,
		Category:  "Bills",
		Account:   model.AccountBank,
		Frequency: model.FrequencyMonthly,
		StartDate: start,
		IsActive:  true,
	}
}
