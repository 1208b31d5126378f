package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/butcapp/butcap/internal/common"
	"github.com/butcapp/butcap/internal/config"
	"github.com/butcapp/butcap/internal/model"
	"github.com/butcapp/butcap/internal/storage"
)

// initStorage opens the configured database and brings its schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath, err := config.DatabasePath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database path: %w", err)
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// parseDay parses a YYYY-MM-DD argument into a UTC midnight timestamp.
func parseDay(value string) (time.Time, error) {
	day, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return day, nil
}

// parseAccount validates an account flag value.
func parseAccount(value string) (model.Account, error) {
	account := model.Account(value)
	if !model.ValidAccount(account) {
		names := make([]string, len(model.Accounts))
		for i, a := range model.Accounts {
			names[i] = string(a)
		}
		return "", fmt.Errorf("invalid account %q, expected one of: %s", value, strings.Join(names, ", "))
	}
	return account, nil
}

// requireBalances loads the balance record, failing with a setup hint
// when none exists.
func requireBalances(ctx context.Context, store *storage.SQLiteStorage) (model.AccountBalances, error) {
	balances, err := store.GetBalances(ctx)
	if err != nil {
		return model.AccountBalances{}, fmt.Errorf("failed to load balances: %w", err)
	}
	if balances == nil {
		return model.AccountBalances{}, common.ErrNotInitialized
	}
	return *balances, nil
}
