// Package service defines the interfaces the application core consumes.
package service

import (
	"context"
	"time"

	"github.com/butcapp/butcap/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	Day   string // exact calendar day, YYYY-MM-DD
	Month string // calendar month, YYYY-MM
	Limit int
}

// NoteFilter selects notes by recency relative to a reference day.
type NoteFilter string

// Note filter values.
const (
	NotesAll   NoteFilter = "all"
	NotesToday NoteFilter = "today"
	NotesWeek  NoteFilter = "week"
	NotesMonth NoteFilter = "month"
)

// Storage defines the contract for the persistence layer.
type Storage interface {
	// Recurring rule operations
	ListRecurringRules(ctx context.Context) ([]model.RecurringRule, error)
	GetRecurringRule(ctx context.Context, id string) (*model.RecurringRule, error)
	CreateRecurringRule(ctx context.Context, rule *model.RecurringRule) error
	UpdateRecurringRule(ctx context.Context, rule *model.RecurringRule) error
	SetRecurringRuleActive(ctx context.Context, id string, active bool) error
	// DeleteRecurringRule removes the rule only; transactions it already
	// materialized are never removed retroactively.
	DeleteRecurringRule(ctx context.Context, id string) error

	// Transaction operations
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	AddTransaction(ctx context.Context, txn *model.Transaction) error
	// DeleteTransaction is a hard removal with no automatic balance rollback.
	DeleteTransaction(ctx context.Context, id string) error

	// Balance operations. GetBalances returns nil when no balance row
	// exists yet (first-time setup).
	GetBalances(ctx context.Context) (*model.AccountBalances, error)
	SaveBalances(ctx context.Context, balances model.AccountBalances) error

	// RecordTransaction inserts a transaction and writes the new balance
	// row in a single database transaction.
	RecordTransaction(ctx context.Context, txn *model.Transaction, balances model.AccountBalances) error
	// RecordRecurringTransaction is RecordTransaction for
	// engine-materialized transactions. It returns
	// common.ErrDuplicateEntry when the (recurring_id, day) uniqueness
	// constraint rejects the insert.
	RecordRecurringTransaction(ctx context.Context, txn *model.Transaction, balances model.AccountBalances) error

	// Note operations
	ListNotes(ctx context.Context, filter NoteFilter, today time.Time) ([]model.Note, error)
	AddNote(ctx context.Context, note *model.Note) error
	DeleteNote(ctx context.Context, id string) error

	// Database management
	Reset(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// Clock supplies the current time. The recurrence engine never reads the
// system clock directly; tests inject a fixed clock.
type Clock interface {
	Now() time.Time
}

// SystemClock is the real wall clock.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always reports the same instant.
type FixedClock struct {
	Time time.Time
}

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time { return c.Time }

// RetryOptions configures retry behavior for storage operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
