package recurrence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/butcapp/butcap/internal/common"
	"github.com/butcapp/butcap/internal/model"
	"github.com/butcapp/butcap/internal/service"
)

// automaticSuffix marks transactions materialized by the engine.
const automaticSuffix = " (Automatic)"

// AlreadyApplied reports whether the log contains a transaction generated
// by the rule on the same calendar day. Comparison is by truncated day,
// never full timestamp: materialized transactions carry timestamps that
// need not equal the occurrence date exactly.
func AlreadyApplied(recurringID string, date time.Time, existing []model.Transaction) bool {
	day := Midnight(date).Format("2006-01-02")
	for i := range existing {
		if existing[i].RecurringID == recurringID && existing[i].Day() == day {
			return true
		}
	}
	return false
}

// Materialize converts an occurrence of the rule into a concrete
// transaction dated at midnight of the occurrence day.
func Materialize(rule model.RecurringRule, date time.Time) model.Transaction {
	return model.Transaction{
		ID:          uuid.NewString(),
		Type:        rule.Type,
		Amount:      rule.Amount,
		Category:    rule.Category,
		Description: rule.Description + automaticSuffix,
		Account:     rule.Account,
		Date:        Midnight(date),
		IsRecurring: true,
		RecurringID: rule.ID,
	}
}

// ApplyToBalances returns the balances after the transaction's effect.
// No non-negativity check happens here: a recurring bill posts even when
// funds are momentarily short, so balances may go negative.
func ApplyToBalances(b model.AccountBalances, t model.Transaction) model.AccountBalances {
	switch t.Type {
	case model.TypeIncome:
		b = b.Set(t.Account, b.Get(t.Account)+t.Amount)
	case model.TypeExpense:
		b = b.Set(t.Account, b.Get(t.Account)-t.Amount)
	case model.TypeTransfer:
		b = b.Set(t.TransferFrom, b.Get(t.TransferFrom)-t.Amount)
		b = b.Set(t.TransferTo, b.Get(t.TransferTo)+t.Amount)
	}
	return b
}

// Plan computes every transaction the engine would materialize today,
// together with the balances after applying them all. It is a pure fold:
// no I/O, no clock, no mutation of its inputs. Occurrences within one
// rule apply in ascending date order, and the duplicate check also sees
// transactions planned earlier in the same pass.
func Plan(rules []model.RecurringRule, existing []model.Transaction, balances model.AccountBalances, today time.Time) ([]model.Transaction, model.AccountBalances) {
	day := Midnight(today)

	var planned []model.Transaction
	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}
		if Midnight(rule.StartDate).After(day) {
			continue
		}
		for _, date := range Occurrences(rule, rule.StartDate, day) {
			if AlreadyApplied(rule.ID, date, existing) || AlreadyApplied(rule.ID, date, planned) {
				continue
			}
			txn := Materialize(rule, date)
			planned = append(planned, txn)
			balances = ApplyToBalances(balances, txn)
		}
	}
	return planned, balances
}

// ApplySummary reports the outcome of one engine run.
type ApplySummary struct {
	NewTransactions []model.Transaction
	Balances        model.AccountBalances
	Applied         int
	Failed          int
}

// Engine drives occurrence application for all active rules. It holds no
// watermark state: idempotency is re-derived from the transaction log on
// every run, so a failed occurrence is simply retried next time.
type Engine struct {
	storage service.Storage
	clock   service.Clock

	// OnApply, when set, is called after each successfully persisted
	// transaction. Used by the CLI to drive progress output.
	OnApply func(model.Transaction)
}

// NewEngine creates an engine backed by the given storage and clock.
func NewEngine(storage service.Storage, clock service.Clock) *Engine {
	return &Engine{storage: storage, clock: clock}
}

// ApplyDue materializes every unapplied occurrence of every active rule
// up to today. Each occurrence persists atomically (transaction insert
// plus balance write); a persistence failure skips that occurrence and
// continues with the rest, returning the joined errors alongside the
// summary of what did succeed.
func (e *Engine) ApplyDue(ctx context.Context) (*ApplySummary, error) {
	rules, err := e.storage.ListRecurringRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load recurring rules: %w", err)
	}
	existing, err := e.storage.ListTransactions(ctx, service.TransactionFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}
	stored, err := e.storage.GetBalances(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load balances: %w", err)
	}
	balances := model.AccountBalances{}
	if stored != nil {
		balances = *stored
	}

	today := Midnight(e.clock.Now())
	summary := &ApplySummary{}
	var errs []error

	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}
		if Midnight(rule.StartDate).After(today) {
			continue
		}
		for _, date := range Occurrences(rule, rule.StartDate, today) {
			if AlreadyApplied(rule.ID, date, existing) {
				continue
			}

			txn := Materialize(rule, date)
			next := ApplyToBalances(balances, txn)

			// Busy-database errors retry in place; anything else waits
			// for the next run.
			err := common.WithRetry(ctx, func() error {
				return e.storage.RecordRecurringTransaction(ctx, &txn, next)
			}, service.RetryOptions{MaxAttempts: 3})
			if err != nil {
				if errors.Is(err, common.ErrDuplicateEntry) {
					// A concurrent writer applied this occurrence between
					// our read and write. The uniqueness index made the
					// race detectable; treat it as already applied.
					slog.Debug("occurrence already applied concurrently",
						"rule_id", rule.ID, "date", txn.Day())
					existing = append(existing, txn)
					continue
				}
				summary.Failed++
				errs = append(errs, fmt.Errorf("rule %s on %s: %w", rule.ID, txn.Day(), err))
				slog.Warn("failed to apply occurrence, will retry next run",
					"rule_id", rule.ID, "date", txn.Day(), "error", err)
				continue
			}

			balances = next
			existing = append(existing, txn)
			summary.NewTransactions = append(summary.NewTransactions, txn)
			summary.Applied++
			if e.OnApply != nil {
				e.OnApply(txn)
			}
		}
	}

	summary.Balances = balances
	if summary.Applied > 0 {
		slog.Info("applied recurring transactions",
			"applied", summary.Applied, "failed", summary.Failed)
	}
	return summary, errors.Join(errs...)
}
