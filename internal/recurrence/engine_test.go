package recurrence_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/butcapp/butcap/internal/common"
	"github.com/butcapp/butcap/internal/model"
	"github.com/butcapp/butcap/internal/recurrence"
	"github.com/butcapp/butcap/internal/service"
	"github.com/butcapp/butcap/internal/testutil"
)

func TestAlreadyApplied(t *testing.T) {
	occurrence := testutil.Date(2024, 3, 15)
	log := []model.Transaction{
		{
			ID:          "t1",
			RecurringID: "rule-1",
			// Stored timestamps need not equal the occurrence date exactly.
			Date: time.Date(2024, 3, 15, 14, 22, 7, 0, time.UTC),
		},
		{ID: "t2", RecurringID: "rule-2", Date: occurrence},
	}

	assert.True(t, recurrence.AlreadyApplied("rule-1", occurrence, log),
		"same rule and calendar day matches despite differing time of day")
	assert.False(t, recurrence.AlreadyApplied("rule-1", testutil.Date(2024, 3, 16), log))
	assert.False(t, recurrence.AlreadyApplied("rule-3", occurrence, log))
}

func TestMaterialize(t *testing.T) {
	rule := testutil.MonthlyRule("rule-1", 500, testutil.Date(2024, 1, 31))
	rule.Description = "Rent"

	txn := recurrence.Materialize(rule, testutil.Date(2024, 2, 29))

	assert.NotEmpty(t, txn.ID)
	assert.Equal(t, model.TypeExpense, txn.Type)
	assert.Equal(t, 500.0, txn.Amount)
	assert.Equal(t, "Bills", txn.Category)
	assert.Equal(t, "Rent (Automatic)", txn.Description)
	assert.Equal(t, model.AccountBank, txn.Account)
	assert.Equal(t, testutil.Date(2024, 2, 29), txn.Date)
	assert.True(t, txn.IsRecurring)
	assert.Equal(t, "rule-1", txn.RecurringID)
	require.NoError(t, txn.Validate())
}

func TestApplyToBalances(t *testing.T) {
	tests := []struct {
		name  string
		start model.AccountBalances
		txn   model.Transaction
		want  model.AccountBalances
	}{
		{
			name: "income adds to the account",
			txn:  model.Transaction{Type: model.TypeIncome, Account: model.AccountBank, Amount: 1000},
			want: model.AccountBalances{Bank: 1000},
		},
		{
			name:  "expense subtracts even below zero",
			start: model.AccountBalances{Bank: 300},
			txn:   model.Transaction{Type: model.TypeExpense, Account: model.AccountBank, Amount: 500},
			want:  model.AccountBalances{Bank: -200},
		},
		{
			name: "transfer moves between accounts",
			txn: model.Transaction{
				Type: model.TypeTransfer, Amount: 200,
				TransferFrom: model.AccountCash, TransferTo: model.AccountSavings,
			},
			want: model.AccountBalances{Cash: -200, Savings: 200},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := recurrence.ApplyToBalances(tt.start, tt.txn)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlan_EndToEndScenario(t *testing.T) {
	// Monthly 500 expense from the bank, starting 2024-01-31, run on
	// 2024-04-30 against an empty log: four occurrences, leap-year
	// February included, bank ends at -1000.
	rule := testutil.MonthlyRule("rule-1", 500, testutil.Date(2024, 1, 31))
	balances := model.AccountBalances{Bank: 1000}

	planned, newBalances := recurrence.Plan(
		[]model.RecurringRule{rule}, nil, balances, testutil.Date(2024, 4, 30))

	require.Len(t, planned, 4)
	assert.Equal(t, "2024-01-31", planned[0].Day())
	assert.Equal(t, "2024-02-29", planned[1].Day())
	assert.Equal(t, "2024-03-31", planned[2].Day())
	assert.Equal(t, "2024-04-30", planned[3].Day())
	assert.Equal(t, -1000.0, newBalances.Bank)
	assert.Equal(t, 0.0, newBalances.Cash)
	assert.Equal(t, 0.0, newBalances.Savings)
}

func TestPlan_Idempotence(t *testing.T) {
	rule := testutil.MonthlyRule("rule-1", 500, testutil.Date(2024, 1, 31))
	today := testutil.Date(2024, 4, 30)

	first, balances := recurrence.Plan([]model.RecurringRule{rule}, nil, model.AccountBalances{}, today)
	require.Len(t, first, 4)

	second, unchanged := recurrence.Plan([]model.RecurringRule{rule}, first, balances, today)
	assert.Empty(t, second, "re-planning against the produced log is a no-op")
	assert.Equal(t, balances, unchanged)
}

func TestPlan_SkipsInactiveAndFutureRules(t *testing.T) {
	today := testutil.Date(2024, 4, 30)

	inactive := testutil.MonthlyRule("rule-1", 500, testutil.Date(2024, 1, 31))
	inactive.IsActive = false
	future := testutil.MonthlyRule("rule-2", 500, testutil.Date(2024, 5, 1))

	planned, balances := recurrence.Plan(
		[]model.RecurringRule{inactive, future}, nil, model.AccountBalances{Bank: 100}, today)

	assert.Empty(t, planned)
	assert.Equal(t, 100.0, balances.Bank)
}

func TestPlan_DedupWithinOnePass(t *testing.T) {
	// Two rules over the same account accumulate; the same rule listed
	// twice (same id) must not double-post.
	ruleA := testutil.MonthlyRule("rule-1", 500, testutil.Date(2024, 3, 1))
	ruleB := testutil.MonthlyRule("rule-2", 200, testutil.Date(2024, 3, 1))

	planned, balances := recurrence.Plan(
		[]model.RecurringRule{ruleA, ruleA, ruleB}, nil, model.AccountBalances{}, testutil.Date(2024, 3, 31))

	require.Len(t, planned, 2)
	assert.Equal(t, -700.0, balances.Bank)
}

func TestPlan_PartialLogOnlyFillsGaps(t *testing.T) {
	rule := testutil.MonthlyRule("rule-1", 500, testutil.Date(2024, 1, 31))
	existing := []model.Transaction{
		recurrence.Materialize(rule, testutil.Date(2024, 1, 31)),
		recurrence.Materialize(rule, testutil.Date(2024, 3, 31)),
	}

	planned, _ := recurrence.Plan(
		[]model.RecurringRule{rule}, existing, model.AccountBalances{}, testutil.Date(2024, 4, 30))

	require.Len(t, planned, 2)
	assert.Equal(t, "2024-02-29", planned[0].Day())
	assert.Equal(t, "2024-04-30", planned[1].Day())
}

func TestEngine_ApplyDue(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	clock := service.FixedClock{Time: testutil.Date(2024, 4, 30)}

	require.NoError(t, store.SaveBalances(ctx, model.AccountBalances{Bank: 1000}))
	rule := testutil.MonthlyRule("rule-1", 500, testutil.Date(2024, 1, 31))
	require.NoError(t, store.CreateRecurringRule(ctx, &rule))

	engine := recurrence.NewEngine(store, clock)

	summary, err := engine.ApplyDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Applied)
	assert.Equal(t, -1000.0, summary.Balances.Bank)

	// The persisted state matches the summary.
	stored, err := store.GetBalances(ctx)
	require.NoError(t, err)
	assert.Equal(t, -1000.0, stored.Bank)

	transactions, err := store.ListTransactions(ctx, service.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, transactions, 4)
	for i := range transactions {
		assert.True(t, transactions[i].IsRecurring)
		assert.Equal(t, "rule-1", transactions[i].RecurringID)
	}

	// Second run with an unchanged log is a no-op.
	summary, err = engine.ApplyDue(ctx)
	require.NoError(t, err)
	assert.Zero(t, summary.Applied)
	assert.Equal(t, -1000.0, summary.Balances.Bank)

	transactions, err = store.ListTransactions(ctx, service.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, transactions, 4)
}

func TestEngine_ApplyDueWithoutBalancesStartsFromZero(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	clock := service.FixedClock{Time: testutil.Date(2024, 3, 3)}

	rule := testutil.MonthlyRule("rule-1", 250, testutil.Date(2024, 3, 1))
	rule.Type = model.TypeIncome
	require.NoError(t, store.CreateRecurringRule(ctx, &rule))

	summary, err := recurrence.NewEngine(store, clock).ApplyDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Applied)
	assert.Equal(t, 250.0, summary.Balances.Bank)

	stored, err := store.GetBalances(ctx)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 250.0, stored.Bank)
}

// flakyStore fails RecordRecurringTransaction a set number of times to
// exercise the retry-on-next-run path.
type flakyStore struct {
	service.Storage
	errInject error
	failures  int
}

func (f *flakyStore) RecordRecurringTransaction(ctx context.Context, txn *model.Transaction, balances model.AccountBalances) error {
	if f.failures > 0 {
		f.failures--
		return f.errInject
	}
	return f.Storage.RecordRecurringTransaction(ctx, txn, balances)
}

func TestEngine_PersistenceFailureIsRetriedNextRun(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	clock := service.FixedClock{Time: testutil.Date(2024, 4, 30)}

	require.NoError(t, store.SaveBalances(ctx, model.AccountBalances{Bank: 1000}))
	rule := testutil.MonthlyRule("rule-1", 500, testutil.Date(2024, 1, 31))
	require.NoError(t, store.CreateRecurringRule(ctx, &rule))

	injected := errors.New("disk unavailable")
	flaky := &flakyStore{Storage: store, failures: 2, errInject: injected}

	// First run: two occurrences fail, the rest still post.
	summary, err := recurrence.NewEngine(flaky, clock).ApplyDue(ctx)
	require.ErrorIs(t, err, injected)
	assert.Equal(t, 2, summary.Applied)
	assert.Equal(t, 2, summary.Failed)

	// Next run heals the gaps without duplicating the successes.
	summary, err = recurrence.NewEngine(flaky, clock).ApplyDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Applied)

	transactions, err := store.ListTransactions(ctx, service.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, transactions, 4)

	stored, err := store.GetBalances(ctx)
	require.NoError(t, err)
	assert.Equal(t, -1000.0, stored.Bank)
}

func TestEngine_DuplicateInsertTreatedAsApplied(t *testing.T) {
	// A concurrent writer materialized the occurrence between the
	// engine's read and write; the unique index surfaces it and the
	// engine moves on without double-counting balances.
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	clock := service.FixedClock{Time: testutil.Date(2024, 3, 1)}

	require.NoError(t, store.SaveBalances(ctx, model.AccountBalances{Bank: 1000}))
	rule := testutil.MonthlyRule("rule-1", 500, testutil.Date(2024, 3, 1))
	require.NoError(t, store.CreateRecurringRule(ctx, &rule))

	// Simulate the other session's write landing first.
	other := recurrence.Materialize(rule, testutil.Date(2024, 3, 1))
	require.NoError(t, store.RecordRecurringTransaction(ctx, &other,
		recurrence.ApplyToBalances(model.AccountBalances{Bank: 1000}, other)))

	raced := &racingStore{Storage: store}
	summary, err := recurrence.NewEngine(raced, clock).ApplyDue(ctx)
	require.NoError(t, err)
	assert.Zero(t, summary.Applied)
	assert.Zero(t, summary.Failed)

	stored, err := store.GetBalances(ctx)
	require.NoError(t, err)
	assert.Equal(t, 500.0, stored.Bank)
}

// racingStore hides the concurrent transaction from reads so the gate
// passes, forcing the unique index to catch the duplicate.
type racingStore struct {
	service.Storage
}

func (r *racingStore) ListTransactions(_ context.Context, _ service.TransactionFilter) ([]model.Transaction, error) {
	return nil, nil
}

// busyOnceStore reports the database locked on the first write, the way
// the storage layer classifies a SQLITE_BUSY failure.
type busyOnceStore struct {
	service.Storage
	busy bool
}

func (b *busyOnceStore) RecordRecurringTransaction(ctx context.Context, txn *model.Transaction, balances model.AccountBalances) error {
	if b.busy {
		b.busy = false
		return fmt.Errorf("failed to insert transaction: %w: database is locked", common.ErrDatabaseLocked)
	}
	return b.Storage.RecordRecurringTransaction(ctx, txn, balances)
}

func TestEngine_BusyDatabaseRetriesInPlace(t *testing.T) {
	ctx := context.Background()
	store := testutil.SetupTestDB(t)
	clock := service.FixedClock{Time: testutil.Date(2024, 3, 1)}

	require.NoError(t, store.SaveBalances(ctx, model.AccountBalances{Bank: 500}))
	rule := testutil.MonthlyRule("rule-1", 200, testutil.Date(2024, 3, 1))
	require.NoError(t, store.CreateRecurringRule(ctx, &rule))

	busy := &busyOnceStore{Storage: store, busy: true}

	// The locked write retries within the run instead of waiting for the
	// next one.
	summary, err := recurrence.NewEngine(busy, clock).ApplyDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Applied)
	assert.Zero(t, summary.Failed)

	stored, err := store.GetBalances(ctx)
	require.NoError(t, err)
	assert.Equal(t, 300.0, stored.Bank)
}
