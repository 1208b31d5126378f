package main

import (
	"context"
	"fmt"

	"github.com/butcapp/butcap/internal/cli"
	"github.com/butcapp/butcap/internal/recurrence"
	"github.com/butcapp/butcap/internal/service"
	"github.com/butcapp/butcap/internal/storage"
	"github.com/spf13/cobra"
)

func balancesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balances",
		Short: "Show current account balances",
		Long: `Display the current cash, bank and savings balances.

Any recurring transactions that came due since the last run are posted
first, so the figures shown are always up to date.`,
		RunE: runBalances,
	}

	cmd.Flags().Bool("no-apply", false, "Skip applying due recurring transactions")

	return cmd
}

func runBalances(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	noApply, _ := cmd.Flags().GetBool("no-apply")

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if !noApply {
		applyDueQuietly(ctx, store)
	}

	balances, err := requireBalances(ctx, store)
	if err != nil {
		return err
	}

	content := fmt.Sprintf("Cash:     %10.2f\nBank:     %10.2f\nSavings:  %10.2f\n\nTotal:    %10.2f",
		balances.Cash, balances.Bank, balances.Savings, balances.Total())
	fmt.Println(cli.RenderBox("Account Balances", content))
	return nil
}

// applyDueQuietly posts due recurring transactions before a read-side
// command. Failures are warnings: an unapplied occurrence is retried on
// the next run, so the display can proceed.
func applyDueQuietly(ctx context.Context, store *storage.SQLiteStorage) {
	engine := recurrence.NewEngine(store, service.SystemClock{})
	summary, err := engine.ApplyDue(ctx)
	if err != nil {
		fmt.Println(cli.FormatWarning(fmt.Sprintf("some recurring transactions were not applied: %v", err)))
	}
	if summary != nil && summary.Applied > 0 {
		fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("Posted %d recurring transaction(s).", summary.Applied)))
	}
}
