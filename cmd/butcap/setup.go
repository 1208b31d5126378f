package main

import (
	"fmt"

	"github.com/butcapp/butcap/internal/cli"
	"github.com/butcapp/butcap/internal/common"
	"github.com/butcapp/butcap/internal/model"
	"github.com/spf13/cobra"
)

func setupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Record your starting balances",
		Long: `Initialize the balance record with your current cash, bank and
savings amounts. Run this once before anything else; use --force to
start over with new amounts.`,
		RunE: runSetup,
	}

	cmd.Flags().Float64("cash", 0, "Starting cash balance")
	cmd.Flags().Float64("bank", 0, "Starting bank balance")
	cmd.Flags().Float64("savings", 0, "Starting savings balance")
	cmd.Flags().Bool("force", false, "Overwrite existing balances")

	return cmd
}

func runSetup(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cash, _ := cmd.Flags().GetFloat64("cash")
	bank, _ := cmd.Flags().GetFloat64("bank")
	savings, _ := cmd.Flags().GetFloat64("savings")
	force, _ := cmd.Flags().GetBool("force")

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	existing, err := store.GetBalances(ctx)
	if err != nil {
		return fmt.Errorf("failed to check balances: %w", err)
	}
	if existing != nil && !force {
		return fmt.Errorf("%w; use --force to overwrite", common.ErrAlreadyInitialized)
	}

	balances := model.AccountBalances{Cash: cash, Bank: bank, Savings: savings}
	if err := store.SaveBalances(ctx, balances); err != nil {
		return err
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf(
		"Balances initialized: cash %.2f, bank %.2f, savings %.2f", cash, bank, savings)))
	return nil
}
