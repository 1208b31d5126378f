package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/butcapp/butcap/internal/cli"
)

func resetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete all data",
		Long: `Remove every transaction, recurring rule, note and the balance
record. This cannot be undone; --force is required.`,
		RunE: runReset,
	}

	cmd.Flags().BoolP("force", "f", false, "Confirm the wipe")

	return cmd
}

func runReset(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	force, _ := cmd.Flags().GetBool("force")
	if !force {
		return fmt.Errorf("refusing to wipe data without --force")
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset data: %w", err)
	}

	fmt.Println(cli.FormatSuccess("All data removed. Run 'butcap setup' to start over."))
	return nil
}
