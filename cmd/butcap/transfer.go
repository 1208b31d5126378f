package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/butcapp/butcap/internal/cli"
	"github.com/butcapp/butcap/internal/common"
	"github.com/butcapp/butcap/internal/model"
	"github.com/butcapp/butcap/internal/recurrence"
	"github.com/butcapp/butcap/internal/service"
)

func transferCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Move money between accounts",
		RunE:  runTransfer,
	}

	cmd.Flags().Float64("amount", 0, "Amount (required)")
	cmd.Flags().String("from", "cash", "Source account")
	cmd.Flags().String("to", "bank", "Destination account")
	cmd.Flags().String("description", "", "Description")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func runTransfer(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	amount, _ := cmd.Flags().GetFloat64("amount")
	fromFlag, _ := cmd.Flags().GetString("from")
	toFlag, _ := cmd.Flags().GetString("to")
	description, _ := cmd.Flags().GetString("description")

	from, err := parseAccount(fromFlag)
	if err != nil {
		return err
	}
	to, err := parseAccount(toFlag)
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	balances, err := requireBalances(ctx, store)
	if err != nil {
		return err
	}
	if balances.Get(from) < amount {
		return fmt.Errorf("%w: %s holds %.2f, tried to move %.2f",
			common.ErrInsufficientFunds, from, balances.Get(from), amount)
	}

	txn := model.Transaction{
		ID:           uuid.NewString(),
		Type:         model.TypeTransfer,
		Amount:       amount,
		Category:     "Transfer",
		Description:  description,
		Account:      from,
		TransferFrom: from,
		TransferTo:   to,
		Date:         recurrence.Midnight(service.SystemClock{}.Now()),
	}
	if err := txn.Validate(); err != nil {
		return err
	}

	newBalances := recurrence.ApplyToBalances(balances, txn)
	if err := store.RecordTransaction(ctx, &txn, newBalances); err != nil {
		return err
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Moved %.2f from %s to %s", amount, from, to)))
	return nil
}
