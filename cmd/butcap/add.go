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

func addCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an income or expense",
		Long: `Record a manual transaction against one account.

Unlike recurring rules, manual expenses are rejected when the account
does not hold enough funds.`,
		RunE: runAdd,
	}

	cmd.Flags().String("type", "expense", "Transaction type (income, expense)")
	cmd.Flags().Float64("amount", 0, "Amount (required)")
	cmd.Flags().String("category", "", "Category (required)")
	cmd.Flags().String("description", "", "Description")
	cmd.Flags().String("account", "cash", "Account (cash, bank, savings)")
	cmd.Flags().String("date", "", "Effective date YYYY-MM-DD (default: today)")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func runAdd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	txnType, _ := cmd.Flags().GetString("type")
	amount, _ := cmd.Flags().GetFloat64("amount")
	category, _ := cmd.Flags().GetString("category")
	description, _ := cmd.Flags().GetString("description")
	accountFlag, _ := cmd.Flags().GetString("account")
	dateFlag, _ := cmd.Flags().GetString("date")

	if txnType != string(model.TypeIncome) && txnType != string(model.TypeExpense) {
		return fmt.Errorf("invalid type %q, expected income or expense", txnType)
	}
	account, err := parseAccount(accountFlag)
	if err != nil {
		return err
	}

	clock := service.SystemClock{}
	date := recurrence.Midnight(clock.Now())
	if dateFlag != "" {
		if date, err = parseDay(dateFlag); err != nil {
			return err
		}
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

	txn := model.Transaction{
		ID:          uuid.NewString(),
		Type:        model.TransactionType(txnType),
		Amount:      amount,
		Category:    category,
		Description: description,
		Account:     account,
		Date:        date,
	}
	if err := txn.Validate(); err != nil {
		return err
	}

	// Manual expenses gate on funds; the recurring path never does.
	if txn.Type == model.TypeExpense && balances.Get(account) < amount {
		return fmt.Errorf("%w: %s holds %.2f, tried to spend %.2f",
			common.ErrInsufficientFunds, account, balances.Get(account), amount)
	}

	newBalances := recurrence.ApplyToBalances(balances, txn)
	if err := store.RecordTransaction(ctx, &txn, newBalances); err != nil {
		return err
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Recorded %s of %s on %s (%s)",
		txn.Type, cli.FormatAmount(amount, txn.Type == model.TypeIncome), account, category)))
	return nil
}
