package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/butcapp/butcap/internal/cli"
	"github.com/butcapp/butcap/internal/model"
	"github.com/butcapp/butcap/internal/service"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transactions",
		Short: "List and manage transactions",
		Long: `Display the transaction log, newest first, with optional day or
month filters. Recurring transactions that came due are posted before
the list is read.`,
		RunE: runTransactions,
	}

	cmd.AddCommand(deleteTransactionCmd())

	cmd.Flags().String("date", "", "Only show a single day (YYYY-MM-DD)")
	cmd.Flags().String("month", "", "Only show a single month (YYYY-MM)")
	cmd.Flags().Int("limit", 0, "Maximum number of rows (0 = all)")
	cmd.Flags().Bool("no-apply", false, "Skip applying due recurring transactions")

	return cmd
}

func runTransactions(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	date, _ := cmd.Flags().GetString("date")
	month, _ := cmd.Flags().GetString("month")
	limit, _ := cmd.Flags().GetInt("limit")
	noApply, _ := cmd.Flags().GetBool("no-apply")

	if date != "" && month != "" {
		return fmt.Errorf("--date and --month are mutually exclusive")
	}
	if date != "" {
		if _, err := parseDay(date); err != nil {
			return err
		}
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if !noApply {
		applyDueQuietly(ctx, store)
	}

	transactions, err := store.ListTransactions(ctx, service.TransactionFilter{
		Day:   date,
		Month: month,
		Limit: limit,
	})
	if err != nil {
		return fmt.Errorf("failed to list transactions: %w", err)
	}

	if len(transactions) == 0 {
		fmt.Println(cli.SubtleStyle.Render("No transactions found."))
		return nil
	}

	fmt.Println(cli.FormatTitle("Transactions"))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		"Date", "Type", "Amount", "Account", "Category", "Description")
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		strings.Repeat("-", 10), strings.Repeat("-", 8), strings.Repeat("-", 10),
		strings.Repeat("-", 8), strings.Repeat("-", 14), strings.Repeat("-", 24))

	for i := range transactions {
		txn := &transactions[i]
		account := string(txn.Account)
		if txn.Type == model.TypeTransfer {
			account = fmt.Sprintf("%s→%s", txn.TransferFrom, txn.TransferTo)
		}
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%s\t%s\n",
			txn.Day(), txn.Type, txn.Amount, account, txn.Category, txn.Description)
	}

	return nil
}

func deleteTransactionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction permanently",
		Long: `Hard-delete a transaction by id. Balances are not adjusted:
removing a posted transaction does not undo its effect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeleteTransaction(ctx, args[0]); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess("Transaction deleted."))
			return nil
		},
	}
}
