package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/butcapp/butcap/internal/cli"
	"github.com/butcapp/butcap/internal/model"
	"github.com/butcapp/butcap/internal/recurrence"
	"github.com/butcapp/butcap/internal/service"
)

func recurringCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recurring",
		Short: "Manage recurring transactions",
		Long: `Create, inspect and apply recurring transaction rules.

A rule fires on a schedule (daily, weekly, monthly, yearly, or a fixed
30-day custom stride) and posts a transaction for every occurrence that
has not been posted yet. Posting is idempotent: applying twice never
duplicates an occurrence.`,
	}

	cmd.AddCommand(addRecurringCmd())
	cmd.AddCommand(listRecurringCmd())
	cmd.AddCommand(editRecurringCmd())
	cmd.AddCommand(toggleRecurringCmd())
	cmd.AddCommand(deleteRecurringCmd())
	cmd.AddCommand(applyRecurringCmd())

	return cmd
}

func addRecurringCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a recurring rule",
		RunE:  runAddRecurring,
	}

	cmd.Flags().String("type", "expense", "Rule type (income, expense)")
	cmd.Flags().Float64("amount", 0, "Amount (required)")
	cmd.Flags().String("category", "", "Category (required)")
	cmd.Flags().String("description", "", "Description")
	cmd.Flags().String("account", "cash", "Account (cash, bank, savings)")
	cmd.Flags().String("frequency", "monthly", "Frequency (daily, weekly, monthly, yearly, custom)")
	cmd.Flags().Int("day-of-week", 0, "Weekday for weekly rules (1=Monday..7=Sunday)")
	cmd.Flags().Int("day-of-month", 0, "Day of month, informational")
	cmd.Flags().Int("month-of-year", 0, "Month of year, informational")
	cmd.Flags().String("start", "", "Start date YYYY-MM-DD (default: today)")
	cmd.Flags().String("end", "", "Optional end date YYYY-MM-DD, inclusive")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func runAddRecurring(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	ruleType, _ := cmd.Flags().GetString("type")
	amount, _ := cmd.Flags().GetFloat64("amount")
	category, _ := cmd.Flags().GetString("category")
	description, _ := cmd.Flags().GetString("description")
	accountFlag, _ := cmd.Flags().GetString("account")
	frequency, _ := cmd.Flags().GetString("frequency")
	dayOfWeek, _ := cmd.Flags().GetInt("day-of-week")
	dayOfMonth, _ := cmd.Flags().GetInt("day-of-month")
	monthOfYear, _ := cmd.Flags().GetInt("month-of-year")
	startFlag, _ := cmd.Flags().GetString("start")
	endFlag, _ := cmd.Flags().GetString("end")

	account, err := parseAccount(accountFlag)
	if err != nil {
		return err
	}

	start := recurrence.Midnight(service.SystemClock{}.Now())
	if startFlag != "" {
		if start, err = parseDay(startFlag); err != nil {
			return err
		}
	}

	rule := model.RecurringRule{
		ID:          uuid.NewString(),
		Type:        model.TransactionType(ruleType),
		Amount:      amount,
		Category:    category,
		Description: description,
		Account:     account,
		Frequency:   model.Frequency(frequency),
		DayOfWeek:   dayOfWeek,
		DayOfMonth:  dayOfMonth,
		MonthOfYear: monthOfYear,
		StartDate:   start,
		IsActive:    true,
	}
	if endFlag != "" {
		end, err := parseDay(endFlag)
		if err != nil {
			return err
		}
		rule.EndDate = &end
	}
	if err := rule.Validate(); err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.CreateRecurringRule(ctx, &rule); err != nil {
		return err
	}

	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created %s rule %s (%s %.2f, %s)",
		rule.Frequency, rule.ID, rule.Type, rule.Amount, rule.Category)))
	fmt.Println(cli.SubtleStyle.Render("Run 'butcap recurring apply' to post due occurrences."))
	return nil
}

func listRecurringCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recurring rules with their next occurrence",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			rules, err := store.ListRecurringRules(ctx)
			if err != nil {
				return fmt.Errorf("failed to list recurring rules: %w", err)
			}
			if len(rules) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No recurring rules. Use 'butcap recurring add' to create one."))
				return nil
			}

			today := service.SystemClock{}.Now()

			fmt.Println(cli.TitleStyle.Render(cli.RepeatIcon + " Recurring rules"))

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer w.Flush()

			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				"ID", "Type", "Amount", "Account", "Category", "Frequency", "Next", "Status")
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				strings.Repeat("-", 36), strings.Repeat("-", 8), strings.Repeat("-", 10),
				strings.Repeat("-", 8), strings.Repeat("-", 14), strings.Repeat("-", 9),
				strings.Repeat("-", 16), strings.Repeat("-", 8))

			for i := range rules {
				rule := &rules[i]
				status := "active"
				next := "-"
				if !rule.IsActive {
					status = "inactive"
				} else if days, ok := recurrence.DaysUntilNext(*rule, today); ok {
					next = fmt.Sprintf("%s (%dd)",
						recurrence.NextOccurrence(*rule, today).Format("2006-01-02"), days)
				} else {
					next = "ended"
				}
				fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%s\t%s\t%s\t%s\n",
					rule.ID, rule.Type, rule.Amount, rule.Account,
					rule.Category, rule.Frequency, next, status)
			}

			return nil
		},
	}
}

func editRecurringCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a recurring rule",
		Long: `Change any field of an existing rule. Only the provided flags are
updated; transactions already posted by the rule are never touched.`,
		Args: cobra.ExactArgs(1),
		RunE: runEditRecurring,
	}

	cmd.Flags().String("type", "", "Rule type (income, expense)")
	cmd.Flags().Float64("amount", 0, "Amount")
	cmd.Flags().String("category", "", "Category")
	cmd.Flags().String("description", "", "Description")
	cmd.Flags().String("account", "", "Account (cash, bank, savings)")
	cmd.Flags().String("frequency", "", "Frequency (daily, weekly, monthly, yearly, custom)")
	cmd.Flags().Int("day-of-week", 0, "Weekday for weekly rules (1=Monday..7=Sunday)")
	cmd.Flags().String("start", "", "Start date YYYY-MM-DD")
	cmd.Flags().String("end", "", "End date YYYY-MM-DD, or 'none' to clear")

	return cmd
}

func runEditRecurring(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	rule, err := store.GetRecurringRule(ctx, args[0])
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("type") {
		v, _ := cmd.Flags().GetString("type")
		rule.Type = model.TransactionType(v)
	}
	if cmd.Flags().Changed("amount") {
		rule.Amount, _ = cmd.Flags().GetFloat64("amount")
	}
	if cmd.Flags().Changed("category") {
		rule.Category, _ = cmd.Flags().GetString("category")
	}
	if cmd.Flags().Changed("description") {
		rule.Description, _ = cmd.Flags().GetString("description")
	}
	if cmd.Flags().Changed("account") {
		v, _ := cmd.Flags().GetString("account")
		account, err := parseAccount(v)
		if err != nil {
			return err
		}
		rule.Account = account
	}
	if cmd.Flags().Changed("frequency") {
		v, _ := cmd.Flags().GetString("frequency")
		rule.Frequency = model.Frequency(v)
	}
	if cmd.Flags().Changed("day-of-week") {
		rule.DayOfWeek, _ = cmd.Flags().GetInt("day-of-week")
	}
	if cmd.Flags().Changed("start") {
		v, _ := cmd.Flags().GetString("start")
		start, err := parseDay(v)
		if err != nil {
			return err
		}
		rule.StartDate = start
	}
	if cmd.Flags().Changed("end") {
		v, _ := cmd.Flags().GetString("end")
		if v == "none" {
			rule.EndDate = nil
		} else {
			end, err := parseDay(v)
			if err != nil {
				return err
			}
			rule.EndDate = &end
		}
	}

	if err := rule.Validate(); err != nil {
		return err
	}
	if err := store.UpdateRecurringRule(ctx, rule); err != nil {
		return err
	}

	fmt.Println(cli.FormatSuccess("Rule updated."))
	return nil
}

func toggleRecurringCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Activate or deactivate a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			rule, err := store.GetRecurringRule(ctx, args[0])
			if err != nil {
				return err
			}
			if err := store.SetRecurringRuleActive(ctx, rule.ID, !rule.IsActive); err != nil {
				return err
			}

			state := "activated"
			if rule.IsActive {
				state = "deactivated"
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Rule %s %s.", rule.ID, state)))
			return nil
		},
	}
}

func deleteRecurringCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a recurring rule",
		Long: `Remove a rule permanently. Transactions the rule already posted
remain in the log untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.DeleteRecurringRule(ctx, args[0]); err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess("Rule deleted."))
			return nil
		},
	}
}

func applyRecurringCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply",
		Short: "Post all due recurring transactions",
		Long: `Materialize every unapplied occurrence of every active rule up to
today. Safe to run any number of times: occurrences already in the log
are skipped, and a failed write is retried on the next run.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer store.Close()

			clock := service.SystemClock{}

			// Plan first so the progress bar knows the total.
			rules, err := store.ListRecurringRules(ctx)
			if err != nil {
				return fmt.Errorf("failed to list recurring rules: %w", err)
			}
			existing, err := store.ListTransactions(ctx, service.TransactionFilter{})
			if err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}
			planned, _ := recurrence.Plan(rules, existing, model.AccountBalances{}, clock.Now())
			if len(planned) == 0 {
				fmt.Println(cli.SubtleStyle.Render("Nothing due."))
				return nil
			}

			bar := progressbar.NewOptions(len(planned),
				progressbar.OptionSetDescription("Posting"),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)

			engine := recurrence.NewEngine(store, clock)
			engine.OnApply = func(model.Transaction) { _ = bar.Add(1) }

			summary, err := engine.ApplyDue(ctx)
			_ = bar.Finish()
			if summary == nil {
				return err
			}
			if err != nil {
				fmt.Println(cli.FormatWarning(fmt.Sprintf(
					"%d occurrence(s) failed and will be retried next run: %v", summary.Failed, err)))
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Posted %d recurring transaction(s).", summary.Applied)))
			fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf(
				"Balances: cash %.2f, bank %.2f, savings %.2f",
				summary.Balances.Cash, summary.Balances.Bank, summary.Balances.Savings)))
			return nil
		},
	}
}
