package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/butcapp/butcap/internal/common"
	"github.com/butcapp/butcap/internal/model"
)

const ruleColumns = `id, type, amount, category, description, account, frequency,
	day_of_week, day_of_month, month_of_year, start_date, end_date, is_active`

// ListRecurringRules returns all recurring rules, oldest first.
func (s *SQLiteStorage) ListRecurringRules(ctx context.Context) ([]model.RecurringRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + ruleColumns + ` FROM recurring_rules ORDER BY created_at, id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query recurring rules: %w", err)
	}
	defer rows.Close()

	var rules []model.RecurringRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recurring rules: %w", err)
	}

	slog.Debug("retrieved recurring rules", "count", len(rules))
	return rules, nil
}

// GetRecurringRule returns a single rule by id, or ErrNotFound.
func (s *SQLiteStorage) GetRecurringRule(ctx context.Context, id string) (*model.RecurringRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	query := `SELECT ` + ruleColumns + ` FROM recurring_rules WHERE id = ?`
	rule, err := scanRule(s.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("rule %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &rule, nil
}

// CreateRecurringRule inserts a new rule.
func (s *SQLiteStorage) CreateRecurringRule(ctx context.Context, rule *model.RecurringRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}

	query := `
		INSERT INTO recurring_rules (` + ruleColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		rule.ID, string(rule.Type), rule.Amount, rule.Category, rule.Description,
		string(rule.Account), string(rule.Frequency),
		nullInt(rule.DayOfWeek), nullInt(rule.DayOfMonth), nullInt(rule.MonthOfYear),
		rule.StartDate.UTC(), nullTime(rule.EndDate), rule.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to create recurring rule: %w", err)
	}

	slog.Debug("created recurring rule", "id", rule.ID, "frequency", rule.Frequency)
	return nil
}

// UpdateRecurringRule replaces every editable field of an existing rule.
func (s *SQLiteStorage) UpdateRecurringRule(ctx context.Context, rule *model.RecurringRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}

	query := `
		UPDATE recurring_rules SET
			type = ?, amount = ?, category = ?, description = ?, account = ?,
			frequency = ?, day_of_week = ?, day_of_month = ?, month_of_year = ?,
			start_date = ?, end_date = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	res, err := s.db.ExecContext(ctx, query,
		string(rule.Type), rule.Amount, rule.Category, rule.Description,
		string(rule.Account), string(rule.Frequency),
		nullInt(rule.DayOfWeek), nullInt(rule.DayOfMonth), nullInt(rule.MonthOfYear),
		rule.StartDate.UTC(), nullTime(rule.EndDate), rule.IsActive,
		rule.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update recurring rule: %w", err)
	}
	return requireAffected(res, rule.ID)
}

// SetRecurringRuleActive toggles a rule without touching its definition.
func (s *SQLiteStorage) SetRecurringRuleActive(ctx context.Context, id string, active bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE recurring_rules SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		active, id)
	if err != nil {
		return fmt.Errorf("failed to toggle recurring rule: %w", err)
	}
	return requireAffected(res, id)
}

// DeleteRecurringRule removes the rule definition. Transactions the rule
// already materialized stay in the log untouched.
func (s *SQLiteStorage) DeleteRecurringRule(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM recurring_rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete recurring rule: %w", err)
	}
	return requireAffected(res, id)
}

func requireAffected(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("rule %s: %w", id, common.ErrNotFound)
	}
	return nil
}

func scanRule(row rowScanner) (model.RecurringRule, error) {
	var rule model.RecurringRule
	var ruleType, account, frequency string
	var description sql.NullString
	var dayOfWeek, dayOfMonth, monthOfYear sql.NullInt64
	var startDate time.Time
	var endDate sql.NullTime

	err := row.Scan(
		&rule.ID, &ruleType, &rule.Amount, &rule.Category, &description,
		&account, &frequency, &dayOfWeek, &dayOfMonth, &monthOfYear,
		&startDate, &endDate, &rule.IsActive,
	)
	if err == sql.ErrNoRows {
		return model.RecurringRule{}, err
	}
	if err != nil {
		return model.RecurringRule{}, fmt.Errorf("failed to scan recurring rule: %w", err)
	}

	rule.Type = model.TransactionType(ruleType)
	rule.Description = description.String
	rule.Account = model.Account(account)
	rule.Frequency = model.Frequency(frequency)
	rule.DayOfWeek = int(dayOfWeek.Int64)
	rule.DayOfMonth = int(dayOfMonth.Int64)
	rule.MonthOfYear = int(monthOfYear.Int64)
	rule.StartDate = startDate.UTC()
	if endDate.Valid {
		end := endDate.Time.UTC()
		rule.EndDate = &end
	}
	return rule, nil
}

func nullInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
