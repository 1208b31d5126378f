package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/butcapp/butcap/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrInvalidLimit = errors.New("limit cannot be negative")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateTransaction ensures a transaction is present and well formed.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if err := validateString(txn.ID, "transaction.ID"); err != nil {
		return err
	}
	return txn.Validate()
}

// validateRule ensures a recurring rule is present and well formed.
func validateRule(rule *model.RecurringRule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule", ErrNilParameter)
	}
	if err := validateString(rule.ID, "rule.ID"); err != nil {
		return err
	}
	return rule.Validate()
}
