// Package model defines the core domain models used throughout the application.
package model

import "time"

// TransactionType indicates the direction of a transaction.
type TransactionType string

const (
	// TypeIncome adds money to an account.
	TypeIncome TransactionType = "income"
	// TypeExpense removes money from an account.
	TypeExpense TransactionType = "expense"
	// TypeTransfer moves money between two accounts.
	TypeTransfer TransactionType = "transfer"
)

// Account identifies one of the three tracked balance buckets.
type Account string

const (
	// AccountCash is physical cash on hand.
	AccountCash Account = "cash"
	// AccountBank is the checking account.
	AccountBank Account = "bank"
	// AccountSavings is the savings account.
	AccountSavings Account = "savings"
)

// Accounts lists every known account in display order.
var Accounts = []Account{AccountCash, AccountBank, AccountSavings}

// ValidAccount reports whether a is one of the known accounts.
func ValidAccount(a Account) bool {
	switch a {
	case AccountCash, AccountBank, AccountSavings:
		return true
	}
	return false
}

// Transaction represents a single concrete movement of money.
// Date is the timestamp of economic effect, not creation time.
type Transaction struct {
	Date         time.Time
	ID           string
	Type         TransactionType
	Category     string
	Description  string
	Account      Account // source account for transfers
	TransferFrom Account // set iff Type == TypeTransfer
	TransferTo   Account // set iff Type == TypeTransfer
	RecurringID  string  // set iff IsRecurring
	Amount       float64
	IsRecurring  bool
}

// Day returns the calendar day of the transaction as YYYY-MM-DD.
// Materialized recurring transactions store full timestamps, so dedup
// checks compare days, never timestamps.
func (t *Transaction) Day() string {
	return t.Date.Format("2006-01-02")
}

// Validate checks the transaction for internal consistency.
func (t *Transaction) Validate() error {
	if t.Amount <= 0 {
		return ErrNonPositiveAmount
	}
	switch t.Type {
	case TypeIncome, TypeExpense:
		if !ValidAccount(t.Account) {
			return ErrUnknownAccount
		}
	case TypeTransfer:
		if !ValidAccount(t.TransferFrom) || !ValidAccount(t.TransferTo) {
			return ErrUnknownAccount
		}
		if t.TransferFrom == t.TransferTo {
			return ErrSameAccountTransfer
		}
	default:
		return ErrUnknownTransactionType
	}
	if t.IsRecurring && t.RecurringID == "" {
		return ErrMissingRecurringID
	}
	return nil
}
