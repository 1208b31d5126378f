package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		ID:       "t1",
		Type:     TypeExpense,
		Amount:   10,
		Category: "Food",
		Account:  AccountCash,
		Date:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"valid expense", func(*Transaction) {}, nil},
		{"valid income", func(tr *Transaction) { tr.Type = TypeIncome }, nil},
		{"zero amount", func(tr *Transaction) { tr.Amount = 0 }, ErrNonPositiveAmount},
		{"negative amount", func(tr *Transaction) { tr.Amount = -5 }, ErrNonPositiveAmount},
		{"unknown type", func(tr *Transaction) { tr.Type = "loan" }, ErrUnknownTransactionType},
		{"unknown account", func(tr *Transaction) { tr.Account = "crypto" }, ErrUnknownAccount},
		{"recurring without rule id", func(tr *Transaction) { tr.IsRecurring = true }, ErrMissingRecurringID},
		{"recurring with rule id", func(tr *Transaction) {
			tr.IsRecurring = true
			tr.RecurringID = "rule-1"
		}, nil},
		{"valid transfer", func(tr *Transaction) {
			tr.Type = TypeTransfer
			tr.TransferFrom = AccountCash
			tr.TransferTo = AccountBank
		}, nil},
		{"transfer to same account", func(tr *Transaction) {
			tr.Type = TypeTransfer
			tr.TransferFrom = AccountBank
			tr.TransferTo = AccountBank
		}, ErrSameAccountTransfer},
		{"transfer missing endpoint", func(tr *Transaction) {
			tr.Type = TypeTransfer
			tr.TransferFrom = AccountBank
		}, ErrUnknownAccount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := valid
			tt.mutate(&txn)
			err := txn.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestTransactionDay(t *testing.T) {
	txn := Transaction{Date: time.Date(2024, 2, 29, 18, 45, 12, 0, time.UTC)}
	assert.Equal(t, "2024-02-29", txn.Day())
}

func TestValidAccount(t *testing.T) {
	for _, a := range Accounts {
		assert.True(t, ValidAccount(a))
	}
	assert.False(t, ValidAccount("wallet"))
	assert.False(t, ValidAccount(""))
}
