package model

import "time"

// AccountBalances is the single per-user balance record. Balances may go
// negative: the recurring path posts bills even when funds are short.
type AccountBalances struct {
	UpdatedAt time.Time
	Cash      float64
	Bank      float64
	Savings   float64
}

// Get returns the balance of the named account.
func (b AccountBalances) Get(a Account) float64 {
	switch a {
	case AccountCash:
		return b.Cash
	case AccountBank:
		return b.Bank
	case AccountSavings:
		return b.Savings
	}
	return 0
}

// Set returns a copy of the balances with the named account replaced.
func (b AccountBalances) Set(a Account, amount float64) AccountBalances {
	switch a {
	case AccountCash:
		b.Cash = amount
	case AccountBank:
		b.Bank = amount
	case AccountSavings:
		b.Savings = amount
	}
	return b
}

// Total returns the sum across all accounts.
func (b AccountBalances) Total() float64 {
	return b.Cash + b.Bank + b.Savings
}
