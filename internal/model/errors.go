package model

import "errors"

// Validation errors for domain models.
var (
	ErrNonPositiveAmount      = errors.New("amount must be positive")
	ErrEmptyCategory          = errors.New("category cannot be empty")
	ErrUnknownAccount         = errors.New("unknown account")
	ErrUnknownTransactionType = errors.New("unknown transaction type")
	ErrUnknownFrequency       = errors.New("unknown frequency")
	ErrInvalidDayOfWeek       = errors.New("day of week must be 1-7")
	ErrSameAccountTransfer    = errors.New("transfer accounts must differ")
	ErrMissingRecurringID     = errors.New("recurring transaction missing rule id")
	ErrMissingStartDate       = errors.New("start date is required")
	ErrEndBeforeStart         = errors.New("end date before start date")
)
