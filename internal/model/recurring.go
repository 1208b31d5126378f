package model

import "time"

// Frequency describes how often a recurring rule fires.
type Frequency string

const (
	// FrequencyDaily fires every calendar day.
	FrequencyDaily Frequency = "daily"
	// FrequencyWeekly fires on a fixed weekday.
	FrequencyWeekly Frequency = "weekly"
	// FrequencyMonthly fires on the start date's day of month, clamped to
	// the length of shorter months.
	FrequencyMonthly Frequency = "monthly"
	// FrequencyYearly fires on the start date's month and day each year.
	FrequencyYearly Frequency = "yearly"
	// FrequencyCustom fires on a fixed 30-day stride from the start date.
	FrequencyCustom Frequency = "custom"
)

// RecurringRule defines a transaction that repeats on a schedule.
// Recurring rules are income or expense only; transfers do not recur.
type RecurringRule struct {
	StartDate   time.Time
	EndDate     *time.Time // inclusive upper bound, nil for open-ended
	ID          string
	Type        TransactionType
	Category    string
	Description string
	Account     Account
	Frequency   Frequency
	Amount      float64
	DayOfWeek   int // ISO 1=Monday..7=Sunday, set iff Frequency == weekly
	DayOfMonth  int // informational only; the monthly anchor comes from StartDate
	MonthOfYear int // informational only
	IsActive    bool
}

// Validate checks the rule for an internally consistent definition.
// The occurrence calculator treats an invalid rule as producing no
// occurrences rather than failing the whole batch.
func (r *RecurringRule) Validate() error {
	if r.Amount <= 0 {
		return ErrNonPositiveAmount
	}
	if r.Category == "" {
		return ErrEmptyCategory
	}
	if r.Type != TypeIncome && r.Type != TypeExpense {
		return ErrUnknownTransactionType
	}
	if !ValidAccount(r.Account) {
		return ErrUnknownAccount
	}
	switch r.Frequency {
	case FrequencyWeekly:
		if r.DayOfWeek < 1 || r.DayOfWeek > 7 {
			return ErrInvalidDayOfWeek
		}
	case FrequencyDaily, FrequencyMonthly, FrequencyYearly, FrequencyCustom:
	default:
		return ErrUnknownFrequency
	}
	if r.StartDate.IsZero() {
		return ErrMissingStartDate
	}
	if r.EndDate != nil && r.EndDate.Before(r.StartDate) {
		return ErrEndBeforeStart
	}
	return nil
}

// Weekday converts the rule's ISO day of week to Go's time.Weekday,
// where Sunday is 0.
func (r *RecurringRule) Weekday() time.Weekday {
	if r.DayOfWeek == 7 {
		return time.Sunday
	}
	return time.Weekday(r.DayOfWeek)
}
