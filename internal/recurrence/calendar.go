// Package recurrence implements the recurring-transaction engine: occurrence
// calculation, duplicate-safe materialization, and balance application.
package recurrence

import (
	"time"

	"github.com/butcapp/butcap/internal/model"
)

// customStrideDays is the fixed interval for the "custom" frequency.
const customStrideDays = 30

// Midnight truncates t to the start of its calendar day in UTC.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Occurrences returns every date on which the rule fires within
// [windowStart, windowEnd], both bounds inclusive, in ascending order.
// The effective lower bound is the later of windowStart and the rule's
// start date; the effective upper bound is capped by the rule's end date.
//
// The function is pure and never consults the system clock. A rule that
// fails validation produces no occurrences rather than an error, so one
// malformed rule cannot abort a batch.
func Occurrences(rule model.RecurringRule, windowStart, windowEnd time.Time) []time.Time {
	if err := rule.Validate(); err != nil {
		return nil
	}

	start := Midnight(rule.StartDate)
	lo := Midnight(windowStart)
	if start.After(lo) {
		lo = start
	}
	hi := Midnight(windowEnd)
	if rule.EndDate != nil {
		if end := Midnight(*rule.EndDate); end.Before(hi) {
			hi = end
		}
	}
	if lo.After(hi) {
		return nil
	}

	switch rule.Frequency {
	case model.FrequencyDaily:
		return stride(lo, hi, 1)
	case model.FrequencyWeekly:
		first := lo
		for first.Weekday() != rule.Weekday() {
			first = first.AddDate(0, 0, 1)
			if first.After(hi) {
				return nil
			}
		}
		return stride(first, hi, 7)
	case model.FrequencyMonthly:
		return monthly(start, lo, hi)
	case model.FrequencyYearly:
		return yearly(start, lo, hi)
	case model.FrequencyCustom:
		return customStride(start, lo, hi)
	}
	return nil
}

// stride emits every n-th day from first through hi.
func stride(first, hi time.Time, days int) []time.Time {
	var dates []time.Time
	for d := first; !d.After(hi); d = d.AddDate(0, 0, days) {
		dates = append(dates, d)
	}
	return dates
}

// monthly anchors on the start date's day of month and clamps it to the
// length of each month, so a rule starting on the 31st fires on Feb 28
// (29 in leap years) and on the 30th of 30-day months.
func monthly(start, lo, hi time.Time) []time.Time {
	anchor := start.Day()
	year, month := start.Year(), start.Month()

	var dates []time.Time
	for {
		day := anchor
		if last := daysInMonth(year, month); day > last {
			day = last
		}
		d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		if d.After(hi) {
			return dates
		}
		if !d.Before(lo) {
			dates = append(dates, d)
		}
		month++
		if month > time.December {
			month = time.January
			year++
		}
	}
}

// yearly fires on the start date's month and day once per year. A Feb 29
// start rolls to Mar 1 in non-leap years, matching time.Date normalization.
func yearly(start, lo, hi time.Time) []time.Time {
	var dates []time.Time
	for year := start.Year(); ; year++ {
		d := time.Date(year, start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
		if d.After(hi) {
			return dates
		}
		if !d.Before(lo) {
			dates = append(dates, d)
		}
	}
}

// customStride emits a fixed 30-day cadence from the start date. No
// user-configurable interval exists; 30 days is the defined behavior.
func customStride(start, lo, hi time.Time) []time.Time {
	var dates []time.Time
	for d := start; !d.After(hi); d = d.AddDate(0, 0, customStrideDays) {
		if !d.Before(lo) {
			dates = append(dates, d)
		}
	}
	return dates
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// NextOccurrence returns the first date strictly after today on which the
// rule fires, or the zero time if the rule is inactive, invalid, or has
// ended. Display code and the engine share this one calculator.
func NextOccurrence(rule model.RecurringRule, today time.Time) time.Time {
	if !rule.IsActive {
		return time.Time{}
	}
	lo := Midnight(today).AddDate(0, 0, 1)
	// Two years covers the longest gap any frequency can produce.
	hi := lo.AddDate(2, 0, 0)
	dates := Occurrences(rule, lo, hi)
	if len(dates) == 0 {
		return time.Time{}
	}
	return dates[0]
}

// DaysUntilNext returns the whole days from today until the rule next
// fires, and false if it never will.
func DaysUntilNext(rule model.RecurringRule, today time.Time) (int, bool) {
	next := NextOccurrence(rule, today)
	if next.IsZero() {
		return 0, false
	}
	return int(next.Sub(Midnight(today)).Hours() / 24), true
}
