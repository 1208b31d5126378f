package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/butcapp/butcap/internal/model"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func baseRule(frequency model.Frequency, start time.Time) model.RecurringRule {
	return model.RecurringRule{
		ID:        "rule-1",
		Type:      model.TypeExpense,
		Amount:    100,
		Category:  "Bills",
		Account:   model.AccountBank,
		Frequency: frequency,
		StartDate: start,
		IsActive:  true,
	}
}

func TestOccurrences_Daily(t *testing.T) {
	start := date(2024, 3, 1)

	tests := []struct {
		name  string
		end   time.Time
		count int
	}{
		{name: "same day window has one occurrence", end: start, count: 1},
		{name: "n days yields n+1 occurrences", end: date(2024, 3, 11), count: 11},
		{name: "spans month boundary", end: date(2024, 4, 2), count: 33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := baseRule(model.FrequencyDaily, start)
			dates := Occurrences(rule, start, tt.end)

			require.Len(t, dates, tt.count)
			assert.Equal(t, start, dates[0])
			assert.Equal(t, tt.end, dates[len(dates)-1])
		})
	}
}

func TestOccurrences_WeeklyAnchorsOnRuleWeekday(t *testing.T) {
	// 2024-03-06 is a Wednesday; the rule fires on Sundays.
	rule := baseRule(model.FrequencyWeekly, date(2024, 3, 6))
	rule.DayOfWeek = 7

	dates := Occurrences(rule, rule.StartDate, date(2024, 3, 31))

	require.Len(t, dates, 4)
	assert.Equal(t, date(2024, 3, 10), dates[0], "first occurrence is the following Sunday, not the start Wednesday")
	for _, d := range dates {
		assert.Equal(t, time.Sunday, d.Weekday())
	}
}

func TestOccurrences_WeeklyMondayUsesISONumbering(t *testing.T) {
	rule := baseRule(model.FrequencyWeekly, date(2024, 3, 6))
	rule.DayOfWeek = 1

	dates := Occurrences(rule, rule.StartDate, date(2024, 3, 18))

	require.Len(t, dates, 2)
	assert.Equal(t, date(2024, 3, 11), dates[0])
	assert.Equal(t, time.Monday, dates[0].Weekday())
}

func TestOccurrences_MonthlyClampsShortMonths(t *testing.T) {
	rule := baseRule(model.FrequencyMonthly, date(2024, 1, 31))

	dates := Occurrences(rule, rule.StartDate, date(2024, 4, 30))

	require.Len(t, dates, 4)
	assert.Equal(t, date(2024, 1, 31), dates[0])
	assert.Equal(t, date(2024, 2, 29), dates[1], "leap-year February clamps to the 29th")
	assert.Equal(t, date(2024, 3, 31), dates[2])
	assert.Equal(t, date(2024, 4, 30), dates[3], "30-day month clamps to the 30th")
}

func TestOccurrences_MonthlyClampsNonLeapFebruary(t *testing.T) {
	rule := baseRule(model.FrequencyMonthly, date(2023, 1, 31))

	dates := Occurrences(rule, rule.StartDate, date(2023, 2, 28))

	require.Len(t, dates, 2)
	assert.Equal(t, date(2023, 2, 28), dates[1])
}

func TestOccurrences_MonthlyKeepsAnchorAfterShortMonth(t *testing.T) {
	// After clamping to Feb 29 the anchor must snap back to the 31st,
	// not drift to the 29th of every later month.
	rule := baseRule(model.FrequencyMonthly, date(2024, 1, 31))

	dates := Occurrences(rule, rule.StartDate, date(2024, 5, 31))

	require.Len(t, dates, 5)
	assert.Equal(t, date(2024, 5, 31), dates[4])
}

func TestOccurrences_Yearly(t *testing.T) {
	rule := baseRule(model.FrequencyYearly, date(2021, 6, 15))

	dates := Occurrences(rule, rule.StartDate, date(2024, 6, 14))

	require.Len(t, dates, 3)
	assert.Equal(t, date(2021, 6, 15), dates[0])
	assert.Equal(t, date(2023, 6, 15), dates[2])
}

func TestOccurrences_CustomUsesThirtyDayStride(t *testing.T) {
	rule := baseRule(model.FrequencyCustom, date(2024, 1, 1))

	dates := Occurrences(rule, rule.StartDate, date(2024, 3, 1))

	require.Len(t, dates, 3)
	assert.Equal(t, date(2024, 1, 1), dates[0])
	assert.Equal(t, date(2024, 1, 31), dates[1])
	assert.Equal(t, date(2024, 3, 1), dates[2])
}

func TestOccurrences_EndDateCapsEmission(t *testing.T) {
	rule := baseRule(model.FrequencyDaily, date(2024, 3, 1))
	end := date(2024, 3, 5)
	rule.EndDate = &end

	dates := Occurrences(rule, rule.StartDate, date(2024, 3, 31))

	require.Len(t, dates, 5)
	assert.Equal(t, end, dates[len(dates)-1])
}

func TestOccurrences_WindowEdgeCases(t *testing.T) {
	tests := []struct {
		name string
		rule func() model.RecurringRule
		lo   time.Time
		hi   time.Time
		want int
	}{
		{
			name: "start after window is empty",
			rule: func() model.RecurringRule { return baseRule(model.FrequencyDaily, date(2024, 5, 1)) },
			lo:   date(2024, 5, 1),
			hi:   date(2024, 4, 30),
			want: 0,
		},
		{
			name: "window lower bound trims earlier occurrences",
			rule: func() model.RecurringRule { return baseRule(model.FrequencyDaily, date(2024, 3, 1)) },
			lo:   date(2024, 3, 10),
			hi:   date(2024, 3, 12),
			want: 3,
		},
		{
			name: "weekly without day of week fails closed",
			rule: func() model.RecurringRule { return baseRule(model.FrequencyWeekly, date(2024, 3, 1)) },
			lo:   date(2024, 3, 1),
			hi:   date(2024, 3, 31),
			want: 0,
		},
		{
			name: "unknown frequency fails closed",
			rule: func() model.RecurringRule { return baseRule("fortnightly", date(2024, 3, 1)) },
			lo:   date(2024, 3, 1),
			hi:   date(2024, 3, 31),
			want: 0,
		},
		{
			name: "non-positive amount fails closed",
			rule: func() model.RecurringRule {
				r := baseRule(model.FrequencyDaily, date(2024, 3, 1))
				r.Amount = 0
				return r
			},
			lo:   date(2024, 3, 1),
			hi:   date(2024, 3, 31),
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, Occurrences(tt.rule(), tt.lo, tt.hi), tt.want)
		})
	}
}

func TestOccurrences_TruncatesTimeOfDay(t *testing.T) {
	rule := baseRule(model.FrequencyDaily, time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC))

	dates := Occurrences(rule, rule.StartDate, time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC))

	require.Len(t, dates, 2)
	assert.Equal(t, date(2024, 3, 1), dates[0])
}

func TestNextOccurrence(t *testing.T) {
	today := date(2024, 3, 6) // Wednesday

	tests := []struct {
		name string
		rule func() model.RecurringRule
		want time.Time
	}{
		{
			name: "daily fires tomorrow",
			rule: func() model.RecurringRule { return baseRule(model.FrequencyDaily, date(2024, 1, 1)) },
			want: date(2024, 3, 7),
		},
		{
			name: "weekly fires next matching weekday",
			rule: func() model.RecurringRule {
				r := baseRule(model.FrequencyWeekly, date(2024, 1, 1))
				r.DayOfWeek = 7
				return r
			},
			want: date(2024, 3, 10),
		},
		{
			name: "monthly fires on the clamped anchor",
			rule: func() model.RecurringRule { return baseRule(model.FrequencyMonthly, date(2024, 1, 31)) },
			want: date(2024, 3, 31),
		},
		{
			name: "inactive rule never fires",
			rule: func() model.RecurringRule {
				r := baseRule(model.FrequencyDaily, date(2024, 1, 1))
				r.IsActive = false
				return r
			},
			want: time.Time{},
		},
		{
			name: "ended rule never fires",
			rule: func() model.RecurringRule {
				r := baseRule(model.FrequencyDaily, date(2024, 1, 1))
				end := date(2024, 2, 1)
				r.EndDate = &end
				return r
			},
			want: time.Time{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextOccurrence(tt.rule(), today))
		})
	}
}

func TestDaysUntilNext(t *testing.T) {
	today := date(2024, 3, 6)

	rule := baseRule(model.FrequencyWeekly, date(2024, 1, 1))
	rule.DayOfWeek = 7

	days, ok := DaysUntilNext(rule, today)
	require.True(t, ok)
	assert.Equal(t, 4, days)

	rule.IsActive = false
	_, ok = DaysUntilNext(rule, today)
	assert.False(t, ok)
}
