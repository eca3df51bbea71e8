package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"spendsense/pkg/money"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in   string
		want Period
		ok   bool
	}{
		{"monthly", PeriodMonthly, true},
		{" Weekly ", PeriodWeekly, true},
		{"DAILY", PeriodDaily, true},
		{"yearly", PeriodYearly, true},
		{"fortnightly", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParsePeriod(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestPeriod_Window(t *testing.T) {
	assert.Equal(t, 24*time.Hour, PeriodDaily.Window())
	assert.Equal(t, 7*24*time.Hour, PeriodWeekly.Window())
	assert.Equal(t, 30*24*time.Hour, PeriodMonthly.Window())
	assert.Equal(t, 365*24*time.Hour, PeriodYearly.Window())
	assert.Zero(t, Period("bogus").Window())
}

func TestBudget_MatchesCategory(t *testing.T) {
	tests := []struct {
		budget   string
		category string
		want     bool
	}{
		{"Food & Dining", "food & dining", true},
		{"food", "Food & Dining", true},
		{"Total", "Fuel", true},
		{"overall", "Rent", true},
		{"ALL", "Shopping", true},
		{"Fuel", "Food & Dining", false},
		{"Fuel", "", false},
	}
	for _, tt := range tests {
		b := Budget{Name: tt.budget}
		assert.Equal(t, tt.want, b.MatchesCategory(tt.category), "%q vs %q", tt.budget, tt.category)
	}
}

func TestNewBudgetStatus(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	b := Budget{ID: 1, Name: "Food", Cap: money.Amount(1000_00), Period: PeriodWeekly}

	s := NewBudgetStatus(b, money.Amount(250_00), b.WindowStart(now))
	assert.Equal(t, money.Amount(750_00), s.Remaining)
	assert.Equal(t, 25.0, s.PercentUsed)
	assert.False(t, s.Exceeded)
	assert.Equal(t, now.Add(-7*24*time.Hour).Unix(), s.WindowStart)

	over := NewBudgetStatus(b, money.Amount(1500_00), now)
	assert.True(t, over.Exceeded)
	assert.Zero(t, over.Remaining)
	assert.Equal(t, 150.0, over.PercentUsed)

	exact := NewBudgetStatus(b, money.Amount(1000_00), now)
	assert.False(t, exact.Exceeded, "spending exactly the cap is not an overrun")
}

func TestValidCurrency(t *testing.T) {
	assert.True(t, ValidCurrency("INR"))
	assert.True(t, ValidCurrency("USD"))
	assert.False(t, ValidCurrency("inr"))
	assert.False(t, ValidCurrency("RUPEE"))
}

func TestBudgetPatch_Empty(t *testing.T) {
	assert.True(t, BudgetPatch{}.Empty())
	name := "x"
	assert.False(t, BudgetPatch{Name: &name}.Empty())
}

func TestNewBudgetStatus_ExtremeSpend(t *testing.T) {
	b := Budget{ID: 1, Name: "Food", Cap: money.Amount(math.MaxInt64), Period: PeriodMonthly}
	s := NewBudgetStatus(b, money.Amount(math.MinInt64), time.Unix(0, 0))
	assert.Zero(t, s.Remaining, "overflowing difference is clamped")

	b.Cap = money.Amount(100_00)
	s = NewBudgetStatus(b, money.Amount(math.MaxInt64), time.Unix(0, 0))
	assert.Zero(t, s.Remaining)
	assert.True(t, s.Exceeded)
}
