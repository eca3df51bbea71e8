package domain

import (
	"regexp"
	"strings"
	"time"

	"spendsense/pkg/money"
	"spendsense/pkg/safe"
)

// Period is the rolling window a budget cap applies to.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

// ParsePeriod accepts a period case-insensitively.
func ParsePeriod(s string) (Period, bool) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodYearly:
		return p, true
	}
	return "", false
}

// Window returns the length of the rolling window.
func (p Period) Window() time.Duration {
	const day = 24 * time.Hour
	switch p {
	case PeriodDaily:
		return day
	case PeriodWeekly:
		return 7 * day
	case PeriodMonthly:
		return 30 * day
	case PeriodYearly:
		return 365 * day
	}
	return 0
}

// DefaultCurrency applies when a budget is created without one.
const DefaultCurrency = "INR"

var currencyRe = regexp.MustCompile(`^[A-Z]{3}$`)

// ValidCurrency reports whether c is a three letter upper-case code.
func ValidCurrency(c string) bool {
	return currencyRe.MatchString(c)
}

// Budget caps spending for a user over a period.
type Budget struct {
	ID        int64        `json:"id"`
	UID       string       `json:"uid"`
	Name      string       `json:"name"`
	Cap       money.Amount `json:"cap"`
	Currency  string       `json:"currency"`
	Period    Period       `json:"period"`
	CreatedAt int64        `json:"created_at"`
}

// BudgetPatch carries a partial budget update; nil fields are unchanged.
type BudgetPatch struct {
	Name     *string
	Cap      *money.Amount
	Currency *string
	Period   *Period
}

// Empty reports whether the patch changes nothing.
func (p BudgetPatch) Empty() bool {
	return p.Name == nil && p.Cap == nil && p.Currency == nil && p.Period == nil
}

// Names that make a budget count every debit.
var overallBudgetNames = []string{"all", "total", "overall"}

// IsOverall reports whether the budget tracks all spending.
func (b *Budget) IsOverall() bool {
	name := strings.ToLower(strings.TrimSpace(b.Name))
	for _, n := range overallBudgetNames {
		if name == n {
			return true
		}
	}
	return false
}

// MatchesCategory reports whether debits in category count against b.
func (b *Budget) MatchesCategory(category string) bool {
	if b.IsOverall() {
		return true
	}
	name := strings.ToLower(strings.TrimSpace(b.Name))
	cat := strings.ToLower(strings.TrimSpace(category))
	if name == "" || cat == "" {
		return false
	}
	return cat == name || strings.Contains(cat, name)
}

// WindowStart returns the beginning of the budget's current window.
func (b *Budget) WindowStart(now time.Time) time.Time {
	return now.Add(-b.Period.Window())
}

// BudgetStatus is a budget with its spend over the current window.
type BudgetStatus struct {
	Budget
	Spent       money.Amount `json:"spent"`
	Remaining   money.Amount `json:"remaining"`
	PercentUsed float64      `json:"percent_used"`
	Exceeded    bool         `json:"exceeded"`
	WindowStart int64        `json:"window_start"`
}

// NewBudgetStatus derives the remaining amount and usage from spent.
func NewBudgetStatus(b Budget, spent money.Amount, windowStart time.Time) BudgetStatus {
	s := BudgetStatus{
		Budget:      b,
		Spent:       spent,
		WindowStart: windowStart.Unix(),
	}
	if left, err := safe.Sub(int64(b.Cap), int64(spent)); err == nil && left > 0 {
		s.Remaining = money.Amount(left)
	}
	if b.Cap > 0 {
		pct := float64(spent) * 100 / float64(b.Cap)
		s.PercentUsed = float64(int64(pct*100+0.5)) / 100
	}
	s.Exceeded = spent > b.Cap
	return s
}
