package domain

import (
	"strings"
	"time"

	"spendsense/pkg/money"
)

// CategorySpending is the total amount per category.
type CategorySpending struct {
	Category   string       `json:"category"`
	TotalSpent money.Amount `json:"total_spent"`
}

// SpendingQuery filters the category-spending aggregate.
type SpendingQuery struct {
	UID     string
	TxnType TxnType   // "" means both credit and debit
	Since   time.Time // zero means all time
	Asc     bool
}

// SpendingSince maps the period query value to a window start.
// Unknown or empty periods mean all time.
func SpendingSince(period string, now time.Time) time.Time {
	switch strings.ToLower(period) {
	case "weekly":
		return now.Add(-7 * 24 * time.Hour)
	case "monthly":
		return now.Add(-30 * 24 * time.Hour)
	}
	return time.Time{}
}
