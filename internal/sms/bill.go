package sms

import (
	"regexp"
	"strings"
	"time"

	"spendsense/internal/domain"
	"spendsense/pkg/money"
)

var billRe = regexp.MustCompile(`(?i)(\d+\.?\d*)\s*(?:INR|₹)?(?:\s*is)?\s*(?:due|due date|due on)\s*(\d{2}[-/]\d{2}[-/]\d{4})`)

// BillMatch is the amount and due date found in a bill reminder.
type BillMatch struct {
	Amount  money.Amount
	DueDate string // YYYY-MM-DD
}

// DetectBill looks for "<amount> ... due <dd-mm-yyyy>" in body.
// Messages whose date is not a real calendar date are not bills.
func DetectBill(body string) (BillMatch, bool) {
	m := billRe.FindStringSubmatch(body)
	if m == nil {
		return BillMatch{}, false
	}

	amount, err := money.Parse(m[1])
	if err != nil {
		return BillMatch{}, false
	}

	due, err := time.Parse("02-01-2006", strings.ReplaceAll(m[2], "/", "-"))
	if err != nil {
		return BillMatch{}, false
	}

	return BillMatch{Amount: amount, DueDate: due.Format(domain.DueDateLayout)}, true
}
