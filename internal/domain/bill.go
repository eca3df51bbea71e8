package domain

import (
	"strings"

	"spendsense/pkg/money"
)

// BillStatus is the payment state of a bill.
type BillStatus string

const (
	BillUnpaid BillStatus = "Unpaid"
	BillPaid   BillStatus = "Paid"
)

// ParseBillStatus accepts a status case-insensitively.
func ParseBillStatus(s string) (BillStatus, bool) {
	switch {
	case strings.EqualFold(s, string(BillUnpaid)):
		return BillUnpaid, true
	case strings.EqualFold(s, string(BillPaid)):
		return BillPaid, true
	}
	return "", false
}

// DueDateLayout is the stored form of Bill.DueDate.
const DueDateLayout = "2006-01-02"

// Bill is a payment reminder detected in an SMS.
type Bill struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	Name      string       `json:"name"`
	Category  string       `json:"category"`
	DueDate   string       `json:"due_date"`
	Amount    money.Amount `json:"amount"`
	Status    BillStatus   `json:"status"`
	SMSSender string       `json:"sms_sender"`
	SMSBody   string       `json:"sms_body"`
	CreatedAt int64        `json:"created_at"`
	UpdatedAt int64        `json:"updated_at"`
}

// BillMessage is one inbound message for bill parsing.
type BillMessage struct {
	Body   string `json:"body"`
	Sender string `json:"sender"`
}
