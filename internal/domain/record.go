package domain

import "spendsense/pkg/money"

// TxnType is the direction of money movement in a bank SMS.
type TxnType string

const (
	TxnDebit   TxnType = "debit"
	TxnCredit  TxnType = "credit"
	TxnUnknown TxnType = ""
)

// Payment modes recognised in SMS text.
const (
	ModeUPI          = "UPI"
	ModeATM          = "ATM"
	ModeCreditCard   = "Credit Card"
	ModeDebitCard    = "Debit Card"
	ModeBankTransfer = "Bank Transfer"
	ModeCheque       = "Cheque"
	ModeNetBanking   = "Net Banking"
	ModeOther        = "Other"
)

// Transaction holds the fields extracted from one SMS.
type Transaction struct {
	Amount  *money.Amount `json:"amount"`
	TxnType TxnType       `json:"txn_type"`
	Mode    string        `json:"mode"`
	RefNo   string        `json:"ref_no"`
	Account string        `json:"account"`
	Date    string        `json:"date"`            // raw date text as it appeared
	TxnAt   int64         `json:"txn_at"`          // parsed Date, 0 if unparseable
	Balance *money.Amount `json:"balance"`
	Vendor  string        `json:"vendor"`
}

// Record is a stored, categorised SMS.
type Record struct {
	ID       int64  `json:"id"`
	UID      string `json:"uid"`
	SMS      string `json:"sms"`
	Sender   string `json:"sender"`
	Category string `json:"category"`
	Transaction
	CreatedAt int64 `json:"created_at"` // Unix seconds
}

// IsDebit reports whether the record counts towards spending.
func (r *Record) IsDebit() bool {
	return r.TxnType == TxnDebit && r.Amount != nil
}

// SMSMessage is one inbound message from the client.
type SMSMessage struct {
	SMS    string `json:"sms"`
	Sender string `json:"sender"`
}
