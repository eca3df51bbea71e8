package domain

import "spendsense/pkg/money"

// FlowType distinguishes money coming in from money going out.
type FlowType string

const (
	FlowIncome  FlowType = "income"
	FlowExpense FlowType = "expense"
)

// Frequency is how often a cash flow recurs.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// CashFlow is a recurring income or expense described in plain text.
type CashFlow struct {
	ID        int64         `json:"id"`
	UID       string        `json:"uid"`
	Type      FlowType      `json:"type"`
	Amount    *money.Amount `json:"amount"`
	Source    string        `json:"source,omitempty"`
	Category  string        `json:"category,omitempty"`
	Frequency Frequency     `json:"frequency"`
	TimeOfDay string        `json:"time_of_day"`
	Raw       string        `json:"raw"`
	CreatedAt int64         `json:"created_at,omitempty"`
}

// Missing lists the follow-up fields still needed, in asking order.
func (c *CashFlow) Missing() []string {
	var missing []string
	if c.Type == "" {
		missing = append(missing, "type")
	}
	if c.Amount == nil {
		missing = append(missing, "amount")
	}
	switch c.Type {
	case FlowIncome:
		if c.Source == "" {
			missing = append(missing, "source")
		}
	case FlowExpense:
		if c.Category == "" {
			missing = append(missing, "category")
		}
	}
	if c.TimeOfDay == "" {
		missing = append(missing, "time")
	}
	return missing
}

// Complete reports whether no follow-up is needed.
func (c *CashFlow) Complete() bool {
	return len(c.Missing()) == 0
}
