package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendsense/internal/domain"
	"spendsense/pkg/money"
)

func amt(major int64) *money.Amount {
	a := money.Amount(major * money.Scale)
	return &a
}

func TestSplit(t *testing.T) {
	assert.Equal(t, []string{"I get 500 from tuition", "spend 100 on tea", "pay 50 on bus"},
		Split("I get 500 from tuition and spend 100 on tea, pay 50 on bus"))
	assert.Empty(t, Split("   "))
}

func TestParseClause(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want domain.CashFlow
	}{
		{
			name: "income with source and time",
			in:   "I get 500 from freelancing every morning",
			want: domain.CashFlow{Type: domain.FlowIncome, Amount: amt(500), Source: "freelancing",
				Frequency: domain.FrequencyDaily, TimeOfDay: "morning"},
		},
		{
			name: "expense with clock time",
			in:   "I spend ₹200 on food at 9am",
			want: domain.CashFlow{Type: domain.FlowExpense, Amount: amt(200), Category: "food",
				Frequency: domain.FrequencyDaily, TimeOfDay: "9am"},
		},
		{
			name: "clock time before amount",
			in:   "At 7 pm I pay 150 on gym monthly",
			want: domain.CashFlow{Type: domain.FlowExpense, Amount: amt(150), Category: "gym",
				Frequency: domain.FrequencyMonthly, TimeOfDay: "7pm"},
		},
		{
			name: "weekly income",
			in:   "receive 2000 from rent every week in the evening",
			want: domain.CashFlow{Type: domain.FlowIncome, Amount: amt(2000), Source: "rent",
				Frequency: domain.FrequencyWeekly, TimeOfDay: "evening"},
		},
		{
			name: "nothing recognisable",
			in:   "budget target",
			want: domain.CashFlow{Frequency: domain.FrequencyDaily},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseClause(tt.in)
			tt.want.Raw = tt.in
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_MissingFollowUps(t *testing.T) {
	flows := Parse("I get money from my parents and spend 300")
	require.Len(t, flows, 2)

	assert.Equal(t, []string{"amount", "time"}, flows[0].Missing())
	assert.Equal(t, []string{"category", "time"}, flows[1].Missing())

	d := NewDraft(flows[1])
	assert.Equal(t, []string{"category", "time"}, d.Missing)
	assert.Equal(t, "💸 What is the category of expense?", d.Questions[0])
}

func TestNewDraft_Complete(t *testing.T) {
	d := NewDraft(ParseClause("I spend 100 on tea in the morning"))
	assert.NotNil(t, d.Missing)
	assert.Empty(t, d.Missing)
	assert.Empty(t, d.Questions)
}
