package sms

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"spendsense/pkg/money"
)

func TestDetectBill(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		want   BillMatch
		wantOK bool
	}{
		{
			name:   "slash date with is due on",
			body:   "Your electricity bill of Rs. 1500 is due on 15/08/2024",
			want:   BillMatch{Amount: money.Amount(150000), DueDate: "2024-08-15"},
			wantOK: true,
		},
		{
			name:   "currency after amount and due date",
			body:   "Amount 999.50 INR due date 01-09-2024 for your broadband",
			want:   BillMatch{Amount: money.Amount(99950), DueDate: "2024-09-01"},
			wantOK: true,
		},
		{
			name:   "case insensitive",
			body:   "PHONE BILL 349 DUE 05-01-2025",
			want:   BillMatch{Amount: money.Amount(34900), DueDate: "2025-01-05"},
			wantOK: true,
		},
		{
			name: "impossible calendar date",
			body: "Rs 1200 due on 31-02-2024",
		},
		{
			name: "no due clause",
			body: "Rs 500 debited from your account",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DetectBill(tt.body)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
