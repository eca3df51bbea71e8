package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendsense/internal/domain"
)

func TestSpendingService_ByCategory(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	records := NewRecordService(store, newCategorizer(), nil, nil, nil)
	_, err := records.Ingest(ctx, "u1", []domain.SMSMessage{
		{SMS: "Rs 100 spent at Swiggy on 09-04-2024", Sender: "HDFCBK"},
		{SMS: "Rs 300 debited for petrol on 01-03-2024", Sender: "HDFCBK"},
		{SMS: "Rs 5,000 credited salary on 09-04-2024", Sender: "HDFCBK"},
	})
	require.NoError(t, err)

	svc := NewSpendingService(store)
	svc.now = func() time.Time { return testNow }

	all, err := svc.ByCategory(ctx, "u1", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Salary Income", "Fuel", "Food & Dining"}, categories(all))

	debits, err := svc.ByCategory(ctx, "u1", "DEBIT", "", "asc")
	require.NoError(t, err)
	assert.Equal(t, []string{"Food & Dining", "Fuel"}, categories(debits))

	weekly, err := svc.ByCategory(ctx, "u1", "debit", "weekly", "desc")
	require.NoError(t, err)
	require.Len(t, weekly, 1)
	assert.Equal(t, "100.00", weekly[0].TotalSpent.String())

	unknownType, err := svc.ByCategory(ctx, "u1", "transfer", "yearly", "")
	require.NoError(t, err)
	assert.Len(t, unknownType, 3, "unknown type and period mean no filter")

	_, err = svc.ByCategory(ctx, "", "", "", "sideways")
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "uid")
	assert.Contains(t, verr.Fields, "sort")
}

func categories(in []domain.CategorySpending) []string {
	out := make([]string, len(in))
	for i, cs := range in {
		out[i] = cs.Category
	}
	return out
}
