package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendsense/internal/domain"
	"spendsense/internal/event"
)

func newBillService(t *testing.T) (*BillService, *fakePublisher, *fakeRecorder) {
	pub := &fakePublisher{}
	rec := &fakeRecorder{}
	svc := NewBillService(newStore(t), newCategorizer(), pub, rec)
	svc.now = func() time.Time { return testNow }
	return svc, pub, rec
}

func TestBillID_Deterministic(t *testing.T) {
	a := BillID("u1", "BESCOM", "Rs 1500 due 15/08/2024")
	assert.Equal(t, a, BillID("u1", "BESCOM", "Rs 1500 due 15/08/2024"))
	assert.NotEqual(t, a, BillID("u2", "BESCOM", "Rs 1500 due 15/08/2024"))
	assert.Len(t, a, 36)
}

func TestBillService_ParseSMS(t *testing.T) {
	svc, pub, rec := newBillService(t)
	ctx := context.Background()

	msgs := []domain.BillMessage{
		{Body: "Your electricity bill of 1500.50 INR is due on 15/08/2024", Sender: "BESCOM"},
		{Body: "Thanks for your payment", Sender: "BESCOM"},
		{Body: "Airtel postpaid amount 499 due 31-02-2024", Sender: "AIRTEL"}, // not a real date
	}

	bills, err := svc.ParseSMS(ctx, "u1", msgs)
	require.NoError(t, err)
	require.Len(t, bills, 1)

	b := bills[0]
	assert.Equal(t, BillID("u1", "BESCOM", msgs[0].Body), b.ID)
	assert.Equal(t, "Electricity", b.Category)
	assert.Equal(t, "Electricity", b.Name)
	assert.Equal(t, "2024-08-15", b.DueDate)
	assert.Equal(t, "1500.50", b.Amount.String())
	assert.Equal(t, domain.BillUnpaid, b.Status)
	assert.Len(t, pub.ofType(event.EvBillDetected), 1)
	assert.Equal(t, 1, rec.bills)

	again, err := svc.ParseSMS(ctx, "u1", msgs[:1])
	require.NoError(t, err)
	require.Len(t, again, 1, "duplicates are still reported back")
	assert.Len(t, pub.ofType(event.EvBillDetected), 1, "but not announced twice")

	stored, err := svc.List(ctx, "u1", "All")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestBillService_ParseSMSReturnsStoredBill(t *testing.T) {
	svc, pub, _ := newBillService(t)
	ctx := context.Background()
	msgs := []domain.BillMessage{{Body: "Your electricity bill of 1500.50 INR is due on 15/08/2024", Sender: "BESCOM"}}

	first, err := svc.ParseSMS(ctx, "u1", msgs)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.NoError(t, svc.UpdateStatus(ctx, first[0].ID, "Paid"))

	svc.now = func() time.Time { return testNow.Add(time.Hour) }
	again, err := svc.ParseSMS(ctx, "u1", msgs)
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, first[0].ID, again[0].ID)
	assert.Equal(t, domain.BillPaid, again[0].Status, "re-parsing does not reset the stored status")
	assert.Equal(t, first[0].CreatedAt, again[0].CreatedAt)
	assert.Len(t, pub.ofType(event.EvBillDetected), 1)
}

func TestBillService_ListAndStatus(t *testing.T) {
	svc, _, _ := newBillService(t)
	ctx := context.Background()

	bills, err := svc.ParseSMS(ctx, "u1", []domain.BillMessage{
		{Body: "Water charges 300 due 20-08-2024", Sender: "BWSSB"},
		{Body: "Broadband 999 due on 01-08-2024", Sender: "ACT"},
	})
	require.NoError(t, err)
	require.Len(t, bills, 2)

	all, err := svc.List(ctx, "u1", "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "2024-08-01", all[0].DueDate, "ordered by due date")

	require.NoError(t, svc.UpdateStatus(ctx, all[0].ID, "paid"))

	paid, err := svc.List(ctx, "u1", "Paid")
	require.NoError(t, err)
	require.Len(t, paid, 1)
	assert.Equal(t, all[0].ID, paid[0].ID)

	unpaid, err := svc.List(ctx, "u1", "unpaid")
	require.NoError(t, err)
	assert.Len(t, unpaid, 1)

	var verr *domain.ValidationError
	_, err = svc.List(ctx, "u1", "Overdue")
	assert.True(t, errors.As(err, &verr))
	_, err = svc.List(ctx, "", "All")
	assert.True(t, errors.As(err, &verr))

	assert.True(t, errors.As(svc.UpdateStatus(ctx, all[0].ID, "done"), &verr))
	assert.ErrorIs(t, svc.UpdateStatus(ctx, "missing", "Paid"), domain.ErrNotFound)
}

func TestBillService_ParseSMSValidation(t *testing.T) {
	svc, _, _ := newBillService(t)

	_, err := svc.ParseSMS(context.Background(), "", nil)
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "uid")
	assert.Contains(t, verr.Fields, "messages")

	_, err = svc.ParseSMS(context.Background(), "u1", []domain.BillMessage{
		{Body: "Water charges 300 due 20-08-2024", Sender: "BWSSB"},
		{Body: "Broadband 999 due on 01-08-2024"},
	})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []string{"required field"}, verr.Fields["messages.1.sender"])
	assert.NotContains(t, verr.Fields, "messages.0.sender")

	stored, err := svc.List(context.Background(), "u1", "All")
	require.NoError(t, err)
	assert.Empty(t, stored, "an invalid batch stores nothing")
}
