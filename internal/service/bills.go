package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"spendsense/internal/classify"
	"spendsense/internal/domain"
	"spendsense/internal/event"
	"spendsense/internal/sms"
)

// billNamespace scopes the deterministic bill IDs.
var billNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("spendsense/bills"))

// BillID derives a stable ID so re-parsing the same reminder is a no-op.
func BillID(uid, sender, body string) string {
	return uuid.NewSHA1(billNamespace, []byte(uid+"\x00"+sender+"\x00"+body)).String()
}

// BillStore is the persistence BillService needs.
type BillStore interface {
	InsertBill(ctx context.Context, b *domain.Bill) (bool, error)
	GetBill(ctx context.Context, id string) (domain.Bill, error)
	ListBills(ctx context.Context, uid string, status domain.BillStatus) ([]domain.Bill, error)
	UpdateBillStatus(ctx context.Context, id string, status domain.BillStatus) error
}

// BillService detects bills in reminders and tracks their payment status.
type BillService struct {
	store BillStore
	cat   *classify.Categorizer
	pub   Publisher
	rec   Recorder
	now   func() time.Time
}

// NewBillService wires the bill use cases. pub and rec may be nil.
func NewBillService(store BillStore, cat *classify.Categorizer, pub Publisher, rec Recorder) *BillService {
	return &BillService{
		store: store,
		cat:   cat,
		pub:   orNopPublisher(pub),
		rec:   orNopRecorder(rec),
		now:   time.Now,
	}
}

// ParseSMS stores an Unpaid bill for every reminder that names an amount
// and a due date. Bills already stored are returned as stored, with their
// current status, and are not re-announced.
func (s *BillService) ParseSMS(ctx context.Context, uid string, msgs []domain.BillMessage) ([]domain.Bill, error) {
	verr := domain.NewValidationError()
	if blank(uid) {
		verr.Add("uid", "required field")
	}
	if msgs == nil {
		verr.Add("messages", "required field")
	}
	for i, m := range msgs {
		if blank(m.Sender) {
			verr.Add(fmt.Sprintf("messages.%d.sender", i), "required field")
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	bills := []domain.Bill{}
	for _, m := range msgs {
		match, ok := sms.DetectBill(m.Body)
		if !ok {
			continue
		}
		category := s.cat.Bill(ctx, m.Body, m.Sender).Label
		now := s.now().Unix()

		b := domain.Bill{
			ID:        BillID(uid, m.Sender, m.Body),
			UserID:    uid,
			Name:      category,
			Category:  category,
			DueDate:   match.DueDate,
			Amount:    match.Amount,
			Status:    domain.BillUnpaid,
			SMSSender: m.Sender,
			SMSBody:   m.Body,
			CreatedAt: now,
			UpdatedAt: now,
		}
		inserted, err := s.store.InsertBill(ctx, &b)
		if err != nil {
			return bills, err
		}
		if !inserted {
			if b, err = s.store.GetBill(ctx, b.ID); err != nil {
				return bills, err
			}
			bills = append(bills, b)
			continue
		}
		bills = append(bills, b)

		s.rec.BillDetected()
		s.pub.Publish(event.BillDetectedEvent{BaseEvent: event.BaseEvent{UID: uid}, Bill: b})
	}
	return bills, nil
}

// List returns uid's bills; filter is "All" (or empty) or a status name.
func (s *BillService) List(ctx context.Context, uid, filter string) ([]domain.Bill, error) {
	verr := domain.NewValidationError()
	if blank(uid) {
		verr.Add("uid", "required field")
	}
	var status domain.BillStatus
	if filter != "" && !strings.EqualFold(filter, "All") {
		st, ok := domain.ParseBillStatus(filter)
		if !ok {
			verr.Add("filter", fmt.Sprintf("unallowed value %s", filter))
		}
		status = st
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return s.store.ListBills(ctx, uid, status)
}

// UpdateStatus marks a bill Paid or Unpaid.
func (s *BillService) UpdateStatus(ctx context.Context, id, status string) error {
	if blank(id) {
		return domain.Invalid("id", "required field")
	}
	st, ok := domain.ParseBillStatus(status)
	if !ok {
		return domain.Invalid("status", "must be Paid or Unpaid")
	}
	return s.store.UpdateBillStatus(ctx, id, st)
}
