package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"spendsense/internal/classify"
	"spendsense/internal/domain"
	"spendsense/internal/event"
	"spendsense/internal/sms"
)

const (
	DefaultRecordLimit = 50
	MaxRecordLimit     = 500
)

// RecordStore is the persistence RecordService needs.
type RecordStore interface {
	InsertRecord(ctx context.Context, r *domain.Record) error
	ListRecords(ctx context.Context, uid string, limit, offset int) ([]domain.Record, error)
	UpdateRecordCategory(ctx context.Context, id int64, category string) error
	DeleteRecord(ctx context.Context, id int64) error
}

// BudgetEvaluator re-checks a user's budgets after new debits arrive.
type BudgetEvaluator interface {
	Evaluate(ctx context.Context, uid string, batch []domain.Record) ([]domain.BudgetStatus, error)
}

// RecordService turns inbound SMS into stored, categorised records.
type RecordService struct {
	store   RecordStore
	cat     *classify.Categorizer
	budgets BudgetEvaluator
	pub     Publisher
	rec     Recorder
	now     func() time.Time
}

// NewRecordService wires the record use cases. budgets, pub and rec may be nil.
func NewRecordService(store RecordStore, cat *classify.Categorizer, budgets BudgetEvaluator, pub Publisher, rec Recorder) *RecordService {
	return &RecordService{
		store:   store,
		cat:     cat,
		budgets: budgets,
		pub:     orNopPublisher(pub),
		rec:     orNopRecorder(rec),
		now:     time.Now,
	}
}

// Ingest parses, categorises and stores each message for uid.
// The stored records are returned in input order.
func (s *RecordService) Ingest(ctx context.Context, uid string, msgs []domain.SMSMessage) ([]domain.Record, error) {
	verr := domain.NewValidationError()
	if blank(uid) {
		verr.Add("uid", "required field")
	}
	if msgs == nil {
		verr.Add("messages", "required field")
	}
	for i, m := range msgs {
		if blank(m.SMS) {
			verr.Add(fmt.Sprintf("messages.%d.sms", i), "required field")
		}
		if blank(m.Sender) {
			verr.Add(fmt.Sprintf("messages.%d.sender", i), "required field")
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	records := make([]domain.Record, 0, len(msgs))
	hasDebit := false
	for _, m := range msgs {
		txn := sms.Parse(m.SMS)
		if txn.TxnAt == 0 {
			txn.TxnAt = s.now().Unix()
		}
		pred := s.cat.Category(ctx, m.SMS)

		r := domain.Record{
			UID:         uid,
			SMS:         m.SMS,
			Sender:      m.Sender,
			Category:    pred.Label,
			Transaction: txn,
		}
		if err := s.store.InsertRecord(ctx, &r); err != nil {
			return records, err
		}
		records = append(records, r)
		hasDebit = hasDebit || r.IsDebit()

		s.pub.Publish(event.RecordIngestedEvent{BaseEvent: event.BaseEvent{UID: uid}, Record: r})
	}
	s.rec.RecordsIngested(len(records))

	if hasDebit && s.budgets != nil {
		if _, err := s.budgets.Evaluate(ctx, uid, records); err != nil {
			slog.Warn("Budget evaluation failed", slog.String("uid", uid), slog.Any("error", err))
		}
	}

	slog.Debug("SMS batch ingested", slog.String("uid", uid), slog.Int("count", len(records)))
	return records, nil
}

// List returns a page of uid's records, newest first. A zero limit means
// DefaultRecordLimit; larger limits are capped at MaxRecordLimit.
func (s *RecordService) List(ctx context.Context, uid string, limit, offset int) ([]domain.Record, error) {
	verr := domain.NewValidationError()
	if blank(uid) {
		verr.Add("uid", "required field")
	}
	if limit < 0 {
		verr.Add("limit", "must be >= 0")
	}
	if offset < 0 {
		verr.Add("offset", "must be >= 0")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	switch {
	case limit == 0:
		limit = DefaultRecordLimit
	case limit > MaxRecordLimit:
		limit = MaxRecordLimit
	}
	return s.store.ListRecords(ctx, uid, limit, offset)
}

// UpdateCategory overrides a record's category.
func (s *RecordService) UpdateCategory(ctx context.Context, id int64, category string) error {
	if blank(category) {
		return domain.Invalid("category", "required field")
	}
	return s.store.UpdateRecordCategory(ctx, id, category)
}

// Delete removes a record.
func (s *RecordService) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteRecord(ctx, id)
}

// ModeResult is the payment mode guessed for one message.
type ModeResult struct {
	Message    string  `json:"message"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// ClassifyModes guesses the payment mode of each message.
func (s *RecordService) ClassifyModes(ctx context.Context, messages []string) ([]ModeResult, error) {
	if messages == nil {
		return nil, domain.Invalid("messages", "required field")
	}
	out := make([]ModeResult, 0, len(messages))
	for _, m := range messages {
		p := s.cat.Mode(ctx, m)
		out = append(out, ModeResult{Message: m, Category: p.Label, Confidence: p.Confidence})
	}
	return out, nil
}
