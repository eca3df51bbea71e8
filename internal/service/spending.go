package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"spendsense/internal/domain"
)

// SpendingStore is the aggregate query SpendingService needs.
type SpendingStore interface {
	CategorySpending(ctx context.Context, q domain.SpendingQuery) ([]domain.CategorySpending, error)
}

// SpendingService reports category-wise totals.
type SpendingService struct {
	store SpendingStore
	now   func() time.Time
}

func NewSpendingService(store SpendingStore) *SpendingService {
	return &SpendingService{store: store, now: time.Now}
}

// ByCategory sums uid's transactions per category. txnType filters to credit
// or debit (anything else means both); period is weekly, monthly or all
// time; sort is asc or desc (default desc).
func (s *SpendingService) ByCategory(ctx context.Context, uid, txnType, period, sort string) ([]domain.CategorySpending, error) {
	verr := domain.NewValidationError()
	if blank(uid) {
		verr.Add("uid", "required field")
	}
	sort = strings.ToLower(strings.TrimSpace(sort))
	switch sort {
	case "", "desc", "asc":
	default:
		verr.Add("sort", fmt.Sprintf("unallowed value %s", sort))
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	q := domain.SpendingQuery{
		UID:   uid,
		Since: domain.SpendingSince(period, s.now()),
		Asc:   sort == "asc",
	}
	switch t := domain.TxnType(strings.ToLower(txnType)); t {
	case domain.TxnCredit, domain.TxnDebit:
		q.TxnType = t
	}
	return s.store.CategorySpending(ctx, q)
}
