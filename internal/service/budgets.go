package service

import (
	"context"
	"strings"
	"time"

	"spendsense/internal/domain"
	"spendsense/internal/event"
	"spendsense/pkg/money"
	"spendsense/pkg/safe"
)

// BudgetStore is the persistence BudgetService needs.
type BudgetStore interface {
	CreateBudget(ctx context.Context, b *domain.Budget) error
	ListBudgets(ctx context.Context, uid string) ([]domain.Budget, error)
	GetBudget(ctx context.Context, id int64) (domain.Budget, error)
	UpdateBudget(ctx context.Context, id int64, p domain.BudgetPatch) error
	DeleteBudget(ctx context.Context, id int64) error
	DebitTotalsSince(ctx context.Context, uid string, since int64) ([]domain.CategorySpending, error)
}

// BudgetService manages budgets and measures spend against them.
type BudgetService struct {
	store BudgetStore
	pub   Publisher
	rec   Recorder
	now   func() time.Time
}

// NewBudgetService wires the budget use cases. pub and rec may be nil.
func NewBudgetService(store BudgetStore, pub Publisher, rec Recorder) *BudgetService {
	return &BudgetService{
		store: store,
		pub:   orNopPublisher(pub),
		rec:   orNopRecorder(rec),
		now:   time.Now,
	}
}

// BudgetInput is the create request.
type BudgetInput struct {
	UID      string
	Name     string
	Cap      *money.Amount
	Currency string
	Period   string
}

// Create validates in and stores a new budget, returning its ID.
func (s *BudgetService) Create(ctx context.Context, in BudgetInput) (int64, error) {
	verr := domain.NewValidationError()
	if blank(in.UID) {
		verr.Add("uid", "required field")
	}
	if blank(in.Name) {
		verr.Add("name", "required field")
	}
	switch {
	case in.Cap == nil:
		verr.Add("cap", "required field")
	case *in.Cap <= 0:
		verr.Add("cap", "must be greater than 0")
	}

	currency := strings.TrimSpace(in.Currency)
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	if !domain.ValidCurrency(currency) {
		verr.Add("currency", "must be a 3-letter upper-case code")
	}

	var period domain.Period
	if blank(in.Period) {
		verr.Add("period", "required field")
	} else if p, ok := domain.ParsePeriod(in.Period); ok {
		period = p
	} else {
		verr.Add("period", "must be one of daily, weekly, monthly, yearly")
	}
	if err := verr.OrNil(); err != nil {
		return 0, err
	}

	b := domain.Budget{
		UID:      in.UID,
		Name:     strings.TrimSpace(in.Name),
		Cap:      *in.Cap,
		Currency: currency,
		Period:   period,
	}
	if err := s.store.CreateBudget(ctx, &b); err != nil {
		return 0, err
	}
	return b.ID, nil
}

// List returns uid's budgets.
func (s *BudgetService) List(ctx context.Context, uid string) ([]domain.Budget, error) {
	if blank(uid) {
		return nil, domain.Invalid("uid", "required field")
	}
	return s.store.ListBudgets(ctx, uid)
}

// Update applies the non-nil fields of p.
func (s *BudgetService) Update(ctx context.Context, id int64, p domain.BudgetPatch) error {
	verr := domain.NewValidationError()
	if p.Name != nil {
		trimmed := strings.TrimSpace(*p.Name)
		if trimmed == "" {
			verr.Add("name", "empty values not allowed")
		}
		p.Name = &trimmed
	}
	if p.Cap != nil && *p.Cap <= 0 {
		verr.Add("cap", "must be greater than 0")
	}
	if p.Currency != nil && !domain.ValidCurrency(*p.Currency) {
		verr.Add("currency", "must be a 3-letter upper-case code")
	}
	if p.Period != nil {
		if period, ok := domain.ParsePeriod(string(*p.Period)); ok {
			p.Period = &period
		} else {
			verr.Add("period", "must be one of daily, weekly, monthly, yearly")
		}
	}
	if err := verr.OrNil(); err != nil {
		return err
	}

	if p.Empty() {
		// Nothing to change, but an unknown id is still a 404.
		_, err := s.store.GetBudget(ctx, id)
		return err
	}
	return s.store.UpdateBudget(ctx, id, p)
}

// Delete removes a budget.
func (s *BudgetService) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteBudget(ctx, id)
}

// Status measures every budget of uid against debits in its current window.
func (s *BudgetService) Status(ctx context.Context, uid string) ([]domain.BudgetStatus, error) {
	if blank(uid) {
		return nil, domain.Invalid("uid", "required field")
	}
	budgets, err := s.store.ListBudgets(ctx, uid)
	if err != nil {
		return nil, err
	}

	now := s.now()
	// Budgets sharing a period share one aggregate query.
	totals := make(map[domain.Period][]domain.CategorySpending)

	statuses := make([]domain.BudgetStatus, 0, len(budgets))
	for _, b := range budgets {
		start := b.WindowStart(now)
		spending, ok := totals[b.Period]
		if !ok {
			spending, err = s.store.DebitTotalsSince(ctx, uid, start.Unix())
			if err != nil {
				return nil, err
			}
			totals[b.Period] = spending
		}

		spent, err := spentFor(b, spending)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, domain.NewBudgetStatus(b, spent, start))
	}
	return statuses, nil
}

// Evaluate re-measures uid's budgets after batch was stored and announces
// the budgets that batch pushed over their cap. Budgets already over before
// batch are not announced again. The newly exceeded statuses are returned.
func (s *BudgetService) Evaluate(ctx context.Context, uid string, batch []domain.Record) ([]domain.BudgetStatus, error) {
	statuses, err := s.Status(ctx, uid)
	if err != nil {
		return nil, err
	}
	var exceeded []domain.BudgetStatus
	for _, st := range statuses {
		if !st.Exceeded {
			continue
		}
		added, err := batchSpendFor(st, batch)
		if err != nil {
			return nil, err
		}
		before, err := safe.Sub(int64(st.Spent), int64(added))
		if err != nil {
			return nil, err
		}
		if before > int64(st.Cap) {
			continue
		}
		exceeded = append(exceeded, st)
		s.rec.BudgetExceeded()
		s.pub.Publish(event.BudgetExceededEvent{BaseEvent: event.BaseEvent{UID: uid}, Status: st})
	}
	return exceeded, nil
}

func spentFor(b domain.Budget, spending []domain.CategorySpending) (money.Amount, error) {
	values := make([]int64, 0, len(spending))
	for _, cs := range spending {
		if b.MatchesCategory(cs.Category) {
			values = append(values, int64(cs.TotalSpent))
		}
	}
	total, err := safe.Sum(values...)
	return money.Amount(total), err
}

// batchSpendFor sums the debits of batch that count towards st's window.
func batchSpendFor(st domain.BudgetStatus, batch []domain.Record) (money.Amount, error) {
	var values []int64
	for i := range batch {
		r := &batch[i]
		if r.IsDebit() && r.TxnAt >= st.WindowStart && st.MatchesCategory(r.Category) {
			values = append(values, int64(*r.Amount))
		}
	}
	total, err := safe.Sum(values...)
	return money.Amount(total), err
}
