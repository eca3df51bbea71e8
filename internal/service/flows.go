package service

import (
	"context"
	"fmt"
	"strings"

	"spendsense/internal/domain"
	"spendsense/internal/flow"
)

// FlowStore is the persistence FlowService needs.
type FlowStore interface {
	InsertFlow(ctx context.Context, f *domain.CashFlow) error
	ListFlows(ctx context.Context, uid string) ([]domain.CashFlow, error)
}

// FlowService parses and stores recurring cash flows.
type FlowService struct {
	store FlowStore
}

func NewFlowService(store FlowStore) *FlowService {
	return &FlowService{store: store}
}

// Parse splits text into flows and lists the follow-ups each one needs.
func (s *FlowService) Parse(text string) ([]flow.Draft, error) {
	if blank(text) {
		return nil, domain.Invalid("text", "required field")
	}
	parsed := flow.Parse(text)
	drafts := make([]flow.Draft, 0, len(parsed))
	for _, f := range parsed {
		drafts = append(drafts, flow.NewDraft(f))
	}
	return drafts, nil
}

// Save stores flows for uid. Either every flow is complete and all are
// stored, or nothing is stored and the incomplete ones are reported.
func (s *FlowService) Save(ctx context.Context, uid string, flows []domain.CashFlow) ([]domain.CashFlow, error) {
	verr := domain.NewValidationError()
	if blank(uid) {
		verr.Add("uid", "required field")
	}
	if len(flows) == 0 {
		verr.Add("flows", "at least one flow is required")
	}
	for i := range flows {
		f := &flows[i]
		normalize(f)
		switch f.Type {
		case "", domain.FlowIncome, domain.FlowExpense:
		default:
			verr.Add(fmt.Sprintf("flows.%d.type", i), "must be income or expense")
		}
		if missing := f.Missing(); len(missing) > 0 {
			verr.Add(fmt.Sprintf("flows.%d", i), "missing "+strings.Join(missing, ", "))
		}
		if f.Amount != nil && *f.Amount <= 0 {
			verr.Add(fmt.Sprintf("flows.%d.amount", i), "must be greater than 0")
		}
		switch f.Frequency {
		case domain.FrequencyDaily, domain.FrequencyWeekly, domain.FrequencyMonthly:
		default:
			verr.Add(fmt.Sprintf("flows.%d.frequency", i), "must be one of daily, weekly, monthly")
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	saved := make([]domain.CashFlow, 0, len(flows))
	for _, f := range flows {
		f.UID = uid
		if err := s.store.InsertFlow(ctx, &f); err != nil {
			return saved, err
		}
		saved = append(saved, f)
	}
	return saved, nil
}

// SaveText parses text and stores the flows it describes.
func (s *FlowService) SaveText(ctx context.Context, uid, text string) ([]domain.CashFlow, error) {
	if blank(text) {
		return nil, domain.Invalid("text", "required field")
	}
	return s.Save(ctx, uid, flow.Parse(text))
}

// List returns uid's stored flows.
func (s *FlowService) List(ctx context.Context, uid string) ([]domain.CashFlow, error) {
	if blank(uid) {
		return nil, domain.Invalid("uid", "required field")
	}
	return s.store.ListFlows(ctx, uid)
}

func normalize(f *domain.CashFlow) {
	f.Type = domain.FlowType(strings.ToLower(strings.TrimSpace(string(f.Type))))
	f.Frequency = domain.Frequency(strings.ToLower(strings.TrimSpace(string(f.Frequency))))
	if f.Frequency == "" {
		f.Frequency = domain.FrequencyDaily
	}
	f.Source = strings.TrimSpace(f.Source)
	f.Category = strings.TrimSpace(f.Category)
	f.TimeOfDay = strings.TrimSpace(f.TimeOfDay)
}
