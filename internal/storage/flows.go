package storage

import (
	"context"
	"fmt"

	"spendsense/internal/domain"
	"spendsense/pkg/money"
)

// InsertFlow stores a complete cash flow and sets its ID and CreatedAt.
func (s *SQLStore) InsertFlow(ctx context.Context, f *domain.CashFlow) error {
	if f.Amount == nil {
		return fmt.Errorf("cash flow without amount")
	}
	if f.CreatedAt == 0 {
		f.CreatedAt = s.now().Unix()
	}
	err := s.queryRow(ctx, `
		INSERT INTO cash_flows (uid, type, amount, source, category, frequency, time_of_day, raw, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		f.UID, string(f.Type), int64(*f.Amount), f.Source, f.Category, string(f.Frequency),
		f.TimeOfDay, f.Raw, f.CreatedAt,
	).Scan(&f.ID)
	if err != nil {
		return fmt.Errorf("failed to insert cash flow: %w", err)
	}
	return nil
}

// ListFlows returns a user's cash flows in creation order.
func (s *SQLStore) ListFlows(ctx context.Context, uid string) ([]domain.CashFlow, error) {
	rows, err := s.query(ctx, `
		SELECT id, uid, type, amount, source, category, frequency, time_of_day, raw, created_at
		FROM cash_flows WHERE uid = ? ORDER BY id ASC`, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to query cash flows: %w", err)
	}
	defer rows.Close()

	flows := []domain.CashFlow{}
	for rows.Next() {
		var f domain.CashFlow
		var typ, freq string
		var amount int64
		if err := rows.Scan(&f.ID, &f.UID, &typ, &amount, &f.Source, &f.Category, &freq,
			&f.TimeOfDay, &f.Raw, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cash flow: %w", err)
		}
		a := money.Amount(amount)
		f.Amount = &a
		f.Type = domain.FlowType(typ)
		f.Frequency = domain.Frequency(freq)
		flows = append(flows, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return flows, nil
}
