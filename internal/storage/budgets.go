package storage

import (
	"context"
	"database/sql"
	"fmt"

	"spendsense/internal/domain"
	"spendsense/pkg/money"
)

const budgetColumns = "id, uid, name, cap, currency, period, created_at"

// CreateBudget stores b and sets its ID and CreatedAt.
func (s *SQLStore) CreateBudget(ctx context.Context, b *domain.Budget) error {
	if b.CreatedAt == 0 {
		b.CreatedAt = s.now().Unix()
	}
	err := s.queryRow(ctx, `
		INSERT INTO budgets (uid, name, cap, currency, period, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`,
		b.UID, b.Name, int64(b.Cap), b.Currency, string(b.Period), b.CreatedAt,
	).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("failed to insert budget: %w", err)
	}
	return nil
}

func scanBudget(sc interface{ Scan(...any) error }) (domain.Budget, error) {
	var b domain.Budget
	var capMinor int64
	var period string
	if err := sc.Scan(&b.ID, &b.UID, &b.Name, &capMinor, &b.Currency, &period, &b.CreatedAt); err != nil {
		return b, err
	}
	b.Cap = money.Amount(capMinor)
	b.Period = domain.Period(period)
	return b, nil
}

// ListBudgets returns a user's budgets in creation order.
func (s *SQLStore) ListBudgets(ctx context.Context, uid string) ([]domain.Budget, error) {
	rows, err := s.query(ctx, "SELECT "+budgetColumns+" FROM budgets WHERE uid = ? ORDER BY id ASC", uid)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	defer rows.Close()

	budgets := []domain.Budget{}
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return budgets, nil
}

// GetBudget returns one budget or domain.ErrNotFound.
func (s *SQLStore) GetBudget(ctx context.Context, id int64) (domain.Budget, error) {
	b, err := scanBudget(s.queryRow(ctx, "SELECT "+budgetColumns+" FROM budgets WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return b, fmt.Errorf("budget %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return b, fmt.Errorf("failed to get budget: %w", err)
	}
	return b, nil
}

// UpdateBudget applies the non-nil fields of p.
func (s *SQLStore) UpdateBudget(ctx context.Context, id int64, p domain.BudgetPatch) error {
	var name, currency, period sql.NullString
	var capMinor sql.NullInt64
	if p.Name != nil {
		name = sql.NullString{String: *p.Name, Valid: true}
	}
	if p.Cap != nil {
		capMinor = sql.NullInt64{Int64: int64(*p.Cap), Valid: true}
	}
	if p.Currency != nil {
		currency = sql.NullString{String: *p.Currency, Valid: true}
	}
	if p.Period != nil {
		period = sql.NullString{String: string(*p.Period), Valid: true}
	}

	res, err := s.exec(ctx, `
		UPDATE budgets
		SET name = COALESCE(?, name),
			cap = COALESCE(?, cap),
			currency = COALESCE(?, currency),
			period = COALESCE(?, period)
		WHERE id = ?`,
		name, capMinor, currency, period, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update budget: %w", err)
	}
	return affectedOrNotFound(res, fmt.Sprintf("budget %d", id))
}

// DeleteBudget removes one budget.
func (s *SQLStore) DeleteBudget(ctx context.Context, id int64) error {
	res, err := s.exec(ctx, "DELETE FROM budgets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete budget: %w", err)
	}
	return affectedOrNotFound(res, fmt.Sprintf("budget %d", id))
}
