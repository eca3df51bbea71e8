package storage

import (
	"context"
	"database/sql"
	"fmt"

	"spendsense/internal/domain"
	"spendsense/pkg/money"
)

const billColumns = "id, user_id, name, category, due_date, amount, status, sms_sender, sms_body, created_at, updated_at"

// InsertBill stores b unless a bill with the same ID exists.
// It reports whether a row was written.
func (s *SQLStore) InsertBill(ctx context.Context, b *domain.Bill) (bool, error) {
	now := s.now().Unix()
	if b.CreatedAt == 0 {
		b.CreatedAt = now
	}
	if b.UpdatedAt == 0 {
		b.UpdatedAt = now
	}
	res, err := s.exec(ctx, `
		INSERT INTO bills (`+billColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		b.ID, b.UserID, b.Name, b.Category, b.DueDate, int64(b.Amount), string(b.Status),
		b.SMSSender, b.SMSBody, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert bill: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func scanBill(sc interface{ Scan(...any) error }) (domain.Bill, error) {
	var b domain.Bill
	var amount int64
	var st string
	err := sc.Scan(&b.ID, &b.UserID, &b.Name, &b.Category, &b.DueDate, &amount, &st,
		&b.SMSSender, &b.SMSBody, &b.CreatedAt, &b.UpdatedAt)
	b.Amount = money.Amount(amount)
	b.Status = domain.BillStatus(st)
	return b, err
}

// GetBill returns a single bill.
func (s *SQLStore) GetBill(ctx context.Context, id string) (domain.Bill, error) {
	b, err := scanBill(s.queryRow(ctx, "SELECT "+billColumns+" FROM bills WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return b, fmt.Errorf("bill %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return b, fmt.Errorf("failed to get bill: %w", err)
	}
	return b, nil
}

// ListBills returns a user's bills by due date; an empty status means all.
func (s *SQLStore) ListBills(ctx context.Context, uid string, status domain.BillStatus) ([]domain.Bill, error) {
	query := "SELECT " + billColumns + " FROM bills WHERE user_id = ?"
	args := []any{uid}
	if status != "" {
		query += " AND status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY due_date ASC, id ASC"

	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bills: %w", err)
	}
	defer rows.Close()

	bills := []domain.Bill{}
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return bills, nil
}

// UpdateBillStatus marks a bill paid or unpaid.
func (s *SQLStore) UpdateBillStatus(ctx context.Context, id string, status domain.BillStatus) error {
	res, err := s.exec(ctx, "UPDATE bills SET status = ?, updated_at = ? WHERE id = ?",
		string(status), s.now().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to update bill: %w", err)
	}
	return affectedOrNotFound(res, "bill "+id)
}
