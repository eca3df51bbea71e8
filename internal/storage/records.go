package storage

import (
	"context"
	"database/sql"
	"fmt"

	"spendsense/internal/domain"
	"spendsense/pkg/money"
)

const recordColumns = "id, uid, sms, sender, category, amount, txn_type, mode, ref_no, account, date, txn_at, balance, vendor, created_at"

func nullAmount(a *money.Amount) sql.NullInt64 {
	if a == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*a), Valid: true}
}

func amountPtr(n sql.NullInt64) *money.Amount {
	if !n.Valid {
		return nil
	}
	a := money.Amount(n.Int64)
	return &a
}

// InsertRecord stores r and sets its ID and CreatedAt.
func (s *SQLStore) InsertRecord(ctx context.Context, r *domain.Record) error {
	if r.CreatedAt == 0 {
		r.CreatedAt = s.now().Unix()
	}
	err := s.queryRow(ctx, `
		INSERT INTO sms_records (uid, sms, sender, category, amount, txn_type, mode, ref_no, account, date, txn_at, balance, vendor, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		r.UID, r.SMS, r.Sender, r.Category, nullAmount(r.Amount), string(r.TxnType), r.Mode, r.RefNo,
		r.Account, r.Date, r.TxnAt, nullAmount(r.Balance), r.Vendor, r.CreatedAt,
	).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

func scanRecord(sc interface{ Scan(...any) error }) (domain.Record, error) {
	var r domain.Record
	var amount, balance sql.NullInt64
	var txnType string
	err := sc.Scan(&r.ID, &r.UID, &r.SMS, &r.Sender, &r.Category, &amount, &txnType, &r.Mode,
		&r.RefNo, &r.Account, &r.Date, &r.TxnAt, &balance, &r.Vendor, &r.CreatedAt)
	if err != nil {
		return r, err
	}
	r.Amount = amountPtr(amount)
	r.Balance = amountPtr(balance)
	r.TxnType = domain.TxnType(txnType)
	return r, nil
}

// ListRecords returns a user's records, newest transaction first.
func (s *SQLStore) ListRecords(ctx context.Context, uid string, limit, offset int) ([]domain.Record, error) {
	rows, err := s.query(ctx,
		"SELECT "+recordColumns+" FROM sms_records WHERE uid = ? ORDER BY txn_at DESC, id DESC LIMIT ? OFFSET ?",
		uid, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	records := []domain.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return records, nil
}

// GetRecord returns one record or domain.ErrNotFound.
func (s *SQLStore) GetRecord(ctx context.Context, id int64) (domain.Record, error) {
	r, err := scanRecord(s.queryRow(ctx, "SELECT "+recordColumns+" FROM sms_records WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return r, fmt.Errorf("record %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return r, fmt.Errorf("failed to get record: %w", err)
	}
	return r, nil
}

// UpdateRecordCategory overrides the category of one record.
func (s *SQLStore) UpdateRecordCategory(ctx context.Context, id int64, category string) error {
	res, err := s.exec(ctx, "UPDATE sms_records SET category = ? WHERE id = ?", category, id)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	return affectedOrNotFound(res, fmt.Sprintf("record %d", id))
}

// DeleteRecord removes one record.
func (s *SQLStore) DeleteRecord(ctx context.Context, id int64) error {
	res, err := s.exec(ctx, "DELETE FROM sms_records WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return affectedOrNotFound(res, fmt.Sprintf("record %d", id))
}

// CategorySpending sums amounts per category for credit/debit records.
func (s *SQLStore) CategorySpending(ctx context.Context, q domain.SpendingQuery) ([]domain.CategorySpending, error) {
	query := `
		SELECT category, CAST(COALESCE(SUM(amount), 0) AS BIGINT) AS total_spent
		FROM sms_records
		WHERE uid = ? AND txn_type IN ('credit', 'debit')`
	args := []any{q.UID}

	if q.TxnType == domain.TxnCredit || q.TxnType == domain.TxnDebit {
		query += " AND txn_type = ?"
		args = append(args, string(q.TxnType))
	}
	if !q.Since.IsZero() {
		query += " AND txn_at >= ?"
		args = append(args, q.Since.Unix())
	}

	query += " GROUP BY category"
	if q.Asc {
		query += " ORDER BY total_spent ASC, category ASC"
	} else {
		query += " ORDER BY total_spent DESC, category ASC"
	}

	return s.scanSpending(ctx, query, args...)
}

// DebitTotalsSince sums debits per category from since (Unix seconds) on.
func (s *SQLStore) DebitTotalsSince(ctx context.Context, uid string, since int64) ([]domain.CategorySpending, error) {
	return s.scanSpending(ctx, `
		SELECT category, CAST(COALESCE(SUM(amount), 0) AS BIGINT) AS total_spent
		FROM sms_records
		WHERE uid = ? AND txn_type = 'debit' AND txn_at >= ?
		GROUP BY category
		ORDER BY category ASC`,
		uid, since,
	)
}

func (s *SQLStore) scanSpending(ctx context.Context, query string, args ...any) ([]domain.CategorySpending, error) {
	rows, err := s.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query spending: %w", err)
	}
	defer rows.Close()

	out := []domain.CategorySpending{}
	for rows.Next() {
		var cs domain.CategorySpending
		var total int64
		if err := rows.Scan(&cs.Category, &total); err != nil {
			return nil, fmt.Errorf("failed to scan spending: %w", err)
		}
		cs.TotalSpent = money.Amount(total)
		out = append(out, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return out, nil
}
