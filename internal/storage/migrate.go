package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Schema uses portable types; {{pk}} is the dialect's auto-increment key.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sms_records (
		id {{pk}},
		uid TEXT NOT NULL,
		sms TEXT NOT NULL,
		sender TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		amount BIGINT,
		txn_type TEXT NOT NULL DEFAULT '',
		mode TEXT NOT NULL DEFAULT '',
		ref_no TEXT NOT NULL DEFAULT '',
		account TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL DEFAULT '',
		txn_at BIGINT NOT NULL,
		balance BIGINT,
		vendor TEXT NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sms_records_uid_txn_at ON sms_records (uid, txn_at)`,
	`CREATE TABLE IF NOT EXISTS bills (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		due_date TEXT NOT NULL,
		amount BIGINT NOT NULL,
		status TEXT NOT NULL,
		sms_sender TEXT NOT NULL DEFAULT '',
		sms_body TEXT NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bills_user_due ON bills (user_id, due_date)`,
	`CREATE TABLE IF NOT EXISTS budgets (
		id {{pk}},
		uid TEXT NOT NULL,
		name TEXT NOT NULL,
		cap BIGINT NOT NULL,
		currency TEXT NOT NULL DEFAULT 'INR',
		period TEXT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_budgets_uid ON budgets (uid)`,
	`CREATE TABLE IF NOT EXISTS cash_flows (
		id {{pk}},
		uid TEXT NOT NULL,
		type TEXT NOT NULL,
		amount BIGINT NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		frequency TEXT NOT NULL,
		time_of_day TEXT NOT NULL,
		raw TEXT NOT NULL DEFAULT '',
		created_at BIGINT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_cash_flows_uid ON cash_flows (uid)`,
}

func (s *SQLStore) ddl(stmt string) string {
	pk := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.dialect == DialectPostgres {
		pk = "BIGSERIAL PRIMARY KEY"
	}
	return strings.ReplaceAll(stmt, "{{pk}}", pk)
}

// Migrate creates missing tables and records the schema version. It is idempotent.
func (s *SQLStore) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, s.ddl(stmt)); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	if err := s.UpsertMetadata(ctx, "schema_version", strconv.Itoa(SchemaVersion)); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	slog.Info("✅ Database initialized successfully.",
		slog.String("dialect", string(s.dialect)),
		slog.Int("schema_version", SchemaVersion))
	return nil
}
