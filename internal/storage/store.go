// Package storage persists records, bills, budgets and cash flows in SQLite
// or PostgreSQL through database/sql.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "github.com/glebarez/go-sqlite"
	_ "github.com/jackc/pgx/v5/stdlib"

	"spendsense/internal/domain"
)

// Dialect selects SQL flavour differences.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// SchemaVersion is bumped whenever migrations change.
const SchemaVersion = 1

// SQLStore is the single persistence implementation for both dialects.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// New wraps an already opened database.
func New(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect, now: time.Now}
}

// OpenSQLite opens (creating if needed) a SQLite database with WAL enabled.
func OpenSQLite(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// One writer; pragmas below are per connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	return New(db, DialectSQLite), nil
}

// PoolConfig sizes the PostgreSQL connection pool.
type PoolConfig struct {
	MinConns        int
	MaxConns        int
	ConnMaxLifetime time.Duration
}

// OpenPostgres connects through the pgx stdlib driver and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string, pool PoolConfig) (*SQLStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if pool.MaxConns > 0 {
		db.SetMaxOpenConns(pool.MaxConns)
	}
	if pool.MinConns > 0 {
		db.SetMaxIdleConns(pool.MinConns)
	}
	if pool.ConnMaxLifetime <= 0 {
		pool.ConnMaxLifetime = 30 * time.Minute
	}
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	slog.Info("✅ DB pool initialized",
		slog.Int("min", pool.MinConns),
		slog.Int("max", pool.MaxConns))
	return New(db, DialectPostgres), nil
}

// Dialect reports the SQL flavour in use.
func (s *SQLStore) Dialect() Dialect {
	return s.dialect
}

// Ping checks database connectivity.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (s *SQLStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(query), args...)
}

func (s *SQLStore) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(query), args...)
}

func (s *SQLStore) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

// UpsertMetadata saves a key-value pair to the metadata table.
func (s *SQLStore) UpsertMetadata(ctx context.Context, key, value string) error {
	_, err := s.exec(ctx,
		"INSERT INTO metadata (key, value, updated_at) VALUES (?, ?, ?) ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at",
		key, value, s.now().Unix(),
	)
	return err
}

// GetMetadata retrieves a value from the metadata table; missing keys yield "".
func (s *SQLStore) GetMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := s.queryRow(ctx, "SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// affectedOrNotFound maps "no row touched" to a wrapped ErrNotFound.
func affectedOrNotFound(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return nil
}
