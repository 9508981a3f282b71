/*
Package sqlstore provides the database/sql implementation of domain.Store.

PURPOSE:
  Implements every persistence interface of the engine on top of
  database/sql. Two dialects are supported:
  - sqlite3 (github.com/mattn/go-sqlite3): development and tests
  - pgx     (github.com/jackc/pgx/v5/stdlib): production PostgreSQL

  Queries are written once with "?" placeholders and rebound to "$n" for
  PostgreSQL.

TRANSACTIONS:
  WithTx (tx.go) is the transaction coordinator: BEGIN, run, COMMIT or
  ROLLBACK, connection released on every exit path. Nested calls with a
  context that already carries a transaction join it.

CONCURRENCY:
  No in-process locks. Stock decrements are single UPDATE ... RETURNING
  statements, so concurrent writers on the same inventory row serialize on
  the database's row lock (PostgreSQL) or on the single connection
  (SQLite).

MIGRATION:
  Schema is created idempotently on Open (schema.go).

USAGE:
  store, err := sqlstore.Open("sqlite3", ":memory:", sqlstore.WithLogger(logger))
  if err != nil {
      return err
  }
  defer store.Close()

SEE ALSO:
  - domain/store.go: Interface definitions
  - tx.go: Transaction coordinator
*/
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/warp/inventory-engine/domain"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

// Store implements domain.Store.
type Store struct {
	queries
	db     *sql.DB
	logger *zap.Logger
}

var _ domain.Store = (*Store)(nil)

type options struct {
	logger          *zap.Logger
	maxOpenConns    int
	maxIdleConns    int
	connMaxLifetime time.Duration
}

// Option configures Open.
type Option func(*options)

// WithLogger sets the logger used for rollback diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithPool tunes the connection pool. Ignored for SQLite, which always
// runs on a single connection.
func WithPool(maxOpen, maxIdle int, maxLifetime time.Duration) Option {
	return func(o *options) {
		o.maxOpenConns = maxOpen
		o.maxIdleConns = maxIdle
		o.connMaxLifetime = maxLifetime
	}
}

// Open connects, verifies the connection and migrates the schema.
func Open(driver, dsn string, opts ...Option) (*Store, error) {
	o := options{logger: zap.NewNop(), maxOpenConns: 25, maxIdleConns: 10, connMaxLifetime: 5 * time.Minute}
	for _, opt := range opts {
		opt(&o)
	}

	var d dialect
	switch driver {
	case DriverSQLite:
		d = dialectSQLite
		dsn = sqliteDSN(dsn)
	case DriverPostgres:
		d = dialectPostgres
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if d == dialectSQLite {
		// One connection: ":memory:" databases are per-connection, and
		// SQLite has a single writer anyway.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(o.maxOpenConns)
		db.SetMaxIdleConns(o.maxIdleConns)
		db.SetConnMaxLifetime(o.connMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	s := &Store{queries: queries{q: db, d: d}, db: db, logger: o.logger}
	if err := s.migrate(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the pool for health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	// _txlock=immediate takes the write lock at BEGIN, so read-then-write
	// inside a transaction cannot interleave with another process.
	return dsn + sep + "_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate"
}

// =============================================================================
// DIALECT
// =============================================================================

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// rebind rewrites "?" placeholders to "$1", "$2", ... for PostgreSQL.
func (d dialect) rebind(query string) string {
	if d != dialectPostgres {
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

// forUpdate is the row-lock clause for a SELECT inside a transaction.
// SQLite has none: its transactions already hold the database write lock.
func (d dialect) forUpdate() string {
	if d == dialectPostgres {
		return " FOR UPDATE"
	}
	return ""
}

func (d dialect) txOptions() *sql.TxOptions {
	if d == dialectPostgres {
		return &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	}
	return nil
}

// =============================================================================
// QUERIES - shared by the pool (Store) and transactions (txStore)
// =============================================================================

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	q querier
	d dialect
}

func (qs queries) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return qs.q.ExecContext(ctx, qs.d.rebind(query), args...)
}

func (qs queries) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return qs.q.QueryContext(ctx, qs.d.rebind(query), args...)
}

func (qs queries) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return qs.q.QueryRowContext(ctx, qs.d.rebind(query), args...)
}

// Helper functions

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

// timestamp scans TEXT (SQLite) or TIMESTAMPTZ (PostgreSQL) columns.
type timestamp struct {
	t *time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func (ts timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*ts.t = time.Time{}
		return nil
	case time.Time:
		*ts.t = v.UTC()
		return nil
	case []byte:
		return ts.parse(string(v))
	case string:
		return ts.parse(v)
	}
	return fmt.Errorf("unsupported timestamp type %T", src)
}

func (ts timestamp) parse(s string) error {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*ts.t = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("unparseable timestamp %q", s)
}
