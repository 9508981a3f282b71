package sqlstore

import (
	"context"
	"strings"
)

// migrate creates the database schema.
//
// KEY TABLES:
//   inventory: one row per (product, location); quantity kept non-negative
//              by the ledger, which decrements with UPDATE ... RETURNING
//   sales:     status drives inventory side effects
//   audit_log: append-only; written in the same transaction as the change
//   locations: idx_locations_single_default allows one default sales source
//
// SQLite has no exact decimal type (NUMERIC columns become REAL), so
// quantities and money are TEXT there and arithmetic happens on
// decimal.Decimal. Postgres keeps NUMERIC(18,4); inputs are limited to
// that scale by domain.Validate.
func (s *Store) migrate(ctx context.Context) error {
	schema := sqliteSchema
	if s.d == dialectPostgres {
		schema = postgresSchema
	}
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user',
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS categories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		gst_percent TEXT NOT NULL DEFAULT '0',
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		price_retail TEXT NOT NULL DEFAULT '0',
		price_wholesale TEXT NOT NULL DEFAULT '0',
		category_id INTEGER REFERENCES categories(id),
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS locations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		is_default_source_for_sales BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_locations_single_default
		ON locations(is_default_source_for_sales) WHERE is_default_source_for_sales;

	CREATE TABLE IF NOT EXISTS inventory (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id INTEGER NOT NULL REFERENCES products(id),
		location_id INTEGER NOT NULL REFERENCES locations(id),
		quantity TEXT NOT NULL DEFAULT '0',
		updated_at TIMESTAMP NOT NULL,
		UNIQUE(product_id, location_id)
	);

	CREATE TABLE IF NOT EXISTS batches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id INTEGER NOT NULL REFERENCES products(id),
		location_id INTEGER REFERENCES locations(id),
		quantity TEXT NOT NULL,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sales (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		product_id INTEGER NOT NULL REFERENCES products(id),
		user_id INTEGER NOT NULL REFERENCES users(id),
		quantity TEXT NOT NULL,
		price TEXT NOT NULL,
		discount TEXT NOT NULL DEFAULT '0',
		gst_percent TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sales_status ON sales(status);

	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id),
		action TEXT NOT NULL,
		entity TEXT,
		entity_id INTEGER,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_log_entity ON audit_log(entity, entity_id);
	CREATE INDEX IF NOT EXISTS idx_audit_log_user ON audit_log(user_id)
`

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'user',
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS categories (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		gst_percent NUMERIC(8,3) NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS products (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		price_retail NUMERIC(18,4) NOT NULL DEFAULT 0,
		price_wholesale NUMERIC(18,4) NOT NULL DEFAULT 0,
		category_id BIGINT REFERENCES categories(id),
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS locations (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		is_default_source_for_sales BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_locations_single_default
		ON locations(is_default_source_for_sales) WHERE is_default_source_for_sales;

	CREATE TABLE IF NOT EXISTS inventory (
		id BIGSERIAL PRIMARY KEY,
		product_id BIGINT NOT NULL REFERENCES products(id),
		location_id BIGINT NOT NULL REFERENCES locations(id),
		quantity NUMERIC(18,4) NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL,
		UNIQUE(product_id, location_id)
	);

	CREATE TABLE IF NOT EXISTS batches (
		id BIGSERIAL PRIMARY KEY,
		product_id BIGINT NOT NULL REFERENCES products(id),
		location_id BIGINT REFERENCES locations(id),
		quantity NUMERIC(18,4) NOT NULL,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sales (
		id BIGSERIAL PRIMARY KEY,
		product_id BIGINT NOT NULL REFERENCES products(id),
		user_id BIGINT NOT NULL REFERENCES users(id),
		quantity NUMERIC(18,4) NOT NULL,
		price NUMERIC(18,4) NOT NULL,
		discount NUMERIC(18,4) NOT NULL DEFAULT 0,
		gst_percent NUMERIC(8,3) NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sales_status ON sales(status);

	CREATE TABLE IF NOT EXISTS audit_log (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		action TEXT NOT NULL,
		entity TEXT,
		entity_id BIGINT,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_audit_log_entity ON audit_log(entity, entity_id);
	CREATE INDEX IF NOT EXISTS idx_audit_log_user ON audit_log(user_id)
`
