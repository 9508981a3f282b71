/*
store.go - Persistence interfaces

PURPOSE:
  Defines the boundary between the write core and the database. Reads can
  run against the pool; every write goes through a Tx handed out by
  Store.WithTx, so a mutation and its audit entry always share one
  transaction.

KEY INTERFACES:
  Reader: Read-only queries (pool or transaction)
  Writer: Mutations, only reachable inside a transaction
  Tx:     Reader + Writer bound to one open transaction
  Store:  Reader + WithTx (the transaction coordinator)

NESTING:
  WithTx called with a context that already carries a transaction reuses
  it. Only the outermost call commits or rolls back.

IMPLEMENTATIONS:
  - store/sqlstore: SQLite (dev/tests) and PostgreSQL via pgx

SEE ALSO:
  - store/sqlstore/tx.go: Coordinator implementation
*/
package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// Reader holds the queries that need no transaction.
type Reader interface {
	GetProduct(ctx context.Context, id int64) (*Product, error)
	ListProducts(ctx context.Context, page Page) ([]Product, error)
	ListCategories(ctx context.Context, page Page) ([]Category, error)
	GetLocation(ctx context.Context, id int64) (*Location, error)
	ListLocations(ctx context.Context, page Page) ([]Location, error)
	ListBatches(ctx context.Context, page Page) ([]Batch, error)

	GetInventoryItem(ctx context.Context, productID, locationID int64) (*InventoryItem, error)
	ListInventory(ctx context.Context, page Page) ([]InventoryItem, error)

	// GetSale returns nil, nil when the sale does not exist.
	GetSale(ctx context.Context, id int64) (*Sale, error)
	ListSales(ctx context.Context, page Page) ([]Sale, error)

	GetUser(ctx context.Context, id int64) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	ListUsers(ctx context.Context, page Page) ([]User, error)

	ListAuditEntries(ctx context.Context, filter AuditFilter) ([]AuditEntry, error)
}

// Writer holds the mutations. Implementations only expose it on a Tx.
type Writer interface {
	// DecrementInventory subtracts qty in one statement and returns the
	// resulting quantity. found is false when no row exists.
	DecrementInventory(ctx context.Context, productID, locationID int64, qty decimal.Decimal) (remaining decimal.Decimal, found bool, err error)
	// UpsertInventory inserts qty or adds it to the existing row.
	UpsertInventory(ctx context.Context, productID, locationID int64, qty decimal.Decimal) (*InventoryItem, error)

	// DefaultSourceLocation returns nil, nil when no location is flagged.
	DefaultSourceLocation(ctx context.Context) (*Location, error)

	InsertSale(ctx context.Context, s Sale) (*Sale, error)
	// LockSale loads a sale and holds its row lock until the transaction
	// ends. Returns nil, nil when the sale does not exist.
	LockSale(ctx context.Context, id int64) (*Sale, error)
	UpdateSaleStatus(ctx context.Context, id int64, status SaleStatus) error
	// DeleteSale reports whether a row was removed.
	DeleteSale(ctx context.Context, id int64) (bool, error)

	InsertAuditEntry(ctx context.Context, e AuditEntry) (int64, error)

	InsertProduct(ctx context.Context, p Product) (*Product, error)
	// UpdateProduct returns nil, nil when the product does not exist.
	UpdateProduct(ctx context.Context, p Product) (*Product, error)
	// DeleteProduct reports whether a row was removed.
	DeleteProduct(ctx context.Context, id int64) (bool, error)
	InsertCategory(ctx context.Context, c Category) (*Category, error)
	InsertLocation(ctx context.Context, l Location) (*Location, error)
	// SetDefaultSourceLocation clears the flag everywhere, then sets it on id.
	SetDefaultSourceLocation(ctx context.Context, id int64) (bool, error)
	InsertBatch(ctx context.Context, b Batch) (*Batch, error)

	InsertUser(ctx context.Context, u User) (*User, error)
}

// Tx is one open transaction.
type Tx interface {
	Reader
	Writer
}

// TxFunc runs inside a transaction. The ctx passed to it carries the
// transaction so nested WithTx calls join it.
type TxFunc func(ctx context.Context, tx Tx) error

// Store is the transaction coordinator plus pool reads.
type Store interface {
	Reader

	// WithTx executes fn within a transaction.
	// If fn returns error, the transaction is rolled back and the error is
	// returned unchanged. If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn TxFunc) error
}
