/*
Package domain holds the entity types, error taxonomy and persistence
interfaces shared by the inventory engine.

PURPOSE:
  Everything the write core agrees on lives here: products, locations,
  inventory rows, sales and their statuses, audit entries, users and roles.
  Services (inventory, sales, audit, catalog, identity) depend on this
  package and on the Store interface, never on a concrete database.

KEY CONCEPTS IN THIS FILE (types.go):
  - Quantities and money are decimal.Decimal (no float drift)
  - SaleStatus is open-ended; only "sold" carries an inventory side effect
  - AuditEntry is append-only; Entity and EntityID are optional
  - Page carries limit/offset for list reads

SEE ALSO:
  - errors.go: Error taxonomy (validation, not found, insufficient stock, ...)
  - store.go: Store / Tx interfaces
  - validate.go: Struct validation
*/
package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CATALOG
// =============================================================================

type Category struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	GSTPercent decimal.Decimal `json:"gst_percent"`
	CreatedAt  time.Time       `json:"created_at"`
}

type Product struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	RetailPrice    decimal.Decimal `json:"price_retail"`
	WholesalePrice decimal.Decimal `json:"price_wholesale"`
	CategoryID     *int64          `json:"category_id,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Location is an inventory site. At most one location is the default
// source for sales.
type Location struct {
	ID                      int64     `json:"id"`
	Name                    string    `json:"name"`
	IsDefaultSourceForSales bool      `json:"is_default_source_for_sales"`
	CreatedAt               time.Time `json:"created_at"`
}

// Batch is a production batch. Completed batches credit inventory.
type Batch struct {
	ID         int64           `json:"id"`
	ProductID  int64           `json:"product_id"`
	LocationID *int64          `json:"location_id,omitempty"`
	Quantity   decimal.Decimal `json:"quantity"`
	Completed  bool            `json:"completed"`
	CreatedAt  time.Time       `json:"created_at"`
}

// =============================================================================
// INVENTORY
// =============================================================================

// InventoryItem is the stock counter for one (product, location) pair.
//
// INVARIANTS:
//   - Quantity is never negative after a committed transaction.
//   - Unique on (ProductID, LocationID); created by the first credit.
//   - Never hard-deleted: zero is a valid terminal state.
type InventoryItem struct {
	ID         int64           `json:"id"`
	ProductID  int64           `json:"product_id"`
	LocationID int64           `json:"location_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// =============================================================================
// SALES
// =============================================================================

type SaleStatus string

const (
	StatusOrderCreated SaleStatus = "order_created"
	StatusSold         SaleStatus = "sold"
)

// IsSold reports whether the status consumes stock.
func (s SaleStatus) IsSold() bool {
	return s == StatusSold
}

// Normalize trims and lowercases a status as received from callers.
func (s SaleStatus) Normalize() SaleStatus {
	return SaleStatus(strings.ToLower(strings.TrimSpace(string(s))))
}

type Sale struct {
	ID         int64           `json:"id"`
	ProductID  int64           `json:"product_id"`
	UserID     int64           `json:"user_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	Price      decimal.Decimal `json:"price"`
	Discount   decimal.Decimal `json:"discount"`
	GSTPercent decimal.Decimal `json:"gst_percent"`
	Status     SaleStatus      `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
}

// =============================================================================
// AUDIT
// =============================================================================

type EntityType string

const (
	EntityNone      EntityType = ""
	EntityProduct   EntityType = "PRODUCT"
	EntityCategory  EntityType = "CATEGORY"
	EntityLocation  EntityType = "LOCATION"
	EntityBatch     EntityType = "BATCH"
	EntityInventory EntityType = "INVENTORY"
	EntitySale      EntityType = "SALE"
	EntityUser      EntityType = "USER"
)

const (
	ActionCreateProduct      = "CREATE_PRODUCT"
	ActionUpdateProduct      = "UPDATE_PRODUCT"
	ActionDeleteProduct      = "DELETE_PRODUCT"
	ActionCreateCategory     = "CREATE_CATEGORY"
	ActionCreateLocation     = "CREATE_LOCATION"
	ActionSetDefaultLocation = "SET_DEFAULT_SALES_LOCATION"
	ActionCreateBatch        = "CREATE_BATCH"
	ActionTransferInventory  = "TRANSFER_INVENTORY"
	ActionReceiveInventory   = "RECEIVE_INVENTORY"
	ActionCreateSale         = "CREATE_SALE"
	ActionDeleteSale         = "DELETE_SALE"
	ActionCreateUser         = "CREATE_USER"
)

// SaleStatusAction is the audit action for moving a sale to status.
func SaleStatusAction(status SaleStatus) string {
	return "UPDATE_SALE_STATUS_TO_" + strings.ToUpper(string(status))
}

// AuditEntry records who did what. Append-only.
type AuditEntry struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Action    string     `json:"action"`
	Entity    EntityType `json:"entity,omitempty"`
	EntityID  *int64     `json:"entity_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type AuditFilter struct {
	UserID   *int64
	Action   string
	Entity   EntityType
	EntityID *int64
	Page     Page
}

// =============================================================================
// USERS
// =============================================================================

type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

var roleRank = map[Role]int{
	RoleUser:       1,
	RoleAdmin:      2,
	RoleSuperAdmin: 3,
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r grants everything min grants.
func (r Role) AtLeast(min Role) bool {
	return roleRank[r] >= roleRank[min] && r.Valid()
}

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// =============================================================================
// PAGINATION
// =============================================================================

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

type Page struct {
	Limit  int
	Offset int
}

// Normalize applies defaults and bounds.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// PageFor converts a 1-based page number into limit/offset.
func PageFor(page, limit int) Page {
	if page < 1 {
		page = 1
	}
	p := Page{Limit: limit}.Normalize()
	p.Offset = (page - 1) * p.Limit
	return p
}

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 {
	return &v
}
