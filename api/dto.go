/*
dto.go - Data Transfer Objects for API requests and responses

NAMING CONVENTION:
  - *Request:  Request body types from clients
  - *Response: Response wrappers
  Domain entities (domain.Product, domain.Sale, ...) are serialized as-is;
  their json tags are the wire format.

VALIDATION:
  Request types carry validator tags and are checked with domain.Validate
  before they are converted to service inputs.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/warp/inventory-engine/domain"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// AUTH
// =============================================================================

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type CreateUserRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

// =============================================================================
// INVENTORY
// =============================================================================

type TransferRequest struct {
	ProductID      int64           `json:"product_id"`
	FromLocationID int64           `json:"from_location_id"`
	ToLocationID   int64           `json:"to_location_id"`
	Quantity       decimal.Decimal `json:"quantity"`
}

// =============================================================================
// SALES
// =============================================================================

// CreateSaleRequest mirrors sales.NewSale. UserID defaults to the caller
// and only admins may name another user. Price and GSTPercent must be
// present even when zero.
type CreateSaleRequest struct {
	ProductID  int64            `json:"product_id"`
	UserID     *int64           `json:"user_id"`
	Quantity   decimal.Decimal  `json:"quantity"`
	Price      *decimal.Decimal `json:"price"`
	Discount   decimal.Decimal  `json:"discount"`
	GSTPercent *decimal.Decimal `json:"gst_percent"`
	Status     string           `json:"status"`
}

type UpdateSaleStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}
