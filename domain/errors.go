/*
errors.go - Centralized error types for the inventory engine

PURPOSE:
  All error types in one place. Services return these (possibly wrapped);
  the HTTP layer maps them to status codes with errors.Is / errors.As.

ERROR CATEGORIES:
  1. Validation     - bad input, rejected before any transaction opens
  2. Not found      - referenced sale/product/inventory row absent
  3. Insufficient   - a decrement would drive stock negative
  4. Persistence    - storage failure inside a transactional step
  5. Audit failure  - the audit insert failed; the mutation rolls back too
  6. Conflict       - unique constraint (duplicate email, second default location)
  7. Auth           - unauthorized / forbidden

SEE ALSO:
  - api/handlers.go: HTTP status mapping (statusFor)
*/
package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrPersistence       = errors.New("persistence failure")
	ErrAuditFailure      = errors.New("audit write failed")
	ErrConflict          = errors.New("conflict")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError describes one rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Invalid is shorthand for a *ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError names the missing record.
type NotFoundError struct {
	Entity EntityType
	ID     int64
	Detail string
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("%s %d not found", e.Entity, e.ID)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// InsufficientStockError reports a decrement that would go below zero.
type InsufficientStockError struct {
	ProductID  int64
	LocationID int64
	Requested  decimal.Decimal
	Available  decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d at location %d: available %s, requested %s",
		e.ProductID, e.LocationID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// PersistenceError wraps a storage failure with the operation that hit it.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

// AuditError is returned when the audit insert fails. It is treated like a
// persistence failure: the surrounding transaction must roll back.
type AuditError struct {
	Action   string
	UserID   int64
	Entity   EntityType
	EntityID *int64
	Err      error
}

func (e *AuditError) Error() string {
	id := "<nil>"
	if e.EntityID != nil {
		id = fmt.Sprint(*e.EntityID)
	}
	return fmt.Sprintf("audit %s by user %d on %s %s: %v", e.Action, e.UserID, e.Entity, id, e.Err)
}

func (e *AuditError) Unwrap() []error {
	return []error{ErrAuditFailure, ErrPersistence, e.Err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to caller input or state
// the caller can fix.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrConflict)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
