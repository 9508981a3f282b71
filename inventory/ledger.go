/*
Package inventory implements the stock ledger: per-location counters that
move between locations atomically.

PURPOSE:
  Transfer moves a quantity from one location to another. The source is
  decremented with a single UPDATE ... RETURNING, so concurrent transfers
  never observe a stale quantity; a negative result rolls the whole
  transaction back. The destination row is created on first credit.

INVARIANTS:
  - No committed state has a negative quantity.
  - A transfer is all-or-nothing: decrement, credit and audit entry commit
    together or not at all.
  - The sum of a product's quantities is unchanged by a transfer.

SEE ALSO:
  - store/sqlstore/inventory.go: The atomic decrement and upsert
  - sales/manager.go: Sales consume stock through the same primitives
*/
package inventory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/inventory-engine/audit"
	"github.com/warp/inventory-engine/domain"
)

// TransferRequest moves Quantity of ProductID between two locations.
type TransferRequest struct {
	ProductID      int64           `json:"product_id" validate:"required,gt=0"`
	FromLocationID int64           `json:"from_location_id" validate:"required,gt=0"`
	ToLocationID   int64           `json:"to_location_id" validate:"required,gt=0,nefield=FromLocationID"`
	Quantity       decimal.Decimal `json:"quantity" validate:"decimal_gt=0,decimal_scale=4"`
	ActorID        *int64          `json:"-"`
}

// ReceiveRequest credits stock that enters the system, such as a
// completed production batch.
type ReceiveRequest struct {
	ProductID  int64           `json:"product_id" validate:"required,gt=0"`
	LocationID int64           `json:"location_id" validate:"required,gt=0"`
	Quantity   decimal.Decimal `json:"quantity" validate:"decimal_gt=0,decimal_scale=4"`
	ActorID    *int64          `json:"-"`
}

// Ledger is the inventory ledger.
type Ledger struct {
	store  domain.Store
	audit  *audit.Recorder
	logger *zap.Logger
}

func NewLedger(store domain.Store, recorder *audit.Recorder, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{store: store, audit: recorder, logger: logger}
}

// Transfer moves stock and returns the destination row after the credit.
//
// Errors:
//   - *domain.ValidationError: bad input, nothing touched
//   - *domain.NotFoundError: no inventory row at the source
//   - *domain.InsufficientStockError: source holds less than Quantity
//   - *domain.PersistenceError / *domain.AuditError: storage failure
func (l *Ledger) Transfer(ctx context.Context, req TransferRequest) (*domain.InventoryItem, error) {
	if err := domain.Validate(req); err != nil {
		return nil, err
	}
	if err := l.audit.CheckActor(req.ActorID); err != nil {
		return nil, err
	}

	var dest *domain.InventoryItem
	err := l.store.WithTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		remaining, found, err := tx.DecrementInventory(ctx, req.ProductID, req.FromLocationID, req.Quantity)
		if err != nil {
			return err
		}
		if !found {
			return &domain.NotFoundError{
				Entity: domain.EntityInventory,
				ID:     req.ProductID,
				Detail: fmt.Sprintf("no stock at location %d", req.FromLocationID),
			}
		}
		if remaining.IsNegative() {
			return &domain.InsufficientStockError{
				ProductID:  req.ProductID,
				LocationID: req.FromLocationID,
				Requested:  req.Quantity,
				Available:  remaining.Add(req.Quantity),
			}
		}

		dest, err = tx.UpsertInventory(ctx, req.ProductID, req.ToLocationID, req.Quantity)
		if err != nil {
			return err
		}

		return l.audit.Record(ctx, tx, req.ActorID, domain.ActionTransferInventory, domain.EntityInventory, domain.Int64Ptr(req.ProductID))
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("inventory transferred",
		zap.Int64("product_id", req.ProductID),
		zap.Int64("from_location_id", req.FromLocationID),
		zap.Int64("to_location_id", req.ToLocationID),
		zap.String("quantity", req.Quantity.String()),
	)
	return dest, nil
}

// Receive credits stock at a location. Called with a context that already
// carries a transaction, it joins that transaction.
func (l *Ledger) Receive(ctx context.Context, req ReceiveRequest) (*domain.InventoryItem, error) {
	if err := domain.Validate(req); err != nil {
		return nil, err
	}
	if err := l.audit.CheckActor(req.ActorID); err != nil {
		return nil, err
	}

	var item *domain.InventoryItem
	err := l.store.WithTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		var err error
		item, err = tx.UpsertInventory(ctx, req.ProductID, req.LocationID, req.Quantity)
		if err != nil {
			return err
		}
		return l.audit.Record(ctx, tx, req.ActorID, domain.ActionReceiveInventory, domain.EntityInventory, domain.Int64Ptr(req.ProductID))
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// List returns inventory rows ordered by id. No transaction is opened.
func (l *Ledger) List(ctx context.Context, page domain.Page) ([]domain.InventoryItem, error) {
	return l.store.ListInventory(ctx, page)
}
