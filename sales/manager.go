/*
Package sales manages the sale lifecycle and its coupling to inventory.

PURPOSE:
  A sale consumes stock at the default source location while its status is
  "sold". Status changes are evaluated only on before/after sold-ness:

    before     after      inventory effect
    --------   --------   ----------------------------------
    not sold   sold       decrement source by sale quantity
    sold       not sold   credit source by sale quantity
    sold       sold       none (repeat is idempotent)
    not sold   not sold   none

  Create treats its initial status as a transition from "not sold".
  Remove credits the source when the deleted sale's status is one of the
  configured stock-affecting statuses.

TRANSACTIONS:
  Every operation runs in one transaction: sale row, inventory change and
  audit entry commit together or not at all. UpdateStatus and Remove lock
  the sale row first, so concurrent calls on one sale apply its stock
  effect once.

SEE ALSO:
  - source.go: Default source location resolution
  - invoice.go: Invoice totals
*/
package sales

import (
	"context"
	"slices"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/inventory-engine/audit"
	"github.com/warp/inventory-engine/domain"
)

// DefaultStockAffectingStatuses are restored to inventory on removal.
var DefaultStockAffectingStatuses = []domain.SaleStatus{domain.StatusSold, domain.StatusOrderCreated}

// NewSale is the input to Create.
type NewSale struct {
	ProductID  int64             `json:"product_id" validate:"required,gt=0"`
	UserID     int64             `json:"user_id" validate:"required,gt=0"`
	Quantity   decimal.Decimal   `json:"quantity" validate:"decimal_gt=0,decimal_scale=4"`
	Price      decimal.Decimal   `json:"price" validate:"decimal_gte=0,decimal_scale=4"`
	Discount   decimal.Decimal   `json:"discount" validate:"decimal_gte=0,decimal_scale=4"`
	GSTPercent decimal.Decimal   `json:"gst_percent" validate:"decimal_gte=0,decimal_scale=3"`
	Status     domain.SaleStatus `json:"status" validate:"max=32"`
}

type statusUpdate struct {
	Status domain.SaleStatus `json:"status" validate:"required,max=32"`
}

// Manager is the sale lifecycle manager.
type Manager struct {
	store          domain.Store
	audit          *audit.Recorder
	logger         *zap.Logger
	source         SourceLocator
	stockAffecting []domain.SaleStatus
}

// Option configures a Manager.
type Option func(*Manager)

// WithSource sets how the default source location is found. The default
// is FlaggedSource.
func WithSource(s SourceLocator) Option {
	return func(m *Manager) { m.source = s }
}

// WithStockAffectingStatuses sets the statuses whose removal restores stock.
func WithStockAffectingStatuses(statuses ...domain.SaleStatus) Option {
	return func(m *Manager) {
		m.stockAffecting = m.stockAffecting[:0]
		for _, s := range statuses {
			m.stockAffecting = append(m.stockAffecting, s.Normalize())
		}
	}
}

func NewManager(store domain.Store, recorder *audit.Recorder, logger *zap.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:          store,
		audit:          recorder,
		logger:         logger,
		source:         FlaggedSource{},
		stockAffecting: slices.Clone(DefaultStockAffectingStatuses),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = zap.NewNop()
	}
	return m
}

// Create inserts a sale. An initial status of "sold" (the default)
// decrements stock at the source location.
func (m *Manager) Create(ctx context.Context, in NewSale, actor *int64) (*domain.Sale, error) {
	in.Status = in.Status.Normalize()
	if in.Status == "" {
		in.Status = domain.StatusSold
	}
	if err := domain.Validate(in); err != nil {
		return nil, err
	}
	if err := m.audit.CheckActor(actor); err != nil {
		return nil, err
	}

	var sale *domain.Sale
	err := m.store.WithTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		product, err := tx.GetProduct(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return &domain.NotFoundError{Entity: domain.EntityProduct, ID: in.ProductID}
		}
		user, err := tx.GetUser(ctx, in.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			return domain.Invalid("user_id", "refers to a missing user")
		}

		sale, err = tx.InsertSale(ctx, domain.Sale{
			ProductID:  in.ProductID,
			UserID:     in.UserID,
			Quantity:   in.Quantity,
			Price:      in.Price,
			Discount:   in.Discount,
			GSTPercent: in.GSTPercent,
			Status:     in.Status,
		})
		if err != nil {
			return err
		}

		if err := m.applyTransition(ctx, tx, sale, "", sale.Status); err != nil {
			return err
		}

		return m.audit.Record(ctx, tx, actor, domain.ActionCreateSale, domain.EntitySale, &sale.ID)
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("sale created",
		zap.Int64("sale_id", sale.ID),
		zap.Int64("product_id", sale.ProductID),
		zap.String("status", string(sale.Status)),
	)
	return sale, nil
}

// UpdateStatus moves a sale to status and applies the inventory effect of
// the transition. A missing sale yields *domain.NotFoundError.
func (m *Manager) UpdateStatus(ctx context.Context, saleID int64, status domain.SaleStatus, actor *int64) (*domain.Sale, error) {
	status = status.Normalize()
	if err := domain.Validate(statusUpdate{Status: status}); err != nil {
		return nil, err
	}
	if err := m.audit.CheckActor(actor); err != nil {
		return nil, err
	}

	var sale *domain.Sale
	err := m.store.WithTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		var err error
		sale, err = tx.LockSale(ctx, saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return &domain.NotFoundError{Entity: domain.EntitySale, ID: saleID}
		}

		before := sale.Status
		if err := m.applyTransition(ctx, tx, sale, before, status); err != nil {
			return err
		}
		if err := tx.UpdateSaleStatus(ctx, saleID, status); err != nil {
			return err
		}
		sale.Status = status

		return m.audit.Record(ctx, tx, actor, domain.SaleStatusAction(status), domain.EntitySale, &sale.ID)
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// Remove deletes a sale and returns it as it was. Stock is restored when
// the sale's status is stock-affecting. A missing sale yields
// *domain.NotFoundError.
func (m *Manager) Remove(ctx context.Context, saleID int64, actor *int64) (*domain.Sale, error) {
	if err := m.audit.CheckActor(actor); err != nil {
		return nil, err
	}

	var sale *domain.Sale
	err := m.store.WithTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		var err error
		sale, err = tx.LockSale(ctx, saleID)
		if err != nil {
			return err
		}
		if sale == nil {
			return &domain.NotFoundError{Entity: domain.EntitySale, ID: saleID}
		}

		deleted, err := tx.DeleteSale(ctx, saleID)
		if err != nil {
			return err
		}
		if !deleted {
			return &domain.NotFoundError{Entity: domain.EntitySale, ID: saleID}
		}

		if slices.Contains(m.stockAffecting, sale.Status.Normalize()) {
			source, err := m.source.SourceLocation(ctx, tx)
			if err != nil {
				return err
			}
			if _, err := tx.UpsertInventory(ctx, sale.ProductID, source, sale.Quantity); err != nil {
				return err
			}
		}

		return m.audit.Record(ctx, tx, actor, domain.ActionDeleteSale, domain.EntitySale, &sale.ID)
	})
	if err != nil {
		return nil, err
	}
	return sale, nil
}

// applyTransition adjusts stock at the source location for a change from
// before to after.
func (m *Manager) applyTransition(ctx context.Context, tx domain.Tx, sale *domain.Sale, before, after domain.SaleStatus) error {
	if before.IsSold() == after.IsSold() {
		return nil
	}

	source, err := m.source.SourceLocation(ctx, tx)
	if err != nil {
		return err
	}

	if after.IsSold() {
		remaining, found, err := tx.DecrementInventory(ctx, sale.ProductID, source, sale.Quantity)
		if err != nil {
			return err
		}
		if !found || remaining.IsNegative() {
			available := decimal.Zero
			if found {
				available = remaining.Add(sale.Quantity)
			}
			return &domain.InsufficientStockError{
				ProductID:  sale.ProductID,
				LocationID: source,
				Requested:  sale.Quantity,
				Available:  available,
			}
		}
		return nil
	}

	_, err = tx.UpsertInventory(ctx, sale.ProductID, source, sale.Quantity)
	return err
}

// Get returns a sale or *domain.NotFoundError.
func (m *Manager) Get(ctx context.Context, id int64) (*domain.Sale, error) {
	sale, err := m.store.GetSale(ctx, id)
	if err != nil {
		return nil, err
	}
	if sale == nil {
		return nil, &domain.NotFoundError{Entity: domain.EntitySale, ID: id}
	}
	return sale, nil
}

func (m *Manager) List(ctx context.Context, page domain.Page) ([]domain.Sale, error) {
	return m.store.ListSales(ctx, page)
}
