/*
Package catalog manages products, categories, locations and production
batches.

Every mutation runs in its own transaction together with its audit entry.
A completed batch credits inventory through the inventory ledger inside the
batch's transaction.

SEE ALSO:
  - inventory/ledger.go: Receive, used by completed batches
*/
package catalog

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/inventory-engine/audit"
	"github.com/warp/inventory-engine/domain"
	"github.com/warp/inventory-engine/inventory"
)

type Service struct {
	store  domain.Store
	audit  *audit.Recorder
	ledger *inventory.Ledger
	logger *zap.Logger
}

func NewService(store domain.Store, recorder *audit.Recorder, ledger *inventory.Ledger, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, audit: recorder, ledger: ledger, logger: logger}
}

// =============================================================================
// PRODUCTS
// =============================================================================

type ProductInput struct {
	Name           string          `json:"name" validate:"required,max=200"`
	RetailPrice    decimal.Decimal `json:"price_retail" validate:"decimal_gte=0,decimal_scale=4"`
	WholesalePrice decimal.Decimal `json:"price_wholesale" validate:"decimal_gte=0,decimal_scale=4"`
	CategoryID     *int64          `json:"category_id" validate:"omitempty,gt=0"`
}

func (in ProductInput) product() domain.Product {
	return domain.Product{
		Name:           in.Name,
		RetailPrice:    in.RetailPrice,
		WholesalePrice: in.WholesalePrice,
		CategoryID:     in.CategoryID,
	}
}

func (s *Service) CreateProduct(ctx context.Context, in ProductInput, actor *int64) (*domain.Product, error) {
	if err := s.validate(in, actor); err != nil {
		return nil, err
	}

	var p *domain.Product
	err := s.store.WithTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		var err error
		if p, err = tx.InsertProduct(ctx, in.product()); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, actor, domain.ActionCreateProduct, domain.EntityProduct, &p.ID)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id int64, in ProductInput, actor *int64) (*domain.Product, error) {
	if err := s.validate(in, actor); err != nil {
		return nil, err
	}

	var p *domain.Product
	err := s.store.WithTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		update := in.product()
		update.ID = id
		var err error
		if p, err = tx.UpdateProduct(ctx, update); err != nil {
			return err
		}
		if p == nil {
			return &domain.NotFoundError{Entity: domain.EntityProduct, ID: id}
		}
		return s.audit.Record(ctx, tx, actor, domain.ActionUpdateProduct, domain.EntityProduct, &p.ID)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// DeleteProduct removes a product. Products still referenced by sales or
// inventory cannot be deleted.
func (s *Service) DeleteProduct(ctx context.Context, id int64, actor *int64) error {
	if err := s.audit.CheckActor(actor); err != nil {
		return err
	}
	return s.store.WithTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		deleted, err := tx.DeleteProduct(ctx, id)
		if err != nil {
			return err
		}
		if !deleted {
			return &domain.NotFoundError{Entity: domain.EntityProduct, ID: id}
		}
		return s.audit.Record(ctx, tx, actor, domain.ActionDeleteProduct, domain.EntityProduct, &id)
	})
}

func (s *Service) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &domain.NotFoundError{Entity: domain.EntityProduct, ID: id}
	}
	return p, nil
}

func (s *Service) ListProducts(ctx context.Context, page domain.Page) ([]domain.Product, error) {
	return s.store.ListProducts(ctx, page)
}

func (s *Service) validate(in any, actor *int64) error {
	if err := domain.Validate(in); err != nil {
		return err
	}
	return s.audit.CheckActor(actor)
}
