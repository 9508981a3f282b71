package catalog

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/warp/inventory-engine/domain"
	"github.com/warp/inventory-engine/inventory"
)

type BatchInput struct {
	ProductID  int64           `json:"product_id" validate:"required,gt=0"`
	LocationID *int64          `json:"location_id" validate:"omitempty,gt=0"`
	Quantity   decimal.Decimal `json:"quantity" validate:"decimal_gt=0,decimal_scale=4"`
	Completed  bool            `json:"completed"`
}

// CreateBatch records a production batch. A completed batch credits its
// quantity at LocationID, or at the default sales source when unset.
func (s *Service) CreateBatch(ctx context.Context, in BatchInput, actor *int64) (*domain.Batch, error) {
	if err := s.validate(in, actor); err != nil {
		return nil, err
	}

	var batch *domain.Batch
	err := s.store.WithTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		var err error
		batch, err = tx.InsertBatch(ctx, domain.Batch{
			ProductID:  in.ProductID,
			LocationID: in.LocationID,
			Quantity:   in.Quantity,
			Completed:  in.Completed,
		})
		if err != nil {
			return err
		}
		if err := s.audit.Record(ctx, tx, actor, domain.ActionCreateBatch, domain.EntityBatch, &batch.ID); err != nil {
			return err
		}
		if !batch.Completed {
			return nil
		}

		var locationID int64
		if batch.LocationID != nil {
			locationID = *batch.LocationID
		} else {
			loc, err := tx.DefaultSourceLocation(ctx)
			if err != nil {
				return err
			}
			if loc == nil {
				return &domain.NotFoundError{Entity: domain.EntityLocation, Detail: "no default source location for completed batch"}
			}
			locationID = loc.ID
		}

		_, err = s.ledger.Receive(ctx, inventory.ReceiveRequest{
			ProductID:  batch.ProductID,
			LocationID: locationID,
			Quantity:   batch.Quantity,
			ActorID:    actor,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

func (s *Service) ListBatches(ctx context.Context, page domain.Page) ([]domain.Batch, error) {
	return s.store.ListBatches(ctx, page)
}
