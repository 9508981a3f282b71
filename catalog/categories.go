package catalog

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/warp/inventory-engine/domain"
)

type CategoryInput struct {
	Name       string          `json:"name" validate:"required,max=200"`
	GSTPercent decimal.Decimal `json:"gst_percent" validate:"decimal_gte=0,decimal_lte=100,decimal_scale=3"`
}

func (s *Service) CreateCategory(ctx context.Context, in CategoryInput, actor *int64) (*domain.Category, error) {
	if err := s.validate(in, actor); err != nil {
		return nil, err
	}

	var c *domain.Category
	err := s.store.WithTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		var err error
		if c, err = tx.InsertCategory(ctx, domain.Category{Name: in.Name, GSTPercent: in.GSTPercent}); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, actor, domain.ActionCreateCategory, domain.EntityCategory, &c.ID)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) ListCategories(ctx context.Context, page domain.Page) ([]domain.Category, error) {
	return s.store.ListCategories(ctx, page)
}
