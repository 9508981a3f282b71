package catalog

import (
	"context"

	"go.uber.org/zap"

	"github.com/warp/inventory-engine/domain"
)

type LocationInput struct {
	Name                    string `json:"name" validate:"required,max=200"`
	IsDefaultSourceForSales bool   `json:"is_default_source_for_sales"`
}

// CreateLocation inserts a location. When it is flagged as the default
// sales source, the flag moves to it in the same transaction.
func (s *Service) CreateLocation(ctx context.Context, in LocationInput, actor *int64) (*domain.Location, error) {
	if err := s.validate(in, actor); err != nil {
		return nil, err
	}

	var loc *domain.Location
	err := s.store.WithTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		var err error
		if loc, err = tx.InsertLocation(ctx, domain.Location{Name: in.Name}); err != nil {
			return err
		}
		if in.IsDefaultSourceForSales {
			if _, err := tx.SetDefaultSourceLocation(ctx, loc.ID); err != nil {
				return err
			}
			loc.IsDefaultSourceForSales = true
		}
		return s.audit.Record(ctx, tx, actor, domain.ActionCreateLocation, domain.EntityLocation, &loc.ID)
	})
	if err != nil {
		return nil, err
	}
	return loc, nil
}

// SetDefaultLocation makes id the only default source for sales.
func (s *Service) SetDefaultLocation(ctx context.Context, id int64, actor *int64) (*domain.Location, error) {
	if err := s.audit.CheckActor(actor); err != nil {
		return nil, err
	}

	var loc *domain.Location
	err := s.store.WithTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		ok, err := tx.SetDefaultSourceLocation(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return &domain.NotFoundError{Entity: domain.EntityLocation, ID: id}
		}
		if loc, err = tx.GetLocation(ctx, id); err != nil {
			return err
		}
		return s.audit.Record(ctx, tx, actor, domain.ActionSetDefaultLocation, domain.EntityLocation, &id)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("default sales location changed", zap.Int64("location_id", id))
	return loc, nil
}

func (s *Service) ListLocations(ctx context.Context, page domain.Page) ([]domain.Location, error) {
	return s.store.ListLocations(ctx, page)
}
