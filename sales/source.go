package sales

import (
	"context"

	"github.com/warp/inventory-engine/domain"
)

// SourceLocator resolves the location sales draw stock from. The manager
// calls it at most once per operation, inside the operation's transaction.
type SourceLocator interface {
	SourceLocation(ctx context.Context, tx domain.Tx) (int64, error)
}

// FixedSource always returns the configured location id.
type FixedSource int64

func (f FixedSource) SourceLocation(context.Context, domain.Tx) (int64, error) {
	return int64(f), nil
}

// FlaggedSource returns the location marked is_default_source_for_sales.
type FlaggedSource struct{}

func (FlaggedSource) SourceLocation(ctx context.Context, tx domain.Tx) (int64, error) {
	loc, err := tx.DefaultSourceLocation(ctx)
	if err != nil {
		return 0, err
	}
	if loc == nil {
		return 0, &domain.NotFoundError{Entity: domain.EntityLocation, Detail: "no default source location for sales"}
	}
	return loc.ID, nil
}
