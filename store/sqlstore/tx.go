package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/warp/inventory-engine/domain"
)

// =============================================================================
// TRANSACTION COORDINATOR
// =============================================================================

type txKey struct{}

// txStore is the domain.Tx bound to one *sql.Tx.
type txStore struct {
	queries
	owner *Store
}

var _ domain.Tx = (*txStore)(nil)

// WithTx executes fn within a transaction.
//
// If ctx already carries a transaction opened by this store, fn joins it
// and WithTx neither commits nor rolls back; the outermost call owns the
// boundary. Otherwise a transaction is begun, fn runs with a context that
// carries it, and the transaction is committed when fn returns nil or
// rolled back when fn returns an error or panics. fn's error is returned
// unchanged. The connection goes back to the pool exactly once, on commit
// or rollback.
func (s *Store) WithTx(ctx context.Context, fn domain.TxFunc) error {
	if outer, ok := ctx.Value(txKey{}).(*txStore); ok && outer.owner == s {
		return fn(ctx, outer)
	}

	sqlTx, err := s.db.BeginTx(ctx, s.d.txOptions())
	if err != nil {
		return &domain.PersistenceError{Op: "begin transaction", Err: err}
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			s.logger.Error("rollback failed", zap.Error(rbErr))
		}
	}()

	ts := &txStore{queries: queries{q: sqlTx, d: s.d}, owner: s}
	if err := fn(context.WithValue(ctx, txKey{}, ts), ts); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return &domain.PersistenceError{Op: "commit transaction", Err: err}
	}
	committed = true
	return nil
}

// InTx reports whether ctx carries an open transaction.
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*txStore)
	return ok
}
