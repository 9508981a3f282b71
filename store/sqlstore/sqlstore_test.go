package sqlstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/warp/inventory-engine/domain"
	"github.com/warp/inventory-engine/store/sqlstore"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlstore.Store {
	store, err := sqlstore.Open(sqlstore.DriverSQLite, ":memory:", sqlstore.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

type fixture struct {
	productID int64
	locationA int64
	locationB int64
	userID    int64
}

func seed(t *testing.T, store *sqlstore.Store) fixture {
	t.Helper()
	var f fixture
	err := store.WithTx(context.Background(), func(ctx context.Context, tx domain.Tx) error {
		p, err := tx.InsertProduct(ctx, domain.Product{Name: "Widget", RetailPrice: decimal.NewFromInt(10)})
		if err != nil {
			return err
		}
		a, err := tx.InsertLocation(ctx, domain.Location{Name: "Warehouse", IsDefaultSourceForSales: true})
		if err != nil {
			return err
		}
		b, err := tx.InsertLocation(ctx, domain.Location{Name: "Shop"})
		if err != nil {
			return err
		}
		u, err := tx.InsertUser(ctx, domain.User{Name: "Ops", Email: "ops@example.com", PasswordHash: "x", Role: domain.RoleAdmin})
		if err != nil {
			return err
		}
		f = fixture{productID: p.ID, locationA: a.ID, locationB: b.ID, userID: u.ID}
		return nil
	})
	require.NoError(t, err)
	return f
}

func credit(t *testing.T, store *sqlstore.Store, productID, locationID int64, qty int64) {
	t.Helper()
	err := store.WithTx(context.Background(), func(ctx context.Context, tx domain.Tx) error {
		_, err := tx.UpsertInventory(ctx, productID, locationID, decimal.NewFromInt(qty))
		return err
	})
	require.NoError(t, err)
}

func quantityAt(t *testing.T, store *sqlstore.Store, productID, locationID int64) decimal.Decimal {
	t.Helper()
	item, err := store.GetInventoryItem(context.Background(), productID, locationID)
	require.NoError(t, err)
	if item == nil {
		return decimal.Zero
	}
	return item.Quantity
}

// =============================================================================
// TRANSACTION COORDINATOR TESTS
// =============================================================================

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	store := newTestStore(t)
	f := seed(t, store)

	credit(t, store, f.productID, f.locationA, 10)

	assert.True(t, quantityAt(t, store, f.productID, f.locationA).Equal(decimal.NewFromInt(10)))
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	// GIVEN: 10 units at A
	// WHEN: A transaction credits 5 more and then fails
	// THEN: The original error is returned unchanged and A still holds 10

	store := newTestStore(t)
	f := seed(t, store)
	credit(t, store, f.productID, f.locationA, 10)

	boom := errors.New("boom")
	err := store.WithTx(context.Background(), func(ctx context.Context, tx domain.Tx) error {
		if _, err := tx.UpsertInventory(ctx, f.productID, f.locationA, decimal.NewFromInt(5)); err != nil {
			return err
		}
		return boom
	})

	assert.Same(t, boom, err)
	assert.True(t, quantityAt(t, store, f.productID, f.locationA).Equal(decimal.NewFromInt(10)))
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	store := newTestStore(t)
	f := seed(t, store)
	credit(t, store, f.productID, f.locationA, 10)

	assert.Panics(t, func() {
		_ = store.WithTx(context.Background(), func(ctx context.Context, tx domain.Tx) error {
			_, _ = tx.UpsertInventory(ctx, f.productID, f.locationA, decimal.NewFromInt(5))
			panic("boom")
		})
	})

	// The connection was released: a new transaction can run.
	assert.True(t, quantityAt(t, store, f.productID, f.locationA).Equal(decimal.NewFromInt(10)))
	credit(t, store, f.productID, f.locationA, 1)
	assert.True(t, quantityAt(t, store, f.productID, f.locationA).Equal(decimal.NewFromInt(11)))
}

func TestWithTx_NestedCallsJoinOuterTransaction(t *testing.T) {
	// GIVEN: An outer transaction
	// WHEN: A nested WithTx credits stock and the outer one then fails
	// THEN: The inner work is rolled back with the outer transaction

	store := newTestStore(t)
	f := seed(t, store)

	boom := errors.New("outer failure")
	err := store.WithTx(context.Background(), func(ctx context.Context, outer domain.Tx) error {
		assert.True(t, sqlstore.InTx(ctx))
		innerErr := store.WithTx(ctx, func(ctx context.Context, inner domain.Tx) error {
			assert.Same(t, outer, inner, "nested call must reuse the outer handle")
			_, err := inner.UpsertInventory(ctx, f.productID, f.locationA, decimal.NewFromInt(7))
			return err
		})
		require.NoError(t, innerErr)

		// Visible inside the outer transaction.
		item, err := outer.GetInventoryItem(ctx, f.productID, f.locationA)
		require.NoError(t, err)
		require.NotNil(t, item)
		assert.True(t, item.Quantity.Equal(decimal.NewFromInt(7)))
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.True(t, quantityAt(t, store, f.productID, f.locationA).IsZero())
}

func TestWithTx_CancelledContextFailsToBegin(t *testing.T) {
	store := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := store.WithTx(ctx, func(ctx context.Context, tx domain.Tx) error {
		called = true
		return nil
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.False(t, called)
}

// =============================================================================
// QUERY TESTS
// =============================================================================

func TestDecrementInventory_ReturnsRemaining(t *testing.T) {
	store := newTestStore(t)
	f := seed(t, store)
	credit(t, store, f.productID, f.locationA, 3)

	err := store.WithTx(context.Background(), func(ctx context.Context, tx domain.Tx) error {
		remaining, found, err := tx.DecrementInventory(ctx, f.productID, f.locationA, decimal.NewFromInt(5))
		require.NoError(t, err)
		assert.True(t, found)
		assert.True(t, remaining.Equal(decimal.NewFromInt(-2)), "decrement is unconditional; caller checks the sign")

		_, found, err = tx.DecrementInventory(ctx, f.productID, f.locationB, decimal.NewFromInt(1))
		require.NoError(t, err)
		assert.False(t, found)
		return errors.New("discard")
	})
	require.Error(t, err)
	assert.True(t, quantityAt(t, store, f.productID, f.locationA).Equal(decimal.NewFromInt(3)))
}

func TestUpsertInventory_AccumulatesFractions(t *testing.T) {
	store := newTestStore(t)
	f := seed(t, store)

	err := store.WithTx(context.Background(), func(ctx context.Context, tx domain.Tx) error {
		if _, err := tx.UpsertInventory(ctx, f.productID, f.locationB, decimal.RequireFromString("1.25")); err != nil {
			return err
		}
		item, err := tx.UpsertInventory(ctx, f.productID, f.locationB, decimal.RequireFromString("0.75"))
		if err != nil {
			return err
		}
		assert.True(t, item.Quantity.Equal(decimal.NewFromInt(2)))
		return nil
	})
	require.NoError(t, err)

	items, err := store.ListInventory(context.Background(), domain.Page{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, f.locationB, items[0].LocationID)
}

func TestDecrementInventory_FractionsAreExact(t *testing.T) {
	store := newTestStore(t)
	f := seed(t, store)
	tenth := decimal.RequireFromString("0.1")

	err := store.WithTx(context.Background(), func(ctx context.Context, tx domain.Tx) error {
		if _, err := tx.UpsertInventory(ctx, f.productID, f.locationA, decimal.RequireFromString("0.2")); err != nil {
			return err
		}
		if _, err := tx.UpsertInventory(ctx, f.productID, f.locationA, tenth); err != nil {
			return err
		}
		for _, want := range []string{"0.2", "0.1", "0"} {
			remaining, found, err := tx.DecrementInventory(ctx, f.productID, f.locationA, tenth)
			require.NoError(t, err)
			require.True(t, found)
			assert.True(t, remaining.Equal(decimal.RequireFromString(want)), "got %s, want %s", remaining, want)
		}
		return nil
	})
	require.NoError(t, err)
	assert.True(t, quantityAt(t, store, f.productID, f.locationA).IsZero())
}

func TestLockSaleAndDeleteSale(t *testing.T) {
	store := newTestStore(t)
	f := seed(t, store)

	err := store.WithTx(context.Background(), func(ctx context.Context, tx domain.Tx) error {
		// GIVEN one stored sale
		sale, err := tx.InsertSale(ctx, domain.Sale{
			ProductID: f.productID, UserID: f.userID,
			Quantity: decimal.NewFromInt(2), Price: decimal.NewFromInt(10),
			GSTPercent: decimal.NewFromInt(5), Status: domain.StatusSold,
		})
		require.NoError(t, err)

		// WHEN it is locked
		locked, err := tx.LockSale(ctx, sale.ID)
		require.NoError(t, err)
		require.NotNil(t, locked)
		assert.Equal(t, domain.StatusSold, locked.Status)

		// THEN the first delete removes it and the second finds nothing
		deleted, err := tx.DeleteSale(ctx, sale.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		deleted, err = tx.DeleteSale(ctx, sale.ID)
		require.NoError(t, err)
		assert.False(t, deleted)

		missing, err := tx.LockSale(ctx, sale.ID)
		require.NoError(t, err)
		assert.Nil(t, missing)
		return nil
	})
	require.NoError(t, err)
}

func TestSetDefaultSourceLocation_MovesFlag(t *testing.T) {
	store := newTestStore(t)
	f := seed(t, store)

	err := store.WithTx(context.Background(), func(ctx context.Context, tx domain.Tx) error {
		ok, err := tx.SetDefaultSourceLocation(ctx, f.locationB)
		if err != nil {
			return err
		}
		assert.True(t, ok)
		return nil
	})
	require.NoError(t, err)

	err = store.WithTx(context.Background(), func(ctx context.Context, tx domain.Tx) error {
		loc, err := tx.DefaultSourceLocation(ctx)
		require.NoError(t, err)
		require.NotNil(t, loc)
		assert.Equal(t, f.locationB, loc.ID)
		return nil
	})
	require.NoError(t, err)
}

func TestInsertLocation_SecondDefaultIsConflict(t *testing.T) {
	store := newTestStore(t)
	seed(t, store)

	err := store.WithTx(context.Background(), func(ctx context.Context, tx domain.Tx) error {
		_, err := tx.InsertLocation(ctx, domain.Location{Name: "Backroom", IsDefaultSourceForSales: true})
		return err
	})

	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.ErrorIs(t, err, domain.ErrPersistence)
}

func TestInsertUser_DuplicateEmailIsConflict(t *testing.T) {
	store := newTestStore(t)
	seed(t, store)

	err := store.WithTx(context.Background(), func(ctx context.Context, tx domain.Tx) error {
		_, err := tx.InsertUser(ctx, domain.User{Name: "Dup", Email: "OPS@example.com", PasswordHash: "x", Role: domain.RoleUser})
		return err
	})

	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestInsertAuditEntry_UnknownUserViolatesForeignKey(t *testing.T) {
	store := newTestStore(t)
	seed(t, store)

	err := store.WithTx(context.Background(), func(ctx context.Context, tx domain.Tx) error {
		_, err := tx.InsertAuditEntry(ctx, domain.AuditEntry{UserID: 9999, Action: domain.ActionCreateSale})
		return err
	})

	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestListAuditEntries_Filters(t *testing.T) {
	store := newTestStore(t)
	f := seed(t, store)

	err := store.WithTx(context.Background(), func(ctx context.Context, tx domain.Tx) error {
		for _, e := range []domain.AuditEntry{
			{UserID: f.userID, Action: domain.ActionCreateSale, Entity: domain.EntitySale, EntityID: domain.Int64Ptr(1)},
			{UserID: f.userID, Action: domain.ActionDeleteSale, Entity: domain.EntitySale, EntityID: domain.Int64Ptr(1)},
			{UserID: f.userID, Action: "LOGIN"},
		} {
			if _, err := tx.InsertAuditEntry(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	entries, err := store.ListAuditEntries(context.Background(), domain.AuditFilter{Entity: domain.EntitySale})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, domain.ActionDeleteSale, entries[0].Action, "newest first")

	entries, err = store.ListAuditEntries(context.Background(), domain.AuditFilter{Action: "LOGIN"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.EntityNone, entries[0].Entity)
	assert.Nil(t, entries[0].EntityID)
	assert.False(t, entries[0].CreatedAt.IsZero())
}
