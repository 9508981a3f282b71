package catalog_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/warp/inventory-engine/audit"
	"github.com/warp/inventory-engine/catalog"
	"github.com/warp/inventory-engine/domain"
	"github.com/warp/inventory-engine/inventory"
	"github.com/warp/inventory-engine/store/sqlstore"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestCatalog(t *testing.T) (*catalog.Service, *sqlstore.Store, int64) {
	logger := zaptest.NewLogger(t)
	store, err := sqlstore.Open(sqlstore.DriverSQLite, ":memory:", sqlstore.WithLogger(logger))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	var actor int64
	err = store.WithTx(context.Background(), func(ctx context.Context, tx domain.Tx) error {
		u, err := tx.InsertUser(ctx, domain.User{Name: "Admin", Email: "admin@example.com", PasswordHash: "x", Role: domain.RoleAdmin})
		if err != nil {
			return err
		}
		actor = u.ID
		return nil
	})
	require.NoError(t, err)

	recorder := audit.NewRecorder(store, logger, audit.PolicyPermissive)
	ledger := inventory.NewLedger(store, recorder, logger)
	return catalog.NewService(store, recorder, ledger, logger), store, actor
}

func actions(t *testing.T, store *sqlstore.Store, entity domain.EntityType) []string {
	t.Helper()
	entries, err := store.ListAuditEntries(context.Background(), domain.AuditFilter{Entity: entity})
	require.NoError(t, err)
	var out []string
	for _, e := range entries {
		out = append(out, e.Action)
	}
	return out
}

// =============================================================================
// PRODUCT TESTS
// =============================================================================

func TestProductLifecycle(t *testing.T) {
	svc, store, actor := newTestCatalog(t)
	ctx := context.Background()

	cat, err := svc.CreateCategory(ctx, catalog.CategoryInput{Name: "Bakery", GSTPercent: decimal.NewFromInt(5)}, &actor)
	require.NoError(t, err)

	p, err := svc.CreateProduct(ctx, catalog.ProductInput{
		Name:        "Croissant",
		RetailPrice: decimal.RequireFromString("2.50"),
		CategoryID:  &cat.ID,
	}, &actor)
	require.NoError(t, err)
	assert.Equal(t, cat.ID, *p.CategoryID)
	assert.True(t, p.RetailPrice.Equal(decimal.RequireFromString("2.5")))

	updated, err := svc.UpdateProduct(ctx, p.ID, catalog.ProductInput{Name: "Butter Croissant", RetailPrice: decimal.NewFromInt(3)}, &actor)
	require.NoError(t, err)
	assert.Equal(t, "Butter Croissant", updated.Name)
	assert.Nil(t, updated.CategoryID)

	got, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Butter Croissant", got.Name)

	require.NoError(t, svc.DeleteProduct(ctx, p.ID, &actor))
	_, err = svc.GetProduct(ctx, p.ID)
	assert.True(t, domain.IsNotFound(err))

	assert.Equal(t, []string{domain.ActionDeleteProduct, domain.ActionUpdateProduct, domain.ActionCreateProduct},
		actions(t, store, domain.EntityProduct))
}

func TestUpdateProduct_MissingIsNotFound(t *testing.T) {
	svc, _, actor := newTestCatalog(t)

	_, err := svc.UpdateProduct(context.Background(), 404, catalog.ProductInput{Name: "Ghost"}, &actor)

	assert.True(t, domain.IsNotFound(err))
}

func TestCreateProduct_Validation(t *testing.T) {
	svc, _, actor := newTestCatalog(t)

	_, err := svc.CreateProduct(context.Background(), catalog.ProductInput{RetailPrice: decimal.NewFromInt(1)}, &actor)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)

	_, err = svc.CreateProduct(context.Background(), catalog.ProductInput{Name: "X", WholesalePrice: decimal.NewFromInt(-1)}, &actor)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "price_wholesale", verr.Field)
}

func TestDeleteProduct_ReferencedByInventoryFails(t *testing.T) {
	svc, store, actor := newTestCatalog(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, catalog.ProductInput{Name: "Loaf"}, &actor)
	require.NoError(t, err)
	loc, err := svc.CreateLocation(ctx, catalog.LocationInput{Name: "Oven"}, &actor)
	require.NoError(t, err)
	_, err = svc.CreateBatch(ctx, catalog.BatchInput{ProductID: p.ID, LocationID: &loc.ID, Quantity: decimal.NewFromInt(3), Completed: true}, &actor)
	require.NoError(t, err)

	err = svc.DeleteProduct(ctx, p.ID, &actor)

	assert.ErrorIs(t, err, domain.ErrPersistence)
	still, err := store.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.NotNil(t, still)
}

// =============================================================================
// LOCATION TESTS
// =============================================================================

func TestLocations_DefaultFlagMoves(t *testing.T) {
	// GIVEN: Two locations, the first flagged as default
	// WHEN: A third is created as default, then the second is set as default
	// THEN: Exactly one location is flagged each time

	svc, _, actor := newTestCatalog(t)
	ctx := context.Background()

	first, err := svc.CreateLocation(ctx, catalog.LocationInput{Name: "Main", IsDefaultSourceForSales: true}, &actor)
	require.NoError(t, err)
	second, err := svc.CreateLocation(ctx, catalog.LocationInput{Name: "Annex"}, &actor)
	require.NoError(t, err)
	third, err := svc.CreateLocation(ctx, catalog.LocationInput{Name: "Outlet", IsDefaultSourceForSales: true}, &actor)
	require.NoError(t, err)
	assert.True(t, third.IsDefaultSourceForSales)

	defaults := func() []int64 {
		locs, err := svc.ListLocations(ctx, domain.Page{})
		require.NoError(t, err)
		var ids []int64
		for _, l := range locs {
			if l.IsDefaultSourceForSales {
				ids = append(ids, l.ID)
			}
		}
		return ids
	}
	assert.Equal(t, []int64{third.ID}, defaults())

	loc, err := svc.SetDefaultLocation(ctx, second.ID, &actor)
	require.NoError(t, err)
	assert.True(t, loc.IsDefaultSourceForSales)
	assert.Equal(t, []int64{second.ID}, defaults())
	assert.NotEqual(t, first.ID, second.ID)

	_, err = svc.SetDefaultLocation(ctx, 999, &actor)
	assert.True(t, domain.IsNotFound(err))
	assert.Equal(t, []int64{second.ID}, defaults(), "failed change rolls back the clear")
}

func TestCreateLocation_DuplicateNameIsConflict(t *testing.T) {
	svc, _, actor := newTestCatalog(t)

	_, err := svc.CreateLocation(context.Background(), catalog.LocationInput{Name: "Depot"}, &actor)
	require.NoError(t, err)
	_, err = svc.CreateLocation(context.Background(), catalog.LocationInput{Name: "Depot"}, &actor)

	assert.ErrorIs(t, err, domain.ErrConflict)
}

// =============================================================================
// BATCH TESTS
// =============================================================================

func TestCreateBatch_CompletedCreditsDefaultSource(t *testing.T) {
	svc, store, actor := newTestCatalog(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, catalog.ProductInput{Name: "Bun"}, &actor)
	require.NoError(t, err)
	loc, err := svc.CreateLocation(ctx, catalog.LocationInput{Name: "Store", IsDefaultSourceForSales: true}, &actor)
	require.NoError(t, err)

	_, err = svc.CreateBatch(ctx, catalog.BatchInput{ProductID: p.ID, Quantity: decimal.NewFromInt(12), Completed: true}, &actor)
	require.NoError(t, err)
	_, err = svc.CreateBatch(ctx, catalog.BatchInput{ProductID: p.ID, Quantity: decimal.NewFromInt(5)}, &actor)
	require.NoError(t, err)

	item, err := store.GetInventoryItem(ctx, p.ID, loc.ID)
	require.NoError(t, err)
	require.NotNil(t, item)
	assert.True(t, item.Quantity.Equal(decimal.NewFromInt(12)), "only the completed batch credits stock")

	batches, err := svc.ListBatches(ctx, domain.Page{})
	require.NoError(t, err)
	assert.Len(t, batches, 2)
	assert.Equal(t, []string{domain.ActionReceiveInventory}, actions(t, store, domain.EntityInventory))
}

func TestCreateBatch_NoDefaultSourceRollsBack(t *testing.T) {
	svc, _, actor := newTestCatalog(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, catalog.ProductInput{Name: "Bun"}, &actor)
	require.NoError(t, err)

	_, err = svc.CreateBatch(ctx, catalog.BatchInput{ProductID: p.ID, Quantity: decimal.NewFromInt(1), Completed: true}, &actor)

	assert.True(t, domain.IsNotFound(err))
	batches, err := svc.ListBatches(ctx, domain.Page{})
	require.NoError(t, err)
	assert.Empty(t, batches)
}
