package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/warp/inventory-engine/domain"
)

// =============================================================================
// INVENTORY
// =============================================================================

const inventoryColumns = `id, product_id, location_id, quantity, updated_at`

func scanInventoryItem(row interface{ Scan(...any) error }) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	err := row.Scan(&item.ID, &item.ProductID, &item.LocationID, &item.Quantity, timestamp{&item.UpdatedAt})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// DecrementInventory subtracts qty and returns what is left. The row stays
// locked until the transaction ends, so the caller can inspect remaining
// and roll back if it went negative. On Postgres this is a single
// UPDATE ... RETURNING on NUMERIC.
func (qs queries) DecrementInventory(ctx context.Context, productID, locationID int64, qty decimal.Decimal) (decimal.Decimal, bool, error) {
	if qs.d == dialectSQLite {
		return qs.decrementText(ctx, productID, locationID, qty)
	}

	var remaining decimal.Decimal
	err := qs.queryRow(ctx, `
		UPDATE inventory SET quantity = quantity - ?, updated_at = ?
		WHERE product_id = ? AND location_id = ?
		RETURNING quantity
	`, qty, now(), productID, locationID).Scan(&remaining)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, translate("decrement inventory", err)
	}
	return remaining, true, nil
}

func (qs queries) UpsertInventory(ctx context.Context, productID, locationID int64, qty decimal.Decimal) (*domain.InventoryItem, error) {
	if qs.d == dialectSQLite {
		return qs.upsertText(ctx, productID, locationID, qty)
	}

	ts := now()
	item, err := scanInventoryItem(qs.queryRow(ctx, `
		INSERT INTO inventory (product_id, location_id, quantity, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (product_id, location_id)
		DO UPDATE SET quantity = inventory.quantity + excluded.quantity, updated_at = excluded.updated_at
		RETURNING `+inventoryColumns,
		productID, locationID, qty, ts))
	if err != nil {
		return nil, translate("upsert inventory", err)
	}
	return item, nil
}

// SQLite stores quantities as TEXT, so the arithmetic runs on
// decimal.Decimal. The transaction holds the database write lock from
// BEGIN (_txlock=immediate), which makes the read and the write one step.

func (qs queries) decrementText(ctx context.Context, productID, locationID int64, qty decimal.Decimal) (decimal.Decimal, bool, error) {
	item, err := qs.GetInventoryItem(ctx, productID, locationID)
	if err != nil || item == nil {
		return decimal.Zero, false, err
	}
	remaining := item.Quantity.Sub(qty)
	if _, err := qs.exec(ctx, `UPDATE inventory SET quantity = ?, updated_at = ? WHERE id = ?`,
		remaining, now(), item.ID); err != nil {
		return decimal.Zero, false, translate("decrement inventory", err)
	}
	return remaining, true, nil
}

func (qs queries) upsertText(ctx context.Context, productID, locationID int64, qty decimal.Decimal) (*domain.InventoryItem, error) {
	current, err := qs.GetInventoryItem(ctx, productID, locationID)
	if err != nil {
		return nil, err
	}

	var item *domain.InventoryItem
	if current == nil {
		item, err = scanInventoryItem(qs.queryRow(ctx, `
			INSERT INTO inventory (product_id, location_id, quantity, updated_at)
			VALUES (?, ?, ?, ?)
			RETURNING `+inventoryColumns,
			productID, locationID, qty, now()))
	} else {
		item, err = scanInventoryItem(qs.queryRow(ctx, `
			UPDATE inventory SET quantity = ?, updated_at = ?
			WHERE id = ?
			RETURNING `+inventoryColumns,
			current.Quantity.Add(qty), now(), current.ID))
	}
	if err != nil {
		return nil, translate("upsert inventory", err)
	}
	return item, nil
}

func (qs queries) GetInventoryItem(ctx context.Context, productID, locationID int64) (*domain.InventoryItem, error) {
	item, err := scanInventoryItem(qs.queryRow(ctx,
		`SELECT `+inventoryColumns+` FROM inventory WHERE product_id = ? AND location_id = ?`,
		productID, locationID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translate("get inventory", err)
	}
	return item, nil
}

func (qs queries) ListInventory(ctx context.Context, page domain.Page) ([]domain.InventoryItem, error) {
	page = page.Normalize()
	rows, err := qs.query(ctx,
		`SELECT `+inventoryColumns+` FROM inventory ORDER BY id LIMIT ? OFFSET ?`,
		page.Limit, page.Offset)
	if err != nil {
		return nil, translate("list inventory", err)
	}
	defer rows.Close()

	var items []domain.InventoryItem
	for rows.Next() {
		item, err := scanInventoryItem(rows)
		if err != nil {
			return nil, translate("list inventory", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("list inventory", err)
	}
	return items, nil
}
