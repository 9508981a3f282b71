package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/warp/inventory-engine/domain"
)

// =============================================================================
// PRODUCTS
// =============================================================================

const productColumns = `id, name, price_retail, price_wholesale, category_id, created_at`

func scanProduct(row interface{ Scan(...any) error }) (*domain.Product, error) {
	var p domain.Product
	var categoryID sql.NullInt64
	if err := row.Scan(&p.ID, &p.Name, &p.RetailPrice, &p.WholesalePrice, &categoryID, timestamp{&p.CreatedAt}); err != nil {
		return nil, err
	}
	p.CategoryID = int64Ptr(categoryID)
	return &p, nil
}

func (qs queries) InsertProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	created, err := scanProduct(qs.queryRow(ctx, `
		INSERT INTO products (name, price_retail, price_wholesale, category_id, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING `+productColumns,
		p.Name, p.RetailPrice, p.WholesalePrice, nullInt64(p.CategoryID), now()))
	if err != nil {
		return nil, translate("insert product", err)
	}
	return created, nil
}

func (qs queries) UpdateProduct(ctx context.Context, p domain.Product) (*domain.Product, error) {
	updated, err := scanProduct(qs.queryRow(ctx, `
		UPDATE products SET name = ?, price_retail = ?, price_wholesale = ?, category_id = ?
		WHERE id = ?
		RETURNING `+productColumns,
		p.Name, p.RetailPrice, p.WholesalePrice, nullInt64(p.CategoryID), p.ID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translate("update product", err)
	}
	return updated, nil
}

func (qs queries) DeleteProduct(ctx context.Context, id int64) (bool, error) {
	res, err := qs.exec(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return false, translate("delete product", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, translate("delete product", err)
	}
	return n > 0, nil
}

func (qs queries) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	p, err := scanProduct(qs.queryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translate("get product", err)
	}
	return p, nil
}

func (qs queries) ListProducts(ctx context.Context, page domain.Page) ([]domain.Product, error) {
	page = page.Normalize()
	rows, err := qs.query(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY id LIMIT ? OFFSET ?`,
		page.Limit, page.Offset)
	if err != nil {
		return nil, translate("list products", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, translate("list products", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("list products", err)
	}
	return products, nil
}

// =============================================================================
// CATEGORIES
// =============================================================================

func (qs queries) InsertCategory(ctx context.Context, c domain.Category) (*domain.Category, error) {
	var created domain.Category
	err := qs.queryRow(ctx, `
		INSERT INTO categories (name, gst_percent, created_at) VALUES (?, ?, ?)
		RETURNING id, name, gst_percent, created_at
	`, c.Name, c.GSTPercent, now()).Scan(&created.ID, &created.Name, &created.GSTPercent, timestamp{&created.CreatedAt})
	if err != nil {
		return nil, translate("insert category", err)
	}
	return &created, nil
}

func (qs queries) ListCategories(ctx context.Context, page domain.Page) ([]domain.Category, error) {
	page = page.Normalize()
	rows, err := qs.query(ctx,
		`SELECT id, name, gst_percent, created_at FROM categories ORDER BY id LIMIT ? OFFSET ?`,
		page.Limit, page.Offset)
	if err != nil {
		return nil, translate("list categories", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.GSTPercent, timestamp{&c.CreatedAt}); err != nil {
			return nil, translate("list categories", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("list categories", err)
	}
	return categories, nil
}

// =============================================================================
// LOCATIONS
// =============================================================================

const locationColumns = `id, name, is_default_source_for_sales, created_at`

func scanLocation(row interface{ Scan(...any) error }) (*domain.Location, error) {
	var l domain.Location
	if err := row.Scan(&l.ID, &l.Name, &l.IsDefaultSourceForSales, timestamp{&l.CreatedAt}); err != nil {
		return nil, err
	}
	return &l, nil
}

func (qs queries) InsertLocation(ctx context.Context, l domain.Location) (*domain.Location, error) {
	created, err := scanLocation(qs.queryRow(ctx, `
		INSERT INTO locations (name, is_default_source_for_sales, created_at) VALUES (?, ?, ?)
		RETURNING `+locationColumns,
		l.Name, l.IsDefaultSourceForSales, now()))
	if err != nil {
		return nil, translate("insert location", err)
	}
	return created, nil
}

func (qs queries) GetLocation(ctx context.Context, id int64) (*domain.Location, error) {
	l, err := scanLocation(qs.queryRow(ctx, `SELECT `+locationColumns+` FROM locations WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translate("get location", err)
	}
	return l, nil
}

func (qs queries) ListLocations(ctx context.Context, page domain.Page) ([]domain.Location, error) {
	page = page.Normalize()
	rows, err := qs.query(ctx,
		`SELECT `+locationColumns+` FROM locations ORDER BY id LIMIT ? OFFSET ?`,
		page.Limit, page.Offset)
	if err != nil {
		return nil, translate("list locations", err)
	}
	defer rows.Close()

	var locations []domain.Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, translate("list locations", err)
		}
		locations = append(locations, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("list locations", err)
	}
	return locations, nil
}

func (qs queries) DefaultSourceLocation(ctx context.Context) (*domain.Location, error) {
	l, err := scanLocation(qs.queryRow(ctx,
		`SELECT `+locationColumns+` FROM locations WHERE is_default_source_for_sales = TRUE LIMIT 1`))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translate("default source location", err)
	}
	return l, nil
}

func (qs queries) SetDefaultSourceLocation(ctx context.Context, id int64) (bool, error) {
	if _, err := qs.exec(ctx,
		`UPDATE locations SET is_default_source_for_sales = FALSE WHERE is_default_source_for_sales = TRUE AND id <> ?`, id); err != nil {
		return false, translate("clear default location", err)
	}
	res, err := qs.exec(ctx, `UPDATE locations SET is_default_source_for_sales = TRUE WHERE id = ?`, id)
	if err != nil {
		return false, translate("set default location", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, translate("set default location", err)
	}
	return n > 0, nil
}

// =============================================================================
// BATCHES
// =============================================================================

const batchColumns = `id, product_id, location_id, quantity, completed, created_at`

func scanBatch(row interface{ Scan(...any) error }) (*domain.Batch, error) {
	var b domain.Batch
	var locationID sql.NullInt64
	if err := row.Scan(&b.ID, &b.ProductID, &locationID, &b.Quantity, &b.Completed, timestamp{&b.CreatedAt}); err != nil {
		return nil, err
	}
	b.LocationID = int64Ptr(locationID)
	return &b, nil
}

func (qs queries) InsertBatch(ctx context.Context, b domain.Batch) (*domain.Batch, error) {
	created, err := scanBatch(qs.queryRow(ctx, `
		INSERT INTO batches (product_id, location_id, quantity, completed, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING `+batchColumns,
		b.ProductID, nullInt64(b.LocationID), b.Quantity, b.Completed, now()))
	if err != nil {
		return nil, translate("insert batch", err)
	}
	return created, nil
}

func (qs queries) ListBatches(ctx context.Context, page domain.Page) ([]domain.Batch, error) {
	page = page.Normalize()
	rows, err := qs.query(ctx,
		`SELECT `+batchColumns+` FROM batches ORDER BY id LIMIT ? OFFSET ?`,
		page.Limit, page.Offset)
	if err != nil {
		return nil, translate("list batches", err)
	}
	defer rows.Close()

	var batches []domain.Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, translate("list batches", err)
		}
		batches = append(batches, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("list batches", err)
	}
	return batches, nil
}
