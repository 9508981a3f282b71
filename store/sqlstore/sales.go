package sqlstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/warp/inventory-engine/domain"
)

// =============================================================================
// SALES
// =============================================================================

const saleColumns = `id, product_id, user_id, quantity, price, discount, gst_percent, status, created_at`

func scanSale(row interface{ Scan(...any) error }) (*domain.Sale, error) {
	var s domain.Sale
	var status string
	err := row.Scan(&s.ID, &s.ProductID, &s.UserID, &s.Quantity, &s.Price, &s.Discount,
		&s.GSTPercent, &status, timestamp{&s.CreatedAt})
	if err != nil {
		return nil, err
	}
	s.Status = domain.SaleStatus(status)
	return &s, nil
}

func (qs queries) InsertSale(ctx context.Context, s domain.Sale) (*domain.Sale, error) {
	created, err := scanSale(qs.queryRow(ctx, `
		INSERT INTO sales (product_id, user_id, quantity, price, discount, gst_percent, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+saleColumns,
		s.ProductID, s.UserID, s.Quantity, s.Price, s.Discount, s.GSTPercent, string(s.Status), now()))
	if err != nil {
		return nil, translate("insert sale", err)
	}
	return created, nil
}

func (qs queries) GetSale(ctx context.Context, id int64) (*domain.Sale, error) {
	s, err := scanSale(qs.queryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translate("get sale", err)
	}
	return s, nil
}

// LockSale is GetSale with SELECT ... FOR UPDATE on Postgres. A concurrent
// writer blocks here and then sees the committed status, or no row at all
// if the sale was deleted.
func (qs queries) LockSale(ctx context.Context, id int64) (*domain.Sale, error) {
	s, err := scanSale(qs.queryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = ?`+qs.d.forUpdate(), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, translate("lock sale", err)
	}
	return s, nil
}

func (qs queries) ListSales(ctx context.Context, page domain.Page) ([]domain.Sale, error) {
	page = page.Normalize()
	rows, err := qs.query(ctx,
		`SELECT `+saleColumns+` FROM sales ORDER BY id LIMIT ? OFFSET ?`,
		page.Limit, page.Offset)
	if err != nil {
		return nil, translate("list sales", err)
	}
	defer rows.Close()

	var sales []domain.Sale
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, translate("list sales", err)
		}
		sales = append(sales, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, translate("list sales", err)
	}
	return sales, nil
}

func (qs queries) UpdateSaleStatus(ctx context.Context, id int64, status domain.SaleStatus) error {
	_, err := qs.exec(ctx, `UPDATE sales SET status = ? WHERE id = ?`, string(status), id)
	return translate("update sale status", err)
}

func (qs queries) DeleteSale(ctx context.Context, id int64) (bool, error) {
	res, err := qs.exec(ctx, `DELETE FROM sales WHERE id = ?`, id)
	if err != nil {
		return false, translate("delete sale", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, translate("delete sale", err)
	}
	return n > 0, nil
}
