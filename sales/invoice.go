package sales

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/warp/inventory-engine/domain"
)

// InvoiceItem is one line of an invoice.
type InvoiceItem struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	GSTPercent  decimal.Decimal `json:"gst"`
}

// Invoice is a single-sale invoice.
//
//	subtotal = price * quantity - discount
//	gst      = subtotal * gst% / 100
//	total    = subtotal + gst
//
// Amounts are rounded to two decimal places.
type Invoice struct {
	SaleID   int64             `json:"sale_id"`
	Status   domain.SaleStatus `json:"status"`
	Items    []InvoiceItem     `json:"items"`
	Discount decimal.Decimal   `json:"discount"`
	Subtotal decimal.Decimal   `json:"subtotal"`
	GST      decimal.Decimal   `json:"gst"`
	Total    decimal.Decimal   `json:"total"`
}

var hundred = decimal.NewFromInt(100)

// BuildInvoice computes the invoice for a sale. product may be nil.
func BuildInvoice(sale domain.Sale, product *domain.Product) Invoice {
	subtotal := sale.Price.Mul(sale.Quantity).Sub(sale.Discount)
	gst := subtotal.Mul(sale.GSTPercent).Div(hundred)

	item := InvoiceItem{
		ProductID:  sale.ProductID,
		Quantity:   sale.Quantity,
		Price:      sale.Price,
		GSTPercent: sale.GSTPercent,
	}
	if product != nil {
		item.ProductName = product.Name
	}

	return Invoice{
		SaleID:   sale.ID,
		Status:   sale.Status,
		Items:    []InvoiceItem{item},
		Discount: sale.Discount,
		Subtotal: subtotal.Round(2),
		GST:      gst.Round(2),
		Total:    subtotal.Add(gst).Round(2),
	}
}

// Invoice loads a sale and builds its invoice. No transaction is opened.
func (m *Manager) Invoice(ctx context.Context, saleID int64) (*Invoice, error) {
	sale, err := m.Get(ctx, saleID)
	if err != nil {
		return nil, err
	}
	product, err := m.store.GetProduct(ctx, sale.ProductID)
	if err != nil {
		return nil, err
	}
	inv := BuildInvoice(*sale, product)
	return &inv, nil
}
