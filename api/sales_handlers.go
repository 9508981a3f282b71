package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/warp/inventory-engine/domain"
	"github.com/warp/inventory-engine/sales"
)

// =============================================================================
// SALE HANDLERS
// =============================================================================

func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	list, err := h.Sales.List(r.Context(), pageFromQuery(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeList(w, list)
}

func (h *Handler) GetSale(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	sale, err := h.Sales.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sale)
}

func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var req CreateSaleRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Price == nil {
		h.fail(w, r, domain.Invalid("price", "is required"))
		return
	}
	if req.GSTPercent == nil {
		h.fail(w, r, domain.Invalid("gst_percent", "is required"))
		return
	}

	actor := actorID(r.Context())
	userID := req.UserID
	if userID == nil {
		userID = actor
	} else if !canSellAs(r.Context(), *userID) {
		h.fail(w, r, errors.Join(domain.ErrForbidden, errors.New("only an admin can record a sale for another user")))
		return
	}
	in := sales.NewSale{
		ProductID:  req.ProductID,
		Quantity:   req.Quantity,
		Price:      *req.Price,
		Discount:   req.Discount,
		GSTPercent: *req.GSTPercent,
		Status:     domain.SaleStatus(req.Status),
	}
	if userID != nil {
		in.UserID = *userID
	}

	sale, err := h.Sales.Create(r.Context(), in, actor)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sale)
}

// canSellAs reports whether the caller may attribute a sale to userID.
func canSellAs(ctx context.Context, userID int64) bool {
	u := currentUser(ctx)
	if u == nil {
		return false
	}
	return u.ID == userID || u.Role.AtLeast(domain.RoleAdmin)
}

func (h *Handler) UpdateSaleStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req UpdateSaleStatusRequest
	if !h.decode(w, r, &req) {
		return
	}

	sale, err := h.Sales.UpdateStatus(r.Context(), id, domain.SaleStatus(req.Status), actorID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sale)
}

func (h *Handler) DeleteSale(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	sale, err := h.Sales.Remove(r.Context(), id, actorID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sale)
}

func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	inv, err := h.Sales.Invoice(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}
