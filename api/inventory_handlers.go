package api

import (
	"net/http"

	"github.com/warp/inventory-engine/catalog"
	"github.com/warp/inventory-engine/inventory"
)

// =============================================================================
// INVENTORY HANDLERS
// =============================================================================

func (h *Handler) ListInventory(w http.ResponseWriter, r *http.Request) {
	items, err := h.Ledger.List(r.Context(), pageFromQuery(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeList(w, items)
}

// TransferInventory moves stock between two locations and returns the
// destination row.
func (h *Handler) TransferInventory(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if !h.decode(w, r, &req) {
		return
	}

	dest, err := h.Ledger.Transfer(r.Context(), inventory.TransferRequest{
		ProductID:      req.ProductID,
		FromLocationID: req.FromLocationID,
		ToLocationID:   req.ToLocationID,
		Quantity:       req.Quantity,
		ActorID:        actorID(r.Context()),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dest)
}

// =============================================================================
// BATCH HANDLERS
// =============================================================================

func (h *Handler) ListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := h.Catalog.ListBatches(r.Context(), pageFromQuery(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeList(w, batches)
}

func (h *Handler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req catalog.BatchInput
	if !h.decode(w, r, &req) {
		return
	}

	batch, err := h.Catalog.CreateBatch(r.Context(), req, actorID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, batch)
}
