package api

import (
	"net/http"

	"github.com/warp/inventory-engine/catalog"
)

// =============================================================================
// CATEGORY HANDLERS
// =============================================================================

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.Catalog.ListCategories(r.Context(), pageFromQuery(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeList(w, categories)
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req catalog.CategoryInput
	if !h.decode(w, r, &req) {
		return
	}
	c, err := h.Catalog.CreateCategory(r.Context(), req, actorID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// =============================================================================
// PRODUCT HANDLERS
// =============================================================================

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Catalog.ListProducts(r.Context(), pageFromQuery(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeList(w, products)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	p, err := h.Catalog.GetProduct(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req catalog.ProductInput
	if !h.decode(w, r, &req) {
		return
	}
	p, err := h.Catalog.CreateProduct(r.Context(), req, actorID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req catalog.ProductInput
	if !h.decode(w, r, &req) {
		return
	}
	p, err := h.Catalog.UpdateProduct(r.Context(), id, req, actorID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.Catalog.DeleteProduct(r.Context(), id, actorID(r.Context())); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// LOCATION HANDLERS
// =============================================================================

func (h *Handler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.Catalog.ListLocations(r.Context(), pageFromQuery(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeList(w, locations)
}

func (h *Handler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var req catalog.LocationInput
	if !h.decode(w, r, &req) {
		return
	}
	loc, err := h.Catalog.CreateLocation(r.Context(), req, actorID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, loc)
}

func (h *Handler) SetDefaultLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	loc, err := h.Catalog.SetDefaultLocation(r.Context(), id, actorID(r.Context()))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}
