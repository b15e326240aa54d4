package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/scandicwellnesseu-sys/ultragenerationpro/internal/domain"
)

// PricePreview suggests a price for posted product facts without storing anything.
func (a *App) PricePreview(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := a.tenant(w, r)
	if !ok {
		return
	}
	var p domain.Product
	if !a.decode(w, r, &p) {
		return
	}
	sug, err := a.Pricing.Preview(r.Context(), tenantID, p)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, sug)
}

// SuggestPrice stores a fresh suggestion for a catalogue product.
func (a *App) SuggestPrice(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := a.tenant(w, r)
	if !ok {
		return
	}
	sug, err := a.Pricing.SuggestPrice(r.Context(), tenantID, chi.URLParam(r, "productID"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, sug)
}

type bulkSuggestRequest struct {
	ProductIDs []string `json:"product_ids"`
}

// SuggestPrices stores suggestions for several catalogue products. Each
// product succeeds or fails on its own.
func (a *App) SuggestPrices(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := a.tenant(w, r)
	if !ok {
		return
	}
	var req bulkSuggestRequest
	if !a.decode(w, r, &req) {
		return
	}
	if len(req.ProductIDs) == 0 {
		a.fail(w, r, domain.InvalidInput("product_ids is required"))
		return
	}
	limit := a.MaxBatchSize
	if limit <= 0 {
		limit = DefaultMaxBatchSize
	}
	if len(req.ProductIDs) > limit {
		a.fail(w, r, domain.InvalidInput("request holds %d products, the limit is %d", len(req.ProductIDs), limit))
		return
	}
	out := a.Pricing.SuggestPrices(r.Context(), tenantID, req.ProductIDs)
	a.json(w, http.StatusOK, map[string]any{"results": out})
}

// ApprovePrice applies the product's latest unapplied suggestion.
func (a *App) ApprovePrice(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := a.tenant(w, r)
	if !ok {
		return
	}
	sug, err := a.Pricing.Approve(r.Context(), tenantID, chi.URLParam(r, "productID"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, sug)
}
