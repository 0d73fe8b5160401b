package httpx

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/ariefcatur/go-plant-market.git/internal/catalog"
	"github.com/ariefcatur/go-plant-market.git/internal/inventory"
	"github.com/ariefcatur/go-plant-market.git/internal/market"
	"github.com/go-chi/chi/v5"
)

type AdjustQuantityReq struct {
	Delta     int    `json:"delta"`
	Direction string `json:"direction"`
}

type AdjustQuantityResp struct {
	PlantID  string `json:"plantId"`
	Quantity int    `json:"quantity"`
}

func (h *Handler) listPlants(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			writeError(w, h.logger(), market.Invalid("limit", "must be a positive integer"))
			return
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Svc.ListProducts(ctx, limit)
	if err != nil {
		writeError(w, h.logger(), err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *Handler) getPlant(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Svc.GetProduct(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger(), err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handler) createPlant(w http.ResponseWriter, r *http.Request) {
	var p catalog.Product
	if err := decodeJSON(r, &p); err != nil {
		writeError(w, h.logger(), err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, err := h.Svc.CreateProduct(ctx, identityFrom(r.Context()), p)
	if err != nil {
		writeError(w, h.logger(), err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) adjustQuantity(w http.ResponseWriter, r *http.Request) {
	var req AdjustQuantityReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger(), err)
		return
	}
	dir, err := inventory.ParseDirection(req.Direction)
	if err != nil {
		writeError(w, h.logger(), err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id := chi.URLParam(r, "id")
	qty, err := h.Svc.AdjustInventory(ctx, identityFrom(r.Context()), id, req.Delta, dir)
	if err != nil {
		writeError(w, h.logger(), err)
		return
	}
	writeJSON(w, http.StatusOK, AdjustQuantityResp{PlantID: id, Quantity: qty})
}
