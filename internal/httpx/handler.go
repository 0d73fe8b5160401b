package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-plant-market.git/internal/accounts"
	"github.com/ariefcatur/go-plant-market.git/internal/reconcile"
	"github.com/ariefcatur/go-plant-market.git/internal/redisx"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Handler struct {
	Svc  *reconcile.Service
	Idem *redisx.Idempotency // nil disables Idempotency-Key support
	Log  *zap.Logger
}

func (h *Handler) logger() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/users/{email}", h.upsertUser)
	r.Get("/plants", h.listPlants)
	r.Get("/plants/{id}", h.getPlant)

	r.Group(func(r chi.Router) {
		r.Use(RequireIdentity)
		r.Post("/plants", h.createPlant)
		r.Patch("/plants/quantity/{id}", h.adjustQuantity)
		r.Patch("/plants/{id}/quantity", h.adjustQuantity)
		r.Post("/orders", h.purchase)
		r.Get("/orders/{id}", h.getOrder)
		r.Delete("/orders/{id}", h.cancelOrder)
		r.Get("/customer-orders/{email}", h.customerOrders)
	})
}

type UpsertUserReq struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

func (h *Handler) upsertUser(w http.ResponseWriter, r *http.Request) {
	var req UpsertUserReq
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, h.logger(), err)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	a, created, err := h.Svc.UpsertAccount(ctx, accounts.Account{
		Email: chi.URLParam(r, "email"),
		Name:  req.Name,
		Image: req.Image,
	})
	if err != nil {
		writeError(w, h.logger(), err)
		return
	}
	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	writeJSON(w, code, a)
}
