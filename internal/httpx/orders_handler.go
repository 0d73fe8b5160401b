package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ariefcatur/go-plant-market.git/internal/market"
	"github.com/ariefcatur/go-plant-market.git/internal/orders"
	"github.com/ariefcatur/go-plant-market.git/internal/redisx"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const HeaderIdempotencyKey = "Idempotency-Key"

type PurchaseReq struct {
	PlantID  string `json:"plantId"`
	Quantity int    `json:"quantity"`
	Address  string `json:"address"`
}

type PurchaseResp struct {
	OrderID    string          `json:"orderId"`
	Price      decimal.Decimal `json:"price"`
	Status     orders.Status   `json:"status"`
	Idempotent bool            `json:"idempotent"`
}

type CustomerOrdersResp struct {
	Orders   []orders.EnrichedOrder        `json:"orders"`
	Warnings []market.InconsistencyWarning `json:"warnings,omitempty"`
}

func (h *Handler) purchase(w http.ResponseWriter, r *http.Request) {
	var req PurchaseReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger(), err)
		return
	}
	caller := identityFrom(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Fast-path idempotency via Redis (optional, DB tetap jadi kebenaran)
	key := strings.TrimSpace(r.Header.Get(HeaderIdempotencyKey))
	claimed := false
	if key != "" && h.Idem != nil {
		prevID, acquired, err := h.Idem.Begin(ctx, caller.Email, key)
		switch {
		case errors.Is(err, redisx.ErrInFlight):
			writeError(w, h.logger(), err)
			return
		case err != nil:
			h.logger().Warn("idempotency unavailable, purchasing without it", zap.Error(err))
		case !acquired:
			o, err := h.Svc.GetOrder(ctx, caller, prevID)
			if err != nil {
				writeError(w, h.logger(), err)
				return
			}
			writeJSON(w, http.StatusOK, PurchaseResp{OrderID: o.ID, Price: o.Price, Status: o.Status, Idempotent: true})
			return
		default:
			claimed = true
		}
	}

	o, err := h.Svc.Purchase(ctx, caller, req.PlantID, req.Quantity, req.Address)
	if err != nil {
		if claimed {
			if aerr := h.Idem.Abort(context.WithoutCancel(ctx), caller.Email, key); aerr != nil {
				h.logger().Warn("idempotency abort failed", zap.Error(aerr))
			}
		}
		writeError(w, h.logger(), err)
		return
	}
	if claimed {
		if cerr := h.Idem.Complete(ctx, caller.Email, key, o.ID); cerr != nil {
			h.logger().Warn("idempotency complete failed", zap.String("order_id", o.ID), zap.Error(cerr))
		}
	}
	writeJSON(w, http.StatusCreated, PurchaseResp{OrderID: o.ID, Price: o.Price, Status: o.Status})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Svc.GetOrder(ctx, identityFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger(), err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Svc.Cancel(ctx, chi.URLParam(r, "id"), identityFrom(r.Context())); err != nil {
		writeError(w, h.logger(), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) customerOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, warnings, err := h.Svc.EnrichedOrdersForCustomer(ctx, identityFrom(r.Context()), chi.URLParam(r, "email"))
	if err != nil {
		writeError(w, h.logger(), err)
		return
	}
	writeJSON(w, http.StatusOK, CustomerOrdersResp{Orders: list, Warnings: warnings})
}
