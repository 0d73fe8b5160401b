package fulfillment

import (
	"context"
	"errors"
	"fmt"

	kafkax "github.com/ariefcatur/go-plant-market.git/internal/kafka"
	"github.com/ariefcatur/go-plant-market.git/internal/market"
	"github.com/ariefcatur/go-plant-market.git/internal/orders"
	"github.com/ariefcatur/go-plant-market.git/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const dedupScope = "fulfillment"

type StatusStore interface {
	UpdateStatus(ctx context.Context, id string, to orders.Status) error
}

// Handler applies status changes published by the fulfillment workflow.
type Handler struct {
	Orders StatusStore
	Redis  redis.Cmdable
	Log    *zap.Logger
}

var tracer = otel.Tracer("github.com/ariefcatur/go-plant-market.git/internal/fulfillment")

func (h *Handler) logger() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}

// HandleStatusChanged is the consumer handler for status changes. It returns
// an error only when the message should be retried; the consumer then retries
// it in place before committing anything later on that partition.
func (h *Handler) HandleStatusChanged(ctx context.Context, m kafkago.Message) error {
	env, err := kafkax.DecodeEnvelope(m.Value)
	if err != nil {
		h.logger().Warn("dropping undecodable message", zap.Int64("offset", m.Offset), zap.Error(err))
		return nil
	}
	if env.EventType != orders.EventStatusChanged {
		return nil
	}

	ctx, span := tracer.Start(ctx, "fulfillment.HandleStatusChanged")
	defer span.End()

	// dedup via Redis (pakai event_id); the status guard in the store makes a
	// replay harmless, this only saves the round trip
	dkey := fmt.Sprintf(redisx.KeyDedup, dedupScope, env.EventID)
	seen, err := redisx.Exists(ctx, h.Redis, dkey)
	if err != nil {
		h.logger().Warn("dedup lookup failed", zap.String("event_id", env.EventID), zap.Error(err))
	}
	if seen {
		return nil
	}

	p, err := kafkax.UnwrapPayload[orders.StatusChangedPayload](env.Payload)
	if err != nil {
		h.logger().Warn("dropping bad payload", zap.String("event_id", env.EventID), zap.Error(err))
		return nil
	}
	to, ok := orders.ParseStatus(p.Status)
	if !ok || p.OrderID == "" {
		h.logger().Warn("dropping unknown status change",
			zap.String("order_id", p.OrderID), zap.String("status", p.Status))
		return nil
	}
	span.SetAttributes(attribute.String("order.id", p.OrderID), attribute.String("order.status", string(to)))

	err = h.Orders.UpdateStatus(ctx, p.OrderID, to)
	switch {
	case err == nil:
		h.logger().Info("order status updated", zap.String("order_id", p.OrderID), zap.String("status", string(to)))
	case errors.Is(err, market.ErrNotFound):
		// cancelled before fulfillment caught up
		h.logger().Info("status change for a removed order", zap.String("order_id", p.OrderID))
	case errors.Is(err, market.ErrConflict), errors.Is(err, market.ErrValidation):
		h.logger().Warn("status change rejected", zap.String("order_id", p.OrderID), zap.Error(err))
	default:
		span.RecordError(err)
		return err
	}

	if _, err := redisx.MarkOnce(ctx, h.Redis, dkey, redisx.TTLDedup); err != nil {
		h.logger().Warn("dedup mark failed", zap.String("event_id", env.EventID), zap.Error(err))
	}
	return nil
}
