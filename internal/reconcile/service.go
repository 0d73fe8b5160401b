package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ariefcatur/go-plant-market.git/internal/accounts"
	"github.com/ariefcatur/go-plant-market.git/internal/catalog"
	"github.com/ariefcatur/go-plant-market.git/internal/inventory"
	"github.com/ariefcatur/go-plant-market.git/internal/market"
	"github.com/ariefcatur/go-plant-market.git/internal/orders"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ProductStore interface {
	Create(ctx context.Context, p catalog.Product) (string, error)
	Get(ctx context.Context, id string) (catalog.Product, error)
	List(ctx context.Context, limit int) ([]catalog.Product, error)
}

type Ledger interface {
	AdjustQuantity(ctx context.Context, productID string, delta int, dir inventory.Direction) (int, error)
}

type OrderStore interface {
	Create(ctx context.Context, o orders.Order) (string, error)
	Get(ctx context.Context, id string) (orders.Order, error)
	DeleteCancellable(ctx context.Context, id string) (orders.Order, error)
	Restore(ctx context.Context, o orders.Order) error
	ListEnrichedByCustomer(ctx context.Context, email string) ([]orders.EnrichedOrder, error)
}

type AccountStore interface {
	Upsert(ctx context.Context, a accounts.Account) (accounts.Account, bool, error)
}

type Invalidator interface {
	Invalidate(ctx context.Context, productID string) error
}

type Emitter interface {
	Emit(ctx context.Context, topic, eventType, key string, payload any) error
}

// Service keeps orders and plant stock consistent without a transaction
// spanning both tables. Stock is debited first and credited back when a later
// step fails, so a failure can leave stock briefly under-counted but never
// over-sold.
type Service struct {
	Products ProductStore
	Reader   catalog.Getter // optional cache in front of Products
	Ledger   Ledger
	Orders   OrderStore
	Accounts AccountStore
	Cache    Invalidator // optional
	Events   Emitter     // optional
	Log      *zap.Logger
}

var tracer = otel.Tracer("github.com/ariefcatur/go-plant-market.git/internal/reconcile")

func (s *Service) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Service) reader() catalog.Getter {
	if s.Reader != nil {
		return s.Reader
	}
	return s.Products
}

func (s *Service) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, market.Kind(err))
	}
	span.End()
}

// afterWrite runs the best-effort side effects of a committed mutation.
// Neither a stale cache entry nor a lost event undoes the write.
func (s *Service) afterWrite(ctx context.Context, productID, topic, eventType, key string, payload any) {
	if s.Cache != nil {
		if err := s.Cache.Invalidate(ctx, productID); err != nil {
			s.logger().Warn("cache invalidate failed", zap.String("plant_id", productID), zap.Error(err))
		}
	}
	if s.Events != nil {
		if err := s.Events.Emit(ctx, topic, eventType, key, payload); err != nil {
			s.logger().Error("emit event failed", zap.String("event", eventType), zap.String("key", key), zap.Error(err))
		}
	}
}

// Purchase debits stock and records a pending order for customer.
func (s *Service) Purchase(ctx context.Context, customer market.Identity, plantID string, quantity int, address string) (_ orders.Order, err error) {
	ctx, span := s.start(ctx, "reconcile.Purchase",
		attribute.String("plant.id", plantID), attribute.Int("order.quantity", quantity))
	defer func() { finish(span, err) }()

	switch {
	case quantity < 1:
		return orders.Order{}, market.Invalid("quantity", "must be >= 1")
	case strings.TrimSpace(customer.Email) == "":
		return orders.Order{}, market.Invalid("customer.email", "is required")
	case strings.TrimSpace(address) == "":
		return orders.Order{}, market.Invalid("address", "is required")
	case strings.TrimSpace(plantID) == "":
		return orders.Order{}, market.Invalid("plantId", "is required")
	}

	p, err := s.reader().Get(ctx, plantID)
	if err != nil {
		return orders.Order{}, err
	}
	o := orders.Order{
		Customer:    customer,
		PlantID:     plantID,
		SellerEmail: p.Seller.Email,
		Quantity:    quantity,
		Price:       p.Price.Mul(decimal.NewFromInt(int64(quantity))),
		Address:     strings.TrimSpace(address),
	}

	remaining, err := s.Ledger.AdjustQuantity(ctx, plantID, quantity, inventory.Decrease)
	if err != nil {
		return orders.Order{}, err
	}

	id, err := s.Orders.Create(ctx, o)
	if err != nil {
		// compensation must run even if the caller went away
		cctx := context.WithoutCancel(ctx)
		if _, cerr := s.Ledger.AdjustQuantity(cctx, plantID, quantity, inventory.Increase); cerr != nil {
			joined := errors.Join(err, fmt.Errorf("restock plant %s by %d: %w", plantID, quantity, cerr))
			s.logger().Error("purchase compensation failed, stock under-counted",
				zap.String("plant_id", plantID), zap.Int("quantity", quantity), zap.Error(joined))
			return orders.Order{}, joined
		}
		s.logger().Warn("order insert failed, stock restored", zap.String("plant_id", plantID), zap.Error(err))
		return orders.Order{}, err
	}
	o.ID = id
	o.Status = orders.StatusPending
	span.SetAttributes(attribute.String("order.id", id))

	s.afterWrite(ctx, plantID, orders.TopicOrderPlaced, orders.EventOrderPlaced, id, orders.OrderPlacedPayload{
		OrderID:       id,
		PlantID:       plantID,
		CustomerEmail: strings.ToLower(customer.Email),
		Quantity:      quantity,
		Price:         o.Price,
		Remaining:     remaining,
	})
	return o, nil
}

// Cancel deletes a pending or processing order and returns its quantity to
// the plant's stock.
func (s *Service) Cancel(ctx context.Context, orderID string, requester market.Identity) (err error) {
	ctx, span := s.start(ctx, "reconcile.Cancel", attribute.String("order.id", orderID))
	defer func() { finish(span, err) }()

	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if !requester.Owns(o.Customer.Email) {
		return fmt.Errorf("order %s belongs to another customer: %w", orderID, market.ErrForbidden)
	}
	if o.Status == orders.StatusDelivered {
		return fmt.Errorf("order %s is delivered: %w", orderID, market.ErrConflict)
	}

	deleted, err := s.Orders.DeleteCancellable(ctx, orderID)
	if err != nil {
		return err
	}

	restocked := true
	if _, err := s.Ledger.AdjustQuantity(ctx, deleted.PlantID, deleted.Quantity, inventory.Increase); err != nil {
		if !errors.Is(err, market.ErrNotFound) {
			cctx := context.WithoutCancel(ctx)
			if rerr := s.Orders.Restore(cctx, deleted); rerr != nil {
				joined := errors.Join(err, fmt.Errorf("restore order %s: %w", orderID, rerr))
				s.logger().Error("cancel compensation failed, order lost",
					zap.String("order_id", orderID), zap.Error(joined))
				return joined
			}
			return err
		}
		restocked = false
		s.logger().Warn("cancelled order references a missing plant, nothing restocked",
			zap.String("order_id", orderID), zap.String("plant_id", deleted.PlantID))
	}

	s.afterWrite(ctx, deleted.PlantID, orders.TopicOrderCancelled, orders.EventOrderCancelled, orderID, orders.OrderCancelledPayload{
		OrderID:       orderID,
		PlantID:       deleted.PlantID,
		CustomerEmail: deleted.Customer.Email,
		Quantity:      deleted.Quantity,
		Restocked:     restocked,
	})
	return nil
}

// AdjustInventory lets a plant's seller (or an admin) restock or correct it.
func (s *Service) AdjustInventory(ctx context.Context, requester market.Identity, productID string, delta int, dir inventory.Direction) (_ int, err error) {
	ctx, span := s.start(ctx, "reconcile.AdjustInventory",
		attribute.String("plant.id", productID), attribute.Int("delta", delta), attribute.String("direction", dir.String()))
	defer func() { finish(span, err) }()

	if delta < 1 {
		return 0, market.Invalid("delta", "must be >= 1")
	}
	p, err := s.reader().Get(ctx, productID)
	if err != nil {
		return 0, err
	}
	if !requester.Owns(p.Seller.Email) {
		return 0, fmt.Errorf("plant %s is listed by another seller: %w", productID, market.ErrForbidden)
	}
	qty, err := s.Ledger.AdjustQuantity(ctx, productID, delta, dir)
	if err != nil {
		return 0, err
	}
	s.afterWrite(ctx, productID, orders.TopicInventoryAdjusted, orders.EventInventoryAdjusted, productID, orders.InventoryAdjustedPayload{
		PlantID:   productID,
		Delta:     delta,
		Direction: dir.String(),
		Quantity:  qty,
		By:        strings.ToLower(requester.Email),
	})
	return qty, nil
}

// CreateProduct lists p with the caller as its seller.
func (s *Service) CreateProduct(ctx context.Context, seller market.Identity, p catalog.Product) (string, error) {
	p.ID = ""
	p.CreatedAt = 0
	p.Seller = market.Identity{Name: seller.Name, Email: seller.Email, Image: seller.Image}
	return s.Products.Create(ctx, p)
}

func (s *Service) GetProduct(ctx context.Context, id string) (catalog.Product, error) {
	return s.reader().Get(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context, limit int) ([]catalog.Product, error) {
	return s.Products.List(ctx, limit)
}

func (s *Service) UpsertAccount(ctx context.Context, a accounts.Account) (accounts.Account, bool, error) {
	return s.Accounts.Upsert(ctx, a)
}

// GetOrder returns an order to its customer or an admin.
func (s *Service) GetOrder(ctx context.Context, requester market.Identity, id string) (orders.Order, error) {
	o, err := s.Orders.Get(ctx, id)
	if err != nil {
		return orders.Order{}, err
	}
	if !requester.Owns(o.Customer.Email) {
		return orders.Order{}, fmt.Errorf("order %s: %w", id, market.ErrForbidden)
	}
	return o, nil
}

// EnrichedOrdersForCustomer lists a customer's orders with plant details,
// oldest first. Orders whose plant is gone stay in the list and are reported
// as warnings.
func (s *Service) EnrichedOrdersForCustomer(ctx context.Context, requester market.Identity, email string) ([]orders.EnrichedOrder, []market.InconsistencyWarning, error) {
	if strings.TrimSpace(email) == "" {
		return nil, nil, market.Invalid("email", "is required")
	}
	if !requester.Owns(email) {
		return nil, nil, fmt.Errorf("orders of %s: %w", email, market.ErrForbidden)
	}
	list, err := s.Orders.ListEnrichedByCustomer(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].CreatedAt != list[j].CreatedAt {
			return list[i].CreatedAt < list[j].CreatedAt
		}
		return list[i].ID < list[j].ID
	})

	var warnings []market.InconsistencyWarning
	for _, e := range list {
		if !e.MissingProduct {
			continue
		}
		w := market.InconsistencyWarning{OrderID: e.ID, ProductID: e.PlantID, Reason: "plant no longer exists"}
		warnings = append(warnings, w)
		s.logger().Warn("dangling order", zap.String("order_id", w.OrderID), zap.String("plant_id", w.ProductID))
	}
	return list, warnings, nil
}
