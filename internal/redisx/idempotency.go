package redisx

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ariefcatur/go-plant-market.git/internal/market"
	"github.com/redis/go-redis/v9"
)

var ErrInFlight = fmt.Errorf("%w: a request with this idempotency key is still in progress", market.ErrConflict)

// Idempotency remembers which order a purchase request produced, keyed by the
// client-supplied Idempotency-Key. The database stays the source of truth;
// this only prevents a retried request from buying twice.
type Idempotency struct {
	RDB redis.Cmdable
}

func purchaseKey(customerEmail, key string) string {
	return fmt.Sprintf(KeyIdemPurchase, strings.ToLower(customerEmail), key)
}

// Begin claims key for the caller. acquired=true means the caller must run the
// purchase and then call Complete or Abort. Otherwise orderID carries the
// result of the earlier request, or ErrInFlight is returned.
func (i *Idempotency) Begin(ctx context.Context, customerEmail, key string) (orderID string, acquired bool, err error) {
	k := purchaseKey(customerEmail, key)
	ok, err := i.RDB.SetNX(ctx, k, IdemInFlight, TTLInFlight).Result()
	if err != nil {
		return "", false, err
	}
	if ok {
		return "", true, nil
	}
	v, err := i.RDB.Get(ctx, k).Result()
	if errors.Is(err, redis.Nil) || v == IdemInFlight {
		return "", false, ErrInFlight
	}
	if err != nil {
		return "", false, err
	}
	return v, false, nil
}

func (i *Idempotency) Complete(ctx context.Context, customerEmail, key, orderID string) error {
	return i.RDB.Set(ctx, purchaseKey(customerEmail, key), orderID, TTLIdempotency).Err()
}

// Abort releases the claim so the client may retry after a failed purchase.
func (i *Idempotency) Abort(ctx context.Context, customerEmail, key string) error {
	return i.RDB.Del(ctx, purchaseKey(customerEmail, key)).Err()
}
