package redisx

import "time"

const (
	// Idempotency purchase: idem:purchase:{customer_email}:{idempotency_key} -> order_id
	KeyIdemPurchase = "idem:purchase:%s:%s"

	// Product cache: plant:{product_id} -> product JSON
	KeyProduct = "plant:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

// Placeholder stored under an idempotency key while the first request is in flight.
const IdemInFlight = "-"

var (
	TTLIdempotency = 24 * time.Hour
	TTLInFlight    = 30 * time.Second
	TTLProduct     = 30 * time.Second
	TTLDedup       = 48 * time.Hour
)
