package orders

import (
	"encoding/json"
	"github.com/shopspring/decimal"
	"time"
)

const (
	EventOrderPlaced       = "OrderPlaced"
	EventOrderCancelled    = "OrderCancelled"
	EventInventoryAdjusted = "InventoryAdjusted"
	EventStatusChanged     = "OrderStatusChanged"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "plant-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order_id or plant_id
	Payload       json.RawMessage `json:"payload"`
}

// ---- Payload per event ----

type OrderPlacedPayload struct {
	OrderID       string          `json:"order_id"`
	PlantID       string          `json:"plant_id"`
	CustomerEmail string          `json:"customer_email"`
	Quantity      int             `json:"quantity"`
	Price         decimal.Decimal `json:"price"`
	Remaining     int             `json:"remaining"` // plant stock after the debit
}

type OrderCancelledPayload struct {
	OrderID       string `json:"order_id"`
	PlantID       string `json:"plant_id"`
	CustomerEmail string `json:"customer_email"`
	Quantity      int    `json:"quantity"`
	Restocked     bool   `json:"restocked"` // false when the plant no longer exists
}

type InventoryAdjustedPayload struct {
	PlantID   string `json:"plant_id"`
	Delta     int    `json:"delta"`
	Direction string `json:"direction"`
	Quantity  int    `json:"quantity"`
	By        string `json:"by"`
}

// StatusChangedPayload is produced by the fulfillment workflow and consumed here.
type StatusChangedPayload struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}
