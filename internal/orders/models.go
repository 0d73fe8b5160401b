package orders

import (
	"github.com/ariefcatur/go-plant-market.git/internal/market"
	"github.com/shopspring/decimal"
)

type Order struct {
	ID          string          `json:"id"`
	Customer    market.Identity `json:"customer"`
	PlantID     string          `json:"plantId"`
	SellerEmail string          `json:"seller,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"` // total at purchase time, never re-derived
	Address     string          `json:"address"`
	Status      Status          `json:"status"`
	CreatedAt   int64           `json:"createdAt"` // unix ms
}

// EnrichedOrder joins an order with the current display attributes of its
// plant. MissingProduct is set when the plant no longer exists.
type EnrichedOrder struct {
	Order
	Name           string `json:"name"`
	Image          string `json:"image"`
	Category       string `json:"category"`
	MissingProduct bool   `json:"missingProduct,omitempty"`
}

type orderRow struct {
	ID            string          `db:"id"`
	PlantID       string          `db:"plant_id"`
	CustomerName  string          `db:"customer_name"`
	CustomerEmail string          `db:"customer_email"`
	CustomerImage string          `db:"customer_image"`
	SellerEmail   string          `db:"seller_email"`
	Quantity      int             `db:"quantity"`
	Price         decimal.Decimal `db:"price"`
	Address       string          `db:"address"`
	Status        string          `db:"status"`
	CreatedAt     int64           `db:"created_at"`
}

func (r orderRow) order() Order {
	return Order{
		ID:          r.ID,
		Customer:    market.Identity{Name: r.CustomerName, Email: r.CustomerEmail, Image: r.CustomerImage},
		PlantID:     r.PlantID,
		SellerEmail: r.SellerEmail,
		Quantity:    r.Quantity,
		Price:       r.Price,
		Address:     r.Address,
		Status:      Status(r.Status),
		CreatedAt:   r.CreatedAt,
	}
}

type enrichedRow struct {
	orderRow
	Name     *string `db:"name"`
	Image    *string `db:"image"`
	Category *string `db:"category"`
	Found    *string `db:"product_id"`
}

func (r enrichedRow) enriched() EnrichedOrder {
	e := EnrichedOrder{Order: r.order(), MissingProduct: r.Found == nil}
	if r.Name != nil {
		e.Name = *r.Name
	}
	if r.Image != nil {
		e.Image = *r.Image
	}
	if r.Category != nil {
		e.Category = *r.Category
	}
	return e
}
