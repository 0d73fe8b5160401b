package catalog

import (
	"strings"

	"github.com/ariefcatur/go-plant-market.git/internal/market"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Quantity    int             `json:"quantity"` // mutated only through inventory.Ledger
	Seller      market.Identity `json:"seller"`
	CreatedAt   int64           `json:"createdAt"` // unix ms
}

// Validate checks a product payload before it is stored.
func (p Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return market.Invalid("name", "is required")
	}
	if strings.TrimSpace(p.Category) == "" {
		return market.Invalid("category", "is required")
	}
	if p.Price.IsNegative() {
		return market.Invalid("price", "must be >= 0")
	}
	if p.Quantity < 0 {
		return market.Invalid("quantity", "must be >= 0")
	}
	if strings.TrimSpace(p.Seller.Email) == "" {
		return market.Invalid("seller.email", "is required")
	}
	return nil
}

type productRow struct {
	ID          string          `db:"id"`
	Name        string          `db:"name"`
	Category    string          `db:"category"`
	Description string          `db:"description"`
	Price       decimal.Decimal `db:"price"`
	Image       string          `db:"image"`
	Quantity    int             `db:"quantity"`
	SellerName  string          `db:"seller_name"`
	SellerEmail string          `db:"seller_email"`
	SellerImage string          `db:"seller_image"`
	CreatedAt   int64           `db:"created_at"`
}

func (r productRow) product() Product {
	return Product{
		ID:          r.ID,
		Name:        r.Name,
		Category:    r.Category,
		Description: r.Description,
		Price:       r.Price,
		Image:       r.Image,
		Quantity:    r.Quantity,
		Seller:      market.Identity{Name: r.SellerName, Email: r.SellerEmail, Image: r.SellerImage},
		CreatedAt:   r.CreatedAt,
	}
}
