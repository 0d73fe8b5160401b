package orders

import (
	"context"
	"strings"
)

// ListEnrichedByCustomer joins each of the customer's orders with the current
// name, image and category of its plant. Orders whose plant is gone are kept
// with MissingProduct set.
func (r *Repo) ListEnrichedByCustomer(ctx context.Context, email string) ([]EnrichedOrder, error) {
	var rows []enrichedRow
	err := r.DB.SelectContext(ctx, &rows, r.DB.Rebind(`
		SELECT o.id, o.plant_id, o.customer_name, o.customer_email, o.customer_image, o.seller_email,
		       o.quantity, o.price, o.address, o.status, o.created_at,
		       p.name, p.image, p.category, p.id AS product_id
		FROM orders o
		LEFT JOIN products p ON p.id = o.plant_id
		WHERE o.customer_email = ?
		ORDER BY o.created_at, o.id`), strings.ToLower(email))
	if err != nil {
		return nil, err
	}
	out := make([]EnrichedOrder, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.enriched())
	}
	return out, nil
}
