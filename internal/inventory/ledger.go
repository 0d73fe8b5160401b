package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ariefcatur/go-plant-market.git/internal/market"
	"github.com/jmoiron/sqlx"
)

// Ledger owns products.quantity. Every change is a single statement so
// concurrent purchases of the same plant never lose updates.
type Ledger struct{ DB *sqlx.DB }

func NewLedger(db *sqlx.DB) *Ledger { return &Ledger{DB: db} }

// AdjustQuantity applies quantity += delta (Increase) or quantity -= delta
// (Decrease) and returns the stored quantity afterwards.
// A decrease is guarded by quantity >= delta in the same statement: when the
// guard fails nothing is written and ErrInsufficientStock is returned.
func (l *Ledger) AdjustQuantity(ctx context.Context, productID string, delta int, dir Direction) (int, error) {
	if delta < 1 {
		return 0, market.Invalid("delta", "must be >= 1")
	}
	switch dir {
	case Increase:
		return l.increment(ctx, productID, delta)
	case Decrease:
		return l.decrement(ctx, productID, delta)
	default:
		return 0, market.Invalid("direction", "must be increase or decrease")
	}
}

func (l *Ledger) decrement(ctx context.Context, productID string, by int) (int, error) {
	var qty int
	err := l.DB.QueryRowxContext(ctx, l.DB.Rebind(`
		UPDATE products
		SET quantity = quantity - ?
		WHERE id = ? AND quantity >= ?
		RETURNING quantity`), by, productID, by).Scan(&qty)
	if errors.Is(err, sql.ErrNoRows) {
		// guard failed: tell a missing plant apart from a short one
		avail, qerr := l.Quantity(ctx, productID)
		if qerr != nil {
			return 0, qerr
		}
		return 0, fmt.Errorf("plant %s: need %d, have %d: %w", productID, by, avail, market.ErrInsufficientStock)
	}
	if err != nil {
		return 0, fmt.Errorf("decrement plant %s: %w", productID, err)
	}
	return qty, nil
}

func (l *Ledger) increment(ctx context.Context, productID string, by int) (int, error) {
	var qty int
	err := l.DB.QueryRowxContext(ctx, l.DB.Rebind(`
		UPDATE products
		SET quantity = quantity + ?
		WHERE id = ?
		RETURNING quantity`), by, productID).Scan(&qty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("plant %s: %w", productID, market.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("increment plant %s: %w", productID, err)
	}
	return qty, nil
}

// Quantity returns the current stock of a plant.
func (l *Ledger) Quantity(ctx context.Context, productID string) (int, error) {
	var qty int
	err := l.DB.GetContext(ctx, &qty, l.DB.Rebind(`SELECT quantity FROM products WHERE id = ?`), productID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("plant %s: %w", productID, market.ErrNotFound)
	}
	if err != nil {
		return 0, err
	}
	return qty, nil
}
