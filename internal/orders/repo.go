package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/ariefcatur/go-plant-market.git/internal/market"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"strings"
	"time"
)

const orderColumns = `id, plant_id, customer_name, customer_email, customer_image, seller_email,
	quantity, price, address, status, created_at`

type Repo struct{ DB *sqlx.DB }

func NewRepo(db *sqlx.DB) *Repo { return &Repo{DB: db} }

func (o Order) validate() error {
	switch {
	case o.Quantity < 1:
		return market.Invalid("quantity", "must be >= 1")
	case strings.TrimSpace(o.PlantID) == "":
		return market.Invalid("plantId", "is required")
	case strings.TrimSpace(o.Customer.Email) == "":
		return market.Invalid("customer.email", "is required")
	case strings.TrimSpace(o.Address) == "":
		return market.Invalid("address", "is required")
	case o.Price.IsNegative():
		return market.Invalid("price", "must be >= 0")
	}
	return nil
}

// Create inserts o as a new pending order and returns its id.
func (r *Repo) Create(ctx context.Context, o Order) (string, error) {
	if err := o.validate(); err != nil {
		return "", err
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	o.Status = StatusPending
	o.CreatedAt = time.Now().UnixMilli()
	if err := r.insert(ctx, o); err != nil {
		return "", err
	}
	return o.ID, nil
}

// Restore re-inserts an order exactly as it was before a delete. It is the
// compensation step of a cancel whose restock failed.
func (r *Repo) Restore(ctx context.Context, o Order) error {
	if o.ID == "" {
		return market.Invalid("id", "is required to restore an order")
	}
	return r.insert(ctx, o)
}

func (r *Repo) insert(ctx context.Context, o Order) error {
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`
		INSERT INTO orders(`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		o.ID, o.PlantID, o.Customer.Name, strings.ToLower(o.Customer.Email), o.Customer.Image,
		strings.ToLower(o.SellerEmail), o.Quantity, o.Price, o.Address, string(o.Status), o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order %s: %w", o.ID, err)
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, id string) (Order, error) {
	var row orderRow
	err := r.DB.GetContext(ctx, &row, r.DB.Rebind(`SELECT `+orderColumns+` FROM orders WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, fmt.Errorf("order %s: %w", id, market.ErrNotFound)
	}
	if err != nil {
		return Order{}, err
	}
	return row.order(), nil
}

// Delete removes an order regardless of its status.
func (r *Repo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(`DELETE FROM orders WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete order %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("order %s: %w", id, market.ErrNotFound)
	}
	return nil
}

// DeleteCancellable deletes the order only while it is still pending or
// processing, and returns the row it removed. The status check and the delete
// are one statement, so of two concurrent cancels exactly one wins.
func (r *Repo) DeleteCancellable(ctx context.Context, id string) (Order, error) {
	var row orderRow
	err := r.DB.QueryRowxContext(ctx, r.DB.Rebind(`
		DELETE FROM orders
		WHERE id = ? AND status IN (?, ?)
		RETURNING `+orderColumns),
		id, string(StatusPending), string(StatusProcessing),
	).StructScan(&row)
	if err == nil {
		return row.order(), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Order{}, fmt.Errorf("delete order %s: %w", id, err)
	}

	cur, gerr := r.Get(ctx, id)
	if gerr != nil {
		return Order{}, gerr
	}
	return Order{}, fmt.Errorf("order %s is %s and cannot be cancelled: %w", id, cur.Status, market.ErrConflict)
}

// ListByCustomer returns every order of a customer in no particular order.
func (r *Repo) ListByCustomer(ctx context.Context, email string) ([]Order, error) {
	var rows []orderRow
	err := r.DB.SelectContext(ctx, &rows, r.DB.Rebind(`
		SELECT `+orderColumns+`
		FROM orders
		WHERE customer_email = ?`), strings.ToLower(email))
	if err != nil {
		return nil, err
	}
	out := make([]Order, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.order())
	}
	return out, nil
}

// UpdateStatus moves an order along the fulfillment lifecycle. Re-applying
// the current status is a no-op; any other disallowed move is a conflict.
func (r *Repo) UpdateStatus(ctx context.Context, id string, to Status) error {
	from := predecessors(to)
	if len(from) == 0 {
		return market.Invalid("status", fmt.Sprintf("nothing can move to %q", to))
	}
	q, args, err := sqlx.In(`UPDATE orders SET status = ? WHERE id = ? AND status IN (?)`, string(to), id, statusStrings(from))
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(q), args...)
	if err != nil {
		return fmt.Errorf("update order %s status: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}

	cur, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if cur.Status == to {
		return nil
	}
	return fmt.Errorf("order %s: %s -> %s not allowed: %w", id, cur.Status, to, market.ErrConflict)
}

func statusStrings(ss []Status) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = string(s)
	}
	return out
}
