package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ariefcatur/go-plant-market.git/internal/market"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

const productColumns = `id, name, category, description, price, image, quantity,
	seller_name, seller_email, seller_image, created_at`

type Repo struct{ DB *sqlx.DB }

func NewRepo(db *sqlx.DB) *Repo { return &Repo{DB: db} }

// Create stores p with a fresh id. The quantity written here is the opening
// stock; every later change goes through the ledger.
func (r *Repo) Create(ctx context.Context, p Product) (string, error) {
	if err := p.Validate(); err != nil {
		return "", err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().UnixMilli()
	}
	_, err := r.DB.ExecContext(ctx, r.DB.Rebind(`
		INSERT INTO products(`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		p.ID, strings.TrimSpace(p.Name), strings.TrimSpace(p.Category), p.Description, p.Price, p.Image,
		p.Quantity, p.Seller.Name, strings.ToLower(p.Seller.Email), p.Seller.Image, p.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("insert product: %w", err)
	}
	return p.ID, nil
}

func (r *Repo) Get(ctx context.Context, id string) (Product, error) {
	var row productRow
	err := r.DB.GetContext(ctx, &row, r.DB.Rebind(`SELECT `+productColumns+` FROM products WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, fmt.Errorf("plant %s: %w", id, market.ErrNotFound)
	}
	if err != nil {
		return Product{}, err
	}
	return row.product(), nil
}

// List returns up to limit products, newest first.
func (r *Repo) List(ctx context.Context, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	var rows []productRow
	err := r.DB.SelectContext(ctx, &rows, r.DB.Rebind(`
		SELECT `+productColumns+`
		FROM products
		ORDER BY created_at DESC, id
		LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	out := make([]Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.product())
	}
	return out, nil
}
