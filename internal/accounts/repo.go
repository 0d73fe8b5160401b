package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ariefcatur/go-plant-market.git/internal/market"
	"github.com/jmoiron/sqlx"
)

type Account struct {
	Email     string      `json:"email" db:"email"`
	Name      string      `json:"name" db:"name"`
	Image     string      `json:"image" db:"image"`
	Role      market.Role `json:"role" db:"role"`
	Timestamp int64       `json:"timestamp" db:"created_at"` // unix ms of the first write
}

type Repo struct{ DB *sqlx.DB }

func NewRepo(db *sqlx.DB) *Repo { return &Repo{DB: db} }

// Upsert stores a profile the first time an email is seen and returns the
// stored record. Later calls with the same email change nothing and get the
// first record back, so the client may call this on every sign-in.
func (r *Repo) Upsert(ctx context.Context, a Account) (Account, bool, error) {
	email := strings.ToLower(strings.TrimSpace(a.Email))
	if email == "" {
		return Account{}, false, market.Invalid("email", "is required")
	}
	res, err := r.DB.ExecContext(ctx, r.DB.Rebind(`
		INSERT INTO accounts(email, name, image, role, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (email) DO NOTHING`),
		email, a.Name, a.Image, string(market.RoleCustomer), time.Now().UnixMilli(),
	)
	if err != nil {
		return Account{}, false, fmt.Errorf("insert account %s: %w", email, err)
	}
	n, _ := res.RowsAffected()

	stored, err := r.Get(ctx, email)
	if err != nil {
		return Account{}, false, err
	}
	return stored, n == 1, nil
}

func (r *Repo) Get(ctx context.Context, email string) (Account, error) {
	var a Account
	err := r.DB.GetContext(ctx, &a, r.DB.Rebind(`
		SELECT email, name, image, role, created_at FROM accounts WHERE email = ?`),
		strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, fmt.Errorf("account %s: %w", email, market.ErrNotFound)
	}
	if err != nil {
		return Account{}, err
	}
	return a, nil
}
